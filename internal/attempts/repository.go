package attempts

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"tourvisto/internal/tripform"
	"tourvisto/pkg/db"
)

// keepPerUser bounds how many attempts are retained per user.
const keepPerUser = 200

type Record struct {
	ID           string    `json:"id"`
	Country      string    `json:"country"`
	TravelStyle  string    `json:"travelStyle"`
	Interest     string    `json:"interest"`
	Budget       string    `json:"budget"`
	GroupType    string    `json:"groupType"`
	NumberOfDays int       `json:"numberOfDays"`
	Outcome      string    `json:"outcome"`
	TripID       string    `json:"tripId,omitempty"`
	Error        string    `json:"error,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Record implements tripform.Recorder.
func (r *Repository) Record(ctx context.Context, a tripform.Attempt) error {
	return db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		if err := insert(ctx, tx, a); err != nil {
			return err
		}
		if a.UserID == "" {
			return nil
		}
		return prune(ctx, tx, a.UserID)
	})
}

func insert(ctx context.Context, tx pgx.Tx, a tripform.Attempt) error {
	const q = `
INSERT INTO trip_attempts (user_id, country, travel_style, interest, budget, group_type, number_of_days, outcome, trip_id, error, created_at)
VALUES (NULLIF($1,''), $2, $3, $4, $5, $6, $7, $8, NULLIF($9,''), NULLIF($10,''), $11)
`
	at := a.At
	if at.IsZero() {
		at = time.Now()
	}
	_, err := tx.Exec(ctx, q,
		a.UserID, a.Data.Country, a.Data.TravelStyle, a.Data.Interest, a.Data.Budget, a.Data.GroupType,
		a.Data.Duration, string(a.Outcome), a.TripID, a.Error, at,
	)
	return err
}

func prune(ctx context.Context, tx pgx.Tx, userID string) error {
	const q = `
DELETE FROM trip_attempts
WHERE user_id = $1 AND id NOT IN (
  SELECT id FROM trip_attempts WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2
)
`
	_, err := tx.Exec(ctx, q, userID, keepPerUser)
	return err
}

// ListRecent returns the user's latest attempts, newest first.
func (r *Repository) ListRecent(ctx context.Context, userID string, limit int) ([]Record, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	const q = `
SELECT id, country, travel_style, interest, budget, group_type, number_of_days, outcome,
       COALESCE(trip_id,''), COALESCE(error,''), created_at
FROM trip_attempts
WHERE user_id = $1
ORDER BY created_at DESC
LIMIT $2
`
	rows, err := r.db.Query(ctx, q, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Record{}
	for rows.Next() {
		var rec Record
		if err := rows.Scan(
			&rec.ID, &rec.Country, &rec.TravelStyle, &rec.Interest, &rec.Budget, &rec.GroupType,
			&rec.NumberOfDays, &rec.Outcome, &rec.TripID, &rec.Error, &rec.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
