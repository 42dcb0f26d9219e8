package main

import (
	"encoding/json"
	"flag"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"tourvisto/internal/api"
	"tourvisto/pkg/tripapi"
)

// tripstub stands in for the trip-generation backend during local development.
func main() {
	var (
		addr   = flag.String("addr", ":3000", "listen address")
		secret = flag.String("secret", os.Getenv("TRIP_API_SIGNING_SECRET"), "shared signing secret; empty disables verification")
		fail   = flag.Bool("fail", false, "answer without an id, as the backend does when generation fails")
		delay  = flag.Duration("delay", 2*time.Second, "simulated generation time")
	)
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	s := &stub{secret: *secret, fail: *fail, delay: *delay, logger: logger, seen: map[string]string{}}

	r := chi.NewRouter()
	r.Use(api.Logging(logger))
	r.Post("/api/create-trip", s.createTrip)

	logger.Info("trip stub listening", "addr", *addr, "verify", *secret != "")
	srv := &http.Server{Addr: *addr, Handler: r, ReadHeaderTimeout: 10 * time.Second}
	if err := srv.ListenAndServe(); err != nil {
		logger.Error("serve", "error", err)
		os.Exit(1)
	}
}

type stub struct {
	secret string
	fail   bool
	delay  time.Duration
	logger *slog.Logger

	mu sync.Mutex
	// seen maps Idempotency-Key to the trip id it produced.
	seen map[string]string
}

func (s *stub) createTrip(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, api.CodeValidation, "invalid body")
		return
	}
	if s.secret != "" && !tripapi.Verify(body, strings.TrimSpace(r.Header.Get("X-Signature")), s.secret) {
		api.WriteError(w, http.StatusUnauthorized, api.CodeUnauthorized, "invalid signature")
		return
	}

	var in tripapi.CreateTripRequest
	if err := json.Unmarshal(body, &in); err != nil {
		api.WriteError(w, http.StatusBadRequest, api.CodeValidation, "invalid json")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if s.fail {
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]any{"error": "generation failed"})
		return
	}

	key := r.Header.Get("Idempotency-Key")
	s.mu.Lock()
	id, replay := s.seen[key]
	if !replay {
		id = uuid.NewString()
		if key != "" {
			s.seen[key] = id
		}
	}
	s.mu.Unlock()

	if !replay {
		time.Sleep(s.delay)
	}
	s.logger.Info("trip generated", "id", id, "country", in.Country, "days", in.NumberOfDays, "user_id", in.UserID, "replay", replay)
	_ = json.NewEncoder(w).Encode(map[string]any{"id": id})
}
