package attempts

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"tourvisto/internal/api"
)

// Lister is the read side of the attempt log.
type Lister interface {
	ListRecent(ctx context.Context, userID string, limit int) ([]Record, error)
}

type Handlers struct {
	Repo Lister
}

// Recent lists the signed-in user's latest submissions.
func (h Handlers) Recent(w http.ResponseWriter, r *http.Request) {
	id := api.IdentityFromContext(r.Context())
	if id == nil {
		api.WriteError(w, http.StatusUnauthorized, api.CodeUnauthorized, "sign in required")
		return
	}
	if h.Repo == nil {
		api.WriteError(w, http.StatusNotFound, api.CodeNotFound, "attempt log disabled")
		return
	}

	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			api.WriteError(w, http.StatusBadRequest, api.CodeValidation, "invalid limit")
			return
		}
		limit = n
	}

	items, err := h.Repo.ListRecent(r.Context(), id.ID, limit)
	if err != nil {
		api.WriteError(w, http.StatusInternalServerError, api.CodeInternal, "internal error")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"items": items})
}
