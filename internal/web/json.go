package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"

	"tourvisto/internal/api"
	"tourvisto/internal/catalog"
	"tourvisto/internal/tripform"
)

func writeItems(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"items": v})
}

// FieldOptions filters the allowed values of one combo-box field by ?q=.
func (h Handlers) FieldOptions(w http.ResponseWriter, r *http.Request) {
	f, err := tripform.ParseField(chi.URLParam(r, "field"))
	if err != nil {
		api.WriteError(w, http.StatusNotFound, api.CodeNotFound, "unknown field")
		return
	}
	values, err := h.Options.Filter(f, r.URL.Query().Get("q"))
	if err != nil {
		api.WriteError(w, http.StatusNotFound, api.CodeNotFound, "unknown field")
		return
	}

	items := make([]catalog.Option, 0, len(values))
	for _, v := range values {
		items = append(items, catalog.Option{Text: v, Value: v})
	}
	writeItems(w, items)
}

// Countries filters the catalog by ?q= against the display name.
func (h Handlers) Countries(w http.ResponseWriter, r *http.Request) {
	res := h.loadCatalog(r.Context())
	if res.State != catalog.StateReady {
		api.WriteError(w, http.StatusServiceUnavailable, api.CodeCatalogUnavailable, msgCatalogError)
		return
	}
	writeItems(w, res.Countries.Filter(r.URL.Query().Get("q")).Options())
}

// MapOverlay returns the highlight for ?country=, defaulting to the first country.
func (h Handlers) MapOverlay(w http.ResponseWriter, r *http.Request) {
	res := h.loadCatalog(r.Context())
	country := r.URL.Query().Get("country")
	if country == "" {
		country = res.Countries.Default()
	}
	writeItems(w, tripform.Overlay(country, res.Countries))
}

// WorldMap serves the GeoJSON shapes the overlay is drawn on.
func (h Handlers) WorldMap(w http.ResponseWriter, r *http.Request) {
	if h.MapShapesPath == "" {
		api.WriteError(w, http.StatusNotFound, api.CodeNotFound, "map shapes not configured")
		return
	}
	if _, err := os.Stat(h.MapShapesPath); errors.Is(err, os.ErrNotExist) {
		h.Logger.Error("map shapes missing", "path", h.MapShapesPath)
		api.WriteError(w, http.StatusNotFound, api.CodeNotFound, "map shapes not found")
		return
	}
	w.Header().Set("Content-Type", "application/geo+json")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	http.ServeFile(w, r, h.MapShapesPath)
}
