package tripform

import "tourvisto/internal/catalog"

const HighlightColor = "#EA382E"

// MapOverlay is the single highlighted region on the map.
type MapOverlay struct {
	Country     string    `json:"country"`
	Color       string    `json:"color"`
	Coordinates []float64 `json:"coordinates"`
}

// Overlay derives the highlight for the selected country. An unknown
// selection renders no highlight: Coordinates is empty, never nil.
func Overlay(selected string, countries catalog.Catalog) []MapOverlay {
	coords := []float64{}
	if c, ok := countries.Find(selected); ok && len(c.Coordinates) > 0 {
		coords = append(coords, c.Coordinates...)
	}
	return []MapOverlay{{
		Country:     selected,
		Color:       HighlightColor,
		Coordinates: coords,
	}}
}
