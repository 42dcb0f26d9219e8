package catalog

import (
	"strings"

	"tourvisto/pkg/restcountries"
)

// Country is one selectable entry of the catalog. Immutable once loaded.
type Country struct {
	// DisplayName is flag + common name, e.g. "🇯🇵Japan".
	DisplayName string `json:"name"`
	// Coordinates is [lat, lng] or empty.
	Coordinates []float64 `json:"coordinates"`
	// Value is the canonical identifier (common name).
	Value            string `json:"value"`
	OpenStreetMapURL string `json:"openStreetMap,omitempty"`
}

// Catalog is the normalized country list in source order.
type Catalog []Country

// Normalize maps source records into catalog entries, keeping source order.
// Records without a common name cannot be selected and are skipped.
func Normalize(records []restcountries.Record) Catalog {
	out := make(Catalog, 0, len(records))
	for _, r := range records {
		name := strings.TrimSpace(r.Name.Common)
		if name == "" {
			continue
		}
		out = append(out, Country{
			DisplayName:      r.Flag + name,
			Coordinates:      coordinates(r.LatLng),
			Value:            name,
			OpenStreetMapURL: r.OpenStreetMapURL(),
		})
	}
	return out
}

func coordinates(latlng []float64) []float64 {
	if len(latlng) != 2 {
		return []float64{}
	}
	return []float64{latlng[0], latlng[1]}
}

// Find looks a country up by canonical value.
func (c Catalog) Find(value string) (Country, bool) {
	for _, country := range c {
		if country.Value == value {
			return country, true
		}
	}
	return Country{}, false
}

// Default is the initial country selection: the first entry's value, or "".
func (c Catalog) Default() string {
	if len(c) == 0 {
		return ""
	}
	return c[0].Value
}

// Filter returns the entries whose display name contains query,
// case-insensitively, in catalog order. The receiver is not modified.
func (c Catalog) Filter(query string) Catalog {
	q := strings.ToLower(query)
	out := make(Catalog, 0, len(c))
	for _, country := range c {
		if strings.Contains(strings.ToLower(country.DisplayName), q) {
			out = append(out, country)
		}
	}
	return out
}

// Option is a dropdown entry.
type Option struct {
	Text  string `json:"text"`
	Value string `json:"value"`
}

func (c Catalog) Options() []Option {
	out := make([]Option, 0, len(c))
	for _, country := range c {
		out = append(out, Option{Text: country.DisplayName, Value: country.Value})
	}
	return out
}
