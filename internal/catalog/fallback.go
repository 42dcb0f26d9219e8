package catalog

import (
	"fmt"
	"os"
	"strings"

	"github.com/jszwec/csvutil"
)

// fallbackRow is one line of the offline snapshot:
//
//	name,flag,lat,lng,open_street_map
type fallbackRow struct {
	Name          string   `csv:"name"`
	Flag          string   `csv:"flag"`
	Lat           *float64 `csv:"lat"`
	Lng           *float64 `csv:"lng"`
	OpenStreetMap string   `csv:"open_street_map"`
}

// ReadFallbackCSV loads a catalog snapshot used when the country source is down.
func ReadFallbackCSV(path string) (Catalog, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fallback catalog: %w", err)
	}
	return ParseFallbackCSV(b)
}

func ParseFallbackCSV(b []byte) (Catalog, error) {
	var rows []fallbackRow
	if err := csvutil.Unmarshal(b, &rows); err != nil {
		return nil, fmt.Errorf("parse fallback catalog: %w", err)
	}

	out := make(Catalog, 0, len(rows))
	for _, r := range rows {
		name := strings.TrimSpace(r.Name)
		if name == "" {
			continue
		}
		coords := []float64{}
		if r.Lat != nil && r.Lng != nil {
			coords = []float64{*r.Lat, *r.Lng}
		}
		out = append(out, Country{
			DisplayName:      r.Flag + name,
			Coordinates:      coords,
			Value:            name,
			OpenStreetMapURL: strings.TrimSpace(r.OpenStreetMap),
		})
	}
	return out, nil
}
