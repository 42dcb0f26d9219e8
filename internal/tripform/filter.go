package tripform

import "strings"

// Filter returns the options containing query (case-insensitive) in their
// original order. options is never modified.
func Filter(options []string, query string) []string {
	q := strings.ToLower(query)
	out := make([]string, 0, len(options))
	for _, o := range options {
		if strings.Contains(strings.ToLower(o), q) {
			out = append(out, o)
		}
	}
	return out
}
