package tripform

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed options.yaml
var defaultOptions []byte

// OptionSet maps each selectable field to its ordered allowed values.
// It is read-only once loaded.
type OptionSet struct {
	order  []Field
	values map[Field][]string
}

type optionsDoc struct {
	Order   []string            `yaml:"order"`
	Options map[string][]string `yaml:"options"`
}

// LoadOptionSet reads the option set from path, or the built-in set when path is empty.
func LoadOptionSet(path string) (*OptionSet, error) {
	if path == "" {
		return ParseOptionSet(defaultOptions)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read trip options: %w", err)
	}
	return ParseOptionSet(b)
}

func ParseOptionSet(b []byte) (*OptionSet, error) {
	var doc optionsDoc
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("parse trip options: %w", err)
	}

	set := &OptionSet{values: make(map[Field][]string, len(doc.Options))}
	for k, v := range doc.Options {
		f, err := selectable(k)
		if err != nil {
			return nil, err
		}
		if len(v) == 0 {
			return nil, fmt.Errorf("trip options: %s has no values", k)
		}
		set.values[f] = append([]string(nil), v...)
	}
	for _, k := range doc.Order {
		f, err := selectable(k)
		if err != nil {
			return nil, err
		}
		if _, ok := set.values[f]; !ok {
			return nil, fmt.Errorf("trip options: %s is ordered but has no values", k)
		}
		set.order = append(set.order, f)
	}
	for _, f := range []Field{FieldTravelStyle, FieldInterest, FieldBudget, FieldGroupType} {
		if _, ok := set.values[f]; !ok {
			return nil, fmt.Errorf("trip options: missing %s", f)
		}
		if !containsField(set.order, f) {
			set.order = append(set.order, f)
		}
	}
	return set, nil
}

func selectable(k string) (Field, error) {
	f, err := ParseField(k)
	if err != nil || f == FieldCountry || f == FieldDuration {
		return "", fmt.Errorf("trip options: %q is not a selectable field", k)
	}
	return f, nil
}

func containsField(fields []Field, f Field) bool {
	for _, x := range fields {
		if x == f {
			return true
		}
	}
	return false
}

// Fields returns the selectable fields in render order.
func (s *OptionSet) Fields() []Field {
	return append([]Field(nil), s.order...)
}

// Values returns a copy of the allowed values for f.
func (s *OptionSet) Values(f Field) []string {
	return append([]string(nil), s.values[f]...)
}

// Filter applies Filter to the values of f.
func (s *OptionSet) Filter(f Field, query string) ([]string, error) {
	v, ok := s.values[f]
	if !ok {
		return nil, ErrUnknownField
	}
	return Filter(v, query), nil
}
