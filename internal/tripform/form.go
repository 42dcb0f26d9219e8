package tripform

import (
	"errors"
	"strconv"
	"strings"
	"unicode"
)

type Field string

const (
	FieldCountry     Field = "country"
	FieldTravelStyle Field = "travelStyle"
	FieldInterest    Field = "interest"
	FieldBudget      Field = "budget"
	FieldGroupType   Field = "groupType"
	FieldDuration    Field = "duration"
)

// Fields lists every settable key of TripFormData.
var Fields = []Field{FieldCountry, FieldTravelStyle, FieldInterest, FieldBudget, FieldGroupType, FieldDuration}

var ErrUnknownField = errors.New("unknown form field")

func ParseField(s string) (Field, error) {
	for _, f := range Fields {
		if string(f) == s {
			return f, nil
		}
	}
	return "", ErrUnknownField
}

// TripFormData is the current selection of the create-trip form.
type TripFormData struct {
	Country     string `json:"country"`
	TravelStyle string `json:"travelStyle"`
	Interest    string `json:"interest"`
	Budget      string `json:"budget"`
	GroupType   string `json:"groupType"`
	Duration    int    `json:"duration"`
}

// Store holds the form state. Mutations are not validated; see Validate.
type Store struct {
	data TripFormData
}

func NewStore(defaultCountry string) *Store {
	return &Store{data: TripFormData{Country: defaultCountry}}
}

func (s *Store) Data() TripFormData {
	return s.data
}

// SetField replaces exactly one attribute. A duration that is not a whole
// number is stored as 0 so that validation reports the form as incomplete.
func (s *Store) SetField(key Field, value string) error {
	switch key {
	case FieldCountry:
		s.data.Country = value
	case FieldTravelStyle:
		s.data.TravelStyle = value
	case FieldInterest:
		s.data.Interest = value
	case FieldBudget:
		s.data.Budget = value
	case FieldGroupType:
		s.data.GroupType = value
	case FieldDuration:
		s.data.Duration = parseDuration(value)
	default:
		return ErrUnknownField
	}
	return nil
}

func parseDuration(v string) int {
	v = strings.TrimSpace(v)
	if n, err := strconv.Atoi(v); err == nil {
		return n
	}
	// Number inputs may submit "5.0".
	if f, err := strconv.ParseFloat(v, 64); err == nil && f == float64(int(f)) {
		return int(f)
	}
	return 0
}

// Value returns the string form of one attribute, for re-rendering the form.
func (d TripFormData) Value(key Field) string {
	switch key {
	case FieldCountry:
		return d.Country
	case FieldTravelStyle:
		return d.TravelStyle
	case FieldInterest:
		return d.Interest
	case FieldBudget:
		return d.Budget
	case FieldGroupType:
		return d.GroupType
	case FieldDuration:
		if d.Duration == 0 {
			return ""
		}
		return strconv.Itoa(d.Duration)
	}
	return ""
}

// FormatKey turns a field key into a label: "travelStyle" -> "Travel Style".
func FormatKey(key Field) string {
	var b strings.Builder
	for i, r := range string(key) {
		switch {
		case i == 0:
			b.WriteRune(unicode.ToUpper(r))
		case unicode.IsUpper(r):
			b.WriteByte(' ')
			b.WriteRune(r)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
