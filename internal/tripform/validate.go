package tripform

const (
	MinDuration = 1
	MaxDuration = 10
)

// Validate checks completeness first, then the duration range.
func Validate(d TripFormData) error {
	if d.Country == "" || d.TravelStyle == "" || d.Interest == "" ||
		d.Budget == "" || d.GroupType == "" || d.Duration == 0 {
		return ErrIncomplete
	}
	if d.Duration < MinDuration || d.Duration > MaxDuration {
		return ErrDurationRange
	}
	return nil
}
