package tripform

import "errors"

// ValidationError is an incomplete or out-of-range form. Its message is shown as is.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

var (
	ErrIncomplete    = &ValidationError{Message: "Please fill in all fields."}
	ErrDurationRange = &ValidationError{Message: "Duration must be between 1 and 10 days."}

	ErrNotAuthenticated = errors.New("not authenticated")
	ErrNoTripID         = errors.New("create-trip response has no id")
	ErrSubmitInProgress = errors.New("submission already in progress")
)

const (
	msgNotAuthenticated = "Please sign in to create a trip."
	msgInProgress       = "A trip is already being generated."
	msgCreateFailed     = "An error occurred while creating the trip."
)

// UserMessage is the single line shown to the user for err.
func UserMessage(err error) string {
	var ve *ValidationError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &ve):
		return ve.Message
	case errors.Is(err, ErrNotAuthenticated):
		return msgNotAuthenticated
	case errors.Is(err, ErrSubmitInProgress):
		return msgInProgress
	default:
		return msgCreateFailed
	}
}
