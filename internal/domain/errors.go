package domain

import "errors"

var (
	// ErrQuizNotFound indicates the quiz document could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrForbidden is returned when a user tries to edit or delete a quiz
	// they did not create.
	ErrForbidden = errors.New("only the quiz creator may do this")
)

// ValidationError rejects malformed input (rating out of range, unknown game
// kind, empty genre) before any mutation happens.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
