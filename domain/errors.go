package domain

import "errors"

var (
	ErrTypeValidation  = errors.New("type validation failed")
	ErrRangeValidation = errors.New("range validation failed")

	// ErrInvalidInput is reported by the console when a field cannot be parsed.
	// It does not say which field failed.
	ErrInvalidInput = errors.New("invalid input data")
)

// ValidationError carries the human readable message shown to the user and
// the kind of check that failed.
type ValidationError struct {
	Kind    error
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return e.Kind
}

func NewTypeError(msg string) *ValidationError {
	return &ValidationError{Kind: ErrTypeValidation, Message: msg}
}

func NewRangeError(msg string) *ValidationError {
	return &ValidationError{Kind: ErrRangeValidation, Message: msg}
}

// IsValidation reports whether err is a type or range validation failure.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
