package analysis

import (
	"errors"
	"fmt"
)

// ErrInvalidInput marks structurally invalid input. Missing data never produces it.
var ErrInvalidInput = errors.New("invalid input")

// InputError describes which part of the input was rejected.
type InputError struct {
	Field   string
	Message string
	Cause   error
}

func (e *InputError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Field, e.Message)
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return fmt.Sprintf("%v: %s", ErrInvalidInput, msg)
}

// Is reports ErrInvalidInput so callers can match every InputError with errors.Is.
func (e *InputError) Is(target error) bool {
	return target == ErrInvalidInput
}

func (e *InputError) Unwrap() error {
	return e.Cause
}
