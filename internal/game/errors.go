package game

import (
	"errors"
	"fmt"
)

// StateError reports an operation that is invalid for the current lifecycle
// state (starting a game that exists, acting while paused, acting out of
// turn). It is recovered locally with a user-visible message and no state
// mutation.
type StateError struct {
	Op     string
	Reason string
}

func (e *StateError) Error() string {
	if e.Op == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Reason)
}

// NewStateError builds a StateError with a formatted reason.
func NewStateError(op, format string, args ...any) *StateError {
	return &StateError{Op: op, Reason: fmt.Sprintf(format, args...)}
}

// ValidationError reports malformed user input. Like StateError it is
// recovered locally: user-visible message, no mutation, no persistence.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// NewValidationError builds a ValidationError with a formatted reason.
func NewValidationError(format string, args ...any) *ValidationError {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// UserMessage extracts the user-visible message from an expected error.
// Unexpected errors return false and go through the top-level handler
// instead.
func UserMessage(err error) (string, bool) {
	var se *StateError
	if errors.As(err, &se) {
		return se.Reason, true
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Reason, true
	}
	return "", false
}
