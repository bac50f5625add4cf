package core

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidDay            = errors.New("invalid day")
	ErrInvalidAmount         = errors.New("invalid amount")
	ErrFutureDate            = errors.New("date is in the future")
	ErrOverAllocation        = errors.New("allocations exceed income")
	ErrInvalidRange          = errors.New("invalid range")
	ErrInvalidGoal           = errors.New("invalid goal")
	ErrCorruptPersistedState = errors.New("corrupt persisted state")
	ErrEmptyCategory         = errors.New("empty category")
	ErrExpenseNotFound       = errors.New("expense not found")
	ErrGoalNotFound          = errors.New("goal not found")
)

// ValidationError is a structured rejection: the reason is one of the
// sentinel errors above, Field and Value name the offending input.
type ValidationError struct {
	Reason error
	Field  string
	Value  any
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason.Error()
	}
	return fmt.Sprintf("%s: %s=%v", e.Reason, e.Field, e.Value)
}

func (e *ValidationError) Unwrap() error {
	return e.Reason
}

// Reject builds a ValidationError.
func Reject(reason error, field string, value any) error {
	return &ValidationError{Reason: reason, Field: field, Value: value}
}

// IsValidation reports whether err is a caller-facing validation rejection
// rather than a persistence failure.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
