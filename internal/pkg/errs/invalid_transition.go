package errs

import (
	"errors"
	"fmt"
)

// ErrInvalidTransition is the sentinel for state machine preconditions that do not hold.
var ErrInvalidTransition = errors.New("invalid transition")

// InvalidTransitionError records the entity and the rejected from/to states.
type InvalidTransitionError struct {
	Entity string
	From   string
	To     string
	Cause  error
}

// NewInvalidTransitionError creates an InvalidTransitionError.
func NewInvalidTransitionError(entity, from, to string) *InvalidTransitionError {
	return &InvalidTransitionError{
		Entity: entity,
		From:   from,
		To:     to,
	}
}

// NewInvalidTransitionErrorWithCause creates an InvalidTransitionError wrapping cause.
func NewInvalidTransitionErrorWithCause(entity, from, to string, cause error) *InvalidTransitionError {
	return &InvalidTransitionError{
		Entity: entity,
		From:   from,
		To:     to,
		Cause:  cause,
	}
}

func (e *InvalidTransitionError) Error() string {
	msg := fmt.Sprintf("%s: %s from %s to %s", ErrInvalidTransition, e.Entity, e.From, e.To)
	if e.Cause != nil {
		return fmt.Sprintf("%s (cause: %v)", msg, e.Cause)
	}
	return msg
}

func (e *InvalidTransitionError) Unwrap() error {
	return ErrInvalidTransition
}
