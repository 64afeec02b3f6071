package errs

import (
	"errors"
	"fmt"
)

// ErrCommitConflict is the sentinel for atomic units that could not be applied
// because of a concurrent mutation or exhausted capacity. Callers may retry
// after refreshing their view of the data.
var ErrCommitConflict = errors.New("commit conflict")

// CommitConflictError identifies the record whose guard did not hold.
type CommitConflictError struct {
	Entity string
	ID     string
	Cause  error
}

// NewCommitConflictError creates a CommitConflictError.
func NewCommitConflictError(entity, id string) *CommitConflictError {
	return &CommitConflictError{
		Entity: entity,
		ID:     id,
	}
}

// NewCommitConflictErrorWithCause creates a CommitConflictError wrapping cause.
func NewCommitConflictErrorWithCause(entity, id string, cause error) *CommitConflictError {
	return &CommitConflictError{
		Entity: entity,
		ID:     id,
		Cause:  cause,
	}
}

func (e *CommitConflictError) Error() string {
	msg := fmt.Sprintf("%s: %s %s", ErrCommitConflict, e.Entity, e.ID)
	if e.Cause != nil {
		return fmt.Sprintf("%s (cause: %v)", msg, e.Cause)
	}
	return msg
}

func (e *CommitConflictError) Unwrap() error {
	return ErrCommitConflict
}
