package errs

import (
	"errors"
	"fmt"
)

// ErrUpstreamUnavailable is the sentinel for failures of external collaborators
// such as the geo service, the mail relay or the invoice store.
var ErrUpstreamUnavailable = errors.New("upstream unavailable")

// UpstreamUnavailableError names the collaborator that failed.
type UpstreamUnavailableError struct {
	Service string
	Cause   error
}

// NewUpstreamUnavailableError creates an UpstreamUnavailableError.
func NewUpstreamUnavailableError(service string) *UpstreamUnavailableError {
	return &UpstreamUnavailableError{Service: service}
}

// NewUpstreamUnavailableErrorWithCause creates an UpstreamUnavailableError wrapping cause.
func NewUpstreamUnavailableErrorWithCause(service string, cause error) *UpstreamUnavailableError {
	return &UpstreamUnavailableError{
		Service: service,
		Cause:   cause,
	}
}

func (e *UpstreamUnavailableError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", ErrUpstreamUnavailable, e.Service, e.Cause)
	}
	return fmt.Sprintf("%s: %s", ErrUpstreamUnavailable, e.Service)
}

func (e *UpstreamUnavailableError) Unwrap() error {
	return ErrUpstreamUnavailable
}
