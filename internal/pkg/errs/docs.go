// Package errs provides the typed errors shared by the dispatch service.
//
// Validation errors:
//   - ValueIsRequiredError: a required value is missing
//   - ValueIsInvalidError: a value fails validation
//   - ValueIsOutOfRangeError: a value is outside its bounds
//
// Domain taxonomy surfaced to callers:
//   - ObjectNotFoundError: an order or distributor is absent or not visible to the caller
//   - InvalidTransitionError: a state machine precondition does not hold
//   - CommitConflictError: an atomic unit lost a race or hit exhausted capacity (retryable)
//   - UpstreamUnavailableError: geo, mail or invoice collaborators failed (never fatal to a transition)
//
// Every type pairs a sentinel (ErrXxx) with a struct carrying details,
// constructors with and without a cause, and Unwrap returning the sentinel so
// callers classify with errors.Is.
package errs
