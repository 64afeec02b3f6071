package order

import (
	"fmt"

	"waterdist/internal/pkg/errs"
)

// Status is the lifecycle state of an order.
//
// State transitions:
//
//	New ──> Assigned ──> Accepted ──> PickedUp ──> Delivered
//	 ^         │
//	 └─────────┘ (rejection returns the order to the queue)
//
//	New | Assigned | Accepted | PickedUp ──> Cancelled
//
// Delivered and Cancelled are terminal. Status is persisted as its string value.
type Status string

const (
	// New orders wait for a distributor. They hold no capacity reservation.
	New Status = "new"

	// Assigned orders carry a pending offer to one distributor, whose capacity
	// was reserved when the offer was committed.
	Assigned Status = "assigned"

	// Accepted orders were confirmed by the assigned distributor.
	Accepted Status = "accepted"

	// PickedUp orders are on their way to the customer.
	PickedUp Status = "picked_up"

	// Delivered is terminal. The reservation is released on entry.
	Delivered Status = "delivered"

	// Cancelled is terminal. Any reservation is released on entry.
	Cancelled Status = "cancelled"
)

func validStatuses() map[Status]struct{} {
	return map[Status]struct{}{
		New:       {},
		Assigned:  {},
		Accepted:  {},
		PickedUp:  {},
		Delivered: {},
		Cancelled: {},
	}
}

// ParseStatus converts a persisted or user supplied value into a Status.
func ParseStatus(s string) (Status, error) {
	status := Status(s)
	if err := status.Validate(); err != nil {
		return "", err
	}
	return status, nil
}

// Validate checks that the status is one of the known lifecycle states.
func (s Status) Validate() error {
	if _, ok := validStatuses()[s]; !ok {
		return errs.NewValueIsInvalidErrorWithCause("status is invalid", fmt.Errorf("%q is not a valid status", string(s)))
	}
	return nil
}

// String returns the persisted form of the status.
func (s Status) String() string {
	return string(s)
}

// IsReserving reports whether an order in this status holds one unit of its
// distributor's capacity.
func (s Status) IsReserving() bool {
	return s == Assigned || s == Accepted || s == PickedUp
}

// IsTerminal reports whether no further transitions are possible.
func (s Status) IsTerminal() bool {
	return s == Delivered || s == Cancelled
}

// IsAdvanceTarget reports whether s may be requested through Advance.
func (s Status) IsAdvanceTarget() bool {
	return s == PickedUp || s == Delivered || s == Cancelled
}

// Assign transitions New to Assigned.
func (s Status) Assign() (Status, error) {
	if s != New {
		return "", transitionError(s, Assigned)
	}
	return Assigned, nil
}

// Accept transitions Assigned to Accepted.
func (s Status) Accept() (Status, error) {
	if s != Assigned {
		return "", transitionError(s, Accepted)
	}
	return Accepted, nil
}

// Requeue transitions Assigned back to New after the offer was rejected.
func (s Status) Requeue() (Status, error) {
	if s != Assigned {
		return "", transitionError(s, New)
	}
	return New, nil
}

// Advance validates a distributor driven progression.
//
// Legal moves:
//   - Accepted -> PickedUp
//   - PickedUp -> Delivered
//   - any non-terminal status -> Cancelled
//
// Requesting the status the order already has is reported as unchanged
// rather than as an error, so replays of the same request are harmless.
func (s Status) Advance(target Status) (next Status, changed bool, err error) {
	if !target.IsAdvanceTarget() {
		return "", false, transitionError(s, target)
	}

	if s == target {
		return s, false, nil
	}

	switch {
	case target == PickedUp && s == Accepted,
		target == Delivered && s == PickedUp,
		target == Cancelled && !s.IsTerminal():
		return target, true, nil
	default:
		return "", false, transitionError(s, target)
	}
}

func transitionError(from, to Status) error {
	return errs.NewInvalidTransitionError("order", string(from), string(to))
}
