// Package assignment models offers of an order to a distributor.
//
// An order accumulates one Assignment per reassignment cycle. At most one of
// them is Pending at a time; accepted and rejected rows are kept for audit.
package assignment

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"waterdist/internal/core/domain/model/kernel"
	"waterdist/internal/pkg/errs"
)

// Status is the resolution state of an offer.
type Status string

const (
	Pending  Status = "pending"
	Accepted Status = "accepted"
	Rejected Status = "rejected"
)

// DefaultRejectionReason is recorded when a distributor gives no reason.
const DefaultRejectionReason = "No reason provided"

// ErrAssignmentIsNotConstructed is returned for zero-value assignments.
var ErrAssignmentIsNotConstructed = errors.New("Assignment must be created via NewAssignment constructor")

// Validate checks the status is known.
func (s Status) Validate() error {
	switch s {
	case Pending, Accepted, Rejected:
		return nil
	default:
		return errs.NewValueIsInvalidErrorWithCause("assignment status", fmt.Errorf("%q is not a valid status", string(s)))
	}
}

// Assignment is a single offer of an order to a distributor with the score
// that won the selection.
type Assignment struct {
	id              kernel.UUID
	orderID         kernel.UUID
	distributorID   kernel.UUID
	score           float64
	status          Status
	offeredAt       time.Time
	acceptedAt      *time.Time
	rejectedAt      *time.Time
	rejectionReason string

	isConstructed bool
}

// NewAssignment creates a pending offer.
func NewAssignment(id, orderID, distributorID kernel.UUID, score float64, now time.Time) (*Assignment, error) {
	if err := errors.Join(id.Validate(), orderID.Validate(), distributorID.Validate()); err != nil {
		return nil, err
	}

	return &Assignment{
		id:            id,
		orderID:       orderID,
		distributorID: distributorID,
		score:         score,
		status:        Pending,
		offeredAt:     now,
		isConstructed: true,
	}, nil
}

// Snapshot carries persisted assignment state.
type Snapshot struct {
	ID              kernel.UUID
	OrderID         kernel.UUID
	DistributorID   kernel.UUID
	Score           float64
	Status          Status
	OfferedAt       time.Time
	AcceptedAt      *time.Time
	RejectedAt      *time.Time
	RejectionReason string
}

// RestoreAssignment rebuilds an assignment from storage.
func RestoreAssignment(s Snapshot) (*Assignment, error) {
	if err := errors.Join(s.ID.Validate(), s.OrderID.Validate(), s.DistributorID.Validate(), s.Status.Validate()); err != nil {
		return nil, err
	}

	return &Assignment{
		id:              s.ID,
		orderID:         s.OrderID,
		distributorID:   s.DistributorID,
		score:           s.Score,
		status:          s.Status,
		offeredAt:       s.OfferedAt,
		acceptedAt:      s.AcceptedAt,
		rejectedAt:      s.RejectedAt,
		rejectionReason: s.RejectionReason,
		isConstructed:   true,
	}, nil
}

// Validate ensures the assignment was built by a constructor.
func (a *Assignment) Validate() error {
	if a == nil || !a.isConstructed {
		return ErrAssignmentIsNotConstructed
	}
	return nil
}

func (a *Assignment) ID() kernel.UUID            { return a.id }
func (a *Assignment) OrderID() kernel.UUID       { return a.orderID }
func (a *Assignment) DistributorID() kernel.UUID { return a.distributorID }
func (a *Assignment) Score() float64             { return a.score }
func (a *Assignment) Status() Status             { return a.status }
func (a *Assignment) OfferedAt() time.Time       { return a.offeredAt }
func (a *Assignment) AcceptedAt() *time.Time     { return a.acceptedAt }
func (a *Assignment) RejectedAt() *time.Time     { return a.rejectedAt }
func (a *Assignment) RejectionReason() string    { return a.rejectionReason }

// Accept resolves a pending offer as accepted.
func (a *Assignment) Accept(now time.Time) error {
	if a.status != Pending {
		return errs.NewInvalidTransitionError("assignment", string(a.status), string(Accepted))
	}
	a.status = Accepted
	a.acceptedAt = &now
	return nil
}

// Reject resolves a pending offer as rejected. An empty reason is replaced by
// DefaultRejectionReason.
func (a *Assignment) Reject(reason string, now time.Time) error {
	if a.status != Pending {
		return errs.NewInvalidTransitionError("assignment", string(a.status), string(Rejected))
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = DefaultRejectionReason
	}
	a.status = Rejected
	a.rejectedAt = &now
	a.rejectionReason = reason
	return nil
}
