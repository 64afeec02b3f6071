package ports

import (
	"context"

	"waterdist/internal/core/domain/model/assignment"
	"waterdist/internal/core/domain/model/kernel"
)

// AssignmentRepository persists offers. Rows are never deleted.
type AssignmentRepository interface {
	// Add inserts a pending offer. A second pending offer for the same order
	// violates a unique index and returns errs.CommitConflictError.
	Add(ctx context.Context, aggregate *assignment.Assignment) error

	Update(ctx context.Context, aggregate *assignment.Assignment) error

	// GetPendingForUpdate locks and returns the order's pending offer, or
	// errs.ObjectNotFoundError when there is none.
	GetPendingForUpdate(ctx context.Context, orderID kernel.UUID) (*assignment.Assignment, error)

	// ListByOrder returns every offer made for the order, oldest first.
	ListByOrder(ctx context.Context, orderID kernel.UUID) ([]*assignment.Assignment, error)
}
