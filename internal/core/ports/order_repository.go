// Package ports defines the contracts between the dispatch core and its
// adapters: repositories bound to a unit of work, the distributor directory,
// the geo service and the side-effect ports drained by the outbox dispatcher.
package ports

import (
	"context"

	"waterdist/internal/core/domain/model/kernel"
	"waterdist/internal/core/domain/model/order"
)

// OrderRepository defines the persistence contract for order aggregates.
type OrderRepository interface {
	// Add persists a new order. A duplicate external ref fails.
	Add(ctx context.Context, aggregate *order.Order) error

	// Update persists changes to an existing order. The write is guarded by the
	// version the order was loaded with; a miss returns errs.CommitConflictError.
	Update(ctx context.Context, aggregate *order.Order) error

	// Get retrieves an order without locking it.
	Get(ctx context.Context, id kernel.UUID) (*order.Order, error)

	// GetForUpdate retrieves an order and locks its row until the unit of work ends.
	GetForUpdate(ctx context.Context, id kernel.UUID) (*order.Order, error)

	// GetByExternalRef finds an order by the submitting shop's reference.
	GetByExternalRef(ctx context.Context, externalRef string) (*order.Order, error)
}
