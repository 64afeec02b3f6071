package ports

import (
	"context"

	"waterdist/internal/core/domain/model/distributor"
	"waterdist/internal/core/domain/model/kernel"
)

// DistributorRepository defines the persistence contract for distributors.
// Capacity is only ever written through Update inside a lifecycle unit of work.
type DistributorRepository interface {
	Add(ctx context.Context, aggregate *distributor.Distributor) error

	// Update persists capacity and flags, guarded by version and by
	// current_capacity <= max_capacity.
	Update(ctx context.Context, aggregate *distributor.Distributor) error

	Get(ctx context.Context, id kernel.UUID) (*distributor.Distributor, error)

	GetForUpdate(ctx context.Context, id kernel.UUID) (*distributor.Distributor, error)
}

// DistributorDirectory is the read model used for candidate retrieval.
type DistributorDirectory interface {
	// ListAvailable returns active distributors with free capacity, ordered by
	// creation time and then id. That order is the selection tie-break.
	ListAvailable(ctx context.Context) ([]*distributor.Distributor, error)
}
