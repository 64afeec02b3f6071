package queries

import (
	"errors"

	"waterdist/internal/core/domain/model/kernel"
	"waterdist/internal/pkg/guard"
)

var ErrListDistributorsQueryIsNotConstructed = errors.New(
	"ListDistributorsQuery must be created via NewListDistributorsQuery constructor",
)

// ListDistributorsQuery lists every distributor with its capacity counter.
type ListDistributorsQuery struct {
	guard guard.ConstructorGuard
}

func NewListDistributorsQuery() ListDistributorsQuery {
	return ListDistributorsQuery{guard: guard.NewConstructorGuard()}
}

func (q ListDistributorsQuery) Validate() error {
	return q.guard.Validate(ErrListDistributorsQueryIsNotConstructed)
}

type ListDistributorsQueryResponse struct {
	ID              kernel.UUID
	Name            string
	CurrentCapacity int
	MaxCapacity     int
	Active          bool
}
