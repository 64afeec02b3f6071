// Package notification implements ports.NotificationPort over e-mail or the
// application log.
package notification

import (
	"context"

	"waterdist/internal/core/domain/model/distributor"
	"waterdist/internal/core/domain/model/kernel"
	"waterdist/internal/core/domain/model/order"
	"waterdist/internal/core/ports"
)

// Lookup loads the aggregates a notification is rendered from.
type Lookup interface {
	Order(ctx context.Context, id kernel.UUID) (*order.Order, error)
	Distributor(ctx context.Context, id kernel.UUID) (*distributor.Distributor, error)
}

// UnitOfWorkLookup reads through repositories outside any transaction.
type UnitOfWorkLookup struct {
	factory ports.UnitOfWorkFactory
}

func NewUnitOfWorkLookup(factory ports.UnitOfWorkFactory) *UnitOfWorkLookup {
	return &UnitOfWorkLookup{factory: factory}
}

func (l *UnitOfWorkLookup) Order(ctx context.Context, id kernel.UUID) (*order.Order, error) {
	return l.factory.Create().OrderRepository().Get(ctx, id)
}

func (l *UnitOfWorkLookup) Distributor(ctx context.Context, id kernel.UUID) (*distributor.Distributor, error) {
	return l.factory.Create().DistributorRepository().Get(ctx, id)
}
