// Package commands contains the operations that change dispatch state:
// ingestion, assignment, the distributor lifecycle and outbox dispatch.
// Every state change runs inside one unit of work so that the order, its
// offer, the distributor capacity counter and the outbox rows move together.
package commands

import (
	"context"
	"time"

	"waterdist/internal/core/ports"
)

// Unit of Work interfaces provide transaction management for command handlers.
type (
	// TxManager handles database transaction lifecycle.
	TxManager interface {
		Begin(ctx context.Context) error
		Commit(ctx context.Context) error
		Rollback(ctx context.Context) error
	}

	OrderRepoFactory interface {
		OrderRepository() ports.OrderRepository
	}

	DistributorRepoFactory interface {
		DistributorRepository() ports.DistributorRepository
	}

	AssignmentRepoFactory interface {
		AssignmentRepository() ports.AssignmentRepository
	}

	OutboxRepoFactory interface {
		OutboxRepository() ports.OutboxRepository
	}

	// UoW spans every aggregate a lifecycle transition touches.
	//
	// Example:
	//   uow := factory.Create()
	//   err := uow.Begin(ctx)
	//   defer uow.Rollback(ctx)
	//
	//   o, err := uow.OrderRepository().GetForUpdate(ctx, id)
	//   // ... mutate order, offer and distributor, enqueue outbox rows
	//
	//   err = uow.Commit(ctx)
	UoW interface {
		TxManager
		OrderRepoFactory
		DistributorRepoFactory
		AssignmentRepoFactory
		OutboxRepoFactory
	}

	// UoWFactory creates new unit of work instances for cross-aggregate operations.
	UoWFactory interface {
		Create() UoW
	}

	// OutboxUoW is the narrower unit of work used by the dispatcher.
	OutboxUoW interface {
		TxManager
		OutboxRepoFactory
	}

	OutboxUoWFactory interface {
		Create() OutboxUoW
	}
)

// UoWFactoryFunc adapts a plain constructor to UoWFactory.
type UoWFactoryFunc func() UoW

func (f UoWFactoryFunc) Create() UoW { return f() }

// OutboxUoWFactoryFunc adapts a plain constructor to OutboxUoWFactory.
type OutboxUoWFactoryFunc func() OutboxUoW

func (f OutboxUoWFactoryFunc) Create() OutboxUoW { return f() }

// Clock returns the current time. Handlers default to UTC wall time.
type Clock func() time.Time

func utcNow() time.Time {
	return time.Now().UTC()
}

func clockOrDefault(c Clock) Clock {
	if c == nil {
		return utcNow
	}
	return c
}
