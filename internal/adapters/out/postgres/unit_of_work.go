// Package postgres wires the gorm repositories into a unit of work.
//
// A GormUnitOfWork wraps one database transaction. Repositories obtained from
// it after Begin share that transaction, so the order, its offer, the
// distributor capacity counter and the outbox rows of one lifecycle step are
// committed or rolled back together:
//
//	uow := factory.Create()
//	if err := uow.Begin(ctx); err != nil {
//	    return err
//	}
//	defer func() { _ = uow.Rollback(ctx) }()
//
//	o, err := uow.OrderRepository().GetForUpdate(ctx, orderID)
//	...
//	return uow.Commit(ctx)
//
// Rollback after a successful Commit returns gorm.ErrInvalidTransaction and is
// safe to ignore, which is what makes the deferred rollback idiom work.
//
// Each unit of work must be used from a single goroutine.
package postgres

import (
	"context"
	"fmt"
	"strings"

	"waterdist/internal/adapters/out/postgres/assignmentrepo"
	"waterdist/internal/adapters/out/postgres/distributorrepo"
	"waterdist/internal/adapters/out/postgres/orderrepo"
	"waterdist/internal/adapters/out/postgres/outboxrepo"
	"waterdist/internal/core/domain/model/kernel"
	"waterdist/internal/core/ports"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// trackedAggregate is an aggregate written during the unit of work.
type trackedAggregate struct {
	ID        kernel.UUID
	Aggregate any
}

// GormUnitOfWorkFactory creates UnitOfWork instances using GORM database connections.
type GormUnitOfWorkFactory struct {
	db  *gorm.DB
	log *zap.SugaredLogger
}

// NewGormUnitOfWorkFactory creates a factory for GORM-based unit of work instances.
func NewGormUnitOfWorkFactory(db *gorm.DB) *GormUnitOfWorkFactory {
	return &GormUnitOfWorkFactory{db: db, log: zap.NewNop().Sugar()}
}

// WithLogger makes committed units of work log the aggregates they wrote.
func (f *GormUnitOfWorkFactory) WithLogger(log *zap.SugaredLogger) *GormUnitOfWorkFactory {
	f.log = log.With("component", "unit_of_work")
	return f
}

// Create produces a fresh unit of work with its own transaction state.
func (f *GormUnitOfWorkFactory) Create() ports.UnitOfWork {
	return &GormUnitOfWork{
		db:                f.db,
		log:               f.log,
		trackedAggregates: make([]trackedAggregate, 0),
	}
}

// GormUnitOfWork coordinates one database transaction across repositories.
type GormUnitOfWork struct {
	db                *gorm.DB
	tx                *gorm.DB
	log               *zap.SugaredLogger
	trackedAggregates []trackedAggregate
}

// Begin starts the transaction. Calling it twice does not nest.
func (uow *GormUnitOfWork) Begin(ctx context.Context) error {
	if uow.tx != nil {
		return nil
	}

	uow.tx = uow.db.WithContext(ctx).Begin()
	if uow.tx.Error != nil {
		err := uow.tx.Error
		uow.tx = nil
		return err
	}

	return nil
}

// Commit finalizes the transaction and logs the aggregates written in it. It
// fails with gorm.ErrInvalidTransaction when no transaction is open.
func (uow *GormUnitOfWork) Commit(_ context.Context) error {
	if uow.tx == nil {
		return gorm.ErrInvalidTransaction
	}

	err := uow.tx.Commit().Error
	uow.tx = nil
	if err == nil && len(uow.trackedAggregates) > 0 {
		uow.log.Debugw("unit_of_work_committed", "aggregates", uow.writtenAggregates())
	}
	uow.trackedAggregates = uow.trackedAggregates[:0]
	return err
}

// Rollback discards the transaction. It fails with gorm.ErrInvalidTransaction
// when no transaction is open.
func (uow *GormUnitOfWork) Rollback(_ context.Context) error {
	if uow.tx == nil {
		return gorm.ErrInvalidTransaction
	}

	err := uow.tx.Rollback().Error
	uow.tx = nil
	uow.trackedAggregates = uow.trackedAggregates[:0]
	return err
}

func (uow *GormUnitOfWork) OrderRepository() ports.OrderRepository {
	return orderrepo.NewGormOrderRepository(uow.conn(), uow)
}

func (uow *GormUnitOfWork) DistributorRepository() ports.DistributorRepository {
	return distributorrepo.NewGormDistributorRepository(uow.conn(), uow)
}

func (uow *GormUnitOfWork) AssignmentRepository() ports.AssignmentRepository {
	return assignmentrepo.NewGormAssignmentRepository(uow.conn(), uow)
}

func (uow *GormUnitOfWork) OutboxRepository() ports.OutboxRepository {
	return outboxrepo.NewGormOutboxRepository(uow.conn())
}

// TrackAggregate registers an aggregate written within this unit of work.
func (uow *GormUnitOfWork) TrackAggregate(id kernel.UUID, aggregate any) {
	uow.trackedAggregates = append(uow.trackedAggregates, trackedAggregate{
		ID:        id,
		Aggregate: aggregate,
	})
}

// writtenAggregates lists the tracked writes as "<type>:<id>".
func (uow *GormUnitOfWork) writtenAggregates() []string {
	written := make([]string, 0, len(uow.trackedAggregates))
	for _, a := range uow.trackedAggregates {
		kind := strings.TrimPrefix(fmt.Sprintf("%T", a.Aggregate), "*")
		written = append(written, kind+":"+a.ID.String())
	}
	return written
}

func (uow *GormUnitOfWork) conn() *gorm.DB {
	if uow.tx != nil {
		return uow.tx
	}
	return uow.db
}
