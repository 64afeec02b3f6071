package postgres_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	postgres_adapter "waterdist/internal/adapters/out/postgres"
	"waterdist/internal/core/domain/model/assignment"
	"waterdist/internal/core/domain/model/kernel"
	"waterdist/internal/core/ports"
	"waterdist/internal/pkg/errs"

	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/gorm"
)

// UnitOfWorkIntegrationTestSuite runs the row locking and guard behaviour
// against a real PostgreSQL server.
type UnitOfWorkIntegrationTestSuite struct {
	suite.Suite
	container *postgres.PostgresContainer
	db        *gorm.DB
	factory   ports.UnitOfWorkFactory
}

func (suite *UnitOfWorkIntegrationTestSuite) SetupSuite() {
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		if container != nil {
			_ = container.Terminate(ctx)
		}
		suite.T().Skipf("postgres container unavailable: %v", err)
	}
	suite.container = container

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	suite.Require().NoError(err)

	db, err := postgres_adapter.Open("postgres", dsn, postgres_adapter.PoolConfig{MaxOpenConns: 10}, "silent")
	suite.Require().NoError(err)
	suite.db = db

	suite.Require().NoError(postgres_adapter.Migrate(db))
	suite.factory = postgres_adapter.NewGormUnitOfWorkFactory(db)
}

func (suite *UnitOfWorkIntegrationTestSuite) SetupTest() {
	suite.Require().NoError(suite.db.Exec(
		"TRUNCATE TABLE orders, distributors, assignments, outbox_messages, invoices",
	).Error)
}

func (suite *UnitOfWorkIntegrationTestSuite) TearDownSuite() {
	if suite.container != nil {
		suite.Require().NoError(suite.container.Terminate(context.Background()))
	}
}

// Two transactions race for the last slot of one distributor. The row lock
// makes the second wait, and the capacity guard turns its write into a conflict.
func (suite *UnitOfWorkIntegrationTestSuite) TestUnitOfWork_LastSlotRace() {
	ctx := context.Background()
	d := createTestDistributor(suite.T(), 1)
	suite.Require().NoError(suite.factory.Create().DistributorRepository().Add(ctx, d))

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		conflicts int
	)

	for range 2 {
		wg.Add(1)
		go func() {
			defer wg.Done()

			uow := suite.factory.Create()
			if err := uow.Begin(ctx); err != nil {
				return
			}
			defer func() { _ = uow.Rollback(ctx) }()

			loaded, err := uow.DistributorRepository().GetForUpdate(ctx, d.ID())
			if err == nil {
				err = loaded.Reserve()
			}
			if err == nil {
				err = uow.DistributorRepository().Update(ctx, loaded)
			}
			if err == nil {
				err = uow.Commit(ctx)
			}

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, errs.ErrCommitConflict):
				conflicts++
			}
		}()
	}
	wg.Wait()

	suite.Equal(1, succeeded)
	suite.Equal(1, conflicts)

	stored, err := suite.factory.Create().DistributorRepository().Get(ctx, d.ID())
	suite.Require().NoError(err)
	suite.Equal(1, stored.CurrentCapacity())
}

func (suite *UnitOfWorkIntegrationTestSuite) TestUnitOfWork_PendingOfferUniqueIndex() {
	ctx := context.Background()
	orderID := kernel.NewUUID()
	repo := suite.factory.Create().AssignmentRepository()

	first, err := assignment.NewAssignment(kernel.NewUUID(), orderID, kernel.NewUUID(), 50, fixtureTime)
	suite.Require().NoError(err)
	second, err := assignment.NewAssignment(kernel.NewUUID(), orderID, kernel.NewUUID(), 60, fixtureTime)
	suite.Require().NoError(err)

	suite.Require().NoError(repo.Add(ctx, first))
	suite.Require().ErrorIs(repo.Add(ctx, second), errs.ErrCommitConflict)
}

func (suite *UnitOfWorkIntegrationTestSuite) TestUnitOfWork_RollbackOnPostgres() {
	ctx := context.Background()
	o := createTestOrder(suite.T())

	uow := suite.factory.Create()
	suite.Require().NoError(uow.Begin(ctx))
	suite.Require().NoError(uow.OrderRepository().Add(ctx, o))
	suite.Require().NoError(uow.Rollback(ctx))

	_, err := suite.factory.Create().OrderRepository().Get(ctx, o.ID())
	suite.Require().ErrorIs(err, errs.ErrObjectNotFound)
}

func TestUnitOfWorkIntegrationTestSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping postgres integration tests in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)
	suite.Run(t, new(UnitOfWorkIntegrationTestSuite))
}

