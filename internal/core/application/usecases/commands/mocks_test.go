package commands_test

import (
	"context"
	"time"

	"waterdist/internal/core/application/usecases/commands"
	"waterdist/internal/core/domain/model/assignment"
	"waterdist/internal/core/domain/model/distributor"
	"waterdist/internal/core/domain/model/kernel"
	"waterdist/internal/core/domain/model/order"
	"waterdist/internal/core/domain/model/outbox"
	"waterdist/internal/core/ports"

	"github.com/stretchr/testify/mock"
)

type MockOrderRepository struct{ mock.Mock }

func (m *MockOrderRepository) Add(ctx context.Context, o *order.Order) error {
	return m.Called(ctx, o).Error(0)
}

func (m *MockOrderRepository) Update(ctx context.Context, o *order.Order) error {
	return m.Called(ctx, o).Error(0)
}

func (m *MockOrderRepository) Get(ctx context.Context, id kernel.UUID) (*order.Order, error) {
	args := m.Called(ctx, id)
	o, _ := args.Get(0).(*order.Order)
	return o, args.Error(1)
}

func (m *MockOrderRepository) GetForUpdate(ctx context.Context, id kernel.UUID) (*order.Order, error) {
	args := m.Called(ctx, id)
	o, _ := args.Get(0).(*order.Order)
	return o, args.Error(1)
}

func (m *MockOrderRepository) GetByExternalRef(ctx context.Context, ref string) (*order.Order, error) {
	args := m.Called(ctx, ref)
	o, _ := args.Get(0).(*order.Order)
	return o, args.Error(1)
}

type MockDistributorRepository struct{ mock.Mock }

func (m *MockDistributorRepository) Add(ctx context.Context, d *distributor.Distributor) error {
	return m.Called(ctx, d).Error(0)
}

func (m *MockDistributorRepository) Update(ctx context.Context, d *distributor.Distributor) error {
	return m.Called(ctx, d).Error(0)
}

func (m *MockDistributorRepository) Get(ctx context.Context, id kernel.UUID) (*distributor.Distributor, error) {
	args := m.Called(ctx, id)
	d, _ := args.Get(0).(*distributor.Distributor)
	return d, args.Error(1)
}

func (m *MockDistributorRepository) GetForUpdate(ctx context.Context, id kernel.UUID) (*distributor.Distributor, error) {
	args := m.Called(ctx, id)
	d, _ := args.Get(0).(*distributor.Distributor)
	return d, args.Error(1)
}

type MockAssignmentRepository struct{ mock.Mock }

func (m *MockAssignmentRepository) Add(ctx context.Context, a *assignment.Assignment) error {
	return m.Called(ctx, a).Error(0)
}

func (m *MockAssignmentRepository) Update(ctx context.Context, a *assignment.Assignment) error {
	return m.Called(ctx, a).Error(0)
}

func (m *MockAssignmentRepository) GetPendingForUpdate(ctx context.Context, orderID kernel.UUID) (*assignment.Assignment, error) {
	args := m.Called(ctx, orderID)
	a, _ := args.Get(0).(*assignment.Assignment)
	return a, args.Error(1)
}

func (m *MockAssignmentRepository) ListByOrder(ctx context.Context, orderID kernel.UUID) ([]*assignment.Assignment, error) {
	args := m.Called(ctx, orderID)
	list, _ := args.Get(0).([]*assignment.Assignment)
	return list, args.Error(1)
}

type MockOutboxRepository struct{ mock.Mock }

func (m *MockOutboxRepository) Add(ctx context.Context, msg *outbox.Message) error {
	return m.Called(ctx, msg).Error(0)
}

func (m *MockOutboxRepository) ClaimDue(ctx context.Context, now time.Time, limit int) ([]*outbox.Message, error) {
	args := m.Called(ctx, now, limit)
	list, _ := args.Get(0).([]*outbox.Message)
	return list, args.Error(1)
}

func (m *MockOutboxRepository) Update(ctx context.Context, msg *outbox.Message) error {
	return m.Called(ctx, msg).Error(0)
}

// MockUoW hands out fixed repositories; tests assert on the repositories and
// on the transaction calls.
type MockUoW struct {
	mock.Mock

	orders       ports.OrderRepository
	distributors ports.DistributorRepository
	assignments  ports.AssignmentRepository
	outbox       ports.OutboxRepository
}

func (m *MockUoW) Begin(ctx context.Context) error    { return m.Called(ctx).Error(0) }
func (m *MockUoW) Commit(ctx context.Context) error   { return m.Called(ctx).Error(0) }
func (m *MockUoW) Rollback(ctx context.Context) error { return m.Called(ctx).Error(0) }

func (m *MockUoW) OrderRepository() ports.OrderRepository             { return m.orders }
func (m *MockUoW) DistributorRepository() ports.DistributorRepository { return m.distributors }
func (m *MockUoW) AssignmentRepository() ports.AssignmentRepository   { return m.assignments }
func (m *MockUoW) OutboxRepository() ports.OutboxRepository           { return m.outbox }

type MockUoWFactory struct{ mock.Mock }

func (m *MockUoWFactory) Create() commands.UoW {
	return m.Called().Get(0).(commands.UoW)
}

type MockOutboxUoWFactory struct{ mock.Mock }

func (m *MockOutboxUoWFactory) Create() commands.OutboxUoW {
	return m.Called().Get(0).(commands.OutboxUoW)
}

type MockGeoService struct{ mock.Mock }

func (m *MockGeoService) Geocode(ctx context.Context, address string) (kernel.Location, error) {
	args := m.Called(ctx, address)
	loc, _ := args.Get(0).(kernel.Location)
	return loc, args.Error(1)
}

func (m *MockGeoService) Distance(ctx context.Context, origin, destination kernel.Location) (kernel.Route, error) {
	args := m.Called(ctx, origin, destination)
	route, _ := args.Get(0).(kernel.Route)
	return route, args.Error(1)
}

type MockAssigner struct{ mock.Mock }

func (m *MockAssigner) Assign(ctx context.Context, orderID kernel.UUID, location kernel.Location) (*assignment.Assignment, error) {
	args := m.Called(ctx, orderID, location)
	a, _ := args.Get(0).(*assignment.Assignment)
	return a, args.Error(1)
}

type MockSink struct{ mock.Mock }

func (m *MockSink) Deliver(ctx context.Context, msg *outbox.Message) error {
	return m.Called(ctx, msg).Error(0)
}

type MockDirectory struct{ mock.Mock }

func (m *MockDirectory) ListAvailable(ctx context.Context) ([]*distributor.Distributor, error) {
	args := m.Called(ctx)
	list, _ := args.Get(0).([]*distributor.Distributor)
	return list, args.Error(1)
}
