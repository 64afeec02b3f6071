package commands_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"waterdist/internal/adapters/out/postgres"
	"waterdist/internal/adapters/out/postgres/dbtest"
	"waterdist/internal/adapters/out/postgres/distributorrepo"
	"waterdist/internal/core/application/access"
	"waterdist/internal/core/application/usecases/commands"
	"waterdist/internal/core/domain/model/assignment"
	"waterdist/internal/core/domain/model/distributor"
	"waterdist/internal/core/domain/model/kernel"
	"waterdist/internal/core/domain/model/order"
	"waterdist/internal/core/domain/model/outbox"
	"waterdist/internal/pkg/errs"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// stubGeo answers from fixed tables. Unknown inputs are upstream failures.
type stubGeo struct {
	addresses map[string]kernel.Location
	// distanceKm is keyed by origin so every distributor has one distance.
	distanceKm map[string]float64
}

func (g *stubGeo) Geocode(_ context.Context, address string) (kernel.Location, error) {
	loc, ok := g.addresses[address]
	if !ok {
		return kernel.Location{}, errs.NewUpstreamUnavailableError("geocoder")
	}
	return loc, nil
}

func (g *stubGeo) Distance(_ context.Context, origin, _ kernel.Location) (kernel.Route, error) {
	km, ok := g.distanceKm[origin.String()]
	if !ok {
		return kernel.Route{}, errs.NewUpstreamUnavailableError("distance")
	}
	return kernel.NewRoute(int(km*1000), int(km*90))
}

type recordingSink struct {
	mu        sync.Mutex
	fail      bool
	delivered []outbox.Kind
}

func (s *recordingSink) Deliver(_ context.Context, m *outbox.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.fail {
		return errs.NewUpstreamUnavailableError("smtp")
	}
	s.delivered = append(s.delivered, m.Kind())
	return nil
}

const knownAddress = "7 Bree St, Cape Town"

type LifecycleSuite struct {
	suite.Suite

	store   *postgres.GormUnitOfWorkFactory
	uows    commands.UoWFactory
	geo     *stubGeo
	engine  *commands.AssignmentEngine
	policy  access.Policy
	ingest  *commands.IngestOrderCommandHandler
	accept  *commands.AcceptOrderCommandHandler
	reject  *commands.RejectOrderCommandHandler
	advance *commands.AdvanceOrderCommandHandler
	assign  *commands.AssignOrderCommandHandler
}

func TestLifecycleSuite(t *testing.T) {
	suite.Run(t, new(LifecycleSuite))
}

func (s *LifecycleSuite) SetupTest() {
	db := dbtest.OpenSQLite(s.T())
	s.store = postgres.NewGormUnitOfWorkFactory(db)
	s.uows = commands.UoWFactoryFunc(func() commands.UoW { return s.store.Create() })
	s.geo = &stubGeo{
		addresses:  map[string]kernel.Location{knownAddress: mustLocation(s.T(), -33.92, 18.42)},
		distanceKm: map[string]float64{},
	}
	s.policy = access.RoleBased{}

	log := nopLogger()
	s.engine = commands.NewAssignmentEngine(s.uows, distributorrepo.NewGormDistributorDirectory(db), s.geo,
		commands.EngineConfig{GeoTimeout: time.Second}, log)
	s.ingest = commands.NewIngestOrderCommandHandler(s.uows, s.geo, s.engine, time.Second, log)
	s.accept = commands.NewAcceptOrderCommandHandler(s.uows, s.policy, log)
	s.reject = commands.NewRejectOrderCommandHandler(s.uows, s.policy, log)
	s.advance = commands.NewAdvanceOrderCommandHandler(s.uows, s.policy, log)
	s.assign = commands.NewAssignOrderCommandHandler(s.uows, s.geo, s.engine, s.policy, time.Second, log)
}

// seedDistributor stores a distributor km away from every destination.
func (s *LifecycleSuite) seedDistributor(lat, lng float64, current, maxCapacity int, km float64) *distributor.Distributor {
	d := distributorAt(s.T(), lat, lng, current, maxCapacity)
	require.NoError(s.T(), s.store.Create().DistributorRepository().Add(s.T().Context(), d))
	s.geo.distanceKm[d.Location().String()] = km
	return d
}

func (s *LifecycleSuite) ingestOrder(ref, address string) commands.IngestResult {
	cmd, err := commands.NewIngestOrderCommand(ref,
		order.NewCustomer("Lerato Khumalo", "", "lerato@example.com"), address, kernel.ZeroMoney())
	s.Require().NoError(err)

	result, err := s.ingest.Handle(s.T().Context(), cmd)
	s.Require().NoError(err)
	return result
}

func (s *LifecycleSuite) reloadOrder(id kernel.UUID) *order.Order {
	o, err := s.store.Create().OrderRepository().Get(s.T().Context(), id)
	s.Require().NoError(err)
	return o
}

func (s *LifecycleSuite) capacityOf(id kernel.UUID) int {
	d, err := s.store.Create().DistributorRepository().Get(s.T().Context(), id)
	s.Require().NoError(err)
	return d.CurrentCapacity()
}

func (s *LifecycleSuite) offers(orderID kernel.UUID) []*assignment.Assignment {
	list, err := s.store.Create().AssignmentRepository().ListByOrder(s.T().Context(), orderID)
	s.Require().NoError(err)
	return list
}

func (s *LifecycleSuite) queuedKinds() []outbox.Kind {
	due, err := s.store.Create().OutboxRepository().ClaimDue(s.T().Context(), time.Now().UTC().Add(time.Hour), 100)
	s.Require().NoError(err)

	kinds := make([]outbox.Kind, 0, len(due))
	for _, m := range due {
		kinds = append(kinds, m.Kind())
	}
	return kinds
}

func (s *LifecycleSuite) advanceTo(caller access.Caller, orderID kernel.UUID, target order.Status) (commands.AdvanceResult, error) {
	cmd, err := commands.NewAdvanceOrderCommand(caller, orderID, target, "")
	s.Require().NoError(err)
	return s.advance.Handle(s.T().Context(), cmd)
}

func (s *LifecycleSuite) TestIngestAssignsNearestAndRejectReleases() {
	ctx := s.T().Context()
	near := s.seedDistributor(-33.93, 18.43, 3, 10, 5)
	s.seedDistributor(-33.5, 18.9, 3, 10, 50)

	result := s.ingestOrder("woo-2001", knownAddress)
	s.Require().True(result.Assigned)
	s.Require().NotNil(result.DistributorID)
	s.Equal(near.ID(), *result.DistributorID)
	s.Equal(4, s.capacityOf(near.ID()))
	s.Equal(order.Assigned, s.reloadOrder(result.OrderID).Status())
	s.Equal([]outbox.Kind{outbox.KindAssignmentNotice}, s.queuedKinds())

	cmd, err := commands.NewRejectOrderCommand(distributorCaller(near), result.OrderID, "")
	s.Require().NoError(err)
	s.Require().NoError(s.reject.Handle(ctx, cmd))

	o := s.reloadOrder(result.OrderID)
	s.Equal(order.New, o.Status())
	s.Nil(o.Distributor())
	s.Equal(3, s.capacityOf(near.ID()))

	offers := s.offers(result.OrderID)
	s.Require().Len(offers, 1)
	s.Equal(assignment.Rejected, offers[0].Status())
	s.Equal(assignment.DefaultRejectionReason, offers[0].RejectionReason())
}

func (s *LifecycleSuite) TestDeliveryReleasesCapacityExactlyOnce() {
	ctx := s.T().Context()
	d := s.seedDistributor(-33.93, 18.43, 0, 2, 5)
	result := s.ingestOrder("woo-2002", knownAddress)
	s.Require().True(result.Assigned)
	s.Equal(1, s.capacityOf(d.ID()))

	caller := distributorCaller(d)
	acceptCmd, err := commands.NewAcceptOrderCommand(caller, result.OrderID)
	s.Require().NoError(err)
	s.Require().NoError(s.accept.Handle(ctx, acceptCmd))

	_, err = s.advanceTo(caller, result.OrderID, order.PickedUp)
	s.Require().NoError(err)
	s.Equal(1, s.capacityOf(d.ID()))

	delivered, err := s.advanceTo(caller, result.OrderID, order.Delivered)
	s.Require().NoError(err)
	s.True(delivered.Changed)
	s.Equal(0, s.capacityOf(d.ID()))

	replay, err := s.advanceTo(caller, result.OrderID, order.Delivered)
	s.Require().NoError(err)
	s.False(replay.Changed)
	s.Equal(0, s.capacityOf(d.ID()))

	o := s.reloadOrder(result.OrderID)
	s.Equal(order.Delivered, o.Status())
	s.NotNil(o.DeliveredAt())
	s.ElementsMatch([]outbox.Kind{
		outbox.KindAssignmentNotice,
		outbox.KindStatusNotice,
		outbox.KindStatusNotice,
		outbox.KindInvoice,
	}, s.queuedKinds())
}

func (s *LifecycleSuite) TestNewToDeliveredIsInvalid() {
	result := s.ingestOrder("woo-2003", knownAddress)
	s.Require().False(result.Assigned)

	_, err := s.advanceTo(access.System(), result.OrderID, order.Delivered)

	s.Require().ErrorIs(err, errs.ErrInvalidTransition)
	s.Equal(order.New, s.reloadOrder(result.OrderID).Status())
	s.Empty(s.queuedKinds())
}

func (s *LifecycleSuite) TestCancelAssignedOrderReleasesAndClosesOffer() {
	d := s.seedDistributor(-33.93, 18.43, 0, 3, 5)
	result := s.ingestOrder("woo-2004", knownAddress)
	s.Require().True(result.Assigned)

	advanced, err := s.advanceTo(access.System(), result.OrderID, order.Cancelled)
	s.Require().NoError(err)
	s.Equal(order.Assigned, advanced.From)

	s.Equal(0, s.capacityOf(d.ID()))
	offers := s.offers(result.OrderID)
	s.Require().Len(offers, 1)
	s.Equal(assignment.Rejected, offers[0].Status())
	s.Equal(commands.CancellationReason, offers[0].RejectionReason())
}

func (s *LifecycleSuite) TestConcurrentAcceptsExactlyOneWins() {
	ctx := s.T().Context()
	d := s.seedDistributor(-33.93, 18.43, 0, 3, 5)
	result := s.ingestOrder("woo-2005", knownAddress)
	s.Require().True(result.Assigned)

	cmd, err := commands.NewAcceptOrderCommand(distributorCaller(d), result.OrderID)
	s.Require().NoError(err)

	const attempts = 4
	errCh := make(chan error, attempts)
	var wg sync.WaitGroup
	for range attempts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errCh <- s.accept.Handle(ctx, cmd)
		}()
	}
	wg.Wait()
	close(errCh)

	succeeded := 0
	for err := range errCh {
		if err == nil {
			succeeded++
			continue
		}
		s.ErrorIs(err, errs.ErrInvalidTransition)
	}
	s.Equal(1, succeeded)
	s.Equal(1, s.capacityOf(d.ID()))
	s.Equal(order.Accepted, s.reloadOrder(result.OrderID).Status())
}

func (s *LifecycleSuite) TestLastSlotGoesToExactlyOneOrder() {
	ctx := s.T().Context()
	d := s.seedDistributor(-33.93, 18.43, 0, 1, 5)

	loc := mustLocation(s.T(), -33.92, 18.42)
	first := newTestOrder(s.T(), &loc)
	second := newTestOrder(s.T(), &loc)
	s.Require().NoError(s.store.Create().OrderRepository().Add(ctx, first))
	s.Require().NoError(s.store.Create().OrderRepository().Add(ctx, second))

	errCh := make(chan error, 2)
	var wg sync.WaitGroup
	for _, o := range []*order.Order{first, second} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.engine.CommitAssignment(ctx, o.ID(), d.ID(), 70)
			errCh <- err
		}()
	}
	wg.Wait()
	close(errCh)

	succeeded := 0
	for err := range errCh {
		if err == nil {
			succeeded++
			continue
		}
		s.ErrorIs(err, errs.ErrCommitConflict)
	}
	s.Equal(1, succeeded)
	s.Equal(1, s.capacityOf(d.ID()))
}

func (s *LifecycleSuite) TestIngestIsIdempotentOnExternalRef() {
	s.seedDistributor(-33.93, 18.43, 0, 3, 5)

	first := s.ingestOrder("woo-2006", knownAddress)
	second := s.ingestOrder("woo-2006", knownAddress)

	s.False(first.Existing)
	s.True(second.Existing)
	s.Equal(first.OrderID, second.OrderID)
	s.Equal(first.DistributorID, second.DistributorID)
	s.Len(s.offers(first.OrderID), 1)
}

func (s *LifecycleSuite) TestGeocodeFailureLeavesOrderNewUntilReassigned() {
	ctx := s.T().Context()
	result := s.ingestOrder("woo-2007", "somewhere unknown")

	s.False(result.Located)
	o := s.reloadOrder(result.OrderID)
	s.Equal(order.New, o.Status())
	s.Nil(o.Location())

	cmd, err := commands.NewAssignOrderCommand(access.System(), result.OrderID)
	s.Require().NoError(err)
	_, err = s.assign.Handle(ctx, cmd)
	s.Require().ErrorIs(err, errs.ErrUpstreamUnavailable)

	s.geo.addresses["somewhere unknown"] = mustLocation(s.T(), -33.91, 18.41)
	d := s.seedDistributor(-33.93, 18.43, 0, 3, 5)

	offer, err := s.assign.Handle(ctx, cmd)
	s.Require().NoError(err)
	s.Equal(d.ID(), offer.DistributorID())

	o = s.reloadOrder(result.OrderID)
	s.Equal(order.Assigned, o.Status())
	s.NotNil(o.Location())
	s.Equal(1, s.capacityOf(d.ID()))
}

func (s *LifecycleSuite) TestReassignRequiresNewOrder() {
	s.seedDistributor(-33.93, 18.43, 0, 3, 5)
	result := s.ingestOrder("woo-2008", knownAddress)
	s.Require().True(result.Assigned)

	cmd, err := commands.NewAssignOrderCommand(access.System(), result.OrderID)
	s.Require().NoError(err)
	_, err = s.assign.Handle(s.T().Context(), cmd)

	s.Require().ErrorIs(err, errs.ErrInvalidTransition)
}

func (s *LifecycleSuite) TestNoCandidateLeavesOrderNew() {
	s.seedDistributor(-33.93, 18.43, 2, 2, 5)

	result := s.ingestOrder("woo-2009", knownAddress)

	s.True(result.Located)
	s.False(result.Assigned)
	s.Equal(order.New, s.reloadOrder(result.OrderID).Status())
	s.Empty(s.queuedKinds())
}

func (s *LifecycleSuite) TestOutboxRetriesUntilDelivered() {
	ctx := s.T().Context()
	s.seedDistributor(-33.93, 18.43, 0, 3, 5)
	s.Require().True(s.ingestOrder("woo-2010", knownAddress).Assigned)

	now := time.Now().UTC().Add(time.Second)
	sink := &recordingSink{fail: true}
	outboxUoWs := commands.OutboxUoWFactoryFunc(func() commands.OutboxUoW { return s.store.Create() })
	dispatcher := commands.NewDispatchOutboxCommandHandler(outboxUoWs, sink, commands.DispatchConfig{
		Lease: time.Minute,
		Retry: outbox.RetryPolicy{BaseDelay: 10 * time.Second, MaxDelay: time.Minute, MaxAttempts: 3},
		Clock: func() time.Time { return now },
	}, nopLogger())
	cmd, err := commands.NewDispatchOutboxCommand(10)
	s.Require().NoError(err)

	result, err := dispatcher.Handle(ctx, cmd)
	s.Require().NoError(err)
	s.Equal(commands.DispatchResult{Claimed: 1, Retried: 1}, result)

	result, err = dispatcher.Handle(ctx, cmd)
	s.Require().NoError(err)
	s.Zero(result.Claimed, "message is backing off")

	sink.fail = false
	now = now.Add(11 * time.Second)
	result, err = dispatcher.Handle(ctx, cmd)
	s.Require().NoError(err)
	s.Equal(commands.DispatchResult{Claimed: 1, Sent: 1}, result)
	s.Equal([]outbox.Kind{outbox.KindAssignmentNotice}, sink.delivered)
	s.Empty(s.queuedKinds())
}

func (s *LifecycleSuite) TestRequestInvoiceOnlyForDeliveredOrders() {
	ctx := s.T().Context()
	d := s.seedDistributor(-33.93, 18.43, 0, 3, 5)
	result := s.ingestOrder("woo-2011", knownAddress)
	s.Require().True(result.Assigned)

	handler := commands.NewRequestInvoiceCommandHandler(s.uows, s.policy, nopLogger())
	cmd, err := commands.NewRequestInvoiceCommand(distributorCaller(d), result.OrderID)
	s.Require().NoError(err)

	s.Require().ErrorIs(handler.Handle(ctx, cmd), errs.ErrInvalidTransition)

	stranger, err := commands.NewRequestInvoiceCommand(distributorCaller(distributorAt(s.T(), -33.1, 18.1, 0, 1)), result.OrderID)
	s.Require().NoError(err)
	s.Require().ErrorIs(handler.Handle(ctx, stranger), errs.ErrObjectNotFound)

	acceptCmd, err := commands.NewAcceptOrderCommand(distributorCaller(d), result.OrderID)
	s.Require().NoError(err)
	s.Require().NoError(s.accept.Handle(ctx, acceptCmd))
	for _, target := range []order.Status{order.PickedUp, order.Delivered} {
		_, err = s.advanceTo(distributorCaller(d), result.OrderID, target)
		s.Require().NoError(err)
	}

	s.Require().NoError(handler.Handle(ctx, cmd))

	invoices := 0
	for _, kind := range s.queuedKinds() {
		if kind == outbox.KindInvoice {
			invoices++
		}
	}
	s.Equal(2, invoices, "one from delivery, one requested")
}
