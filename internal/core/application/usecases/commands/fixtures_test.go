package commands_test

import (
	"testing"
	"time"

	"waterdist/internal/core/application/access"
	"waterdist/internal/core/domain/model/assignment"
	"waterdist/internal/core/domain/model/distributor"
	"waterdist/internal/core/domain/model/kernel"
	"waterdist/internal/core/domain/model/order"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var fixtureTime = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

func nopLogger() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}

func mustLocation(t *testing.T, lat, lng float64) kernel.Location {
	t.Helper()

	loc, err := kernel.NewLocation(lat, lng)
	require.NoError(t, err)
	return loc
}

func mustRoute(t *testing.T, km float64) kernel.Route {
	t.Helper()

	route, err := kernel.NewRoute(int(km*1000), int(km*90))
	require.NoError(t, err)
	return route
}

func newTestOrder(t *testing.T, location *kernel.Location) *order.Order {
	t.Helper()

	total, err := kernel.MoneyFromString("149.90")
	require.NoError(t, err)
	o, err := order.NewOrder(kernel.NewUUID(), "woo-"+kernel.NewUUID().String(),
		order.NewCustomer("Thandi Mokoena", "+27 82 000 0000", "thandi@example.com"),
		"12 Main Rd, Cape Town", location, total, fixtureTime)
	require.NoError(t, err)
	return o
}

func newTestDistributor(t *testing.T, current, maxCapacity int) *distributor.Distributor {
	t.Helper()

	d, err := distributor.RestoreDistributor(distributor.Snapshot{
		ID:              kernel.NewUUID(),
		Name:            "Blue Drop",
		Email:           "ops@bluedrop.example",
		Location:        mustLocation(t, -33.95, 18.45),
		CurrentCapacity: current,
		MaxCapacity:     maxCapacity,
		Active:          true,
		CreatedAt:       fixtureTime,
	})
	require.NoError(t, err)
	return d
}

// assignedOrder returns an order offered to d together with its pending offer.
func assignedOrder(t *testing.T, d *distributor.Distributor) (*order.Order, *assignment.Assignment) {
	t.Helper()

	loc := mustLocation(t, -33.9, 18.4)
	o := newTestOrder(t, &loc)
	require.NoError(t, o.Assign(d.ID(), fixtureTime))
	offer, err := assignment.NewAssignment(kernel.NewUUID(), o.ID(), d.ID(), 90, fixtureTime)
	require.NoError(t, err)
	return o, offer
}

func distributorCaller(d *distributor.Distributor) access.Caller {
	id := d.ID()
	return access.Caller{Subject: "distributor:" + id.String(), DistributorID: &id}
}
