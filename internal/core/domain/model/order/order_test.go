package order_test

import (
	"testing"
	"time"

	"waterdist/internal/core/domain/model/kernel"
	"waterdist/internal/core/domain/model/order"
	"waterdist/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

func newTestOrder(t *testing.T) *order.Order {
	t.Helper()

	loc, err := kernel.NewLocation(-33.9249, 18.4241)
	require.NoError(t, err)
	total, err := kernel.MoneyFromString("149.90")
	require.NoError(t, err)

	o, err := order.NewOrder(
		kernel.NewUUID(),
		"woo-1042",
		order.NewCustomer("Thandi Mokoena", "+27820000000", "thandi@example.com"),
		"12 Main Rd, Cape Town, 8001, South Africa",
		&loc,
		total,
		testNow,
	)
	require.NoError(t, err)
	return o
}

func TestNewOrder(t *testing.T) {
	t.Run("creates new order without distributor", func(t *testing.T) {
		o := newTestOrder(t)

		require.NoError(t, o.Validate())
		assert.Equal(t, order.New, o.Status())
		assert.Nil(t, o.Distributor())
		assert.Equal(t, "woo-1042", o.ExternalRef())
		assert.Equal(t, "149.90", o.Total().String())
		assert.Equal(t, "Thandi Mokoena", o.Customer().Name())
		require.NotNil(t, o.Location())
		assert.Equal(t, testNow, o.CreatedAt())
	})

	t.Run("accepts missing location", func(t *testing.T) {
		o, err := order.NewOrder(kernel.NewUUID(), "woo-1", order.Customer{}, "somewhere", nil, kernel.ZeroMoney(), testNow)

		require.NoError(t, err)
		assert.Nil(t, o.Location())
	})

	t.Run("joins validation errors", func(t *testing.T) {
		var badID kernel.UUID

		o, err := order.NewOrder(badID, " ", order.Customer{}, "", nil, kernel.Money{}, testNow)

		require.Error(t, err)
		assert.Nil(t, o)
		assert.Contains(t, err.Error(), "UUID must be created")
		assert.Contains(t, err.Error(), "external ref")
		assert.Contains(t, err.Error(), "address")
		assert.Contains(t, err.Error(), "money must be created")
	})
}

func TestOrder_Validate(t *testing.T) {
	var nilOrder *order.Order
	require.ErrorIs(t, nilOrder.Validate(), order.ErrOrderIsNotConstructed)
	require.ErrorIs(t, (&order.Order{}).Validate(), order.ErrOrderIsNotConstructed)
}

func TestOrder_AssignAcceptDeliver(t *testing.T) {
	o := newTestOrder(t)
	distributorID := kernel.NewUUID()
	later := testNow.Add(time.Hour)

	require.NoError(t, o.Assign(distributorID, testNow))
	assert.Equal(t, order.Assigned, o.Status())
	assert.True(t, o.IsAssignedTo(distributorID))

	require.NoError(t, o.Accept(testNow))
	assert.Equal(t, order.Accepted, o.Status())

	progress, err := o.Advance(order.PickedUp, "", testNow)
	require.NoError(t, err)
	assert.True(t, progress.Changed)
	assert.Nil(t, progress.ReleasedDistributor, "picking up keeps the reservation")

	progress, err = o.Advance(order.Delivered, " https://proof.example/1.jpg ", later)
	require.NoError(t, err)
	assert.True(t, progress.Changed)
	assert.Equal(t, order.PickedUp, progress.From)
	require.NotNil(t, progress.ReleasedDistributor)
	assert.True(t, progress.ReleasedDistributor.IsEqual(distributorID))
	assert.Equal(t, "https://proof.example/1.jpg", o.ProofOfDeliveryURL())
	require.NotNil(t, o.DeliveredAt())
	assert.Equal(t, later, *o.DeliveredAt())
	assert.True(t, o.IsAssignedTo(distributorID), "delivered orders keep the last distributor")
}

func TestOrder_RepeatedDeliveryIsNoop(t *testing.T) {
	o := newTestOrder(t)
	require.NoError(t, o.Assign(kernel.NewUUID(), testNow))
	require.NoError(t, o.Accept(testNow))
	_, err := o.Advance(order.PickedUp, "", testNow)
	require.NoError(t, err)
	_, err = o.Advance(order.Delivered, "https://proof.example/a.jpg", testNow)
	require.NoError(t, err)

	progress, err := o.Advance(order.Delivered, "https://proof.example/b.jpg", testNow.Add(time.Hour))

	require.NoError(t, err)
	assert.False(t, progress.Changed)
	assert.Nil(t, progress.ReleasedDistributor)
	assert.Equal(t, "https://proof.example/a.jpg", o.ProofOfDeliveryURL())
	assert.Equal(t, testNow, *o.DeliveredAt())
}

func TestOrder_Requeue(t *testing.T) {
	o := newTestOrder(t)
	distributorID := kernel.NewUUID()
	require.NoError(t, o.Assign(distributorID, testNow))

	released, err := o.Requeue(testNow)

	require.NoError(t, err)
	assert.True(t, released.IsEqual(distributorID))
	assert.Equal(t, order.New, o.Status())
	assert.Nil(t, o.Distributor())

	_, err = o.Requeue(testNow)
	require.ErrorIs(t, err, errs.ErrInvalidTransition)
}

func TestOrder_NewToDeliveredIsRejected(t *testing.T) {
	o := newTestOrder(t)

	_, err := o.Advance(order.Delivered, "https://proof.example/x.jpg", testNow.Add(time.Hour))

	require.ErrorIs(t, err, errs.ErrInvalidTransition)
	assert.Equal(t, order.New, o.Status())
	assert.Empty(t, o.ProofOfDeliveryURL())
	assert.Nil(t, o.DeliveredAt())
	assert.Equal(t, testNow, o.UpdatedAt())
}

func TestOrder_CancelUnassignedReleasesNothing(t *testing.T) {
	o := newTestOrder(t)

	progress, err := o.Advance(order.Cancelled, "", testNow)

	require.NoError(t, err)
	assert.True(t, progress.Changed)
	assert.Nil(t, progress.ReleasedDistributor)
	assert.Equal(t, order.Cancelled, o.Status())
}

func TestOrder_Locate(t *testing.T) {
	o, err := order.NewOrder(kernel.NewUUID(), "woo-7", order.Customer{}, "somewhere", nil, kernel.ZeroMoney(), testNow)
	require.NoError(t, err)
	loc, _ := kernel.NewLocation(1, 2)

	require.NoError(t, o.Locate(loc, testNow))
	require.NotNil(t, o.Location())

	require.NoError(t, o.Assign(kernel.NewUUID(), testNow))
	require.ErrorIs(t, o.Locate(loc, testNow), errs.ErrInvalidTransition)
}

func TestRestoreOrder(t *testing.T) {
	distributorID := kernel.NewUUID()
	base := order.Snapshot{
		ID:          kernel.NewUUID(),
		ExternalRef: "woo-9",
		Address:     "somewhere",
		Total:       kernel.ZeroMoney(),
		CreatedAt:   testNow,
		UpdatedAt:   testNow,
		Version:     4,
	}

	t.Run("assigned with distributor", func(t *testing.T) {
		s := base
		s.Status = order.Assigned
		s.DistributorID = &distributorID

		o, err := order.RestoreOrder(s)

		require.NoError(t, err)
		assert.Equal(t, 4, o.Version())
		assert.True(t, o.IsAssignedTo(distributorID))
	})

	t.Run("assigned without distributor", func(t *testing.T) {
		s := base
		s.Status = order.Assigned

		_, err := order.RestoreOrder(s)

		require.ErrorIs(t, err, errs.ErrValueIsInvalid)
	})

	t.Run("new with distributor", func(t *testing.T) {
		s := base
		s.Status = order.New
		s.DistributorID = &distributorID

		_, err := order.RestoreOrder(s)

		require.Error(t, err)
	})

	t.Run("cancelled keeps audit distributor", func(t *testing.T) {
		s := base
		s.Status = order.Cancelled
		s.DistributorID = &distributorID

		_, err := order.RestoreOrder(s)

		require.NoError(t, err)
	})
}
