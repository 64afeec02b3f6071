package access_test

import (
	"testing"
	"time"

	"waterdist/internal/core/application/access"
	"waterdist/internal/core/domain/model/kernel"
	"waterdist/internal/core/domain/model/order"
	"waterdist/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assignedOrder(t *testing.T, distributorID kernel.UUID) *order.Order {
	t.Helper()

	o, err := order.NewOrder(kernel.NewUUID(), "woo-7", order.NewCustomer("A", "", ""), "addr", nil, kernel.ZeroMoney(), time.Now())
	require.NoError(t, err)
	require.NoError(t, o.Assign(distributorID, time.Now()))
	return o
}

func TestNewPolicy(t *testing.T) {
	tests := []struct {
		name string
		want access.Policy
	}{
		{"all_access", access.AllAccess{}},
		{"owner_only", access.OwnerOnly{}},
		{"role_based", access.RoleBased{}},
		{"", access.RoleBased{}},
		{" Owner_Only ", access.OwnerOnly{}},
	}
	for _, tt := range tests {
		got, err := access.NewPolicy(tt.name)
		require.NoError(t, err, tt.name)
		assert.Equal(t, tt.want, got, tt.name)
	}

	_, err := access.NewPolicy("demo_user")
	require.ErrorIs(t, err, errs.ErrValueIsInvalid)
}

func TestPolicies(t *testing.T) {
	owner := kernel.NewUUID()
	other := kernel.NewUUID()
	o := assignedOrder(t, owner)

	ownerCaller := access.Caller{Subject: "d-owner", DistributorID: &owner}
	otherCaller := access.Caller{Subject: "d-other", DistributorID: &other}
	anonymous := access.Caller{Subject: "anon"}
	operator := access.Caller{Subject: "ops", Operator: true}

	t.Run("all_access", func(t *testing.T) {
		p := access.AllAccess{}
		assert.True(t, p.CanActOn(otherCaller, o))
		assert.True(t, p.CanActOn(anonymous, o))
		assert.True(t, p.SeesAll(anonymous))
	})

	t.Run("owner_only", func(t *testing.T) {
		p := access.OwnerOnly{}
		assert.True(t, p.CanActOn(ownerCaller, o))
		assert.False(t, p.CanActOn(otherCaller, o))
		assert.False(t, p.CanActOn(operator, o))
		assert.False(t, p.SeesAll(operator))
	})

	t.Run("role_based", func(t *testing.T) {
		p := access.RoleBased{}
		assert.True(t, p.CanActOn(ownerCaller, o))
		assert.False(t, p.CanActOn(otherCaller, o))
		assert.True(t, p.CanActOn(operator, o))
		assert.True(t, p.SeesAll(operator))
		assert.False(t, p.SeesAll(ownerCaller))
	})
}

func TestAuthorize_DeniedLooksLikeNotFound(t *testing.T) {
	o := assignedOrder(t, kernel.NewUUID())

	err := access.Authorize(access.OwnerOnly{}, access.Caller{Subject: "stranger"}, o)
	require.ErrorIs(t, err, errs.ErrObjectNotFound)

	require.NoError(t, access.Authorize(access.RoleBased{}, access.System(), o))
}
