package assignmentrepo_test

import (
	"testing"
	"time"

	"waterdist/internal/adapters/out/postgres/assignmentrepo"
	"waterdist/internal/adapters/out/postgres/dbtest"
	"waterdist/internal/core/domain/model/assignment"
	"waterdist/internal/core/domain/model/kernel"
	"waterdist/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockAggregateTracker struct {
	mock.Mock
}

func (m *MockAggregateTracker) TrackAggregate(id kernel.UUID, aggregate any) {
	m.Called(id, aggregate)
}

var now = time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

func newRepository(t *testing.T) *assignmentrepo.GormAssignmentRepository {
	t.Helper()

	tracker := new(MockAggregateTracker)
	tracker.On("TrackAggregate", mock.Anything, mock.Anything).Maybe()
	return assignmentrepo.NewGormAssignmentRepository(dbtest.OpenSQLite(t), tracker)
}

func newOffer(t *testing.T, orderID kernel.UUID, offeredAt time.Time) *assignment.Assignment {
	t.Helper()

	a, err := assignment.NewAssignment(kernel.NewUUID(), orderID, kernel.NewUUID(), 81.5, offeredAt)
	require.NoError(t, err)
	return a
}

func TestGormAssignmentRepository_OnePendingPerOrder(t *testing.T) {
	ctx := t.Context()
	repo := newRepository(t)
	orderID := kernel.NewUUID()

	require.NoError(t, repo.Add(ctx, newOffer(t, orderID, now)))

	err := repo.Add(ctx, newOffer(t, orderID, now.Add(time.Second)))
	require.ErrorIs(t, err, errs.ErrCommitConflict)

	require.NoError(t, repo.Add(ctx, newOffer(t, kernel.NewUUID(), now)), "other orders are unaffected")
}

func TestGormAssignmentRepository_RejectThenReoffer(t *testing.T) {
	ctx := t.Context()
	repo := newRepository(t)
	orderID := kernel.NewUUID()
	first := newOffer(t, orderID, now)
	require.NoError(t, repo.Add(ctx, first))

	pending, err := repo.GetPendingForUpdate(ctx, orderID)
	require.NoError(t, err)
	assert.True(t, pending.ID().IsEqual(first.ID()))
	assert.InDelta(t, 81.5, pending.Score(), 1e-9)

	require.NoError(t, pending.Reject("", now.Add(time.Minute)))
	require.NoError(t, repo.Update(ctx, pending))

	_, err = repo.GetPendingForUpdate(ctx, orderID)
	require.ErrorIs(t, err, errs.ErrObjectNotFound)

	second := newOffer(t, orderID, now.Add(2*time.Minute))
	require.NoError(t, repo.Add(ctx, second))

	history, err := repo.ListByOrder(ctx, orderID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, assignment.Rejected, history[0].Status())
	assert.Equal(t, assignment.DefaultRejectionReason, history[0].RejectionReason())
	require.NotNil(t, history[0].RejectedAt())
	assert.Equal(t, assignment.Pending, history[1].Status())
}

func TestGormAssignmentRepository_UpdateResolvedOfferConflicts(t *testing.T) {
	ctx := t.Context()
	repo := newRepository(t)
	orderID := kernel.NewUUID()
	require.NoError(t, repo.Add(ctx, newOffer(t, orderID, now)))

	a, err := repo.GetPendingForUpdate(ctx, orderID)
	require.NoError(t, err)
	b, err := repo.GetPendingForUpdate(ctx, orderID)
	require.NoError(t, err)

	require.NoError(t, a.Accept(now))
	require.NoError(t, repo.Update(ctx, a))

	require.NoError(t, b.Reject("late", now))
	require.ErrorIs(t, repo.Update(ctx, b), errs.ErrCommitConflict)
}
