package queue_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"waterdist/internal/adapters/out/queue"
	"waterdist/internal/core/domain/model/kernel"
	"waterdist/internal/core/domain/model/order"
	"waterdist/internal/core/domain/model/outbox"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingEnqueuer struct {
	tasks []*asynq.Task
	opts  [][]asynq.Option
	err   error
}

func (e *recordingEnqueuer) EnqueueContext(_ context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	if e.err != nil {
		return nil, e.err
	}
	e.tasks = append(e.tasks, task)
	e.opts = append(e.opts, opts)
	return &asynq.TaskInfo{Type: task.Type(), Queue: queue.DefaultQueue}, nil
}

func optionValue(opts []asynq.Option, typ asynq.OptionType) any {
	for _, o := range opts {
		if o.Type() == typ {
			return o.Value()
		}
	}
	return nil
}

func TestSink_Deliver(t *testing.T) {
	orderID, distributorID := kernel.NewUUID(), kernel.NewUUID()
	msg, err := outbox.NewAssignmentNotice(orderID, distributorID, time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	enqueuer := &recordingEnqueuer{}
	sink := queue.NewSink(enqueuer, queue.Config{MaxRetry: 4}, zap.NewNop().Sugar())

	require.NoError(t, sink.Deliver(t.Context(), msg))

	require.Len(t, enqueuer.tasks, 1)
	assert.Equal(t, queue.TaskDeliverOutbox, enqueuer.tasks[0].Type())
	assert.Equal(t, msg.ID().String(), optionValue(enqueuer.opts[0], asynq.TaskIDOpt))
	assert.Equal(t, queue.DefaultQueue, optionValue(enqueuer.opts[0], asynq.QueueOpt))
	assert.Equal(t, 4, optionValue(enqueuer.opts[0], asynq.MaxRetryOpt))

	decoded, err := queue.ParseDeliverTask(enqueuer.tasks[0])
	require.NoError(t, err)
	assert.True(t, decoded.ID().IsEqual(msg.ID()))
	assert.Equal(t, outbox.KindAssignmentNotice, decoded.Kind())
	assert.True(t, decoded.OrderID().IsEqual(orderID))
	require.NotNil(t, decoded.DistributorID())
	assert.True(t, decoded.DistributorID().IsEqual(distributorID))
}

func TestSink_DuplicateTaskIsDelivered(t *testing.T) {
	msg, err := outbox.NewStatusNotice(kernel.NewUUID(), order.Delivered.String(), time.Now())
	require.NoError(t, err)

	sink := queue.NewSink(&recordingEnqueuer{err: asynq.ErrTaskIDConflict}, queue.Config{}, zap.NewNop().Sugar())

	assert.NoError(t, sink.Deliver(t.Context(), msg))
}

func TestSink_EnqueueFailure(t *testing.T) {
	msg, err := outbox.NewInvoiceRequest(kernel.NewUUID(), time.Now())
	require.NoError(t, err)
	redisDown := errors.New("dial tcp 127.0.0.1:6379: connection refused")

	sink := queue.NewSink(&recordingEnqueuer{err: redisDown}, queue.Config{}, zap.NewNop().Sugar())

	assert.ErrorIs(t, sink.Deliver(t.Context(), msg), redisDown)
}

func TestParseDeliverTask_RejectsBadPayload(t *testing.T) {
	_, err := queue.ParseDeliverTask(asynq.NewTask(queue.TaskDeliverOutbox, []byte("{")))
	assert.Error(t, err)

	_, err = queue.ParseDeliverTask(asynq.NewTask(queue.TaskDeliverOutbox,
		[]byte(`{"message_id":"`+kernel.NewUUID().String()+`","kind":"pigeon","order_id":"`+kernel.NewUUID().String()+`"}`)))
	assert.Error(t, err)
}

func TestConfigDefaults(t *testing.T) {
	opt := queue.RedisOpt(queue.Config{})
	assert.Equal(t, "127.0.0.1:6379", opt.Addr)

	server := queue.ServerConfig(queue.Config{Queue: "dispatch"})
	assert.Equal(t, 10, server.Concurrency)
	assert.Equal(t, map[string]int{"dispatch": 1}, server.Queues)
}
