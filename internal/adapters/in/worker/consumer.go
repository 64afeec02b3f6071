// Package worker consumes outbox tasks from asynq and performs their side
// effects.
package worker

import (
	"context"
	"fmt"

	"waterdist/internal/adapters/out/queue"
	"waterdist/internal/core/ports"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// Consumer delivers queued outbox messages through a sink.
type Consumer struct {
	sink ports.OutboxSink
	log  *zap.SugaredLogger
}

func NewConsumer(sink ports.OutboxSink, log *zap.SugaredLogger) *Consumer {
	return &Consumer{sink: sink, log: log.With("component", "worker")}
}

func (c *Consumer) Register(mux *asynq.ServeMux) {
	mux.HandleFunc(queue.TaskDeliverOutbox, c.handleDeliver)
}

func (c *Consumer) handleDeliver(ctx context.Context, task *asynq.Task) error {
	message, err := queue.ParseDeliverTask(task)
	if err != nil {
		c.log.Warnw("worker_outbox_payload_invalid", "error", err)
		return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
	}

	if err = c.sink.Deliver(ctx, message); err != nil {
		c.log.Warnw("worker_outbox_delivery_failed",
			"message_id", message.ID().String(), "kind", string(message.Kind()), "error", err)
		return err
	}

	c.log.Debugw("worker_outbox_delivered", "message_id", message.ID().String(), "kind", string(message.Kind()))
	return nil
}
