package commands

import (
	"context"
	"time"

	"waterdist/internal/core/domain/model/outbox"
	"waterdist/internal/core/ports"

	"go.uber.org/zap"
)

// DispatchConfig tunes outbox delivery.
type DispatchConfig struct {
	// Lease is how long a claimed message stays invisible to other
	// dispatchers while it is being delivered.
	Lease time.Duration
	Retry outbox.RetryPolicy
	Clock Clock
}

const (
	defaultDispatchLease    = time.Minute
	defaultRetryBaseDelay   = 5 * time.Second
	defaultRetryMaxDelay    = 10 * time.Minute
	defaultRetryMaxAttempts = 8
)

// DispatchResult counts the outcome of one batch.
type DispatchResult struct {
	Claimed int
	Sent    int
	Retried int
	Failed  int
}

// DispatchOutboxCommandHandler moves outbox messages to their sink.
//
// Messages are claimed and leased in a short transaction, delivered without
// holding it, then recorded one by one. Delivery is at least once: a crash
// between delivery and the record step redelivers once the lease expires.
// Sink errors never fail the batch; they are recorded on the message.
type DispatchOutboxCommandHandler struct {
	uowFactory OutboxUoWFactory
	sink       ports.OutboxSink
	cfg        DispatchConfig
	now        Clock
	log        *zap.SugaredLogger
}

func NewDispatchOutboxCommandHandler(
	uowFactory OutboxUoWFactory,
	sink ports.OutboxSink,
	cfg DispatchConfig,
	log *zap.SugaredLogger,
) *DispatchOutboxCommandHandler {
	if cfg.Lease <= 0 {
		cfg.Lease = defaultDispatchLease
	}
	if cfg.Retry.BaseDelay <= 0 {
		cfg.Retry.BaseDelay = defaultRetryBaseDelay
	}
	if cfg.Retry.MaxDelay <= 0 {
		cfg.Retry.MaxDelay = defaultRetryMaxDelay
	}
	if cfg.Retry.MaxAttempts <= 0 {
		cfg.Retry.MaxAttempts = defaultRetryMaxAttempts
	}

	return &DispatchOutboxCommandHandler{
		uowFactory: uowFactory,
		sink:       sink,
		cfg:        cfg,
		now:        clockOrDefault(cfg.Clock),
		log:        log.With("component", "outbox_dispatcher"),
	}
}

func (h *DispatchOutboxCommandHandler) Handle(ctx context.Context, cmd DispatchOutboxCommand) (DispatchResult, error) {
	if err := cmd.Validate(); err != nil {
		return DispatchResult{}, err
	}

	claimed, err := h.claim(ctx, cmd.BatchSize())
	if err != nil {
		return DispatchResult{}, err
	}

	result := DispatchResult{Claimed: len(claimed)}
	for _, m := range claimed {
		if ctx.Err() != nil {
			// Unrecorded messages are picked up again after the lease.
			return result, ctx.Err()
		}

		deliverErr := h.sink.Deliver(ctx, m)
		now := h.now()
		if deliverErr == nil {
			m.MarkSent(now)
		} else {
			m.MarkFailed(deliverErr, now, h.cfg.Retry)
		}

		if err = h.record(ctx, m); err != nil {
			return result, err
		}

		switch m.State() {
		case outbox.StateSent:
			result.Sent++
		case outbox.StateFailed:
			result.Failed++
			h.log.Errorw("outbox_message_abandoned",
				"message_id", m.ID().String(),
				"kind", string(m.Kind()),
				"order_id", m.OrderID().String(),
				"attempts", m.Attempts(),
				"error", deliverErr,
			)
		default:
			result.Retried++
			h.log.Warnw("outbox_dispatch_failed",
				"message_id", m.ID().String(),
				"kind", string(m.Kind()),
				"order_id", m.OrderID().String(),
				"attempts", m.Attempts(),
				"next_attempt_at", m.NextAttemptAt(),
				"error", deliverErr,
			)
		}
	}

	if result.Claimed > 0 {
		h.log.Infow("outbox_batch_dispatched",
			"claimed", result.Claimed,
			"sent", result.Sent,
			"retried", result.Retried,
			"failed", result.Failed,
		)
	}
	return result, nil
}

func (h *DispatchOutboxCommandHandler) claim(ctx context.Context, limit int) ([]*outbox.Message, error) {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	now := h.now()
	claimed, err := uow.OutboxRepository().ClaimDue(ctx, now, limit)
	if err != nil {
		return nil, err
	}

	leaseUntil := now.Add(h.cfg.Lease)
	for _, m := range claimed {
		m.Lease(leaseUntil)
		if err = uow.OutboxRepository().Update(ctx, m); err != nil {
			return nil, err
		}
	}

	if err = uow.Commit(ctx); err != nil {
		return nil, err
	}
	return claimed, nil
}

func (h *DispatchOutboxCommandHandler) record(ctx context.Context, m *outbox.Message) error {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	if err := uow.OutboxRepository().Update(ctx, m); err != nil {
		return err
	}
	return uow.Commit(ctx)
}
