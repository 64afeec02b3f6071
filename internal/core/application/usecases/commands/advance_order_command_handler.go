package commands

import (
	"context"
	"errors"

	"waterdist/internal/core/application/access"
	"waterdist/internal/core/domain/model/order"
	"waterdist/internal/core/domain/model/outbox"
	"waterdist/internal/pkg/errs"

	"go.uber.org/zap"
)

// CancellationReason is recorded on a pending offer closed by cancelling its order.
const CancellationReason = "order cancelled"

// AdvanceResult reports the transition that was applied.
type AdvanceResult struct {
	From    order.Status
	To      order.Status
	Changed bool
}

// AdvanceOrderCommandHandler drives an order towards a terminal status.
//
// Leaving a reserving status (delivery, or cancelling an offered or accepted
// order) releases one slot on the distributor in the same unit of work.
// Requesting the status the order already has is a no-op: nothing is
// written, released or queued, so a replayed "delivered" never frees the
// slot twice. Each effective transition queues a customer status notice;
// delivery also queues the invoice.
type AdvanceOrderCommandHandler struct {
	uowFactory UoWFactory
	policy     access.Policy
	now        Clock
	log        *zap.SugaredLogger
}

func NewAdvanceOrderCommandHandler(uowFactory UoWFactory, policy access.Policy, log *zap.SugaredLogger) *AdvanceOrderCommandHandler {
	return &AdvanceOrderCommandHandler{
		uowFactory: uowFactory,
		policy:     policy,
		now:        utcNow,
		log:        log.With("component", "order_lifecycle"),
	}
}

func (h *AdvanceOrderCommandHandler) Handle(ctx context.Context, cmd AdvanceOrderCommand) (AdvanceResult, error) {
	if err := cmd.Validate(); err != nil {
		return AdvanceResult{}, err
	}

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return AdvanceResult{}, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	o, err := uow.OrderRepository().GetForUpdate(ctx, cmd.OrderID())
	if err != nil {
		return AdvanceResult{}, err
	}
	if err = access.Authorize(h.policy, cmd.Caller(), o); err != nil {
		return AdvanceResult{}, err
	}

	now := h.now()
	progress, err := o.Advance(cmd.Target(), cmd.ProofURL(), now)
	if err != nil {
		return AdvanceResult{}, err
	}

	result := AdvanceResult{From: progress.From, To: progress.To, Changed: progress.Changed}
	if !progress.Changed {
		return result, nil
	}

	if progress.From == order.Assigned {
		offer, offerErr := uow.AssignmentRepository().GetPendingForUpdate(ctx, o.ID())
		switch {
		case offerErr == nil:
			if err = offer.Reject(CancellationReason, now); err != nil {
				return AdvanceResult{}, err
			}
			if err = uow.AssignmentRepository().Update(ctx, offer); err != nil {
				return AdvanceResult{}, err
			}
		case !errors.Is(offerErr, errs.ErrObjectNotFound):
			return AdvanceResult{}, offerErr
		}
	}

	if progress.ReleasedDistributor != nil {
		d, dErr := uow.DistributorRepository().GetForUpdate(ctx, *progress.ReleasedDistributor)
		if dErr != nil {
			return AdvanceResult{}, dErr
		}
		d.Release()
		if err = uow.DistributorRepository().Update(ctx, d); err != nil {
			return AdvanceResult{}, err
		}
	}

	if err = uow.OrderRepository().Update(ctx, o); err != nil {
		return AdvanceResult{}, err
	}

	if err = h.enqueueSideEffects(ctx, uow, progress, o); err != nil {
		return AdvanceResult{}, err
	}

	if err = uow.Commit(ctx); err != nil {
		return AdvanceResult{}, err
	}

	h.log.Infow("order_advanced",
		"order_id", o.ID().String(),
		"from", progress.From.String(),
		"to", progress.To.String(),
		"released", progress.ReleasedDistributor != nil,
		"caller", cmd.Caller().Subject,
	)
	return result, nil
}

func (h *AdvanceOrderCommandHandler) enqueueSideEffects(ctx context.Context, uow UoW, progress order.Progress, o *order.Order) error {
	notice, err := outbox.NewStatusNotice(o.ID(), progress.To.String(), o.UpdatedAt())
	if err != nil {
		return err
	}
	if err = uow.OutboxRepository().Add(ctx, notice); err != nil {
		return err
	}

	if progress.To != order.Delivered {
		return nil
	}

	invoice, err := outbox.NewInvoiceRequest(o.ID(), o.UpdatedAt())
	if err != nil {
		return err
	}
	return uow.OutboxRepository().Add(ctx, invoice)
}
