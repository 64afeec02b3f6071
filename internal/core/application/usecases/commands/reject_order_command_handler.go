package commands

import (
	"context"

	"waterdist/internal/core/application/access"

	"go.uber.org/zap"
)

// RejectOrderCommandHandler returns a declined order to the queue.
//
// In one unit of work the offer is rejected, the order goes back to new with
// no distributor and the distributor's reservation is released. The order is
// not re-offered automatically; reassignment is a separate operator action.
type RejectOrderCommandHandler struct {
	uowFactory UoWFactory
	policy     access.Policy
	now        Clock
	log        *zap.SugaredLogger
}

func NewRejectOrderCommandHandler(uowFactory UoWFactory, policy access.Policy, log *zap.SugaredLogger) *RejectOrderCommandHandler {
	return &RejectOrderCommandHandler{
		uowFactory: uowFactory,
		policy:     policy,
		now:        utcNow,
		log:        log.With("component", "order_lifecycle"),
	}
}

func (h *RejectOrderCommandHandler) Handle(ctx context.Context, cmd RejectOrderCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	o, err := uow.OrderRepository().GetForUpdate(ctx, cmd.OrderID())
	if err != nil {
		return err
	}
	if err = access.Authorize(h.policy, cmd.Caller(), o); err != nil {
		return err
	}

	now := h.now()
	releasedID, err := o.Requeue(now)
	if err != nil {
		return err
	}

	offer, err := uow.AssignmentRepository().GetPendingForUpdate(ctx, o.ID())
	if err != nil {
		return err
	}
	if err = offer.Reject(cmd.Reason(), now); err != nil {
		return err
	}

	d, err := uow.DistributorRepository().GetForUpdate(ctx, releasedID)
	if err != nil {
		return err
	}
	d.Release()

	if err = uow.OrderRepository().Update(ctx, o); err != nil {
		return err
	}
	if err = uow.AssignmentRepository().Update(ctx, offer); err != nil {
		return err
	}
	if err = uow.DistributorRepository().Update(ctx, d); err != nil {
		return err
	}

	if err = uow.Commit(ctx); err != nil {
		return err
	}

	h.log.Infow("order_rejected",
		"order_id", o.ID().String(),
		"distributor_id", d.ID().String(),
		"reason", offer.RejectionReason(),
		"capacity", d.CurrentCapacity(),
	)
	return nil
}
