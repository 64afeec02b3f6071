package commands

import (
	"context"

	"waterdist/internal/core/application/access"

	"go.uber.org/zap"
)

// AcceptOrderCommandHandler moves an assigned order to accepted and resolves
// its pending offer. Capacity is untouched: the slot was reserved at offer time.
//
// Two concurrent accepts serialise on the order row lock; the second sees an
// accepted order and fails with an invalid transition.
type AcceptOrderCommandHandler struct {
	uowFactory UoWFactory
	policy     access.Policy
	now        Clock
	log        *zap.SugaredLogger
}

func NewAcceptOrderCommandHandler(uowFactory UoWFactory, policy access.Policy, log *zap.SugaredLogger) *AcceptOrderCommandHandler {
	return &AcceptOrderCommandHandler{
		uowFactory: uowFactory,
		policy:     policy,
		now:        utcNow,
		log:        log.With("component", "order_lifecycle"),
	}
}

func (h *AcceptOrderCommandHandler) Handle(ctx context.Context, cmd AcceptOrderCommand) error {
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
	if err = o.Accept(now); err != nil {
		return err
	}

	offer, err := uow.AssignmentRepository().GetPendingForUpdate(ctx, o.ID())
	if err != nil {
		return err
	}
	if err = offer.Accept(now); err != nil {
		return err
	}

	if err = uow.OrderRepository().Update(ctx, o); err != nil {
		return err
	}
	if err = uow.AssignmentRepository().Update(ctx, offer); err != nil {
		return err
	}

	if err = uow.Commit(ctx); err != nil {
		return err
	}

	h.log.Infow("order_accepted",
		"order_id", o.ID().String(),
		"distributor_id", offer.DistributorID().String(),
		"caller", cmd.Caller().Subject,
	)
	return nil
}
