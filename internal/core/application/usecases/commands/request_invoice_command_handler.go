package commands

import (
	"context"

	"waterdist/internal/core/application/access"
	"waterdist/internal/core/domain/model/order"
	"waterdist/internal/core/domain/model/outbox"
	"waterdist/internal/pkg/errs"

	"go.uber.org/zap"
)

// RequestInvoiceCommandHandler queues another invoice delivery for a delivered order.
type RequestInvoiceCommandHandler struct {
	uowFactory UoWFactory
	policy     access.Policy
	now        Clock
	log        *zap.SugaredLogger
}

func NewRequestInvoiceCommandHandler(uowFactory UoWFactory, policy access.Policy, log *zap.SugaredLogger) *RequestInvoiceCommandHandler {
	return &RequestInvoiceCommandHandler{
		uowFactory: uowFactory,
		policy:     policy,
		now:        utcNow,
		log:        log.With("component", "invoicing"),
	}
}

func (h *RequestInvoiceCommandHandler) Handle(ctx context.Context, cmd RequestInvoiceCommand) error {
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

	o, err := uow.OrderRepository().Get(ctx, cmd.OrderID())
	if err != nil {
		return err
	}
	if err = access.Authorize(h.policy, cmd.Caller(), o); err != nil {
		return err
	}
	if o.Status() != order.Delivered {
		return errs.NewInvalidTransitionErrorWithCause("order", o.Status().String(), "invoiced",
			errs.NewValueIsInvalidError("invoices are issued for delivered orders only"))
	}

	message, err := outbox.NewInvoiceRequest(o.ID(), h.now())
	if err != nil {
		return err
	}
	if err = uow.OutboxRepository().Add(ctx, message); err != nil {
		return err
	}

	if err = uow.Commit(ctx); err != nil {
		return err
	}

	h.log.Infow("invoice_requested", "order_id", o.ID().String(), "caller", cmd.Caller().Subject)
	return nil
}
