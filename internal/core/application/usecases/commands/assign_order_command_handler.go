package commands

import (
	"context"
	"errors"
	"time"

	"waterdist/internal/core/application/access"
	"waterdist/internal/core/domain/model/assignment"
	"waterdist/internal/core/domain/model/kernel"
	"waterdist/internal/core/domain/model/order"
	"waterdist/internal/core/ports"
	"waterdist/internal/pkg/errs"

	"go.uber.org/zap"
)

// AssignOrderCommandHandler re-runs selection and commit for a new order.
// Orders ingested without coordinates are geocoded first; the coordinates
// are stored even if no distributor is found.
type AssignOrderCommandHandler struct {
	uowFactory UoWFactory
	geo        ports.GeoService
	assigner   Assigner
	policy     access.Policy
	geoTimeout time.Duration
	now        Clock
	log        *zap.SugaredLogger
}

func NewAssignOrderCommandHandler(
	uowFactory UoWFactory,
	geo ports.GeoService,
	assigner Assigner,
	policy access.Policy,
	geoTimeout time.Duration,
	log *zap.SugaredLogger,
) *AssignOrderCommandHandler {
	if geoTimeout <= 0 {
		geoTimeout = defaultGeoTimeout
	}
	return &AssignOrderCommandHandler{
		uowFactory: uowFactory,
		geo:        geo,
		assigner:   assigner,
		policy:     policy,
		geoTimeout: geoTimeout,
		now:        utcNow,
		log:        log.With("component", "reassignment"),
	}
}

func (h *AssignOrderCommandHandler) Handle(ctx context.Context, cmd AssignOrderCommand) (*assignment.Assignment, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	o, err := h.uowFactory.Create().OrderRepository().Get(ctx, cmd.OrderID())
	if err != nil {
		return nil, err
	}
	if err = access.Authorize(h.policy, cmd.Caller(), o); err != nil {
		return nil, err
	}
	if o.Status() != order.New {
		return nil, errs.NewInvalidTransitionError("order", o.Status().String(), order.Assigned.String())
	}

	location := o.Location()
	if location == nil {
		if location, err = h.locate(ctx, o); err != nil {
			return nil, err
		}
	}

	offer, err := h.assigner.Assign(ctx, o.ID(), *location)
	if err != nil {
		return nil, err
	}

	h.log.Infow("order_reassigned",
		"order_id", o.ID().String(),
		"distributor_id", offer.DistributorID().String(),
		"caller", cmd.Caller().Subject,
	)
	return offer, nil
}

func (h *AssignOrderCommandHandler) locate(ctx context.Context, o *order.Order) (*kernel.Location, error) {
	callCtx, cancel := context.WithTimeout(ctx, h.geoTimeout)
	loc, err := h.geo.Geocode(callCtx, o.Address())
	cancel()
	if err != nil {
		if !errors.Is(err, errs.ErrUpstreamUnavailable) {
			err = errs.NewUpstreamUnavailableErrorWithCause("geocoder", err)
		}
		return nil, err
	}

	uow := h.uowFactory.Create()
	if err = uow.Begin(ctx); err != nil {
		return nil, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	locked, err := uow.OrderRepository().GetForUpdate(ctx, o.ID())
	if err != nil {
		return nil, err
	}
	if err = locked.Locate(loc, h.now()); err != nil {
		return nil, err
	}
	if err = uow.OrderRepository().Update(ctx, locked); err != nil {
		return nil, err
	}
	if err = uow.Commit(ctx); err != nil {
		return nil, err
	}

	return &loc, nil
}
