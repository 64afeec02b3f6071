package commands

import (
	"context"
	"errors"
	"time"

	"waterdist/internal/core/domain/model/assignment"
	"waterdist/internal/core/domain/model/kernel"
	"waterdist/internal/core/domain/model/order"
	"waterdist/internal/core/domain/services"
	"waterdist/internal/core/ports"
	"waterdist/internal/pkg/errs"

	"go.uber.org/zap"
)

// Assigner runs selection and commit for one order.
type Assigner interface {
	Assign(ctx context.Context, orderID kernel.UUID, location kernel.Location) (*assignment.Assignment, error)
}

// IngestResult describes what ingestion did with a submitted order.
type IngestResult struct {
	OrderID       kernel.UUID
	Existing      bool
	Located       bool
	Assigned      bool
	DistributorID *kernel.UUID
}

// IngestOrderCommandHandler creates orders from shop submissions and tries to
// assign them straight away.
//
// Ingestion is idempotent on the external ref: a repeated submission reports
// Existing and changes nothing. Failing to geocode, finding no distributor or
// losing every commit race all leave the order new for an operator to assign;
// none of them fail the ingestion.
type IngestOrderCommandHandler struct {
	uowFactory UoWFactory
	geo        ports.GeoService
	assigner   Assigner
	geoTimeout time.Duration
	now        Clock
	log        *zap.SugaredLogger
}

func NewIngestOrderCommandHandler(
	uowFactory UoWFactory,
	geo ports.GeoService,
	assigner Assigner,
	geoTimeout time.Duration,
	log *zap.SugaredLogger,
) *IngestOrderCommandHandler {
	if geoTimeout <= 0 {
		geoTimeout = defaultGeoTimeout
	}
	return &IngestOrderCommandHandler{
		uowFactory: uowFactory,
		geo:        geo,
		assigner:   assigner,
		geoTimeout: geoTimeout,
		now:        utcNow,
		log:        log.With("component", "ingestion"),
	}
}

func (h *IngestOrderCommandHandler) Handle(ctx context.Context, cmd IngestOrderCommand) (IngestResult, error) {
	if err := cmd.Validate(); err != nil {
		return IngestResult{}, err
	}

	repo := h.uowFactory.Create().OrderRepository()

	existing, err := repo.GetByExternalRef(ctx, cmd.ExternalRef())
	if err == nil {
		return existingResult(existing), nil
	}
	if !errors.Is(err, errs.ErrObjectNotFound) {
		return IngestResult{}, err
	}

	location := h.geocode(ctx, cmd)

	o, err := order.NewOrder(kernel.NewUUID(), cmd.ExternalRef(), cmd.Customer(), cmd.Address(), location, cmd.Total(), h.now())
	if err != nil {
		return IngestResult{}, err
	}

	if err = repo.Add(ctx, o); err != nil {
		if !errors.Is(err, errs.ErrCommitConflict) {
			return IngestResult{}, err
		}
		// Lost a race with a concurrent submission of the same ref.
		winner, getErr := repo.GetByExternalRef(ctx, cmd.ExternalRef())
		if getErr != nil {
			return IngestResult{}, errors.Join(err, getErr)
		}
		return existingResult(winner), nil
	}

	h.log.Infow("order_ingested",
		"order_id", o.ID().String(),
		"external_ref", o.ExternalRef(),
		"located", location != nil,
	)

	result := IngestResult{OrderID: o.ID(), Located: location != nil}
	if location == nil {
		return result, nil
	}

	offer, err := h.assigner.Assign(ctx, o.ID(), *location)
	switch {
	case err == nil:
		distributorID := offer.DistributorID()
		result.Assigned = true
		result.DistributorID = &distributorID
	case errors.Is(err, services.ErrNoDistributorAvailable):
		h.log.Infow("order_left_unassigned", "order_id", o.ID().String(), "reason", "no_distributor_available")
	default:
		h.log.Warnw("order_left_unassigned", "order_id", o.ID().String(), "error", err)
	}

	return result, nil
}

func (h *IngestOrderCommandHandler) geocode(ctx context.Context, cmd IngestOrderCommand) *kernel.Location {
	callCtx, cancel := context.WithTimeout(ctx, h.geoTimeout)
	defer cancel()

	loc, err := h.geo.Geocode(callCtx, cmd.Address())
	if err != nil {
		h.log.Warnw("geocode_failed",
			"external_ref", cmd.ExternalRef(),
			"error", err,
		)
		return nil
	}
	return &loc
}

func existingResult(o *order.Order) IngestResult {
	return IngestResult{
		OrderID:       o.ID(),
		Existing:      true,
		Located:       o.Location() != nil,
		Assigned:      o.Distributor() != nil && o.Status().IsReserving(),
		DistributorID: o.Distributor(),
	}
}
