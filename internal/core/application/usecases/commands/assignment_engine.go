package commands

import (
	"context"
	"errors"
	"time"

	"waterdist/internal/core/domain/model/assignment"
	"waterdist/internal/core/domain/model/distributor"
	"waterdist/internal/core/domain/model/kernel"
	"waterdist/internal/core/domain/model/order"
	"waterdist/internal/core/domain/model/outbox"
	"waterdist/internal/core/domain/services"
	"waterdist/internal/core/ports"
	"waterdist/internal/pkg/errs"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// EngineConfig tunes candidate scoring and commit retries.
type EngineConfig struct {
	// GeoTimeout bounds each distance lookup. A lookup that runs out marks
	// only its own candidate invalid.
	GeoTimeout time.Duration
	// MaxParallel caps concurrent distance lookups.
	MaxParallel int
	// MaxCommitAttempts bounds select+commit rounds after commit conflicts.
	MaxCommitAttempts int
	Clock             Clock
}

const (
	defaultGeoTimeout        = 5 * time.Second
	defaultMaxParallel       = 8
	defaultMaxCommitAttempts = 3
)

// AssignmentEngine picks a distributor for an order and commits the offer.
//
// Selection reads a directory snapshot outside any transaction and scores
// the candidates concurrently. The commit then re-reads the order and the
// chosen distributor under row locks, so a stale snapshot can only produce a
// commit conflict, never an over-reserved distributor.
type AssignmentEngine struct {
	uowFactory UoWFactory
	directory  ports.DistributorDirectory
	geo        ports.GeoService
	scorer     services.AssignmentScorer
	selector   services.DistributorSelector
	cfg        EngineConfig
	now        Clock
	log        *zap.SugaredLogger
}

func NewAssignmentEngine(
	uowFactory UoWFactory,
	directory ports.DistributorDirectory,
	geo ports.GeoService,
	cfg EngineConfig,
	log *zap.SugaredLogger,
) *AssignmentEngine {
	if cfg.GeoTimeout <= 0 {
		cfg.GeoTimeout = defaultGeoTimeout
	}
	if cfg.MaxParallel <= 0 {
		cfg.MaxParallel = defaultMaxParallel
	}
	if cfg.MaxCommitAttempts <= 0 {
		cfg.MaxCommitAttempts = defaultMaxCommitAttempts
	}

	return &AssignmentEngine{
		uowFactory: uowFactory,
		directory:  directory,
		geo:        geo,
		scorer:     services.NewAssignmentScorer(),
		selector:   services.NewDistributorSelector(),
		cfg:        cfg,
		now:        clockOrDefault(cfg.Clock),
		log:        log.With("component", "assignment_engine"),
	}
}

// SelectDistributor scores every available distributor against location and
// returns the winner, or services.ErrNoDistributorAvailable.
func (e *AssignmentEngine) SelectDistributor(ctx context.Context, location kernel.Location) (services.Candidate, error) {
	if err := location.Validate(); err != nil {
		return services.Candidate{}, err
	}

	available, err := e.directory.ListAvailable(ctx)
	if err != nil {
		return services.Candidate{}, err
	}
	if len(available) == 0 {
		return services.Candidate{}, services.ErrNoDistributorAvailable
	}

	candidates := make([]services.Candidate, len(available))

	var g errgroup.Group
	g.SetLimit(e.cfg.MaxParallel)
	for i, d := range available {
		g.Go(func() error {
			candidates[i] = services.Candidate{Distributor: d, Score: e.score(ctx, d, location)}
			return nil
		})
	}
	_ = g.Wait()

	return e.selector.Select(candidates)
}

func (e *AssignmentEngine) score(ctx context.Context, d *distributor.Distributor, location kernel.Location) services.Score {
	callCtx, cancel := context.WithTimeout(ctx, e.cfg.GeoTimeout)
	defer cancel()

	route, err := e.geo.Distance(callCtx, d.Location(), location)
	if err != nil {
		e.log.Warnw("distance_lookup_failed",
			"distributor_id", d.ID().String(),
			"error", err,
		)
		return e.scorer.Score(d, nil)
	}

	return e.scorer.Score(d, &route)
}

// CommitAssignment offers the order to the distributor in one unit of work:
// a pending assignment is inserted, the order moves to assigned, the
// distributor reserves one slot and an assignment notice is queued.
//
// Any concurrent change that invalidates the choice (order no longer new,
// distributor inactive or full, a pending offer already present, a version
// miss) returns errs.CommitConflictError and leaves nothing written.
func (e *AssignmentEngine) CommitAssignment(
	ctx context.Context,
	orderID, distributorID kernel.UUID,
	score float64,
) (*assignment.Assignment, error) {
	uow := e.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	o, err := uow.OrderRepository().GetForUpdate(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.Status() != order.New {
		return nil, errs.NewCommitConflictErrorWithCause("order", orderID.String(),
			errs.NewInvalidTransitionError("order", o.Status().String(), order.Assigned.String()))
	}

	d, err := uow.DistributorRepository().GetForUpdate(ctx, distributorID)
	if err != nil {
		return nil, err
	}
	if err = d.Reserve(); err != nil {
		return nil, err
	}

	now := e.now()
	if err = o.Assign(d.ID(), now); err != nil {
		return nil, err
	}

	offer, err := assignment.NewAssignment(kernel.NewUUID(), o.ID(), d.ID(), score, now)
	if err != nil {
		return nil, err
	}

	notice, err := outbox.NewAssignmentNotice(o.ID(), d.ID(), now)
	if err != nil {
		return nil, err
	}

	if err = uow.AssignmentRepository().Add(ctx, offer); err != nil {
		return nil, err
	}
	if err = uow.OrderRepository().Update(ctx, o); err != nil {
		return nil, err
	}
	if err = uow.DistributorRepository().Update(ctx, d); err != nil {
		return nil, err
	}
	if err = uow.OutboxRepository().Add(ctx, notice); err != nil {
		return nil, err
	}

	if err = uow.Commit(ctx); err != nil {
		return nil, err
	}

	e.log.Infow("assignment_committed",
		"order_id", o.ID().String(),
		"distributor_id", d.ID().String(),
		"score", score,
		"capacity", d.CurrentCapacity(),
	)
	return offer, nil
}

// Assign runs selection and commit, re-selecting from a fresh directory
// snapshot after each distributor-side conflict. A conflict on the order
// itself ends the loop because no other distributor can fix it.
func (e *AssignmentEngine) Assign(ctx context.Context, orderID kernel.UUID, location kernel.Location) (*assignment.Assignment, error) {
	var lastErr error

	for attempt := 1; attempt <= e.cfg.MaxCommitAttempts; attempt++ {
		candidate, err := e.SelectDistributor(ctx, location)
		if err != nil {
			return nil, err
		}

		offer, err := e.CommitAssignment(ctx, orderID, candidate.Distributor.ID(), candidate.Score.Value())
		if err == nil {
			return offer, nil
		}

		var conflict *errs.CommitConflictError
		if !errors.As(err, &conflict) || conflict.Entity == "order" {
			return nil, err
		}

		e.log.Warnw("assignment_commit_conflict",
			"order_id", orderID.String(),
			"distributor_id", candidate.Distributor.ID().String(),
			"attempt", attempt,
			"error", err,
		)
		lastErr = err
	}

	return nil, lastErr
}
