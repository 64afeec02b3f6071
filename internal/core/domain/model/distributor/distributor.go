// Package distributor provides the Distributor aggregate: a field agent with a
// home location and a bounded number of concurrent deliveries.
//
// The central invariant 0 <= current capacity <= max capacity is enforced here;
// Reserve and Release are the only ways the counter moves.
package distributor

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"waterdist/internal/core/domain/model/kernel"
	"waterdist/internal/pkg/errs"
)

var (
	// ErrDistributorIsNotConstructed is returned for zero-value distributors.
	ErrDistributorIsNotConstructed = errors.New("Distributor must be created via NewDistributor constructor")

	// ErrCapacityExhausted means every delivery slot is already reserved.
	ErrCapacityExhausted = errors.New("distributor capacity exhausted")

	// ErrDistributorInactive means the distributor is not taking offers.
	ErrDistributorInactive = errors.New("distributor is inactive")
)

// Distributor is the aggregate root for a delivery agent and its capacity counter.
type Distributor struct {
	id       kernel.UUID
	name     string
	email    string
	phone    string
	location kernel.Location

	currentCapacity int
	maxCapacity     int
	active          bool

	createdAt time.Time
	version   int

	isConstructed bool
}

// NewDistributor creates an active distributor with no reservations.
func NewDistributor(
	id kernel.UUID,
	name, email, phone string,
	location kernel.Location,
	maxCapacity int,
	now time.Time,
) (*Distributor, error) {
	d := &Distributor{
		email:         strings.TrimSpace(email),
		phone:         strings.TrimSpace(phone),
		active:        true,
		createdAt:     now,
		isConstructed: true,
	}

	if err := errors.Join(
		d.setID(id),
		d.setName(name),
		d.setLocation(location),
		d.setCapacity(0, maxCapacity),
	); err != nil {
		return nil, err
	}

	return d, nil
}

// Snapshot carries persisted distributor state for RestoreDistributor.
type Snapshot struct {
	ID              kernel.UUID
	Name            string
	Email           string
	Phone           string
	Location        kernel.Location
	CurrentCapacity int
	MaxCapacity     int
	Active          bool
	CreatedAt       time.Time
	Version         int
}

// RestoreDistributor rebuilds a distributor from storage.
func RestoreDistributor(s Snapshot) (*Distributor, error) {
	d := &Distributor{
		email:         s.Email,
		phone:         s.Phone,
		active:        s.Active,
		createdAt:     s.CreatedAt,
		version:       s.Version,
		isConstructed: true,
	}

	if err := errors.Join(
		d.setID(s.ID),
		d.setName(s.Name),
		d.setLocation(s.Location),
		d.setCapacity(s.CurrentCapacity, s.MaxCapacity),
	); err != nil {
		return nil, err
	}

	return d, nil
}

// Validate ensures the distributor was built by a constructor.
func (d *Distributor) Validate() error {
	if d == nil || !d.isConstructed {
		return ErrDistributorIsNotConstructed
	}
	return nil
}

func (d *Distributor) ID() kernel.UUID           { return d.id }
func (d *Distributor) Name() string              { return d.name }
func (d *Distributor) Email() string             { return d.email }
func (d *Distributor) Phone() string             { return d.phone }
func (d *Distributor) Location() kernel.Location { return d.location }
func (d *Distributor) CurrentCapacity() int      { return d.currentCapacity }
func (d *Distributor) MaxCapacity() int          { return d.maxCapacity }
func (d *Distributor) IsActive() bool            { return d.active }
func (d *Distributor) CreatedAt() time.Time      { return d.createdAt }
func (d *Distributor) Version() int              { return d.version }

// HasFreeCapacity reports whether an offer could be committed right now.
func (d *Distributor) HasFreeCapacity() bool {
	return d.active && d.currentCapacity < d.maxCapacity
}

// Reserve takes one delivery slot for a new offer. An inactive or full
// distributor yields a commit conflict: the caller's candidate snapshot is stale.
func (d *Distributor) Reserve() error {
	if !d.active {
		return errs.NewCommitConflictErrorWithCause("distributor", d.id.String(), ErrDistributorInactive)
	}
	if d.currentCapacity >= d.maxCapacity {
		return errs.NewCommitConflictErrorWithCause("distributor", d.id.String(),
			fmt.Errorf("%w: %d/%d", ErrCapacityExhausted, d.currentCapacity, d.maxCapacity))
	}
	d.currentCapacity++
	return nil
}

// Release gives one slot back, never going below zero.
func (d *Distributor) Release() {
	d.currentCapacity = max(d.currentCapacity-1, 0)
}

func (d *Distributor) setID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	d.id = id
	return nil
}

func (d *Distributor) setName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errs.NewValueIsRequiredError("name")
	}
	d.name = name
	return nil
}

func (d *Distributor) setLocation(location kernel.Location) error {
	if err := location.Validate(); err != nil {
		return err
	}
	d.location = location
	return nil
}

func (d *Distributor) setCapacity(current, maxCapacity int) error {
	if maxCapacity < 0 {
		return errs.NewValueIsOutOfRangeError("max capacity", maxCapacity, 0, "unbounded")
	}
	if current < 0 || current > maxCapacity {
		return errs.NewValueIsOutOfRangeError("current capacity", current, 0, maxCapacity)
	}
	d.currentCapacity = current
	d.maxCapacity = maxCapacity
	return nil
}
