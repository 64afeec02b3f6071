package order

import (
	"errors"
	"strings"
	"time"

	"waterdist/internal/core/domain/model/kernel"
	"waterdist/internal/pkg/errs"
)

var (
	// ErrOrderIsNotConstructed is returned when an Order instance was not created through
	// NewOrder or RestoreOrder.
	ErrOrderIsNotConstructed = errors.New("Order must be created via NewOrder constructor")
)

// Order is the aggregate root for a customer delivery. It owns the order
// status and the reference to the distributor currently responsible for it.
//
// Order follows these invariants:
//   - Must have a valid identifier and a non-empty external reference
//   - The assigned distributor is set iff the status reserves capacity
//     (Assigned, Accepted, PickedUp); Delivered and Cancelled may keep the
//     last distributor for audit
//   - Status transitions follow the Status state machine
//   - Location is optional: it is absent when the address could not be geocoded
//
// Capacity itself lives on the distributor aggregate. The transition methods
// here report whether a reservation must be released so the caller can apply
// both changes in the same unit of work.
type Order struct {
	// id is the unique identifier for the order
	id kernel.UUID

	// externalRef is the identifier assigned by the shop that submitted the order
	externalRef string

	customer Customer
	address  string

	// location is nil until the address has been geocoded
	location *kernel.Location

	total kernel.Money

	// status represents the current state in the order lifecycle
	status Status

	// distributorID is the assigned distributor (nil while unassigned)
	distributorID *kernel.UUID

	proofOfDeliveryURL string

	createdAt   time.Time
	updatedAt   time.Time
	deliveredAt *time.Time

	// version is the optimistic concurrency token of the persisted row
	version int

	// isConstructed ensures the order was created via a constructor
	isConstructed bool
}

// NewOrder creates an order in New status with no distributor.
//
// Parameters:
//   - id: unique identifier (must be valid)
//   - externalRef: the shop's order id, used for idempotent ingestion (required)
//   - customer: contact details of the recipient
//   - address: delivery address text (required)
//   - location: geocoded coordinates, or nil when geocoding failed
//   - total: order total
//   - now: creation timestamp
//
// Example:
//
//	customer := order.NewCustomer("Thandi Mokoena", "+27 82 000 0000", "thandi@example.com")
//	total, _ := kernel.MoneyFromString("149.90")
//	o, err := order.NewOrder(kernel.NewUUID(), "woo-1042", customer, "12 Main Rd, Cape Town", nil, total, time.Now())
func NewOrder(
	id kernel.UUID,
	externalRef string,
	customer Customer,
	address string,
	location *kernel.Location,
	total kernel.Money,
	now time.Time,
) (*Order, error) {
	o := &Order{
		customer:      customer,
		status:        New,
		createdAt:     now,
		updatedAt:     now,
		isConstructed: true,
	}

	if err := errors.Join(
		o.setID(id),
		o.setExternalRef(externalRef),
		o.setAddress(address),
		o.setLocation(location),
		o.setTotal(total),
	); err != nil {
		return nil, err
	}

	return o, nil
}

// Snapshot carries the persisted state of an order for RestoreOrder.
type Snapshot struct {
	ID                 kernel.UUID
	ExternalRef        string
	Customer           Customer
	Address            string
	Location           *kernel.Location
	Total              kernel.Money
	Status             Status
	DistributorID      *kernel.UUID
	ProofOfDeliveryURL string
	CreatedAt          time.Time
	UpdatedAt          time.Time
	DeliveredAt        *time.Time
	Version            int
}

// RestoreOrder rebuilds an order from persistence, checking the same
// invariants as NewOrder plus the status/distributor consistency rule.
func RestoreOrder(s Snapshot) (*Order, error) {
	o := &Order{
		customer:           s.Customer,
		distributorID:      s.DistributorID,
		proofOfDeliveryURL: s.ProofOfDeliveryURL,
		createdAt:          s.CreatedAt,
		updatedAt:          s.UpdatedAt,
		deliveredAt:        s.DeliveredAt,
		version:            s.Version,
		isConstructed:      true,
	}

	if err := errors.Join(
		o.setID(s.ID),
		o.setExternalRef(s.ExternalRef),
		o.setAddress(s.Address),
		o.setLocation(s.Location),
		o.setTotal(s.Total),
		s.Status.Validate(),
	); err != nil {
		return nil, err
	}
	o.status = s.Status

	if s.Status.IsReserving() != (s.DistributorID != nil) && !s.Status.IsTerminal() {
		return nil, errs.NewValueIsInvalidError("distributor assignment does not match status " + s.Status.String())
	}

	return o, nil
}

// Validate ensures the Order instance was built by a constructor.
func (o *Order) Validate() error {
	if o == nil || !o.isConstructed {
		return ErrOrderIsNotConstructed
	}

	return nil
}

// ID returns the order's unique identifier.
func (o *Order) ID() kernel.UUID {
	return o.id
}

// ExternalRef returns the submitting shop's order identifier.
func (o *Order) ExternalRef() string {
	return o.externalRef
}

// Customer returns the recipient's contact details.
func (o *Order) Customer() Customer {
	return o.customer
}

// Address returns the delivery address text.
func (o *Order) Address() string {
	return o.address
}

// Location returns the geocoded delivery location, or nil.
func (o *Order) Location() *kernel.Location {
	return o.location
}

// Total returns the order total.
func (o *Order) Total() kernel.Money {
	return o.total
}

// Status returns the current status of the order.
func (o *Order) Status() Status {
	return o.status
}

// Distributor returns the assigned (or, for terminal orders, last) distributor.
func (o *Order) Distributor() *kernel.UUID {
	return o.distributorID
}

// ProofOfDeliveryURL returns the proof recorded on delivery, if any.
func (o *Order) ProofOfDeliveryURL() string {
	return o.proofOfDeliveryURL
}

// CreatedAt returns the creation timestamp.
func (o *Order) CreatedAt() time.Time {
	return o.createdAt
}

// UpdatedAt returns the timestamp of the last transition.
func (o *Order) UpdatedAt() time.Time {
	return o.updatedAt
}

// DeliveredAt returns the delivery timestamp, or nil.
func (o *Order) DeliveredAt() *time.Time {
	return o.deliveredAt
}

// Version returns the optimistic concurrency token read from storage.
func (o *Order) Version() int {
	return o.version
}

// IsAssignedTo reports whether distributorID currently holds the order.
func (o *Order) IsAssignedTo(distributorID kernel.UUID) bool {
	return o.distributorID != nil && o.distributorID.IsEqual(distributorID)
}

// Locate records geocoded coordinates for an order still waiting in the queue.
func (o *Order) Locate(location kernel.Location, now time.Time) error {
	if err := location.Validate(); err != nil {
		return err
	}
	if o.status != New {
		return errs.NewInvalidTransitionError("order", o.status.String(), "located")
	}
	o.location = &location
	o.updatedAt = now
	return nil
}

// Assign offers the order to a distributor: New -> Assigned.
func (o *Order) Assign(distributorID kernel.UUID, now time.Time) error {
	if err := distributorID.Validate(); err != nil {
		return err
	}

	next, err := o.status.Assign()
	if err != nil {
		return err
	}

	o.status = next
	o.distributorID = &distributorID
	o.updatedAt = now
	return nil
}

// Accept records the distributor's confirmation: Assigned -> Accepted.
func (o *Order) Accept(now time.Time) error {
	next, err := o.status.Accept()
	if err != nil {
		return err
	}

	o.status = next
	o.updatedAt = now
	return nil
}

// Requeue returns a rejected offer to the queue: Assigned -> New. It returns
// the distributor whose reservation must be released.
func (o *Order) Requeue(now time.Time) (kernel.UUID, error) {
	next, err := o.status.Requeue()
	if err != nil {
		return kernel.UUID{}, err
	}

	released := *o.distributorID
	o.status = next
	o.distributorID = nil
	o.updatedAt = now
	return released, nil
}

// Progress describes the outcome of Advance.
type Progress struct {
	From    Status
	To      Status
	Changed bool

	// ReleasedDistributor is set when the transition ends a capacity
	// reservation that the caller must give back.
	ReleasedDistributor *kernel.UUID
}

// Advance moves the order to picked_up, delivered or cancelled.
//
// On delivery it records proofURL (when not empty) and the delivery time.
// Leaving a reserving status reports the distributor whose capacity is freed.
// Repeating the current status returns Changed=false and modifies nothing,
// so a replayed "delivered" never frees capacity twice.
func (o *Order) Advance(target Status, proofURL string, now time.Time) (Progress, error) {
	next, changed, err := o.status.Advance(target)
	if err != nil {
		return Progress{}, err
	}

	progress := Progress{From: o.status, To: next, Changed: changed}
	if !changed {
		return progress, nil
	}

	if o.status.IsReserving() && !next.IsReserving() && o.distributorID != nil {
		released := *o.distributorID
		progress.ReleasedDistributor = &released
	}

	o.status = next
	o.updatedAt = now
	if next == Delivered {
		if url := strings.TrimSpace(proofURL); url != "" {
			o.proofOfDeliveryURL = url
		}
		deliveredAt := now
		o.deliveredAt = &deliveredAt
	}

	return progress, nil
}

func (o *Order) setID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	o.id = id
	return nil
}

func (o *Order) setExternalRef(ref string) error {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return errs.NewValueIsRequiredError("external ref")
	}
	o.externalRef = ref
	return nil
}

func (o *Order) setAddress(address string) error {
	address = strings.TrimSpace(address)
	if address == "" {
		return errs.NewValueIsRequiredError("address")
	}
	o.address = address
	return nil
}

func (o *Order) setLocation(location *kernel.Location) error {
	if location == nil {
		return nil
	}
	if err := location.Validate(); err != nil {
		return err
	}
	loc := *location
	o.location = &loc
	return nil
}

func (o *Order) setTotal(total kernel.Money) error {
	if err := total.Validate(); err != nil {
		return err
	}
	o.total = total
	return nil
}
