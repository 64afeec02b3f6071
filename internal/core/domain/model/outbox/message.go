// Package outbox models side-effect tasks that are written in the same unit of
// work as a lifecycle transition and delivered later by the dispatcher.
package outbox

import (
	"errors"
	"fmt"
	"time"

	"waterdist/internal/core/domain/model/kernel"
	"waterdist/internal/pkg/errs"
)

// Kind selects the side effect a message triggers.
type Kind string

const (
	// KindAssignmentNotice tells a distributor about a new offer.
	KindAssignmentNotice Kind = "distributor.assignment"
	// KindStatusNotice tells the customer about an order status change.
	KindStatusNotice Kind = "order.status"
	// KindInvoice generates and sends the invoice for a delivered order.
	KindInvoice Kind = "order.invoice"
)

// Validate checks the kind is known.
func (k Kind) Validate() error {
	switch k {
	case KindAssignmentNotice, KindStatusNotice, KindInvoice:
		return nil
	default:
		return errs.NewValueIsInvalidErrorWithCause("outbox kind", fmt.Errorf("%q is not a valid kind", string(k)))
	}
}

// State is the delivery state of a message.
type State string

const (
	StatePending State = "pending"
	StateSent    State = "sent"
	StateFailed  State = "failed"
)

// ErrMessageIsNotConstructed is returned for zero-value messages.
var ErrMessageIsNotConstructed = errors.New("Message must be created via an outbox constructor")

// Message is one queued side effect.
type Message struct {
	id            kernel.UUID
	kind          Kind
	orderID       kernel.UUID
	distributorID *kernel.UUID
	orderStatus   string

	state         State
	attempts      int
	lastError     string
	nextAttemptAt time.Time
	createdAt     time.Time
	sentAt        *time.Time

	isConstructed bool
}

// NewAssignmentNotice queues the offer notification for distributorID.
func NewAssignmentNotice(orderID, distributorID kernel.UUID, now time.Time) (*Message, error) {
	if err := distributorID.Validate(); err != nil {
		return nil, err
	}
	return newMessage(KindAssignmentNotice, orderID, &distributorID, "", now)
}

// NewStatusNotice queues the customer notification for a status change.
func NewStatusNotice(orderID kernel.UUID, status string, now time.Time) (*Message, error) {
	if status == "" {
		return nil, errs.NewValueIsRequiredError("order status")
	}
	return newMessage(KindStatusNotice, orderID, nil, status, now)
}

// NewInvoiceRequest queues invoice generation and delivery for orderID.
func NewInvoiceRequest(orderID kernel.UUID, now time.Time) (*Message, error) {
	return newMessage(KindInvoice, orderID, nil, "", now)
}

func newMessage(kind Kind, orderID kernel.UUID, distributorID *kernel.UUID, status string, now time.Time) (*Message, error) {
	if err := orderID.Validate(); err != nil {
		return nil, err
	}
	return &Message{
		id:            kernel.NewUUID(),
		kind:          kind,
		orderID:       orderID,
		distributorID: distributorID,
		orderStatus:   status,
		state:         StatePending,
		nextAttemptAt: now,
		createdAt:     now,
		isConstructed: true,
	}, nil
}

// Snapshot carries persisted message state.
type Snapshot struct {
	ID            kernel.UUID
	Kind          Kind
	OrderID       kernel.UUID
	DistributorID *kernel.UUID
	OrderStatus   string
	State         State
	Attempts      int
	LastError     string
	NextAttemptAt time.Time
	CreatedAt     time.Time
	SentAt        *time.Time
}

// RestoreMessage rebuilds a message from storage.
func RestoreMessage(s Snapshot) (*Message, error) {
	if err := errors.Join(s.ID.Validate(), s.OrderID.Validate(), s.Kind.Validate()); err != nil {
		return nil, err
	}
	return &Message{
		id:            s.ID,
		kind:          s.Kind,
		orderID:       s.OrderID,
		distributorID: s.DistributorID,
		orderStatus:   s.OrderStatus,
		state:         s.State,
		attempts:      s.Attempts,
		lastError:     s.LastError,
		nextAttemptAt: s.NextAttemptAt,
		createdAt:     s.CreatedAt,
		sentAt:        s.SentAt,
		isConstructed: true,
	}, nil
}

// Validate ensures the message was built by a constructor.
func (m *Message) Validate() error {
	if m == nil || !m.isConstructed {
		return ErrMessageIsNotConstructed
	}
	return nil
}

func (m *Message) ID() kernel.UUID             { return m.id }
func (m *Message) Kind() Kind                  { return m.kind }
func (m *Message) OrderID() kernel.UUID        { return m.orderID }
func (m *Message) DistributorID() *kernel.UUID { return m.distributorID }
func (m *Message) OrderStatus() string         { return m.orderStatus }
func (m *Message) State() State                { return m.state }
func (m *Message) Attempts() int               { return m.attempts }
func (m *Message) LastError() string           { return m.lastError }
func (m *Message) NextAttemptAt() time.Time    { return m.nextAttemptAt }
func (m *Message) CreatedAt() time.Time        { return m.createdAt }
func (m *Message) SentAt() *time.Time          { return m.sentAt }

// Lease pushes the next attempt to until while a dispatcher delivers the
// message outside the claiming transaction. If that dispatcher dies, the
// message becomes due again once the lease runs out.
func (m *Message) Lease(until time.Time) {
	m.nextAttemptAt = until
}

// MarkSent records a successful delivery.
func (m *Message) MarkSent(now time.Time) {
	m.attempts++
	m.state = StateSent
	m.lastError = ""
	m.sentAt = &now
}

// MarkFailed records a failed delivery attempt and schedules the next one, or
// gives up once the policy's attempt budget is spent.
func (m *Message) MarkFailed(cause error, now time.Time, policy RetryPolicy) {
	m.attempts++
	if cause != nil {
		m.lastError = cause.Error()
	}
	if m.attempts >= policy.MaxAttempts {
		m.state = StateFailed
		return
	}
	m.nextAttemptAt = now.Add(policy.Backoff(m.attempts))
}

// RetryPolicy bounds redelivery of failed messages.
type RetryPolicy struct {
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	MaxAttempts int
}

// Backoff returns BaseDelay * 2^(attempt-1), capped at MaxDelay.
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	delay := p.BaseDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
		if p.MaxDelay > 0 && delay >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	if p.MaxDelay > 0 && delay > p.MaxDelay {
		return p.MaxDelay
	}
	return delay
}
