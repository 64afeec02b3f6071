package ports

import (
	"context"

	"waterdist/internal/core/domain/model/kernel"
	"waterdist/internal/core/domain/model/order"
	"waterdist/internal/core/domain/model/outbox"
)

// NotificationPort delivers best-effort messages to distributors and customers.
type NotificationPort interface {
	NotifyAssignment(ctx context.Context, orderID, distributorID kernel.UUID) error
	NotifyStatus(ctx context.Context, orderID kernel.UUID, status order.Status) error
}

// DocumentHandle points at a generated invoice document.
type DocumentHandle struct {
	ID      kernel.UUID
	OrderID kernel.UUID
	Path    string
}

// InvoicePort renders and delivers invoices for delivered orders.
type InvoicePort interface {
	Generate(ctx context.Context, orderID kernel.UUID) (DocumentHandle, error)

	// Send reports false when the document could not be handed to the customer.
	Send(ctx context.Context, orderID kernel.UUID, handle DocumentHandle) (bool, error)
}

// OutboxSink performs or forwards the side effect a message describes.
type OutboxSink interface {
	Deliver(ctx context.Context, message *outbox.Message) error
}
