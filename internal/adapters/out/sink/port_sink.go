// Package sink delivers outbox messages in-process through the notification
// and invoice ports.
package sink

import (
	"context"
	"errors"
	"fmt"

	"waterdist/internal/core/domain/model/order"
	"waterdist/internal/core/domain/model/outbox"
	"waterdist/internal/core/ports"

	"go.uber.org/zap"
)

var _ ports.OutboxSink = (*PortSink)(nil)

// ErrInvoiceNotSent is returned when the invoice port declined to send.
var ErrInvoiceNotSent = errors.New("invoice was not sent")

// PortSink routes messages by kind.
type PortSink struct {
	notifications ports.NotificationPort
	invoices      ports.InvoicePort
	log           *zap.SugaredLogger
}

func NewPortSink(notifications ports.NotificationPort, invoices ports.InvoicePort, log *zap.SugaredLogger) *PortSink {
	return &PortSink{
		notifications: notifications,
		invoices:      invoices,
		log:           log.With("component", "port_sink"),
	}
}

func (s *PortSink) Deliver(ctx context.Context, message *outbox.Message) error {
	if err := message.Validate(); err != nil {
		return err
	}

	switch message.Kind() {
	case outbox.KindAssignmentNotice:
		if message.DistributorID() == nil {
			return fmt.Errorf("outbox message %s: assignment notice without distributor", message.ID())
		}
		return s.notifications.NotifyAssignment(ctx, message.OrderID(), *message.DistributorID())

	case outbox.KindStatusNotice:
		status, err := order.ParseStatus(message.OrderStatus())
		if err != nil {
			return err
		}
		return s.notifications.NotifyStatus(ctx, message.OrderID(), status)

	case outbox.KindInvoice:
		handle, err := s.invoices.Generate(ctx, message.OrderID())
		if err != nil {
			return err
		}
		sent, err := s.invoices.Send(ctx, message.OrderID(), handle)
		if err != nil {
			return err
		}
		if !sent {
			return fmt.Errorf("order %s: %w", message.OrderID(), ErrInvoiceNotSent)
		}
		s.log.Debugw("invoice_delivered", "order_id", message.OrderID().String(), "document_id", handle.ID.String())
		return nil

	default:
		return message.Kind().Validate()
	}
}
