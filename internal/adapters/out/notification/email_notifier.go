package notification

import (
	"bytes"
	"context"
	"fmt"
	"text/template"

	"waterdist/internal/adapters/out/mail"
	"waterdist/internal/core/domain/model/kernel"
	"waterdist/internal/core/domain/model/order"
	"waterdist/internal/core/ports"

	"go.uber.org/zap"
)

var _ ports.NotificationPort = (*EmailNotifier)(nil)

var (
	assignmentTemplate = template.Must(template.New("assignment").Parse(`Hello {{.Distributor}},

A new order has been assigned to you.

Order:    {{.Ref}}
Customer: {{.Customer}}
Phone:    {{.Phone}}
Address:  {{.Address}}
Amount:   R {{.Amount}}

Please accept or reject the order in the dispatch portal.
`))

	statusTemplate = template.Must(template.New("status").Parse(`Hello {{.Customer}},

Your order {{.Ref}} is now {{.Status}}.

Thank you for choosing us.
`))
)

// statusLabels are the customer facing names of order statuses.
var statusLabels = map[order.Status]string{
	order.New:       "waiting for a distributor",
	order.Assigned:  "assigned to a distributor",
	order.Accepted:  "accepted by your distributor",
	order.PickedUp:  "out for delivery",
	order.Delivered: "delivered",
	order.Cancelled: "cancelled",
}

// EmailNotifier mails assignment notices to distributors and status updates
// to customers. Recipients without an e-mail address are skipped.
type EmailNotifier struct {
	sender mail.Sender
	lookup Lookup
	log    *zap.SugaredLogger
}

func NewEmailNotifier(sender mail.Sender, lookup Lookup, log *zap.SugaredLogger) *EmailNotifier {
	return &EmailNotifier{
		sender: sender,
		lookup: lookup,
		log:    log.With("component", "email_notifier"),
	}
}

func (n *EmailNotifier) NotifyAssignment(ctx context.Context, orderID, distributorID kernel.UUID) error {
	o, err := n.lookup.Order(ctx, orderID)
	if err != nil {
		return err
	}
	d, err := n.lookup.Distributor(ctx, distributorID)
	if err != nil {
		return err
	}
	if d.Email() == "" {
		n.log.Infow("notification_skipped", "reason", "distributor_without_email",
			"order_id", orderID.String(), "distributor_id", distributorID.String())
		return nil
	}

	body, err := render(assignmentTemplate, map[string]string{
		"Distributor": d.Name(),
		"Ref":         o.ExternalRef(),
		"Customer":    o.Customer().Name(),
		"Phone":       o.Customer().Phone(),
		"Address":     o.Address(),
		"Amount":      o.Total().String(),
	})
	if err != nil {
		return err
	}

	return n.sender.Send(ctx, mail.Message{
		To:      d.Email(),
		Subject: fmt.Sprintf("New order assigned: %s", o.ExternalRef()),
		Body:    body,
	})
}

func (n *EmailNotifier) NotifyStatus(ctx context.Context, orderID kernel.UUID, status order.Status) error {
	o, err := n.lookup.Order(ctx, orderID)
	if err != nil {
		return err
	}
	email := o.Customer().Email()
	if email == "" {
		n.log.Infow("notification_skipped", "reason", "customer_without_email",
			"order_id", orderID.String(), "status", status.String())
		return nil
	}

	label, ok := statusLabels[status]
	if !ok {
		label = status.String()
	}
	body, err := render(statusTemplate, map[string]string{
		"Customer": o.Customer().Name(),
		"Ref":      o.ExternalRef(),
		"Status":   label,
	})
	if err != nil {
		return err
	}

	return n.sender.Send(ctx, mail.Message{
		To:      email,
		Subject: fmt.Sprintf("Order %s: %s", o.ExternalRef(), label),
		Body:    body,
	})
}

func render(t *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s notification: %w", t.Name(), err)
	}
	return buf.String(), nil
}
