// Package invoice renders PDF invoices for delivered orders, records them and
// mails them to the customer.
package invoice

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"waterdist/internal/adapters/out/mail"
	"waterdist/internal/core/domain/model/kernel"
	"waterdist/internal/core/domain/model/order"
	"waterdist/internal/core/ports"
	"waterdist/internal/pkg/errs"

	"github.com/go-pdf/fpdf"
	"go.uber.org/zap"
)

var _ ports.InvoicePort = (*Generator)(nil)

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// Config selects where invoice documents are written.
type Config struct {
	Dir string `mapstructure:"dir"`
}

// OrderReader loads the order an invoice is issued for.
type OrderReader interface {
	Order(ctx context.Context, id kernel.UUID) (*order.Order, error)
}

// Recorder stores the handle of every generated document.
type Recorder interface {
	Add(ctx context.Context, handle ports.DocumentHandle, createdAt time.Time) error
}

// Generator is the file backed InvoicePort. A nil sender disables Send.
type Generator struct {
	dir      string
	orders   OrderReader
	recorder Recorder
	sender   mail.Sender
	now      func() time.Time
	compress bool
	log      *zap.SugaredLogger
}

func NewGenerator(cfg Config, orders OrderReader, recorder Recorder, sender mail.Sender, log *zap.SugaredLogger) *Generator {
	dir := cfg.Dir
	if dir == "" {
		dir = filepath.Join(os.TempDir(), "waterdist-invoices")
	}
	return &Generator{
		dir:      dir,
		orders:   orders,
		recorder: recorder,
		sender:   sender,
		now:      func() time.Time { return time.Now().UTC() },
		compress: true,
		log:      log.With("component", "invoice_generator"),
	}
}

// Generate writes invoice-<ref>-<unix>.pdf for a delivered order.
func (g *Generator) Generate(ctx context.Context, orderID kernel.UUID) (ports.DocumentHandle, error) {
	o, err := g.orders.Order(ctx, orderID)
	if err != nil {
		return ports.DocumentHandle{}, err
	}
	if o.Status() != order.Delivered {
		return ports.DocumentHandle{}, errs.NewInvalidTransitionError("order", o.Status().String(), "invoiced")
	}

	now := g.now()
	content, err := renderInvoice(o, now, g.compress)
	if err != nil {
		return ports.DocumentHandle{}, err
	}

	if err = os.MkdirAll(g.dir, 0o750); err != nil {
		return ports.DocumentHandle{}, fmt.Errorf("create invoice dir: %w", err)
	}
	name := fmt.Sprintf("invoice-%s-%d.pdf", unsafeFileChars.ReplaceAllString(o.ExternalRef(), "_"), now.Unix())
	path := filepath.Join(g.dir, name)
	if err = os.WriteFile(path, content, 0o640); err != nil {
		return ports.DocumentHandle{}, fmt.Errorf("write invoice: %w", err)
	}

	handle := ports.DocumentHandle{ID: kernel.NewUUID(), OrderID: orderID, Path: path}
	if err = g.recorder.Add(ctx, handle, now); err != nil {
		return ports.DocumentHandle{}, err
	}

	g.log.Infow("invoice_generated", "order_id", orderID.String(), "path", path)
	return handle, nil
}

// Send mails the document to the customer. It reports false without an error
// when the customer has no e-mail address or mail is disabled.
func (g *Generator) Send(ctx context.Context, orderID kernel.UUID, handle ports.DocumentHandle) (bool, error) {
	if g.sender == nil {
		g.log.Warnw("invoice_not_sent", "order_id", orderID.String(), "reason", "mail_disabled")
		return false, nil
	}

	o, err := g.orders.Order(ctx, orderID)
	if err != nil {
		return false, err
	}
	email := o.Customer().Email()
	if email == "" {
		g.log.Warnw("invoice_not_sent", "order_id", orderID.String(), "reason", "customer_without_email")
		return false, nil
	}

	content, err := os.ReadFile(handle.Path)
	if err != nil {
		return false, fmt.Errorf("read invoice: %w", err)
	}

	err = g.sender.Send(ctx, mail.Message{
		To:      email,
		Subject: fmt.Sprintf("Invoice for order %s", o.ExternalRef()),
		Body: fmt.Sprintf("Hello %s,\n\nThank you for your order. Your invoice is attached.\n",
			o.Customer().Name()),
		Attachments: []mail.Attachment{{
			Filename:    fmt.Sprintf("invoice-%s.pdf", unsafeFileChars.ReplaceAllString(o.ExternalRef(), "_")),
			ContentType: "application/pdf",
			Content:     content,
		}},
	})
	if err != nil {
		return false, err
	}

	g.log.Infow("invoice_sent", "order_id", orderID.String(), "to", email)
	return true, nil
}

const (
	pageMargin   = 50.0
	amountX      = 400.0
	amountWidth  = 90.0
	ruleEndX     = 550.0
	lineHeight   = 15.0
	tableTop     = 280.0
	ruleGreyTone = 170
)

// renderInvoice lays out a single-page letter invoice in points.
func renderInvoice(o *order.Order, now time.Time, compress bool) ([]byte, error) {
	pdf := fpdf.New("P", "pt", "Letter", "")
	pdf.SetCompression(compress)
	pdf.SetCreationDate(now)
	pdf.SetTitle("Invoice INV-"+o.ExternalRef(), true)
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(false, pageMargin)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	text := func(x, y float64, size float64, style, s string) {
		pdf.SetFont("Helvetica", style, size)
		pdf.SetXY(x, y)
		pdf.CellFormat(0, lineHeight, tr(s), "", 0, "L", false, 0, "")
	}
	amount := func(y float64, size float64, style, s string) {
		pdf.SetFont("Helvetica", style, size)
		pdf.SetXY(amountX, y)
		pdf.CellFormat(amountWidth, lineHeight, tr(s), "", 0, "R", false, 0, "")
	}
	rule := func(y float64) {
		pdf.SetDrawColor(ruleGreyTone, ruleGreyTone, ruleGreyTone)
		pdf.SetLineWidth(1)
		pdf.Line(pageMargin, y, ruleEndX, y)
	}

	text(pageMargin, 50, 20, "", "WATER DISTRIBUTION")
	text(pageMargin, 80, 10, "", "Invoice")
	text(pageMargin, 95, 10, "", "Invoice Number: INV-"+o.ExternalRef())
	text(pageMargin, 110, 10, "", "Date: "+now.Format(time.DateOnly))

	phone := o.Customer().Phone()
	if phone == "" {
		phone = "N/A"
	}
	text(pageMargin, 150, 12, "", "Bill To:")
	y := 170.0
	for _, line := range []string{o.Customer().Name(), o.Customer().Email(), phone, o.Address()} {
		if line == "" {
			continue
		}
		text(pageMargin, y, 10, "", line)
		y += lineHeight
	}

	total := "R " + o.Total().String()
	text(pageMargin, tableTop, 10, "", "Description")
	amount(tableTop, 10, "", "Amount")
	rule(tableTop + 15)

	itemY := tableTop + 30
	text(pageMargin, itemY, 10, "", "Water Delivery Order")
	amount(itemY, 10, "", total)
	if at := o.DeliveredAt(); at != nil {
		text(pageMargin, itemY+lineHeight, 8, "", "Delivered: "+at.UTC().Format(time.DateOnly))
	}

	totalY := itemY + 40
	rule(totalY - 10)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetXY(350, totalY)
	pdf.CellFormat(amountX-350, lineHeight, "Total:", "", 0, "L", false, 0, "")
	amount(totalY, 12, "B", total)

	pdf.SetFont("Helvetica", "", 8)
	pdf.SetXY(pageMargin, 700)
	pdf.CellFormat(ruleEndX-pageMargin, lineHeight, "Thank you for your business!", "", 0, "C", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render invoice: %w", err)
	}
	return buf.Bytes(), nil
}
