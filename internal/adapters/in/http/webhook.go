package http

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"waterdist/internal/core/application/usecases/commands"
	"waterdist/internal/core/domain/model/kernel"
	"waterdist/internal/core/domain/model/order"
	"waterdist/internal/pkg/errs"

	"github.com/labstack/echo/v4"
)

// SignatureHeader carries base64(HMAC-SHA256(body, secret)).
const SignatureHeader = "X-WC-Webhook-Signature"

const (
	addressCountry  = "South Africa"
	maxWebhookBytes = 1 << 20
)

// WebhookVerifier checks shop webhook signatures. An empty secret disables
// the check.
type WebhookVerifier struct {
	secret []byte
}

func NewWebhookVerifier(secret string) *WebhookVerifier {
	return &WebhookVerifier{secret: []byte(secret)}
}

func (v *WebhookVerifier) Verify(body []byte, signature string) bool {
	if len(v.secret) == 0 {
		return true
	}
	given, err := base64.StdEncoding.DecodeString(strings.TrimSpace(signature))
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, v.secret)
	mac.Write(body)
	return hmac.Equal(mac.Sum(nil), given)
}

type wooBilling struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
	Email     string `json:"email"`
	Address1  string `json:"address_1"`
	City      string `json:"city"`
	Postcode  string `json:"postcode"`
}

// wooOrder is the subset of a WooCommerce order payload that is ingested.
type wooOrder struct {
	ID      json.Number `json:"id"`
	Total   string      `json:"total"`
	Billing wooBilling  `json:"billing"`
}

func (w wooOrder) command() (commands.IngestOrderCommand, error) {
	ref := strings.TrimSpace(w.ID.String())
	if ref == "" || ref == "0" {
		return commands.IngestOrderCommand{}, errs.NewValueIsRequiredError("order id")
	}

	total, err := kernel.MoneyFromString(w.Total)
	if err != nil {
		return commands.IngestOrderCommand{}, err
	}

	b := w.Billing
	name := strings.TrimSpace(b.FirstName + " " + b.LastName)
	address := fmt.Sprintf("%s, %s, %s, %s",
		strings.TrimSpace(b.Address1), strings.TrimSpace(b.City), strings.TrimSpace(b.Postcode), addressCountry)

	return commands.NewIngestOrderCommand(ref, order.NewCustomer(name, b.Phone, b.Email), address, total)
}

type ingestResponse struct {
	OK            bool         `json:"ok"`
	Existing      bool         `json:"existing"`
	OrderID       kernel.UUID  `json:"order_id"`
	Located       bool         `json:"located"`
	Assigned      bool         `json:"assigned"`
	DistributorID *kernel.UUID `json:"distributor_id,omitempty"`
}

// IngestOrder handles POST /api/webhook/orders.
func (s *Server) IngestOrder(c echo.Context) error {
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxWebhookBytes))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "unreadable body").SetInternal(err)
	}
	if !s.webhook.Verify(body, c.Request().Header.Get(SignatureHeader)) {
		s.log.Warnw("webhook_signature_rejected", "remote_ip", c.RealIP())
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid webhook signature")
	}

	var payload wooOrder
	if err = json.Unmarshal(body, &payload); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid order payload").SetInternal(err)
	}
	cmd, err := payload.command()
	if err != nil {
		return err
	}

	result, err := s.handlers.Ingest.Handle(c.Request().Context(), cmd)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, ingestResponse{
		OK:            true,
		Existing:      result.Existing,
		OrderID:       result.OrderID,
		Located:       result.Located,
		Assigned:      result.Assigned,
		DistributorID: result.DistributorID,
	})
}
