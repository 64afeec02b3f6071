package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"waterdist/internal/core/application/usecases/commands"
	"waterdist/internal/core/application/usecases/queries"
	"waterdist/internal/core/domain/model/kernel"
	"waterdist/internal/core/domain/model/order"
	"waterdist/internal/core/domain/services"
	"waterdist/internal/pkg/errs"

	"github.com/labstack/echo/v4"
)

type OrderResponse struct {
	ID               kernel.UUID  `json:"id"`
	ExternalRef      string       `json:"external_ref"`
	CustomerName     string       `json:"customer_name"`
	Address          string       `json:"address"`
	Status           order.Status `json:"status"`
	DistributorID    *kernel.UUID `json:"distributor_id,omitempty"`
	Total            kernel.Money `json:"total"`
	AssignmentStatus string       `json:"assignment_status,omitempty"`
	CreatedAt        time.Time    `json:"created_at"`
	UpdatedAt        time.Time    `json:"updated_at"`
}

type DistributorResponse struct {
	ID              kernel.UUID `json:"id"`
	Name            string      `json:"name"`
	CurrentCapacity int         `json:"current_capacity"`
	MaxCapacity     int         `json:"max_capacity"`
	Active          bool        `json:"active"`
}

type ActionResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type AdvanceResponse struct {
	From    order.Status `json:"from"`
	To      order.Status `json:"to"`
	Changed bool         `json:"changed"`
}

type AssignResponse struct {
	AssignmentID  kernel.UUID `json:"assignment_id,omitempty"`
	DistributorID kernel.UUID `json:"distributor_id,omitempty"`
	Score         float64     `json:"score,omitempty"`
	Assigned      bool        `json:"assigned"`
}

type rejectRequest struct {
	Reason string `json:"reason"`
}

type advanceRequest struct {
	Status             string `json:"status"`
	ProofOfDeliveryURL string `json:"proof_of_delivery_url"`
}

// ListOrders handles GET /api/orders?limit=n.
func (s *Server) ListOrders(c echo.Context) error {
	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "limit must be a number")
		}
		limit = parsed
	}

	query, err := queries.NewListOrdersQuery(callerFrom(c), limit)
	if err != nil {
		return err
	}
	rows, err := s.handlers.ListOrders.Handle(c.Request().Context(), query)
	if err != nil {
		return err
	}

	response := make([]OrderResponse, len(rows))
	for i, row := range rows {
		response[i] = OrderResponse{
			ID:               row.ID,
			ExternalRef:      row.ExternalRef,
			CustomerName:     row.CustomerName,
			Address:          row.Address,
			Status:           row.Status,
			DistributorID:    row.DistributorID,
			Total:            row.Total,
			AssignmentStatus: row.AssignmentStatus,
			CreatedAt:        row.CreatedAt,
			UpdatedAt:        row.UpdatedAt,
		}
	}
	return c.JSON(http.StatusOK, response)
}

// AcceptOrder handles POST /api/orders/:id/accept.
func (s *Server) AcceptOrder(c echo.Context) error {
	orderID, err := orderIDParam(c)
	if err != nil {
		return err
	}
	cmd, err := commands.NewAcceptOrderCommand(callerFrom(c), orderID)
	if err != nil {
		return err
	}
	if err = s.handlers.Accept.Handle(c.Request().Context(), cmd); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ActionResponse{Success: true, Message: "Order accepted"})
}

// RejectOrder handles POST /api/orders/:id/reject.
func (s *Server) RejectOrder(c echo.Context) error {
	orderID, err := orderIDParam(c)
	if err != nil {
		return err
	}
	var body rejectRequest
	if c.Request().ContentLength != 0 {
		if err = c.Bind(&body); err != nil {
			return err
		}
	}
	cmd, err := commands.NewRejectOrderCommand(callerFrom(c), orderID, body.Reason)
	if err != nil {
		return err
	}
	if err = s.handlers.Reject.Handle(c.Request().Context(), cmd); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ActionResponse{Success: true, Message: "Order rejected. It will be reassigned."})
}

// AdvanceOrder handles PATCH /api/orders/:id/status.
func (s *Server) AdvanceOrder(c echo.Context) error {
	orderID, err := orderIDParam(c)
	if err != nil {
		return err
	}
	var body advanceRequest
	if err = c.Bind(&body); err != nil {
		return err
	}
	target, err := order.ParseStatus(body.Status)
	if err != nil {
		return err
	}
	cmd, err := commands.NewAdvanceOrderCommand(callerFrom(c), orderID, target, body.ProofOfDeliveryURL)
	if err != nil {
		return err
	}
	result, err := s.handlers.Advance.Handle(c.Request().Context(), cmd)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, AdvanceResponse{From: result.From, To: result.To, Changed: result.Changed})
}

// AssignOrder handles POST /api/orders/:id/assign. Finding no distributor is
// not an error; the response reports assigned=false.
func (s *Server) AssignOrder(c echo.Context) error {
	orderID, err := orderIDParam(c)
	if err != nil {
		return err
	}
	cmd, err := commands.NewAssignOrderCommand(callerFrom(c), orderID)
	if err != nil {
		return err
	}
	offer, err := s.handlers.Assign.Handle(c.Request().Context(), cmd)
	if errors.Is(err, services.ErrNoDistributorAvailable) {
		return c.JSON(http.StatusOK, AssignResponse{Assigned: false})
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, AssignResponse{
		AssignmentID:  offer.ID(),
		DistributorID: offer.DistributorID(),
		Score:         offer.Score(),
		Assigned:      true,
	})
}

// RequestInvoice handles POST /api/orders/:id/invoice.
func (s *Server) RequestInvoice(c echo.Context) error {
	orderID, err := orderIDParam(c)
	if err != nil {
		return err
	}
	cmd, err := commands.NewRequestInvoiceCommand(callerFrom(c), orderID)
	if err != nil {
		return err
	}
	if err = s.handlers.RequestInvoice.Handle(c.Request().Context(), cmd); err != nil {
		return err
	}
	return c.JSON(http.StatusAccepted, ActionResponse{Success: true, Message: "Invoice queued"})
}

// ListDistributors handles GET /api/distributors.
func (s *Server) ListDistributors(c echo.Context) error {
	rows, err := s.handlers.ListDistributors.Handle(c.Request().Context(), queries.NewListDistributorsQuery())
	if err != nil {
		return err
	}

	response := make([]DistributorResponse, len(rows))
	for i, row := range rows {
		response[i] = DistributorResponse(row)
	}
	return c.JSON(http.StatusOK, response)
}

func orderIDParam(c echo.Context) (kernel.UUID, error) {
	id, err := kernel.UUIDFromString(c.Param("id"))
	if err != nil {
		return kernel.UUID{}, errs.NewValueIsInvalidErrorWithCause("order id", err)
	}
	return id, nil
}
