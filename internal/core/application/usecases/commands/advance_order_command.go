package commands

import (
	"errors"
	"strings"

	"waterdist/internal/core/application/access"
	"waterdist/internal/core/domain/model/kernel"
	"waterdist/internal/core/domain/model/order"
	"waterdist/internal/pkg/guard"
)

var ErrAdvanceOrderCommandIsNotConstructed = errors.New(
	"AdvanceOrderCommand must be created via NewAdvanceOrderCommand constructor",
)

// AdvanceOrderCommand requests picked_up, delivered or cancelled. The target
// is checked against the order's current status by the handler, so an
// unknown target fails as an invalid transition rather than a bad request.
type AdvanceOrderCommand struct {
	caller   access.Caller
	orderID  kernel.UUID
	target   order.Status
	proofURL string

	guard guard.ConstructorGuard
}

func NewAdvanceOrderCommand(
	caller access.Caller,
	orderID kernel.UUID,
	target order.Status,
	proofURL string,
) (AdvanceOrderCommand, error) {
	if err := orderID.Validate(); err != nil {
		return AdvanceOrderCommand{}, err
	}
	return AdvanceOrderCommand{
		caller:   caller,
		orderID:  orderID,
		target:   order.Status(strings.ToLower(strings.TrimSpace(string(target)))),
		proofURL: strings.TrimSpace(proofURL),
		guard:    guard.NewConstructorGuard(),
	}, nil
}

func (c AdvanceOrderCommand) Validate() error {
	return c.guard.Validate(ErrAdvanceOrderCommandIsNotConstructed)
}

func (c AdvanceOrderCommand) Caller() access.Caller { return c.caller }
func (c AdvanceOrderCommand) OrderID() kernel.UUID  { return c.orderID }
func (c AdvanceOrderCommand) Target() order.Status  { return c.target }
func (c AdvanceOrderCommand) ProofURL() string      { return c.proofURL }
