package commands

import (
	"errors"
	"strings"

	"waterdist/internal/core/application/access"
	"waterdist/internal/core/domain/model/kernel"
	"waterdist/internal/pkg/guard"
)

var ErrRejectOrderCommandIsNotConstructed = errors.New(
	"RejectOrderCommand must be created via NewRejectOrderCommand constructor",
)

// RejectOrderCommand declines a pending offer. An empty reason is recorded
// as assignment.DefaultRejectionReason.
type RejectOrderCommand struct {
	caller  access.Caller
	orderID kernel.UUID
	reason  string

	guard guard.ConstructorGuard
}

func NewRejectOrderCommand(caller access.Caller, orderID kernel.UUID, reason string) (RejectOrderCommand, error) {
	if err := orderID.Validate(); err != nil {
		return RejectOrderCommand{}, err
	}
	return RejectOrderCommand{
		caller:  caller,
		orderID: orderID,
		reason:  strings.TrimSpace(reason),
		guard:   guard.NewConstructorGuard(),
	}, nil
}

func (c RejectOrderCommand) Validate() error {
	return c.guard.Validate(ErrRejectOrderCommandIsNotConstructed)
}

func (c RejectOrderCommand) Caller() access.Caller { return c.caller }
func (c RejectOrderCommand) OrderID() kernel.UUID  { return c.orderID }
func (c RejectOrderCommand) Reason() string        { return c.reason }
