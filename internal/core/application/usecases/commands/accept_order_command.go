package commands

import (
	"errors"

	"waterdist/internal/core/application/access"
	"waterdist/internal/core/domain/model/kernel"
	"waterdist/internal/pkg/guard"
)

var ErrAcceptOrderCommandIsNotConstructed = errors.New(
	"AcceptOrderCommand must be created via NewAcceptOrderCommand constructor",
)

// AcceptOrderCommand confirms a pending offer on behalf of caller.
type AcceptOrderCommand struct {
	caller  access.Caller
	orderID kernel.UUID

	guard guard.ConstructorGuard
}

func NewAcceptOrderCommand(caller access.Caller, orderID kernel.UUID) (AcceptOrderCommand, error) {
	if err := orderID.Validate(); err != nil {
		return AcceptOrderCommand{}, err
	}
	return AcceptOrderCommand{caller: caller, orderID: orderID, guard: guard.NewConstructorGuard()}, nil
}

func (c AcceptOrderCommand) Validate() error {
	return c.guard.Validate(ErrAcceptOrderCommandIsNotConstructed)
}

func (c AcceptOrderCommand) Caller() access.Caller { return c.caller }
func (c AcceptOrderCommand) OrderID() kernel.UUID  { return c.orderID }
