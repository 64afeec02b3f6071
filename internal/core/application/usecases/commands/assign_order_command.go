package commands

import (
	"errors"

	"waterdist/internal/core/application/access"
	"waterdist/internal/core/domain/model/kernel"
	"waterdist/internal/pkg/guard"
)

var ErrAssignOrderCommandIsNotConstructed = errors.New(
	"AssignOrderCommand must be created via NewAssignOrderCommand constructor",
)

// AssignOrderCommand asks for a new offer for an order waiting in the queue,
// typically after a rejection or a failed automatic assignment.
type AssignOrderCommand struct {
	caller  access.Caller
	orderID kernel.UUID

	guard guard.ConstructorGuard
}

func NewAssignOrderCommand(caller access.Caller, orderID kernel.UUID) (AssignOrderCommand, error) {
	if err := orderID.Validate(); err != nil {
		return AssignOrderCommand{}, err
	}
	return AssignOrderCommand{caller: caller, orderID: orderID, guard: guard.NewConstructorGuard()}, nil
}

func (c AssignOrderCommand) Validate() error {
	return c.guard.Validate(ErrAssignOrderCommandIsNotConstructed)
}

func (c AssignOrderCommand) Caller() access.Caller { return c.caller }
func (c AssignOrderCommand) OrderID() kernel.UUID  { return c.orderID }
