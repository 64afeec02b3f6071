package commands

import (
	"errors"

	"waterdist/internal/core/application/access"
	"waterdist/internal/core/domain/model/kernel"
	"waterdist/internal/pkg/guard"
)

var ErrRequestInvoiceCommandIsNotConstructed = errors.New(
	"RequestInvoiceCommand must be created via NewRequestInvoiceCommand constructor",
)

// RequestInvoiceCommand asks for the invoice of a delivered order to be sent again.
type RequestInvoiceCommand struct {
	caller  access.Caller
	orderID kernel.UUID

	guard guard.ConstructorGuard
}

func NewRequestInvoiceCommand(caller access.Caller, orderID kernel.UUID) (RequestInvoiceCommand, error) {
	if err := orderID.Validate(); err != nil {
		return RequestInvoiceCommand{}, err
	}
	return RequestInvoiceCommand{caller: caller, orderID: orderID, guard: guard.NewConstructorGuard()}, nil
}

func (c RequestInvoiceCommand) Validate() error {
	return c.guard.Validate(ErrRequestInvoiceCommandIsNotConstructed)
}

func (c RequestInvoiceCommand) Caller() access.Caller { return c.caller }
func (c RequestInvoiceCommand) OrderID() kernel.UUID  { return c.orderID }
