package commands

import (
	"errors"
	"strings"

	"waterdist/internal/core/domain/model/kernel"
	"waterdist/internal/core/domain/model/order"
	"waterdist/internal/pkg/errs"
	"waterdist/internal/pkg/guard"
)

var ErrIngestOrderCommandIsNotConstructed = errors.New(
	"IngestOrderCommand must be created via NewIngestOrderCommand constructor",
)

// IngestOrderCommand carries an order submitted by a shop.
//
// Example:
//
//	total, _ := kernel.MoneyFromString("89.00")
//	cmd, err := NewIngestOrderCommand("woo-1042",
//	    order.NewCustomer("Thandi Mokoena", "+27 82 000 0000", "thandi@example.com"),
//	    "12 Main Rd, Cape Town, 8001, South Africa", total)
type IngestOrderCommand struct { //nolint:recvcheck //using for validation
	externalRef string
	customer    order.Customer
	address     string
	total       kernel.Money

	guard guard.ConstructorGuard
}

func NewIngestOrderCommand(
	externalRef string,
	customer order.Customer,
	address string,
	total kernel.Money,
) (IngestOrderCommand, error) {
	cmd := IngestOrderCommand{
		customer: customer,
		guard:    guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		cmd.setExternalRef(externalRef),
		cmd.setAddress(address),
		cmd.setTotal(total),
	); err != nil {
		return IngestOrderCommand{}, err
	}

	return cmd, nil
}

func (c IngestOrderCommand) Validate() error {
	return c.guard.Validate(ErrIngestOrderCommandIsNotConstructed)
}

func (c IngestOrderCommand) ExternalRef() string      { return c.externalRef }
func (c IngestOrderCommand) Customer() order.Customer { return c.customer }
func (c IngestOrderCommand) Address() string          { return c.address }
func (c IngestOrderCommand) Total() kernel.Money      { return c.total }

func (c *IngestOrderCommand) setExternalRef(ref string) error {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return errs.NewValueIsRequiredError("external ref")
	}
	c.externalRef = ref
	return nil
}

func (c *IngestOrderCommand) setAddress(address string) error {
	address = strings.TrimSpace(address)
	if address == "" {
		return errs.NewValueIsRequiredError("address")
	}
	c.address = address
	return nil
}

func (c *IngestOrderCommand) setTotal(total kernel.Money) error {
	if err := total.Validate(); err != nil {
		return err
	}
	c.total = total
	return nil
}
