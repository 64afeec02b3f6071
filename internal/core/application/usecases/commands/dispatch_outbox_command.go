package commands

import (
	"errors"

	"waterdist/internal/pkg/errs"
	"waterdist/internal/pkg/guard"
)

var ErrDispatchOutboxCommandIsNotConstructed = errors.New(
	"DispatchOutboxCommand must be created via NewDispatchOutboxCommand constructor",
)

// DispatchOutboxCommand delivers one batch of due outbox messages.
type DispatchOutboxCommand struct {
	batchSize int

	guard guard.ConstructorGuard
}

func NewDispatchOutboxCommand(batchSize int) (DispatchOutboxCommand, error) {
	if batchSize <= 0 {
		return DispatchOutboxCommand{}, errs.NewValueIsOutOfRangeError("batch size", batchSize, 1, "+inf")
	}
	return DispatchOutboxCommand{batchSize: batchSize, guard: guard.NewConstructorGuard()}, nil
}

func (c DispatchOutboxCommand) Validate() error {
	return c.guard.Validate(ErrDispatchOutboxCommandIsNotConstructed)
}

func (c DispatchOutboxCommand) BatchSize() int { return c.batchSize }
