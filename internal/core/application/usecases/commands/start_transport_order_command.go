package commands

import (
	"errors"

	"tms/internal/core/domain/model/kernel"
	"tms/internal/pkg/guard"
)

var ErrStartTransportOrderCommandIsNotConstructed = errors.New(
	"StartTransportOrderCommand must be created via NewStartTransportOrderCommand constructor",
)

// StartTransportOrderCommand starts one order directly, without negotiation.
type StartTransportOrderCommand struct {
	orderKey kernel.UUID
	guard    guard.ConstructorGuard
}

func NewStartTransportOrderCommand(orderKey kernel.UUID) (StartTransportOrderCommand, error) {
	if err := orderKey.Validate(); err != nil {
		return StartTransportOrderCommand{}, err
	}
	return StartTransportOrderCommand{orderKey: orderKey, guard: guard.NewConstructorGuard()}, nil
}

func (c StartTransportOrderCommand) Validate() error {
	return c.guard.Validate(ErrStartTransportOrderCommandIsNotConstructed)
}

func (c StartTransportOrderCommand) OrderKey() kernel.UUID {
	return c.orderKey
}
