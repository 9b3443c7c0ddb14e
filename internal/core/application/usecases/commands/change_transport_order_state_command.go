package commands

import (
	"errors"

	"tms/internal/core/domain/model/kernel"
	"tms/internal/core/domain/model/order"
	"tms/internal/pkg/guard"
)

var ErrChangeTransportOrderStateCommandIsNotConstructed = errors.New(
	"ChangeTransportOrderStateCommand must be created via NewChangeTransportOrderStateCommand constructor",
)

// ChangeTransportOrderStateCommand asks to move an order to a new state.
type ChangeTransportOrderStateCommand struct {
	orderKey kernel.UUID
	state    order.State
	guard    guard.ConstructorGuard
}

// NewChangeTransportOrderStateCommand parses the requested state name.
// An unknown name is a validation error.
func NewChangeTransportOrderStateCommand(orderKey kernel.UUID, state string) (ChangeTransportOrderStateCommand, error) {
	s, err := order.ParseState(state)
	if err = errors.Join(orderKey.Validate(), err); err != nil {
		return ChangeTransportOrderStateCommand{}, err
	}
	return ChangeTransportOrderStateCommand{orderKey: orderKey, state: s, guard: guard.NewConstructorGuard()}, nil
}

func (c ChangeTransportOrderStateCommand) Validate() error {
	return c.guard.Validate(ErrChangeTransportOrderStateCommandIsNotConstructed)
}

func (c ChangeTransportOrderStateCommand) OrderKey() kernel.UUID {
	return c.orderKey
}

func (c ChangeTransportOrderStateCommand) State() order.State {
	return c.state
}
