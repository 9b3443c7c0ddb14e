package commands

import (
	"errors"
	"fmt"

	"tms/internal/core/domain/model/kernel"
	"tms/internal/pkg/errs"
	"tms/internal/pkg/guard"
)

var ErrTriggerStartCommandIsNotConstructed = errors.New(
	"TriggerStartCommand must be created via NewTriggerStartCommand constructor",
)

// StartMode selects how an order is started.
type StartMode string

const (
	// StartModeLocal runs the start algorithm right away.
	StartModeLocal StartMode = "local"
	// StartModeNegotiated asks a remote authority first and starts on its response.
	StartModeNegotiated StartMode = "negotiated"
)

// ParseStartMode validates a configured start mode.
func ParseStartMode(s string) (StartMode, error) {
	switch m := StartMode(s); m {
	case StartModeLocal, StartModeNegotiated:
		return m, nil
	default:
		return "", errs.NewValueIsInvalidErrorWithCause("start mode", fmt.Errorf("%q is neither local nor negotiated", s))
	}
}

// TriggerStartCommand is the start entry point used by event handling. It
// either starts the order or sends a start request, depending on the mode.
type TriggerStartCommand struct {
	orderKey kernel.UUID
	guard    guard.ConstructorGuard
}

func NewTriggerStartCommand(orderKey kernel.UUID) (TriggerStartCommand, error) {
	if err := orderKey.Validate(); err != nil {
		return TriggerStartCommand{}, err
	}
	return TriggerStartCommand{orderKey: orderKey, guard: guard.NewConstructorGuard()}, nil
}

func (c TriggerStartCommand) Validate() error {
	return c.guard.Validate(ErrTriggerStartCommandIsNotConstructed)
}

func (c TriggerStartCommand) OrderKey() kernel.UUID {
	return c.orderKey
}
