package commands

import (
	"errors"
	"strings"

	"tms/internal/pkg/errs"
	"tms/internal/pkg/guard"
)

var ErrStartNextTransportOrderCommandIsNotConstructed = errors.New(
	"StartNextTransportOrderCommand must be created via NewStartNextTransportOrderCommand constructor",
)

// StartNextTransportOrderCommand picks the next INITIALIZED order of a unit.
type StartNextTransportOrderCommand struct {
	unitBK string
	guard  guard.ConstructorGuard
}

func NewStartNextTransportOrderCommand(unitBK string) (StartNextTransportOrderCommand, error) {
	unitBK = strings.TrimSpace(unitBK)
	if unitBK == "" {
		return StartNextTransportOrderCommand{}, errs.NewValueIsRequiredError("transport unit")
	}
	return StartNextTransportOrderCommand{unitBK: unitBK, guard: guard.NewConstructorGuard()}, nil
}

func (c StartNextTransportOrderCommand) Validate() error {
	return c.guard.Validate(ErrStartNextTransportOrderCommandIsNotConstructed)
}

func (c StartNextTransportOrderCommand) UnitBK() string {
	return c.unitBK
}
