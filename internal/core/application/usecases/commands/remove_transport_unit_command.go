package commands

import (
	"errors"
	"strings"

	"tms/internal/pkg/errs"
	"tms/internal/pkg/guard"
)

var ErrRemoveTransportUnitCommandIsNotConstructed = errors.New(
	"RemoveTransportUnitCommand must be created via NewRemoveTransportUnitCommand constructor",
)

// RemoveTransportUnitCommand announces that a transport unit is about to be
// removed.
type RemoveTransportUnitCommand struct {
	unitBK string
	guard  guard.ConstructorGuard
}

func NewRemoveTransportUnitCommand(unitBK string) (RemoveTransportUnitCommand, error) {
	unitBK = strings.TrimSpace(unitBK)
	if unitBK == "" {
		return RemoveTransportUnitCommand{}, errs.NewValueIsRequiredError("transport unit")
	}
	return RemoveTransportUnitCommand{unitBK: unitBK, guard: guard.NewConstructorGuard()}, nil
}

func (c RemoveTransportUnitCommand) Validate() error {
	return c.guard.Validate(ErrRemoveTransportUnitCommandIsNotConstructed)
}

func (c RemoveTransportUnitCommand) UnitBK() string {
	return c.unitBK
}
