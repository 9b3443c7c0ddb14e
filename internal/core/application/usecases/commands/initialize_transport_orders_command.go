package commands

import (
	"errors"
	"strings"

	"tms/internal/pkg/errs"
	"tms/internal/pkg/guard"
)

var ErrInitializeTransportOrdersCommandIsNotConstructed = errors.New(
	"InitializeTransportOrdersCommand must be created via NewInitializeTransportOrdersCommand constructor",
)

// InitializeTransportOrdersCommand advances the CREATED orders of one
// transport unit to INITIALIZED.
type InitializeTransportOrdersCommand struct {
	unitBK string
	guard  guard.ConstructorGuard
}

func NewInitializeTransportOrdersCommand(unitBK string) (InitializeTransportOrdersCommand, error) {
	unitBK = strings.TrimSpace(unitBK)
	if unitBK == "" {
		return InitializeTransportOrdersCommand{}, errs.NewValueIsRequiredError("transport unit")
	}
	return InitializeTransportOrdersCommand{unitBK: unitBK, guard: guard.NewConstructorGuard()}, nil
}

func (c InitializeTransportOrdersCommand) Validate() error {
	return c.guard.Validate(ErrInitializeTransportOrdersCommandIsNotConstructed)
}

func (c InitializeTransportOrdersCommand) UnitBK() string {
	return c.unitBK
}
