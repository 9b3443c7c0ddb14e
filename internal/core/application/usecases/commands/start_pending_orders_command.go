package commands

import (
	"errors"

	"tms/internal/pkg/guard"
)

var ErrStartPendingOrdersCommandIsNotConstructed = errors.New(
	"StartPendingOrdersCommand must be created via NewStartPendingOrdersCommand constructor",
)

// StartPendingOrdersCommand runs startNext for every unit that has
// INITIALIZED orders but no STARTED one.
type StartPendingOrdersCommand struct {
	guard guard.ConstructorGuard
}

func NewStartPendingOrdersCommand() StartPendingOrdersCommand {
	return StartPendingOrdersCommand{guard: guard.NewConstructorGuard()}
}

func (c StartPendingOrdersCommand) Validate() error {
	return c.guard.Validate(ErrStartPendingOrdersCommandIsNotConstructed)
}
