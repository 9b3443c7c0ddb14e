package commands

import (
	"errors"

	"tms/internal/pkg/guard"
)

var ErrExpireStartRequestsCommandIsNotConstructed = errors.New(
	"ExpireStartRequestsCommand must be created via NewExpireStartRequestsCommand constructor",
)

// ExpireStartRequestsCommand re-sends or gives up start requests whose
// response did not arrive in time.
type ExpireStartRequestsCommand struct {
	guard guard.ConstructorGuard
}

func NewExpireStartRequestsCommand() ExpireStartRequestsCommand {
	return ExpireStartRequestsCommand{guard: guard.NewConstructorGuard()}
}

func (c ExpireStartRequestsCommand) Validate() error {
	return c.guard.Validate(ErrExpireStartRequestsCommandIsNotConstructed)
}
