package commands

import (
	"errors"
	"strings"

	"tms/internal/core/domain/model/kernel"
	"tms/internal/core/ports"
	"tms/internal/pkg/guard"
)

var ErrHandleStartResponseCommandIsNotConstructed = errors.New(
	"HandleStartResponseCommand must be created via NewHandleStartResponseCommand constructor",
)

// HandleStartResponseCommand carries the remote authority's answer to a start
// request.
type HandleStartResponseCommand struct { //nolint:recvcheck //using for validation
	orderKey      kernel.UUID
	acceptedState string
	rejection     *ports.StartError
	guard         guard.ConstructorGuard
}

func NewHandleStartResponseCommand(resp ports.StartResponse) (HandleStartResponseCommand, error) {
	key, err := kernel.UUIDFromString(resp.OrderKey)
	if err != nil {
		return HandleStartResponseCommand{}, err
	}
	cmd := HandleStartResponseCommand{
		orderKey:      key,
		acceptedState: strings.TrimSpace(resp.AcceptedState),
		guard:         guard.NewConstructorGuard(),
	}
	if resp.Error != nil {
		rejection := *resp.Error
		cmd.rejection = &rejection
	}
	return cmd, nil
}

func (c HandleStartResponseCommand) Validate() error {
	return c.guard.Validate(ErrHandleStartResponseCommandIsNotConstructed)
}

func (c HandleStartResponseCommand) OrderKey() kernel.UUID {
	return c.orderKey
}

func (c HandleStartResponseCommand) AcceptedState() string {
	return c.acceptedState
}

// Rejection returns the error payload, or nil when the request was accepted.
func (c HandleStartResponseCommand) Rejection() *ports.StartError {
	return c.rejection
}
