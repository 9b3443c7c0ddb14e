package commands

import (
	"errors"
	"strings"

	"tms/internal/core/domain/model/kernel"
	"tms/internal/core/domain/model/order"
	"tms/internal/pkg/errs"
	"tms/internal/pkg/guard"
)

var ErrCreateTransportOrderCommandIsNotConstructed = errors.New(
	"CreateTransportOrderCommand must be created via NewCreateTransportOrderCommand constructor",
)

// CreateTransportOrderCommand requests a new order moving a transport unit to
// a target. The target is a location when it parses as a coordinate
// (AREA/AISLE/X/Y/Z), otherwise the name of a location group.
//
// Example:
//
//	cmd, err := NewCreateTransportOrderCommand(kernel.NewUUID(), "4711", "AREA/PICK/0001/0001/0001", "HIGHEST")
//	if err != nil {
//	    return err // unknown priority or missing barcode
//	}
//	key, err := handler.Handle(ctx, cmd)
type CreateTransportOrderCommand struct { //nolint:recvcheck //using for validation
	pKey                kernel.UUID
	barcode             string
	targetLocation      string
	targetLocationGroup string
	priority            order.Priority

	guard guard.ConstructorGuard
}

// NewCreateTransportOrderCommand validates and parses the client request.
// An empty priority selects the default priority.
func NewCreateTransportOrderCommand(pKey kernel.UUID, barcode, target, priority string) (CreateTransportOrderCommand, error) {
	cmd := CreateTransportOrderCommand{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		cmd.setPKey(pKey),
		cmd.setBarcode(barcode),
		cmd.setPriority(priority),
	); err != nil {
		return CreateTransportOrderCommand{}, err
	}
	cmd.setTarget(target)

	return cmd, nil
}

// Validate ensures the command was created through the constructor.
func (c CreateTransportOrderCommand) Validate() error {
	return c.guard.Validate(ErrCreateTransportOrderCommandIsNotConstructed)
}

func (c CreateTransportOrderCommand) PKey() kernel.UUID {
	return c.pKey
}

func (c CreateTransportOrderCommand) Barcode() string {
	return c.barcode
}

func (c CreateTransportOrderCommand) TargetLocation() string {
	return c.targetLocation
}

func (c CreateTransportOrderCommand) TargetLocationGroup() string {
	return c.targetLocationGroup
}

func (c CreateTransportOrderCommand) Priority() order.Priority {
	return c.priority
}

func (c *CreateTransportOrderCommand) setPKey(pKey kernel.UUID) error {
	if err := pKey.Validate(); err != nil {
		return err
	}
	c.pKey = pKey
	return nil
}

func (c *CreateTransportOrderCommand) setBarcode(barcode string) error {
	barcode = strings.TrimSpace(barcode)
	if barcode == "" {
		return errs.NewValueIsRequiredError("barcode")
	}
	c.barcode = barcode
	return nil
}

func (c *CreateTransportOrderCommand) setPriority(priority string) error {
	p, err := order.ParsePriority(priority)
	if err != nil {
		return err
	}
	c.priority = p
	return nil
}

func (c *CreateTransportOrderCommand) setTarget(target string) {
	target = strings.TrimSpace(target)
	if kernel.IsLocationPK(target) {
		c.targetLocation = target
		return
	}
	c.targetLocationGroup = target
}
