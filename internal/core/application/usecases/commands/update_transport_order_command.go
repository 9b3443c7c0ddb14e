package commands

import (
	"errors"
	"strings"

	"tms/internal/core/domain/model/kernel"
	"tms/internal/core/domain/model/order"
	"tms/internal/pkg/errs"
	"tms/internal/pkg/guard"
)

var ErrUpdateTransportOrderCommandIsNotConstructed = errors.New(
	"UpdateTransportOrderCommand must be created via NewUpdateTransportOrderCommand constructor",
)

// ProblemPatch is a problem reported by a client.
type ProblemPatch struct {
	Code string
	Text string
}

// UpdateTransportOrderCommand changes selected fields of an order. A nil field
// keeps the current value.
type UpdateTransportOrderCommand struct { //nolint:recvcheck //using for validation
	orderKey            kernel.UUID
	priority            *order.Priority
	targetLocation      *string
	targetLocationGroup *string
	problem             *ProblemPatch
	guard               guard.ConstructorGuard
}

func NewUpdateTransportOrderCommand(
	orderKey kernel.UUID,
	priority *string,
	targetLocation *string,
	targetLocationGroup *string,
	problem *ProblemPatch,
) (UpdateTransportOrderCommand, error) {
	cmd := UpdateTransportOrderCommand{
		orderKey:            orderKey,
		targetLocation:      trimmed(targetLocation),
		targetLocationGroup: trimmed(targetLocationGroup),
		guard:               guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		orderKey.Validate(),
		cmd.setPriority(priority),
		cmd.setProblem(problem),
	); err != nil {
		return UpdateTransportOrderCommand{}, err
	}
	return cmd, nil
}

func (c UpdateTransportOrderCommand) Validate() error {
	return c.guard.Validate(ErrUpdateTransportOrderCommandIsNotConstructed)
}

func (c UpdateTransportOrderCommand) OrderKey() kernel.UUID {
	return c.orderKey
}

func (c UpdateTransportOrderCommand) Priority() *order.Priority {
	return c.priority
}

func (c UpdateTransportOrderCommand) TargetLocation() *string {
	return c.targetLocation
}

func (c UpdateTransportOrderCommand) TargetLocationGroup() *string {
	return c.targetLocationGroup
}

func (c UpdateTransportOrderCommand) Problem() *ProblemPatch {
	return c.problem
}

func (c *UpdateTransportOrderCommand) setPriority(priority *string) error {
	if priority == nil {
		return nil
	}
	p, err := order.ParsePriority(*priority)
	if err != nil {
		return err
	}
	c.priority = &p
	return nil
}

func (c *UpdateTransportOrderCommand) setProblem(problem *ProblemPatch) error {
	if problem == nil {
		return nil
	}
	if strings.TrimSpace(problem.Code) == "" && strings.TrimSpace(problem.Text) == "" {
		return errs.NewValueIsRequiredError("problem code or text")
	}
	p := *problem
	c.problem = &p
	return nil
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	return &t
}
