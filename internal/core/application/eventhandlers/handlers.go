// Package eventhandlers connects lifecycle events to the orchestration
// commands: a created order triggers initialization, an initialized order
// triggers its start, and an order ending its execution lets the next order
// of the unit proceed.
package eventhandlers

import (
	"context"
	"errors"

	"tms/internal/core/application/events"
	"tms/internal/core/application/usecases/commands"
	"tms/internal/core/ports"
	"tms/internal/pkg/errs"
)

type (
	initializer interface {
		Handle(ctx context.Context, cmd commands.InitializeTransportOrdersCommand) (int, error)
	}
	starter interface {
		Handle(ctx context.Context, cmd commands.TriggerStartCommand) error
	}
	nextStarter interface {
		Handle(ctx context.Context, cmd commands.StartNextTransportOrderCommand) error
	}
)

// InitializeOnCreated runs the initialization pass for the unit of a new order.
type InitializeOnCreated struct {
	initializer initializer
}

func NewInitializeOnCreated(i initializer) InitializeOnCreated {
	return InitializeOnCreated{initializer: i}
}

func (h InitializeOnCreated) Handle(ctx context.Context, e events.Event) error {
	if e.Order.TransportUnitBK == "" {
		return nil
	}
	cmd, err := commands.NewInitializeTransportOrdersCommand(e.Order.TransportUnitBK)
	if err != nil {
		return err
	}
	_, err = h.initializer.Handle(ctx, cmd)
	return err
}

// StartOnInitialized triggers the start of an initialized order. Business
// rejections are already filed as the order's problem and are not reported
// again.
type StartOnInitialized struct {
	starter starter
}

func NewStartOnInitialized(s starter) StartOnInitialized {
	return StartOnInitialized{starter: s}
}

func (h StartOnInitialized) Handle(ctx context.Context, e events.Event) error {
	cmd, err := commands.NewTriggerStartCommand(e.Order.PKey)
	if err != nil {
		return err
	}
	return ignoreRejections(h.starter.Handle(ctx, cmd))
}

// StartNextOnExecutionEnd lets the next INITIALIZED order of the unit start
// once an order was interrupted, failed, canceled or finished.
type StartNextOnExecutionEnd struct {
	next nextStarter
}

func NewStartNextOnExecutionEnd(n nextStarter) StartNextOnExecutionEnd {
	return StartNextOnExecutionEnd{next: n}
}

func (h StartNextOnExecutionEnd) Handle(ctx context.Context, e events.Event) error {
	if !e.IsExecutionEnd() || e.Order.TransportUnitBK == "" {
		return nil
	}
	cmd, err := commands.NewStartNextTransportOrderCommand(e.Order.TransportUnitBK)
	if err != nil {
		return err
	}
	return h.next.Handle(ctx, cmd)
}

// Register subscribes the orchestration handlers in their dispatch order.
func Register(bus *events.Bus, i initializer, s starter, n nextStarter) {
	bus.Subscribe("initialize_on_created", NewInitializeOnCreated(i), events.OrderCreated)
	bus.Subscribe("start_on_initialized", NewStartOnInitialized(s), events.OrderInitialized)
	bus.Subscribe("start_next_on_execution_end", NewStartNextOnExecutionEnd(n),
		events.OrderInterrupted, events.OrderOnFailure, events.OrderCanceled, events.OrderFinished)
}

func ignoreRejections(err error) error {
	if errors.Is(err, errs.ErrStateChange) || errors.Is(err, ports.ErrUnitLocked) {
		return nil
	}
	return err
}
