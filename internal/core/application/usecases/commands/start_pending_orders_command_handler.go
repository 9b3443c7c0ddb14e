package commands

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

// NextOrderStarter starts the next order of a unit.
type NextOrderStarter interface {
	Handle(ctx context.Context, cmd StartNextTransportOrderCommand) error
}

// StartPendingOrdersCommandHandler covers start triggers that got lost, for
// example an INITIALIZED event published while the process stopped.
type StartPendingOrdersCommandHandler struct {
	uowFactory UoWFactory
	next       NextOrderStarter
	logger     *zap.Logger
}

func NewStartPendingOrdersCommandHandler(uowFactory UoWFactory, next NextOrderStarter, logger *zap.Logger) StartPendingOrdersCommandHandler {
	return StartPendingOrdersCommandHandler{
		uowFactory: uowFactory,
		next:       next,
		logger:     logger.With(zap.String("component", "pending_start_sweep")),
	}
}

// Handle visits every pending unit. Failures of single units are joined and
// do not stop the sweep.
func (h StartPendingOrdersCommandHandler) Handle(ctx context.Context, cmd StartPendingOrdersCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	units, err := h.pendingUnits(ctx)
	if err != nil {
		return err
	}

	var failures []error
	for _, unit := range units {
		next, err := NewStartNextTransportOrderCommand(unit)
		if err != nil {
			failures = append(failures, err)
			continue
		}
		if err = h.next.Handle(ctx, next); err != nil {
			h.logger.Error("starting next order failed", zap.String("unit", unit), zap.Error(err))
			failures = append(failures, err)
		}
	}
	return errors.Join(failures...)
}

func (h StartPendingOrdersCommandHandler) pendingUnits(ctx context.Context) ([]string, error) {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	return uow.OrderRepository().FindUnitsWithPendingStart(ctx)
}
