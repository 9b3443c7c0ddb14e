package commands

import (
	"context"
	"errors"

	"tms/internal/core/domain/model/kernel"
	"tms/internal/core/domain/model/order"
	"tms/internal/core/ports"
	"tms/internal/pkg/errs"

	"go.uber.org/zap"
)

// StartTrigger starts an order or requests its start.
type StartTrigger interface {
	Handle(ctx context.Context, cmd TriggerStartCommand) error
}

// StartNextTransportOrderCommandHandler tries the INITIALIZED orders of a unit
// in priority order until one is started or a start request is pending.
// Nothing happens while the unit has a STARTED order.
type StartNextTransportOrderCommandHandler struct {
	uowFactory UoWFactory
	trigger    StartTrigger
	logger     *zap.Logger
}

func NewStartNextTransportOrderCommandHandler(
	uowFactory UoWFactory,
	trigger StartTrigger,
	logger *zap.Logger,
) StartNextTransportOrderCommandHandler {
	return StartNextTransportOrderCommandHandler{
		uowFactory: uowFactory,
		trigger:    trigger,
		logger:     logger.With(zap.String("component", "start_next")),
	}
}

func (h StartNextTransportOrderCommandHandler) Handle(ctx context.Context, cmd StartNextTransportOrderCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	candidates, err := h.candidates(ctx, cmd.UnitBK())
	if err != nil {
		return err
	}

	log := h.logger.With(zap.String("unit", cmd.UnitBK()))
	for _, key := range candidates {
		trigger, err := NewTriggerStartCommand(key)
		if err != nil {
			return err
		}

		err = h.trigger.Handle(ctx, trigger)
		var sce *errs.StateChangeError
		switch {
		case err == nil:
			return nil
		case errors.Is(err, ports.ErrUnitLocked):
			log.Debug("unit is locked by another start")
			return nil
		case errors.As(err, &sce) && sce.Code == order.CodeAlreadyStartedOne:
			return nil
		case errors.Is(err, errs.ErrStateChange), errors.Is(err, errs.ErrObjectNotFound):
			log.Info("order not started, trying next", zap.String("order", key.String()), zap.Error(err))
		default:
			return err
		}
	}
	return nil
}

// candidates returns the keys of the unit's INITIALIZED orders, most urgent
// first. It returns none while an order is STARTED or a start request is
// outstanding.
func (h StartNextTransportOrderCommandHandler) candidates(ctx context.Context, unitBK string) ([]kernel.UUID, error) {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	repo := uow.OrderRepository()
	started, err := repo.CountByUnitAndState(ctx, unitBK, order.Started)
	if err != nil {
		return nil, err
	}
	if started > 0 {
		return nil, nil
	}

	orders, err := repo.FindByUnitAndStates(ctx, unitBK, order.Initialized)
	if err != nil {
		return nil, err
	}
	order.SortByPriority(orders)

	keys := make([]kernel.UUID, 0, len(orders))
	for _, o := range orders {
		if o.AwaitsStartResponse() {
			return nil, nil
		}
		keys = append(keys, o.PKey())
	}
	return keys, nil
}
