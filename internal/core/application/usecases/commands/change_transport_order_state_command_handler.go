package commands

import (
	"context"
	"errors"
	"time"

	"tms/internal/core/application/events"
	"tms/internal/core/domain/model/order"
	"tms/internal/pkg/errs"

	"go.uber.org/zap"
)

// ChangeTransportOrderStateCommandHandler applies client state changes.
// STARTED is routed through the start algorithm; every other state goes
// through the state machine. A rejection is committed as the order's problem
// and returned to the caller.
type ChangeTransportOrderStateCommandHandler struct {
	uowFactory UoWFactory
	starter    OrderStarter
	publisher  EventPublisher
	logger     *zap.Logger
	now        func() time.Time
}

func NewChangeTransportOrderStateCommandHandler(
	uowFactory UoWFactory,
	starter OrderStarter,
	publisher EventPublisher,
	logger *zap.Logger,
	now func() time.Time,
) ChangeTransportOrderStateCommandHandler {
	if now == nil {
		now = time.Now
	}
	return ChangeTransportOrderStateCommandHandler{
		uowFactory: uowFactory,
		starter:    starter,
		publisher:  publisher,
		logger:     logger.With(zap.String("component", "state_change")),
		now:        now,
	}
}

func (h ChangeTransportOrderStateCommandHandler) Handle(ctx context.Context, cmd ChangeTransportOrderStateCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	if cmd.State() == order.Started {
		start, err := NewStartTransportOrderCommand(cmd.OrderKey())
		if err != nil {
			return err
		}
		return h.starter.Handle(ctx, start)
	}

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	repo := uow.OrderRepository()
	o, err := repo.GetByKey(ctx, cmd.OrderKey())
	if err != nil {
		return err
	}

	sm := order.NewStateMachine(repo, h.now)
	if err = sm.Apply(ctx, o, cmd.State()); err != nil {
		if errors.Is(err, errs.ErrStateChange) {
			h.logger.Info("state change rejected",
				zap.String("order", cmd.OrderKey().String()),
				zap.Stringer("requested", cmd.State()),
				zap.Error(err),
			)
			return commitRejection(ctx, uow, o, err, h.now())
		}
		return err
	}
	if o.State() == order.Canceled {
		if err = fileNote(ctx, uow, o, order.CodeCanceled, "canceled on request", h.now()); err != nil {
			return err
		}
	}

	if err = repo.Update(ctx, o); err != nil {
		return err
	}
	if err = uow.Commit(ctx); err != nil {
		return err
	}

	if e, ok := events.StateChanged(o, h.now()); ok {
		h.publisher.Publish(ctx, e)
	}
	return nil
}
