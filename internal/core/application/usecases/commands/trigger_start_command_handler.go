package commands

import (
	"context"
	"time"

	"tms/internal/core/domain/model/kernel"
	"tms/internal/core/domain/model/order"
	"tms/internal/core/ports"

	"go.uber.org/zap"
)

// OrderStarter runs the local start algorithm for one order.
type OrderStarter interface {
	Handle(ctx context.Context, cmd StartTransportOrderCommand) error
}

// TriggerStartCommandHandler dispatches a start attempt by StartMode. In
// negotiated mode the order is marked as awaiting a response and the request
// is sent after commit; the response is handled by
// HandleStartResponseCommandHandler.
type TriggerStartCommandHandler struct {
	mode       StartMode
	starter    OrderStarter
	uowFactory UoWFactory
	negotiator ports.StartNegotiator
	logger     *zap.Logger
	now        func() time.Time
}

func NewTriggerStartCommandHandler(
	mode StartMode,
	starter OrderStarter,
	uowFactory UoWFactory,
	negotiator ports.StartNegotiator,
	logger *zap.Logger,
	now func() time.Time,
) TriggerStartCommandHandler {
	if now == nil {
		now = time.Now
	}
	return TriggerStartCommandHandler{
		mode:       mode,
		starter:    starter,
		uowFactory: uowFactory,
		negotiator: negotiator,
		logger:     logger.With(zap.String("component", "start_trigger")),
		now:        now,
	}
}

func (h TriggerStartCommandHandler) Handle(ctx context.Context, cmd TriggerStartCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	if h.mode != StartModeNegotiated {
		start, err := NewStartTransportOrderCommand(cmd.OrderKey())
		if err != nil {
			return err
		}
		return h.starter.Handle(ctx, start)
	}

	return h.requestStart(ctx, cmd.OrderKey())
}

func (h TriggerStartCommandHandler) requestStart(ctx context.Context, key kernel.UUID) error {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	repo := uow.OrderRepository()
	o, err := repo.GetByKey(ctx, key)
	if err != nil {
		return err
	}
	if o.State() != order.Initialized || o.AwaitsStartResponse() {
		h.logger.Debug("start request not sent",
			zap.String("order", key.String()),
			zap.Stringer("state", o.State()),
			zap.Bool("awaiting", o.AwaitsStartResponse()),
		)
		return nil
	}

	o.MarkStartRequested(h.now())
	if err = repo.Update(ctx, o); err != nil {
		return err
	}
	if err = uow.Commit(ctx); err != nil {
		return err
	}

	return sendStartRequest(ctx, h.negotiator, o)
}

func sendStartRequest(ctx context.Context, negotiator ports.StartNegotiator, o *order.TransportOrder) error {
	return negotiator.RequestStart(ctx, ports.StartRequest{
		OrderKey:        o.PKey().String(),
		TransportUnitBK: o.TransportUnitBK(),
		RequestedState:  order.Started.String(),
	})
}
