package commands

import (
	"context"
	"time"

	"tms/internal/core/application/events"
	"tms/internal/core/domain/model/kernel"
	"tms/internal/core/domain/model/order"
)

// CreateTransportOrderCommandHandler persists new orders in state CREATED and
// announces them with ORDER_CREATED once committed.
type CreateTransportOrderCommandHandler struct {
	uowFactory UoWFactory
	publisher  EventPublisher
	now        func() time.Time
}

func NewCreateTransportOrderCommandHandler(
	uowFactory UoWFactory,
	publisher EventPublisher,
	now func() time.Time,
) CreateTransportOrderCommandHandler {
	if now == nil {
		now = time.Now
	}
	return CreateTransportOrderCommandHandler{
		uowFactory: uowFactory,
		publisher:  publisher,
		now:        now,
	}
}

// Handle creates the order and returns its persistent key.
func (h CreateTransportOrderCommandHandler) Handle(ctx context.Context, cmd CreateTransportOrderCommand) (kernel.UUID, error) {
	if err := cmd.Validate(); err != nil {
		return kernel.UUID{}, err
	}

	o, err := order.NewTransportOrder(
		cmd.PKey(),
		cmd.Barcode(),
		cmd.Priority(),
		cmd.TargetLocation(),
		cmd.TargetLocationGroup(),
		h.now(),
	)
	if err != nil {
		return kernel.UUID{}, err
	}

	uow := h.uowFactory.Create()
	if err = uow.Begin(ctx); err != nil {
		return kernel.UUID{}, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	if err = uow.OrderRepository().Add(ctx, o); err != nil {
		return kernel.UUID{}, err
	}

	if err = uow.Commit(ctx); err != nil {
		return kernel.UUID{}, err
	}

	h.publisher.Publish(ctx, events.New(events.OrderCreated, o, h.now()))
	return o.PKey(), nil
}
