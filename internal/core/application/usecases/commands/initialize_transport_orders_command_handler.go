package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tms/internal/core/application/events"
	"tms/internal/core/domain/model/kernel"
	"tms/internal/core/domain/model/order"
	"tms/internal/core/ports"
	"tms/internal/pkg/errs"

	"go.uber.org/zap"
)

// InitializeTransportOrdersCommandHandler loads the CREATED orders of a unit,
// sorts them by priority and tries to initialize each of them once. A
// rejected order is logged, gets the rejection as its problem and is skipped;
// the pass always visits every order.
type InitializeTransportOrdersCommandHandler struct {
	uowFactory UoWFactory
	units      ports.TransportUnitLookup
	publisher  EventPublisher
	logger     *zap.Logger
	now        func() time.Time
}

func NewInitializeTransportOrdersCommandHandler(
	uowFactory UoWFactory,
	units ports.TransportUnitLookup,
	publisher EventPublisher,
	logger *zap.Logger,
	now func() time.Time,
) InitializeTransportOrdersCommandHandler {
	if now == nil {
		now = time.Now
	}
	return InitializeTransportOrdersCommandHandler{
		uowFactory: uowFactory,
		units:      units,
		publisher:  publisher,
		logger:     logger.With(zap.String("component", "initializer")),
		now:        now,
	}
}

// Handle returns the number of orders that reached INITIALIZED. Only
// structural failures abort the pass.
func (h InitializeTransportOrdersCommandHandler) Handle(ctx context.Context, cmd InitializeTransportOrdersCommand) (int, error) {
	if err := cmd.Validate(); err != nil {
		return 0, err
	}

	keys, err := h.createdOrders(ctx, cmd.UnitBK())
	if err != nil {
		return 0, err
	}

	initialized := 0
	for _, key := range keys {
		ok, err := h.initialize(ctx, key)
		if err != nil {
			return initialized, err
		}
		if ok {
			initialized++
		}
	}
	return initialized, nil
}

func (h InitializeTransportOrdersCommandHandler) createdOrders(ctx context.Context, unitBK string) ([]kernel.UUID, error) {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	orders, err := uow.OrderRepository().FindByUnitAndStates(ctx, unitBK, order.Created)
	if err != nil {
		return nil, err
	}
	order.SortByPriority(orders)

	keys := make([]kernel.UUID, 0, len(orders))
	for _, o := range orders {
		keys = append(keys, o.PKey())
	}
	return keys, nil
}

func (h InitializeTransportOrdersCommandHandler) initialize(ctx context.Context, key kernel.UUID) (bool, error) {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return false, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	repo := uow.OrderRepository()
	o, err := repo.GetByKey(ctx, key)
	if err != nil {
		return false, err
	}
	if o.State() != order.Created {
		return false, nil
	}

	log := h.logger.With(zap.String("order", key.String()), zap.String("unit", o.TransportUnitBK()))

	unit, err := h.units.FindByBarcode(ctx, o.TransportUnitBK())
	switch {
	case errors.Is(err, errs.ErrObjectNotFound):
		log.Warn("transport unit not found, order skipped", zap.Error(err))
		rejection := errs.NewStateChangeError(order.CodeUnitNotFound, key.String(),
			fmt.Sprintf("transport unit %s does not exist", o.TransportUnitBK()))
		return false, h.skip(ctx, uow, o, rejection)
	case err != nil:
		return false, err
	}
	o.AssignSourceLocation(unit.ActualLocation)

	sm := order.NewStateMachine(repo, h.now)
	if err = sm.Apply(ctx, o, order.Initialized); err != nil {
		if !errors.Is(err, errs.ErrStateChange) {
			return false, err
		}
		log.Warn("order not initialized, skipped", zap.Error(err))
		return false, h.skip(ctx, uow, o, err)
	}

	if err = repo.Update(ctx, o); err != nil {
		return false, err
	}
	if err = uow.Commit(ctx); err != nil {
		return false, err
	}

	log.Info("order initialized", zap.String("source", o.SourceLocation()))
	h.publisher.Publish(ctx, events.New(events.OrderInitialized, o, h.now()))
	return true, nil
}

// skip commits the rejection as the order's problem and swallows it.
func (h InitializeTransportOrdersCommandHandler) skip(ctx context.Context, uow UoW, o *order.TransportOrder, rejection error) error {
	if err := commitRejection(ctx, uow, o, rejection, h.now()); !errors.Is(err, rejection) {
		return err
	}
	return nil
}
