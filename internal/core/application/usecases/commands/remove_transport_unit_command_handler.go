package commands

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"tms/internal/core/application/events"
	"tms/internal/core/domain/model/order"
	"tms/internal/core/ports"
	"tms/internal/pkg/errs"

	"go.uber.org/zap"
)

// removalBuckets are evaluated in this order. The first non-empty bucket
// containing a blocked state rejects the removal. The first openBuckets
// buckets are canceled, the rest unlinked.
var removalBuckets = [][]order.State{
	{order.Started},
	{order.Interrupted},
	{order.Created, order.Initialized},
	{order.Finished, order.OnFailure},
	{order.Canceled},
}

const openBuckets = 3

// RemoveTransportUnitCommandHandler releases all orders of a unit that is
// about to be removed. Open orders (STARTED, INTERRUPTED, CREATED, INITIALIZED) are
// canceled with a problem note; closed orders get an "unlinked" note and lose
// their unit binding. When a non-empty bucket contains one of the configured
// blocked states, nothing is changed and errs.RemovalNotAllowedError is
// returned. On success the removal is confirmed to the unit owner.
type RemoveTransportUnitCommandHandler struct {
	uowFactory    UoWFactory
	blockedStates []order.State
	confirmer     ports.UnitRemovalConfirmer
	publisher     EventPublisher
	logger        *zap.Logger
	now           func() time.Time
}

func NewRemoveTransportUnitCommandHandler(
	uowFactory UoWFactory,
	blockedStates []order.State,
	confirmer ports.UnitRemovalConfirmer,
	publisher EventPublisher,
	logger *zap.Logger,
	now func() time.Time,
) RemoveTransportUnitCommandHandler {
	if now == nil {
		now = time.Now
	}
	return RemoveTransportUnitCommandHandler{
		uowFactory:    uowFactory,
		blockedStates: slices.Clone(blockedStates),
		confirmer:     confirmer,
		publisher:     publisher,
		logger:        logger.With(zap.String("component", "unit_removal")),
		now:           now,
	}
}

func (h RemoveTransportUnitCommandHandler) Handle(ctx context.Context, cmd RemoveTransportUnitCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	log := h.logger.With(zap.String("unit", cmd.UnitBK()))

	canceled, err := h.cascade(ctx, cmd.UnitBK())
	if err != nil {
		if errors.Is(err, errs.ErrRemovalNotAllowed) {
			log.Info("unit removal rejected", zap.Error(err))
		}
		return err
	}

	now := h.now()
	evts := make([]events.Event, 0, len(canceled))
	for _, o := range canceled {
		evts = append(evts, events.New(events.OrderCanceled, o, now))
	}
	h.publisher.Publish(ctx, evts...)

	if err = h.confirmer.ConfirmRemoval(ctx, cmd.UnitBK()); err != nil {
		return fmt.Errorf("confirm removal of unit %s: %w", cmd.UnitBK(), err)
	}
	log.Info("unit removal confirmed", zap.Int("canceled", len(canceled)))
	return nil
}

// cascade returns the orders it canceled.
func (h RemoveTransportUnitCommandHandler) cascade(ctx context.Context, unitBK string) ([]*order.TransportOrder, error) {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	repo := uow.OrderRepository()
	orders, err := repo.FindByUnitAndStates(ctx, unitBK)
	if err != nil {
		return nil, err
	}

	buckets := make([][]*order.TransportOrder, len(removalBuckets))
	for _, o := range orders {
		for i, states := range removalBuckets {
			if slices.Contains(states, o.State()) {
				buckets[i] = append(buckets[i], o)
			}
		}
	}

	for i, states := range removalBuckets {
		if blocked := h.blocked(states, buckets[i]); len(blocked) > 0 {
			return nil, errs.NewRemovalNotAllowedError(unitBK, blocked...)
		}
	}

	sm := order.NewStateMachine(repo, h.now)
	now := h.now()
	var canceled []*order.TransportOrder

	for _, o := range slices.Concat(buckets[:openBuckets]...) {
		ok, err := h.cancel(ctx, uow, sm, o, unitBK, now)
		if err != nil {
			return nil, err
		}
		if ok {
			canceled = append(canceled, o)
		}
		if err = repo.Update(ctx, o); err != nil {
			return nil, err
		}
	}

	for _, o := range slices.Concat(buckets[openBuckets:]...) {
		text := fmt.Sprintf("unlinked from removed transport unit %s", unitBK)
		if err = fileNote(ctx, uow, o, order.CodeUnlinkedByUnitRemoval, text, now); err != nil {
			return nil, err
		}
		o.Unlink()
		if err = repo.Update(ctx, o); err != nil {
			return nil, err
		}
	}

	if err = uow.Commit(ctx); err != nil {
		return nil, err
	}
	return canceled, nil
}

// cancel force-cancels o. A rejected cancellation is filed as the order's
// problem instead of failing the removal.
func (h RemoveTransportUnitCommandHandler) cancel(
	ctx context.Context,
	uow UoW,
	sm order.StateMachine,
	o *order.TransportOrder,
	unitBK string,
	now time.Time,
) (bool, error) {
	err := sm.Apply(ctx, o, order.Canceled)
	if err == nil {
		text := fmt.Sprintf("canceled because transport unit %s is removed", unitBK)
		return true, fileNote(ctx, uow, o, order.CodeCanceledByUnitRemoval, text, now)
	}

	filed, ferr := fileRejection(ctx, uow, o, err, now)
	if ferr != nil {
		return false, ferr
	}
	if !filed {
		return false, err
	}
	h.logger.Warn("forced cancellation rejected",
		zap.String("order", o.PKey().String()),
		zap.String("unit", unitBK),
		zap.Error(err),
	)
	return false, nil
}

// blocked returns the configured blocked states of a non-empty bucket.
func (h RemoveTransportUnitCommandHandler) blocked(states []order.State, orders []*order.TransportOrder) []string {
	if len(orders) == 0 {
		return nil
	}
	var names []string
	for _, s := range states {
		if slices.Contains(h.blockedStates, s) {
			names = append(names, s.String())
		}
	}
	return names
}
