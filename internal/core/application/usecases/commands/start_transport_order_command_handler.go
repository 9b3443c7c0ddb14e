package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"tms/internal/core/application/events"
	"tms/internal/core/domain/model/kernel"
	"tms/internal/core/domain/model/order"
	"tms/internal/core/domain/model/topology"
	"tms/internal/core/ports"
	"tms/internal/pkg/errs"

	"go.uber.org/zap"
)

// StartTransportOrderCommandHandler runs the local start algorithm under the
// lease of the order's transport unit:
//  1. resolve the target location group and the target location; fail with
//     NotFound when neither resolves
//  2. reject with TARGET_BLOCKED when a resolved target is blocked for incoming
//  3. write the canonical target names back onto the order
//  4. let the state machine move the order to STARTED, which rejects a second
//     started order of the same unit
//
// Rejections of steps 2 and 4 are committed as the order's problem. That
// includes a second started order caught by the store's unique index, which
// aborts the transaction and is filed in a new unit of work.
type StartTransportOrderCommandHandler struct {
	uowFactory UoWFactory
	locations  ports.LocationLookup
	groups     ports.LocationGroupLookup
	locker     ports.UnitLocker
	publisher  EventPublisher
	logger     *zap.Logger
	now        func() time.Time
}

func NewStartTransportOrderCommandHandler(
	uowFactory UoWFactory,
	locations ports.LocationLookup,
	groups ports.LocationGroupLookup,
	locker ports.UnitLocker,
	publisher EventPublisher,
	logger *zap.Logger,
	now func() time.Time,
) StartTransportOrderCommandHandler {
	if now == nil {
		now = time.Now
	}
	return StartTransportOrderCommandHandler{
		uowFactory: uowFactory,
		locations:  locations,
		groups:     groups,
		locker:     locker,
		publisher:  publisher,
		logger:     logger.With(zap.String("component", "starter")),
		now:        now,
	}
}

func (h StartTransportOrderCommandHandler) Handle(ctx context.Context, cmd StartTransportOrderCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	unitBK, err := h.unitOf(ctx, cmd.OrderKey())
	if err != nil {
		return err
	}

	if unitBK != "" {
		release, err := h.locker.Lock(ctx, unitBK)
		if err != nil {
			return err
		}
		defer func() {
			if err := release(context.WithoutCancel(ctx)); err != nil {
				h.logger.Warn("releasing unit lease failed", zap.String("unit", unitBK), zap.Error(err))
			}
		}()
	}

	return h.start(ctx, cmd.OrderKey())
}

func (h StartTransportOrderCommandHandler) unitOf(ctx context.Context, key kernel.UUID) (string, error) {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return "", err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	o, err := uow.OrderRepository().GetByKey(ctx, key)
	if err != nil {
		return "", err
	}
	return o.TransportUnitBK(), nil
}

func (h StartTransportOrderCommandHandler) start(ctx context.Context, key kernel.UUID) error {
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

	sm := order.NewStateMachine(repo, h.now)
	if o.State() != order.Initialized {
		return h.reject(ctx, uow, o, sm.Validate(ctx, o, order.Started))
	}

	group, groupFound, err := h.resolveGroup(ctx, o.TargetLocationGroup())
	if err != nil {
		return err
	}
	loc, locFound, err := h.resolveLocation(ctx, o.TargetLocation())
	if err != nil {
		return err
	}
	if !groupFound && !locFound {
		return errs.NewObjectNotFoundErrorWithCause("target", key.String(),
			fmt.Errorf("%s: neither %q nor %q resolves", order.CodeNoValidTarget, o.TargetLocationGroup(), o.TargetLocation()))
	}

	var blocked []string
	if groupFound && !group.IncomingActive {
		blocked = append(blocked, "location group "+group.Name)
	}
	if locFound && !loc.IncomingActive {
		blocked = append(blocked, "location "+loc.ID())
	}
	if len(blocked) > 0 {
		rejection := errs.NewStateChangeError(order.CodeTargetBlocked, key.String(),
			strings.Join(blocked, ", ")+" blocked for incoming")
		return h.reject(ctx, uow, o, rejection)
	}

	if groupFound {
		o.RedirectToLocationGroup(group.Name)
	}
	if locFound {
		o.RedirectToLocation(loc.ID())
	}

	if err = sm.Apply(ctx, o, order.Started); err != nil {
		return h.reject(ctx, uow, o, err)
	}

	if err = repo.Update(ctx, o); err != nil {
		if !errors.Is(err, errs.ErrStateChange) {
			return err
		}
		_ = uow.Rollback(ctx)
		return h.rejectAfterAbort(ctx, key, err)
	}
	if err = uow.Commit(ctx); err != nil {
		return err
	}

	h.logger.Info("order started",
		zap.String("order", key.String()),
		zap.String("unit", o.TransportUnitBK()),
	)
	h.publisher.Publish(ctx, events.New(events.OrderStarted, o, h.now()))
	return nil
}

// reject commits a business rejection as the order's problem. Other errors
// are returned unchanged and roll back.
func (h StartTransportOrderCommandHandler) reject(ctx context.Context, uow UoW, o *order.TransportOrder, err error) error {
	if !errors.Is(err, errs.ErrStateChange) {
		return err
	}
	h.logger.Info("order not started", zap.String("order", o.PKey().String()), zap.Error(err))
	return commitRejection(ctx, uow, o, err, h.now())
}

// rejectAfterAbort files a rejection raised by the store, reloading the order
// since the failed transaction is gone.
func (h StartTransportOrderCommandHandler) rejectAfterAbort(ctx context.Context, key kernel.UUID, rejection error) error {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	o, err := uow.OrderRepository().GetByKey(ctx, key)
	if err != nil {
		return err
	}
	return h.reject(ctx, uow, o, rejection)
}

func (h StartTransportOrderCommandHandler) resolveGroup(ctx context.Context, name string) (topology.LocationGroup, bool, error) {
	if name == "" {
		return topology.LocationGroup{}, false, nil
	}
	g, err := h.groups.FindByName(ctx, name)
	if errors.Is(err, errs.ErrObjectNotFound) {
		return topology.LocationGroup{}, false, nil
	}
	if err != nil {
		return topology.LocationGroup{}, false, err
	}
	return g, true, nil
}

func (h StartTransportOrderCommandHandler) resolveLocation(ctx context.Context, coordinate string) (topology.Location, bool, error) {
	if coordinate == "" {
		return topology.Location{}, false, nil
	}
	pk, err := kernel.ParseLocationPK(coordinate)
	if err != nil {
		return topology.Location{}, false, nil
	}
	loc, err := h.locations.FindByPK(ctx, pk)
	if errors.Is(err, errs.ErrObjectNotFound) {
		return topology.Location{}, false, nil
	}
	if err != nil {
		return topology.Location{}, false, err
	}
	return loc, true, nil
}
