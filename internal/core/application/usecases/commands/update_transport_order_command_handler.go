package commands

import (
	"context"
	"time"

	"tms/internal/core/domain/model/order"
	"tms/internal/core/domain/services"
	"tms/internal/core/ports"
	"tms/internal/pkg/errs"

	"go.uber.org/zap"
)

// Redirector judges a proposed target change.
type Redirector interface {
	Vote(ctx context.Context, v *services.RedirectVote) error
}

// UpdateTransportOrderCommandHandler applies partial updates. A target change
// runs the voter chain first: every rejection collected by the voters becomes
// the order's problem, and when no voter approved, the problems are committed
// and the update fails with errs.DeniedError. The remaining fields are only
// applied when the redirection succeeded or was not requested.
type UpdateTransportOrderCommandHandler struct {
	uowFactory UoWFactory
	chain      Redirector
	units      ports.TransportUnitLookup
	logger     *zap.Logger
	now        func() time.Time
}

func NewUpdateTransportOrderCommandHandler(
	uowFactory UoWFactory,
	chain Redirector,
	units ports.TransportUnitLookup,
	logger *zap.Logger,
	now func() time.Time,
) UpdateTransportOrderCommandHandler {
	if now == nil {
		now = time.Now
	}
	return UpdateTransportOrderCommandHandler{
		uowFactory: uowFactory,
		chain:      chain,
		units:      units,
		logger:     logger.With(zap.String("component", "order_update")),
		now:        now,
	}
}

func (h UpdateTransportOrderCommandHandler) Handle(ctx context.Context, cmd UpdateTransportOrderCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
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

	var changes []services.TargetChange
	if o.IsTargetChange(cmd.TargetLocation(), cmd.TargetLocationGroup()) {
		vote := services.NewRedirectVote(o, cmd.TargetLocation(), cmd.TargetLocationGroup())
		if err = h.chain.Vote(ctx, vote); err != nil {
			return err
		}
		for _, msg := range vote.Messages() {
			if err = fileProblem(ctx, uow, o, msg, h.now()); err != nil {
				return err
			}
		}
		if !vote.IsComplete() {
			return h.deny(ctx, uow, o)
		}
		changes = vote.TargetChanges()
	}

	if p := cmd.Priority(); p != nil {
		if err = o.ChangePriority(*p); err != nil {
			return err
		}
	}
	if p := cmd.Problem(); p != nil {
		if err = fileNote(ctx, uow, o, p.Code, p.Text, h.now()); err != nil {
			return err
		}
	}

	if err = repo.Update(ctx, o); err != nil {
		return err
	}
	if err = uow.Commit(ctx); err != nil {
		return err
	}

	for _, c := range changes {
		if err := h.units.UpdateTarget(ctx, c.TransportUnitBK, c.Target); err != nil {
			h.logger.Warn("declaring new unit target failed",
				zap.String("unit", c.TransportUnitBK),
				zap.String("target", c.Target),
				zap.Error(err),
			)
		}
	}
	return nil
}

// deny commits the collected problems and rejects the update.
func (h UpdateTransportOrderCommandHandler) deny(ctx context.Context, uow UoW, o *order.TransportOrder) error {
	denied := errs.NewDeniedError(order.CodeNotRedirectable, o.PKey().String(),
		"could not be redirected to a new target")
	h.logger.Info("redirection denied", zap.String("order", o.PKey().String()), zap.Error(denied))

	if err := uow.OrderRepository().Update(ctx, o); err != nil {
		return err
	}
	if err := uow.Commit(ctx); err != nil {
		return err
	}
	return denied
}
