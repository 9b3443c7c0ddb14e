package commands

import (
	"context"
	"fmt"
	"time"

	"tms/internal/core/domain/model/order"
	"tms/internal/pkg/errs"

	"go.uber.org/zap"
)

// HandleStartResponseCommandHandler re-enters the start algorithm when a
// start response arrives:
//   - an error payload becomes the order's problem and the order stays unstarted
//   - an accepted STARTED runs the local start
//   - any other accepted state is a protocol error
//
// A response for an order that no longer awaits one is ignored.
type HandleStartResponseCommandHandler struct {
	uowFactory UoWFactory
	starter    OrderStarter
	logger     *zap.Logger
	now        func() time.Time
}

func NewHandleStartResponseCommandHandler(
	uowFactory UoWFactory,
	starter OrderStarter,
	logger *zap.Logger,
	now func() time.Time,
) HandleStartResponseCommandHandler {
	if now == nil {
		now = time.Now
	}
	return HandleStartResponseCommandHandler{
		uowFactory: uowFactory,
		starter:    starter,
		logger:     logger.With(zap.String("component", "start_response")),
		now:        now,
	}
}

func (h HandleStartResponseCommandHandler) Handle(ctx context.Context, cmd HandleStartResponseCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	accepted, err := h.settle(ctx, cmd)
	if err != nil || !accepted {
		return err
	}

	start, err := NewStartTransportOrderCommand(cmd.OrderKey())
	if err != nil {
		return err
	}
	return h.starter.Handle(ctx, start)
}

// settle closes the negotiation round-trip and reports whether the order may
// be started.
func (h HandleStartResponseCommandHandler) settle(ctx context.Context, cmd HandleStartResponseCommand) (bool, error) {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return false, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	repo := uow.OrderRepository()
	o, err := repo.GetByKey(ctx, cmd.OrderKey())
	if err != nil {
		return false, err
	}

	log := h.logger.With(zap.String("order", cmd.OrderKey().String()))
	if !o.AwaitsStartResponse() {
		log.Info("start response ignored, no request outstanding", zap.Stringer("state", o.State()))
		return false, nil
	}

	var accepted bool
	if rejection := cmd.Rejection(); rejection != nil {
		code := rejection.Code
		if code == "" {
			code = order.CodeStartNegotiationFailed
		}
		log.Info("start request rejected", zap.String("code", code), zap.String("text", rejection.Text))
		o.ClearStartRequest()
		if err = fileNote(ctx, uow, o, code, rejection.Text, h.now()); err != nil {
			return false, err
		}
	} else {
		state, err := order.ParseState(cmd.AcceptedState())
		if err != nil || state != order.Started {
			return false, errs.NewProtocolErrorWithCause(
				fmt.Sprintf("unexpected accepted state %q for order %s", cmd.AcceptedState(), cmd.OrderKey()), err)
		}
		o.ClearStartRequest()
		accepted = true
	}

	if err = repo.Update(ctx, o); err != nil {
		return false, err
	}
	if err = uow.Commit(ctx); err != nil {
		return false, err
	}
	return accepted, nil
}
