package commands

import (
	"context"
	"fmt"
	"time"

	"tms/internal/core/application/events"
	"tms/internal/core/domain/model/kernel"
	"tms/internal/core/domain/model/order"
	"tms/internal/core/ports"

	"go.uber.org/zap"
)

// ExpireStartRequestsResult counts what a sweep did.
type ExpireStartRequestsResult struct {
	Resent int
	Failed int
}

// ExpireStartRequestsCommandHandler bounds the negotiation round-trip. A
// request older than the timeout is sent again until maxAttempts requests
// went unanswered; then the order moves to ONFAILURE with the problem
// START_NEGOTIATION_TIMEOUT.
type ExpireStartRequestsCommandHandler struct {
	uowFactory  UoWFactory
	negotiator  ports.StartNegotiator
	publisher   EventPublisher
	timeout     time.Duration
	maxAttempts int
	logger      *zap.Logger
	now         func() time.Time
}

func NewExpireStartRequestsCommandHandler(
	uowFactory UoWFactory,
	negotiator ports.StartNegotiator,
	publisher EventPublisher,
	timeout time.Duration,
	maxAttempts int,
	logger *zap.Logger,
	now func() time.Time,
) ExpireStartRequestsCommandHandler {
	if now == nil {
		now = time.Now
	}
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return ExpireStartRequestsCommandHandler{
		uowFactory:  uowFactory,
		negotiator:  negotiator,
		publisher:   publisher,
		timeout:     timeout,
		maxAttempts: maxAttempts,
		logger:      logger.With(zap.String("component", "start_request_expiry")),
		now:         now,
	}
}

func (h ExpireStartRequestsCommandHandler) Handle(ctx context.Context, cmd ExpireStartRequestsCommand) (ExpireStartRequestsResult, error) {
	var result ExpireStartRequestsResult
	if err := cmd.Validate(); err != nil {
		return result, err
	}

	deadline := h.now().Add(-h.timeout)
	keys, err := h.expired(ctx, deadline)
	if err != nil {
		return result, err
	}

	for _, key := range keys {
		failed, err := h.expire(ctx, key, deadline)
		if err != nil {
			return result, err
		}
		if failed {
			result.Failed++
		} else {
			result.Resent++
		}
	}
	return result, nil
}

func (h ExpireStartRequestsCommandHandler) expired(ctx context.Context, deadline time.Time) ([]kernel.UUID, error) {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	orders, err := uow.OrderRepository().FindAwaitingStartResponse(ctx, deadline)
	if err != nil {
		return nil, err
	}
	keys := make([]kernel.UUID, 0, len(orders))
	for _, o := range orders {
		keys = append(keys, o.PKey())
	}
	return keys, nil
}

// expire reports whether the order was given up.
func (h ExpireStartRequestsCommandHandler) expire(ctx context.Context, key kernel.UUID, deadline time.Time) (bool, error) {
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
	// answered in the meantime
	if !o.AwaitsStartResponse() || o.StartRequestedAt().After(deadline) {
		return false, nil
	}

	log := h.logger.With(zap.String("order", key.String()), zap.Int("attempts", o.StartRequestAttempts()))

	if o.StartRequestAttempts() >= h.maxAttempts {
		now := h.now()
		text := fmt.Sprintf("no start response after %d attempts", o.StartRequestAttempts())
		sm := order.NewStateMachine(repo, h.now)
		if err = sm.Apply(ctx, o, order.OnFailure); err != nil {
			return false, err
		}
		if err = fileNote(ctx, uow, o, order.CodeStartNegotiationTimeout, text, now); err != nil {
			return false, err
		}
		if err = repo.Update(ctx, o); err != nil {
			return false, err
		}
		if err = uow.Commit(ctx); err != nil {
			return false, err
		}
		log.Warn("start negotiation timed out, order failed")
		h.publisher.Publish(ctx, events.New(events.OrderOnFailure, o, now))
		return true, nil
	}

	o.MarkStartRequested(h.now())
	if err = repo.Update(ctx, o); err != nil {
		return false, err
	}
	if err = uow.Commit(ctx); err != nil {
		return false, err
	}
	log.Info("start request sent again")
	return false, sendStartRequest(ctx, h.negotiator, o)
}
