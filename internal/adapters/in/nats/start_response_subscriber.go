// Package nats receives start responses from the negotiation authority.
package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"tms/internal/adapters/out/metrics"
	"tms/internal/core/application/usecases/commands"
	"tms/internal/core/ports"
	"tms/internal/pkg/errs"
	"tms/internal/pkg/tracing"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// HeaderError carries the failure of a dead lettered response.
const HeaderError = "dlq-error"

const queueGroup = "tms"

type StartResponseHandler interface {
	Handle(ctx context.Context, cmd commands.HandleStartResponseCommand) error
}

// Subjects names the subscription and its dead letter destination.
type Subjects struct {
	Responses  string
	DeadLetter string
}

// StartResponseSubscriber feeds start responses into the start orchestrator.
// Responses that cannot be applied are published to the dead letter subject
// and not retried.
type StartResponseSubscriber struct {
	conn     *nats.Conn
	subjects Subjects
	handler  StartResponseHandler
	logger   *zap.Logger
	sub      *nats.Subscription
}

func NewStartResponseSubscriber(
	conn *nats.Conn,
	subjects Subjects,
	handler StartResponseHandler,
	logger *zap.Logger,
) (*StartResponseSubscriber, error) {
	if conn == nil {
		return nil, errors.New("nats connection is required")
	}
	if subjects.Responses == "" || subjects.DeadLetter == "" {
		return nil, errors.New("response and dead letter subjects are required")
	}
	if handler == nil {
		return nil, errors.New("start response handler is required")
	}
	return &StartResponseSubscriber{
		conn:     conn,
		subjects: subjects,
		handler:  handler,
		logger:   logger.With(zap.String("component", "nats_start_response_subscriber")),
	}, nil
}

// Start subscribes in a queue group so that each response is handled by one
// instance. ctx bounds the handling of every message.
func (s *StartResponseSubscriber) Start(ctx context.Context) error {
	sub, err := s.conn.QueueSubscribe(s.subjects.Responses, queueGroup, func(msg *nats.Msg) {
		s.handle(ctx, msg)
	})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", s.subjects.Responses, err)
	}
	s.sub = sub
	s.logger.Info("subscribed", zap.String("subject", s.subjects.Responses))
	return nil
}

// Stop drains the subscription, letting in-flight responses finish.
func (s *StartResponseSubscriber) Stop() error {
	if s.sub == nil {
		return nil
	}
	return s.sub.Drain()
}

func (s *StartResponseSubscriber) handle(ctx context.Context, msg *nats.Msg) {
	ctx = tracing.ExtractNATS(ctx, msg.Header)

	err := s.apply(ctx, msg.Data)
	if err == nil {
		metrics.InboundMessagesTotal.WithLabelValues("nats", metrics.OutcomeProcessed).Inc()
		return
	}

	switch {
	case errors.Is(err, errs.ErrStateChange):
		// filed as the order's problem by the handler
		s.logger.Info("start rejected", zap.ByteString("data", msg.Data), zap.Error(err))
		metrics.InboundMessagesTotal.WithLabelValues("nats", metrics.OutcomeProcessed).Inc()
		return
	case errors.Is(err, errs.ErrProtocol):
		s.logger.Error("unexpected start response", zap.ByteString("data", msg.Data), zap.Error(err))
	default:
		s.logger.Warn("start response rejected", zap.ByteString("data", msg.Data), zap.Error(err))
	}

	dead := nats.NewMsg(s.subjects.DeadLetter)
	dead.Data = msg.Data
	for k, v := range msg.Header {
		dead.Header[k] = v
	}
	dead.Header.Set(HeaderError, err.Error())
	if pubErr := s.conn.PublishMsg(dead); pubErr != nil {
		s.logger.Error("dead letter publish failed", zap.Error(pubErr))
		return
	}
	metrics.InboundMessagesTotal.WithLabelValues("nats", metrics.OutcomeDeadLettered).Inc()
}

func (s *StartResponseSubscriber) apply(ctx context.Context, data []byte) error {
	var resp ports.StartResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return errs.NewValueIsInvalidErrorWithCause("start response", err)
	}
	cmd, err := commands.NewHandleStartResponseCommand(resp)
	if err != nil {
		return err
	}
	return s.handler.Handle(ctx, cmd)
}
