// Package nats sends start requests to the negotiation authority over NATS.
package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"tms/internal/adapters/out/metrics"
	"tms/internal/core/ports"
	"tms/internal/pkg/tracing"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// MsgPublisher is the part of *nats.Conn used by the negotiator.
type MsgPublisher interface {
	PublishMsg(m *nats.Msg) error
}

// StartNegotiator publishes StartRequest messages. The responses arrive on a
// separate subject and are correlated by order key.
type StartNegotiator struct {
	conn    MsgPublisher
	subject string
	logger  *zap.Logger
}

var _ ports.StartNegotiator = (*StartNegotiator)(nil)

func NewStartNegotiator(conn MsgPublisher, subject string, logger *zap.Logger) (*StartNegotiator, error) {
	if conn == nil {
		return nil, errors.New("nats connection is required")
	}
	if subject == "" {
		return nil, errors.New("start request subject is required")
	}
	return &StartNegotiator{
		conn:    conn,
		subject: subject,
		logger:  logger.With(zap.String("component", "nats_start_negotiator")),
	}, nil
}

func (n *StartNegotiator) RequestStart(ctx context.Context, req ports.StartRequest) error {
	data, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal start request: %w", err)
	}

	msg := nats.NewMsg(n.subject)
	msg.Data = data
	tracing.InjectNATS(ctx, msg.Header)

	if err = n.conn.PublishMsg(msg); err != nil {
		metrics.StartRequestsTotal.WithLabelValues(metrics.Result(err)).Inc()
		return fmt.Errorf("publish start request for order %s: %w", req.OrderKey, err)
	}
	metrics.StartRequestsTotal.WithLabelValues(metrics.Result(nil)).Inc()

	n.logger.Debug("start request sent",
		zap.String("order", req.OrderKey),
		zap.String("transport_unit", req.TransportUnitBK),
	)
	return nil
}
