// Package kafka publishes lifecycle events, unit removal confirmations and
// dead letters to Kafka.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"tms/internal/core/application/events"
	"tms/internal/pkg/tracing"

	"github.com/twmb/franz-go/pkg/kgo"
	"go.uber.org/zap"
)

// Header keys written by the publisher.
const (
	HeaderEventType       = "event-type"
	HeaderError           = "dlq-error"
	HeaderSourceTopic     = "dlq-source-topic"
	HeaderSourcePartition = "dlq-source-partition"
	HeaderSourceOffset    = "dlq-source-offset"
)

// UnitRemovedType is the event type of a removal confirmation.
const UnitRemovedType = "TRANSPORT_UNIT_REMOVED"

// Producer is the part of *kgo.Client used for publishing.
type Producer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
}

// Topics names the destinations of the publisher.
type Topics struct {
	Events     string
	DeadLetter string
}

// Publisher writes JSON records synchronously and waits for all in-sync
// replicas.
type Publisher struct {
	producer Producer
	topics   Topics
	now      func() time.Time
	logger   *zap.Logger
}

func NewPublisher(producer Producer, topics Topics, logger *zap.Logger, now func() time.Time) (*Publisher, error) {
	if producer == nil {
		return nil, errors.New("kafka producer is required")
	}
	if topics.Events == "" || topics.DeadLetter == "" {
		return nil, errors.New("kafka event and dead letter topics are required")
	}
	if now == nil {
		now = time.Now
	}
	return &Publisher{
		producer: producer,
		topics:   topics,
		now:      now,
		logger:   logger.With(zap.String("component", "kafka_publisher")),
	}, nil
}

// NewProducerClient creates a producing client with all-ISR acknowledgements.
func NewProducerClient(brokers []string, clientID string) (*kgo.Client, error) {
	return kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ClientID(clientID),
		kgo.ProduceRequestTimeout(10*time.Second),
		kgo.RequiredAcks(kgo.AllISRAcks()),
	)
}

type problemMessage struct {
	OccurredAt time.Time `json:"occurredAt"`
	Code       string    `json:"code,omitempty"`
	Text       string    `json:"text,omitempty"`
}

type orderMessage struct {
	PKey                string          `json:"pKey"`
	TransportUnitBK     string          `json:"transportUnitBK,omitempty"`
	Priority            string          `json:"priority"`
	State               string          `json:"state"`
	SourceLocation      string          `json:"sourceLocation,omitempty"`
	TargetLocation      string          `json:"targetLocation,omitempty"`
	TargetLocationGroup string          `json:"targetLocationGroup,omitempty"`
	StartDate           *time.Time      `json:"startDate,omitempty"`
	EndDate             *time.Time      `json:"endDate,omitempty"`
	CreatedAt           time.Time       `json:"createdAt"`
	Problem             *problemMessage `json:"problem,omitempty"`
}

type eventMessage struct {
	Type       string       `json:"type"`
	OccurredAt time.Time    `json:"occurredAt"`
	Order      orderMessage `json:"order"`
}

type unitRemovedMessage struct {
	Type            string    `json:"type"`
	OccurredAt      time.Time `json:"occurredAt"`
	TransportUnitBK string    `json:"transportUnitBK"`
}

func toEventMessage(e events.Event) eventMessage {
	s := e.Order
	msg := eventMessage{
		Type:       string(e.Type),
		OccurredAt: e.OccurredAt,
		Order: orderMessage{
			PKey:                s.PKey.String(),
			TransportUnitBK:     s.TransportUnitBK,
			Priority:            s.Priority.String(),
			State:               s.State.String(),
			SourceLocation:      s.SourceLocation,
			TargetLocation:      s.TargetLocation,
			TargetLocationGroup: s.TargetLocationGroup,
			StartDate:           s.StartDate,
			EndDate:             s.EndDate,
			CreatedAt:           s.CreatedAt,
		},
	}
	if p := s.Problem; p != nil {
		msg.Order.Problem = &problemMessage{OccurredAt: p.OccurredAt(), Code: p.Code(), Text: p.Text()}
	}
	return msg
}

// Handle forwards a lifecycle event, keyed by the order key so that all events
// of an order stay in one partition.
func (p *Publisher) Handle(ctx context.Context, e events.Event) error {
	value, err := json.Marshal(toEventMessage(e))
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	return p.produce(ctx, &kgo.Record{
		Topic:   p.topics.Events,
		Key:     []byte(e.Order.PKey.String()),
		Value:   value,
		Headers: append(tracing.InjectKafka(ctx), kgo.RecordHeader{Key: HeaderEventType, Value: []byte(e.Type)}),
	})
}

// ConfirmRemoval tells the transport unit owner that no order references the
// unit anymore.
func (p *Publisher) ConfirmRemoval(ctx context.Context, unitBK string) error {
	value, err := json.Marshal(unitRemovedMessage{
		Type:            UnitRemovedType,
		OccurredAt:      p.now().UTC(),
		TransportUnitBK: unitBK,
	})
	if err != nil {
		return fmt.Errorf("marshal removal confirmation: %w", err)
	}
	return p.produce(ctx, &kgo.Record{
		Topic:   p.topics.Events,
		Key:     []byte(unitBK),
		Value:   value,
		Headers: append(tracing.InjectKafka(ctx), kgo.RecordHeader{Key: HeaderEventType, Value: []byte(UnitRemovedType)}),
	})
}

// DeadLetter copies a rejected inbound record to the dead letter topic
// together with the failure and its source coordinates.
func (p *Publisher) DeadLetter(ctx context.Context, rec *kgo.Record, cause error) error {
	headers := make([]kgo.RecordHeader, 0, len(rec.Headers)+4)
	headers = append(headers, rec.Headers...)
	headers = append(headers,
		kgo.RecordHeader{Key: HeaderError, Value: []byte(cause.Error())},
		kgo.RecordHeader{Key: HeaderSourceTopic, Value: []byte(rec.Topic)},
		kgo.RecordHeader{Key: HeaderSourcePartition, Value: []byte(strconv.FormatInt(int64(rec.Partition), 10))},
		kgo.RecordHeader{Key: HeaderSourceOffset, Value: []byte(strconv.FormatInt(rec.Offset, 10))},
	)
	p.logger.Warn("dead lettering record",
		zap.String("topic", rec.Topic),
		zap.Int32("partition", rec.Partition),
		zap.Int64("offset", rec.Offset),
		zap.Error(cause),
	)
	return p.produce(ctx, &kgo.Record{
		Topic:   p.topics.DeadLetter,
		Key:     rec.Key,
		Value:   rec.Value,
		Headers: headers,
	})
}

func (p *Publisher) produce(ctx context.Context, rec *kgo.Record) error {
	if err := p.producer.ProduceSync(ctx, rec).FirstErr(); err != nil {
		return fmt.Errorf("produce to %s: %w", rec.Topic, err)
	}
	return nil
}
