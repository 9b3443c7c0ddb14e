// Package kafka consumes inbound transport order commands from Kafka.
//
// Every record is committed once it was either processed or copied to the
// dead letter topic. Failed commands are never retried here.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"tms/internal/adapters/out/metrics"
	"tms/internal/core/application/usecases/commands"
	"tms/internal/core/domain/model/kernel"
	"tms/internal/pkg/errs"
	"tms/internal/pkg/tracing"

	"github.com/twmb/franz-go/pkg/kgo"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Fetcher is the part of a consumer group *kgo.Client used by the consumer.
type Fetcher interface {
	PollFetches(ctx context.Context) kgo.Fetches
	CommitRecords(ctx context.Context, rs ...*kgo.Record) error
	AllowRebalance()
}

// DeadLetterWriter receives records that could not be processed.
type DeadLetterWriter interface {
	DeadLetter(ctx context.Context, rec *kgo.Record, cause error) error
}

type CreateHandler interface {
	Handle(ctx context.Context, cmd commands.CreateTransportOrderCommand) (kernel.UUID, error)
}

type UpdateHandler interface {
	Handle(ctx context.Context, cmd commands.UpdateTransportOrderCommand) error
}

type ChangeStateHandler interface {
	Handle(ctx context.Context, cmd commands.ChangeTransportOrderStateCommand) error
}

type RemoveUnitHandler interface {
	Handle(ctx context.Context, cmd commands.RemoveTransportUnitCommand) error
}

// Handlers bundles the command handlers the consumer dispatches to.
type Handlers struct {
	Create      CreateHandler
	Update      UpdateHandler
	ChangeState ChangeStateHandler
	RemoveUnit  RemoveUnitHandler
}

type CommandConsumer struct {
	fetcher    Fetcher
	deadLetter DeadLetterWriter
	handlers   Handlers
	tracer     trace.Tracer
	logger     *zap.Logger
}

func NewCommandConsumer(fetcher Fetcher, deadLetter DeadLetterWriter, handlers Handlers, logger *zap.Logger) (*CommandConsumer, error) {
	if fetcher == nil {
		return nil, errors.New("kafka fetcher is required")
	}
	if deadLetter == nil {
		return nil, errors.New("dead letter writer is required")
	}
	if handlers.Create == nil || handlers.Update == nil || handlers.ChangeState == nil || handlers.RemoveUnit == nil {
		return nil, errors.New("all command handlers are required")
	}
	return &CommandConsumer{
		fetcher:    fetcher,
		deadLetter: deadLetter,
		handlers:   handlers,
		tracer:     otel.Tracer("tms/adapters/in/kafka"),
		logger:     logger.With(zap.String("component", "kafka_command_consumer")),
	}, nil
}

// NewConsumerClient creates a group consuming client with manual commits.
func NewConsumerClient(brokers []string, group, topic string) (*kgo.Client, error) {
	return kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ConsumerGroup(group),
		kgo.ConsumeTopics(topic),
		kgo.DisableAutoCommit(),
		kgo.BlockRebalanceOnPoll(),
	)
}

// Run polls until ctx is canceled. Records of a poll that was interrupted by
// cancellation are left uncommitted and will be redelivered.
func (c *CommandConsumer) Run(ctx context.Context) error {
	c.logger.Info("command consumer started")
	for {
		fetches := c.fetcher.PollFetches(ctx)
		if ctx.Err() != nil {
			c.logger.Info("command consumer stopped")
			return nil
		}
		if fetches.IsClientClosed() {
			return errors.New("kafka client closed")
		}
		fetches.EachError(func(topic string, partition int32, err error) {
			c.logger.Error("fetch failed", zap.String("topic", topic), zap.Int32("partition", partition), zap.Error(err))
		})

		err := c.processFetches(ctx, fetches)
		c.fetcher.AllowRebalance()
		if err != nil {
			if ctx.Err() != nil {
				c.logger.Info("command consumer stopped")
				return nil
			}
			return err
		}
	}
}

func (c *CommandConsumer) processFetches(ctx context.Context, fetches kgo.Fetches) error {
	var done []*kgo.Record
	iter := fetches.RecordIter()
	for !iter.Done() {
		rec := iter.Next()
		if err := c.processRecord(ctx, rec); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if dlqErr := c.deadLetter.DeadLetter(ctx, rec, err); dlqErr != nil {
				c.commit(ctx, done)
				return fmt.Errorf("dead letter record at offset %d: %w", rec.Offset, dlqErr)
			}
			metrics.InboundMessagesTotal.WithLabelValues("kafka", metrics.OutcomeDeadLettered).Inc()
		} else {
			metrics.InboundMessagesTotal.WithLabelValues("kafka", metrics.OutcomeProcessed).Inc()
		}
		done = append(done, rec)
	}
	c.commit(ctx, done)
	return nil
}

func (c *CommandConsumer) commit(ctx context.Context, done []*kgo.Record) {
	if len(done) == 0 {
		return
	}
	if err := c.fetcher.CommitRecords(ctx, done...); err != nil {
		c.logger.Error("commit failed", zap.Int("records", len(done)), zap.Error(err))
	}
}

func (c *CommandConsumer) processRecord(ctx context.Context, rec *kgo.Record) error {
	ctx = tracing.ExtractKafka(ctx, rec.Headers)
	ctx, span := c.tracer.Start(ctx, "process command",
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithLinks(tracing.ConsumerLinks(ctx, "kafka")...),
		trace.WithAttributes(
			attribute.String("messaging.destination.name", rec.Topic),
			attribute.Int64("messaging.kafka.offset", rec.Offset),
		),
	)
	defer span.End()

	var env Envelope
	if err := json.Unmarshal(rec.Value, &env); err != nil {
		err = errs.NewValueIsInvalidErrorWithCause("command envelope", err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	span.SetAttributes(attribute.String("command.type", env.Type))

	err := c.dispatch(ctx, rec, env)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.logger.Warn("command rejected", zap.String("type", env.Type), zap.Int64("offset", rec.Offset), zap.Error(err))
		return err
	}
	c.logger.Debug("command processed", zap.String("type", env.Type), zap.Int64("offset", rec.Offset))
	return nil
}

func (c *CommandConsumer) dispatch(ctx context.Context, rec *kgo.Record, env Envelope) error {
	switch env.Type {
	case TypeCreateTransportOrder:
		var p createPayload
		if err := decode(env.Payload, &p); err != nil {
			return err
		}
		cmd, err := p.command(recordOrigin(rec))
		if err != nil {
			return err
		}
		_, err = c.handlers.Create.Handle(ctx, cmd)
		if errors.Is(err, errs.ErrAlreadyExists) {
			c.logger.Info("order already created", zap.String("order", cmd.PKey().String()), zap.Int64("offset", rec.Offset))
			return nil
		}
		return err

	case TypeUpdateTransportOrder:
		var p updatePayload
		if err := decode(env.Payload, &p); err != nil {
			return err
		}
		cmd, err := p.command()
		if err != nil {
			return err
		}
		return c.handlers.Update.Handle(ctx, cmd)

	case TypeChangeState:
		var p changeStatePayload
		if err := decode(env.Payload, &p); err != nil {
			return err
		}
		cmd, err := p.command()
		if err != nil {
			return err
		}
		return c.handlers.ChangeState.Handle(ctx, cmd)

	case TypeRemoveTransportUnit:
		var p removePayload
		if err := decode(env.Payload, &p); err != nil {
			return err
		}
		cmd, err := commands.NewRemoveTransportUnitCommand(p.TransportUnitBK)
		if err != nil {
			return err
		}
		return c.handlers.RemoveUnit.Handle(ctx, cmd)

	default:
		return errs.NewValueIsInvalidErrorWithCause("command type", fmt.Errorf("unknown type %q", env.Type))
	}
}

// recordOrigin names the position of rec in its topic.
func recordOrigin(rec *kgo.Record) string {
	return fmt.Sprintf("%s/%d/%d", rec.Topic, rec.Partition, rec.Offset)
}
