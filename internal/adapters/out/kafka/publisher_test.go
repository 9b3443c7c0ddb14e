package kafka_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"tms/internal/adapters/out/kafka"
	"tms/internal/core/application/events"
	"tms/internal/core/domain/model/kernel"
	"tms/internal/core/domain/model/order"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"
	"go.uber.org/zap/zaptest"
)

var fixedNow = time.Date(2026, 7, 8, 9, 10, 11, 0, time.UTC)

type fakeProducer struct {
	records []*kgo.Record
	err     error
}

func (f *fakeProducer) ProduceSync(_ context.Context, rs ...*kgo.Record) kgo.ProduceResults {
	results := make(kgo.ProduceResults, 0, len(rs))
	for _, r := range rs {
		if f.err == nil {
			f.records = append(f.records, r)
		}
		results = append(results, kgo.ProduceResult{Record: r, Err: f.err})
	}
	return results
}

func header(rec *kgo.Record, key string) string {
	for _, h := range rec.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func newPublisher(t *testing.T, producer kafka.Producer) *kafka.Publisher {
	t.Helper()
	p, err := kafka.NewPublisher(producer, kafka.Topics{Events: "tms.events", DeadLetter: "tms.dlq"},
		zaptest.NewLogger(t), func() time.Time { return fixedNow })
	require.NoError(t, err)
	return p
}

func TestNewPublisher(t *testing.T) {
	_, err := kafka.NewPublisher(nil, kafka.Topics{Events: "e", DeadLetter: "d"}, zaptest.NewLogger(t), nil)
	require.Error(t, err)

	_, err = kafka.NewPublisher(&fakeProducer{}, kafka.Topics{Events: "e"}, zaptest.NewLogger(t), nil)
	require.Error(t, err)
}

func TestPublisher_Handle(t *testing.T) {
	o, err := order.NewTransportOrder(kernel.NewUUID(), "4711", order.High, "", "AREA", fixedNow)
	require.NoError(t, err)
	msg, err := order.NewMessage(fixedNow, order.CodeTargetBlocked, "blocked", o.PKey().String())
	require.NoError(t, err)
	_, err = o.AddProblem(msg, fixedNow)
	require.NoError(t, err)

	t.Run("should publish the event keyed by order", func(t *testing.T) {
		producer := &fakeProducer{}

		require.NoError(t, newPublisher(t, producer).Handle(t.Context(), events.New(events.OrderCreated, o, fixedNow)))

		require.Len(t, producer.records, 1)
		rec := producer.records[0]
		assert.Equal(t, "tms.events", rec.Topic)
		assert.Equal(t, o.PKey().String(), string(rec.Key))
		assert.Equal(t, "ORDER_CREATED", header(rec, kafka.HeaderEventType))

		var body map[string]any
		require.NoError(t, json.Unmarshal(rec.Value, &body))
		assert.Equal(t, "ORDER_CREATED", body["type"])
		orderBody := body["order"].(map[string]any)
		assert.Equal(t, "4711", orderBody["transportUnitBK"])
		assert.Equal(t, "HIGH", orderBody["priority"])
		assert.Equal(t, "CREATED", orderBody["state"])
		assert.Equal(t, "AREA", orderBody["targetLocationGroup"])
		assert.Equal(t, order.CodeTargetBlocked, orderBody["problem"].(map[string]any)["code"])
		assert.NotContains(t, orderBody, "startDate")
	})

	t.Run("should return producer failures", func(t *testing.T) {
		producer := &fakeProducer{err: errors.New("not enough replicas")}

		err := newPublisher(t, producer).Handle(t.Context(), events.New(events.OrderCreated, o, fixedNow))

		require.ErrorContains(t, err, "not enough replicas")
		assert.ErrorContains(t, err, "tms.events")
	})
}

func TestPublisher_ConfirmRemoval(t *testing.T) {
	producer := &fakeProducer{}

	require.NoError(t, newPublisher(t, producer).ConfirmRemoval(t.Context(), "4711"))

	require.Len(t, producer.records, 1)
	rec := producer.records[0]
	assert.Equal(t, "4711", string(rec.Key))
	assert.Equal(t, kafka.UnitRemovedType, header(rec, kafka.HeaderEventType))
	assert.JSONEq(t,
		`{"type":"TRANSPORT_UNIT_REMOVED","occurredAt":"2026-07-08T09:10:11Z","transportUnitBK":"4711"}`,
		string(rec.Value))
}

func TestPublisher_DeadLetter(t *testing.T) {
	producer := &fakeProducer{}
	source := &kgo.Record{
		Topic:     "tms.commands",
		Partition: 3,
		Offset:    42,
		Key:       []byte("k"),
		Value:     []byte(`{"type":"???"}`),
		Headers:   []kgo.RecordHeader{{Key: "traceparent", Value: []byte("00-abc")}},
	}

	require.NoError(t, newPublisher(t, producer).DeadLetter(t.Context(), source, errors.New("unknown type")))

	require.Len(t, producer.records, 1)
	rec := producer.records[0]
	assert.Equal(t, "tms.dlq", rec.Topic)
	assert.Equal(t, source.Value, rec.Value)
	assert.Equal(t, "k", string(rec.Key))
	assert.Equal(t, "00-abc", header(rec, "traceparent"))
	assert.Equal(t, "unknown type", header(rec, kafka.HeaderError))
	assert.Equal(t, "tms.commands", header(rec, kafka.HeaderSourceTopic))
	assert.Equal(t, "3", header(rec, kafka.HeaderSourcePartition))
	assert.Equal(t, "42", header(rec, kafka.HeaderSourceOffset))
}
