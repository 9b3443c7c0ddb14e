// Package tracing propagates W3C trace context across the message brokers.
package tracing

import (
	"context"

	"github.com/nats-io/nats.go"
	"github.com/twmb/franz-go/pkg/kgo"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const traceparentHeader = "traceparent"

var propagator = propagation.TraceContext{}

// InjectKafka returns the traceparent header of ctx, or no headers when ctx
// carries no span.
func InjectKafka(ctx context.Context) []kgo.RecordHeader {
	carrier := propagation.MapCarrier{}
	propagator.Inject(ctx, carrier)

	traceparent, ok := carrier[traceparentHeader]
	if !ok {
		return nil
	}
	return []kgo.RecordHeader{{Key: traceparentHeader, Value: []byte(traceparent)}}
}

// ExtractKafka returns ctx with the remote span context found in headers.
func ExtractKafka(ctx context.Context, headers []kgo.RecordHeader) context.Context {
	carrier := propagation.MapCarrier{}
	for _, h := range headers {
		if h.Key == traceparentHeader {
			carrier[traceparentHeader] = string(h.Value)
			break
		}
	}
	if carrier[traceparentHeader] == "" {
		return ctx
	}
	return propagator.Extract(ctx, carrier)
}

// ConsumerLinks returns an async link to the producer span carried by ctx.
func ConsumerLinks(ctx context.Context, protocol string) []trace.Link {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() || !sc.IsRemote() {
		return nil
	}
	return []trace.Link{{
		SpanContext: sc,
		Attributes: []attribute.KeyValue{
			attribute.String("link.type", "async"),
			attribute.String("link.protocol", protocol),
			attribute.String("link.role", "consumer"),
		},
	}}
}

// natsCarrier keeps header keys as written; NATS headers are case sensitive.
type natsCarrier nats.Header

func (c natsCarrier) Get(key string) string {
	return nats.Header(c).Get(key)
}

func (c natsCarrier) Set(key, value string) {
	nats.Header(c).Set(key, value)
}

func (c natsCarrier) Keys() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	return keys
}

// InjectNATS writes the traceparent of ctx into h.
func InjectNATS(ctx context.Context, h nats.Header) {
	propagator.Inject(ctx, natsCarrier(h))
}

// ExtractNATS returns ctx with the remote span context found in h.
func ExtractNATS(ctx context.Context, h nats.Header) context.Context {
	if h == nil {
		return ctx
	}
	return propagator.Extract(ctx, natsCarrier(h))
}
