// Package metrics provides the Prometheus metrics of the transport order
// service.
package metrics

import (
	"context"

	"tms/internal/core/application/events"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// OrderEventsTotal counts published lifecycle events.
	// Labels: type (ORDER_CREATED, INITIALIZED, STARTED, ...)
	OrderEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tms",
			Subsystem: "orders",
			Name:      "events_total",
			Help:      "Total number of transport order lifecycle events",
		},
		[]string{"type"},
	)

	// OrderProblemsTotal counts events whose order carries a problem.
	// Labels: code
	OrderProblemsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tms",
			Subsystem: "orders",
			Name:      "problem_events_total",
			Help:      "Total number of lifecycle events of orders with a current problem",
		},
		[]string{"code"},
	)

	// InboundMessagesTotal counts consumed inbound messages.
	// Labels: source (kafka, nats), outcome (processed, dead_lettered)
	InboundMessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tms",
			Subsystem: "inbound",
			Name:      "messages_total",
			Help:      "Total number of consumed inbound messages by outcome",
		},
		[]string{"source", "outcome"},
	)

	// StartRequestsTotal counts start requests sent to the negotiation
	// authority. Labels: result (sent, error)
	StartRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tms",
			Subsystem: "negotiation",
			Name:      "start_requests_total",
			Help:      "Total number of start requests sent",
		},
		[]string{"result"},
	)

	// JobRunsTotal counts scheduled job runs.
	// Labels: job, result (success, error)
	JobRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tms",
			Subsystem: "jobs",
			Name:      "runs_total",
			Help:      "Total number of scheduled job runs",
		},
		[]string{"job", "result"},
	)
)

const (
	OutcomeProcessed    = "processed"
	OutcomeDeadLettered = "dead_lettered"
)

// Result returns "success" or "error" for a job or request outcome.
func Result(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// EventRecorder is an event bus subscriber counting lifecycle events.
type EventRecorder struct{}

func (EventRecorder) Handle(_ context.Context, e events.Event) error {
	OrderEventsTotal.WithLabelValues(string(e.Type)).Inc()
	if p := e.Order.Problem; p != nil {
		OrderProblemsTotal.WithLabelValues(p.Code()).Inc()
	}
	return nil
}
