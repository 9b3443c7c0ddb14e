// Package events provides the lifecycle events of transport orders and an
// in-process bus dispatching them to subscribers after the deciding unit of
// work has committed.
package events

import (
	"time"

	"tms/internal/core/domain/model/order"
)

// Type names a lifecycle event.
type Type string

const (
	OrderCreated     Type = "ORDER_CREATED"
	OrderInitialized Type = "INITIALIZED"
	OrderStarted     Type = "STARTED"
	OrderInterrupted Type = "INTERRUPTED"
	OrderOnFailure   Type = "ONFAILURE"
	OrderCanceled    Type = "CANCELED"
	OrderFinished    Type = "FINISHED"
)

// Event carries the canonical fields of the order at the time of the change.
type Event struct {
	Type       Type
	OccurredAt time.Time
	Order      order.Snapshot
}

// ForState returns the event raised when an order enters s.
func ForState(s order.State) (Type, bool) {
	switch s {
	case order.Initialized:
		return OrderInitialized, true
	case order.Started:
		return OrderStarted, true
	case order.Interrupted:
		return OrderInterrupted, true
	case order.OnFailure:
		return OrderOnFailure, true
	case order.Canceled:
		return OrderCanceled, true
	case order.Finished:
		return OrderFinished, true
	default:
		return "", false
	}
}

// New builds the event of type t for o.
func New(t Type, o *order.TransportOrder, at time.Time) Event {
	return Event{Type: t, OccurredAt: at.UTC(), Order: o.Snapshot()}
}

// StateChanged builds the event for the state o has just entered.
func StateChanged(o *order.TransportOrder, at time.Time) (Event, bool) {
	t, ok := ForState(o.State())
	if !ok {
		return Event{}, false
	}
	return New(t, o, at), true
}

// IsExecutionEnd reports whether the event frees the transport unit for its
// next order.
func (e Event) IsExecutionEnd() bool {
	switch e.Type {
	case OrderInterrupted, OrderOnFailure, OrderCanceled, OrderFinished:
		return true
	default:
		return false
	}
}
