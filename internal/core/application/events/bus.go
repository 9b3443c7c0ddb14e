package events

import (
	"context"
	"slices"
	"sync"

	"go.uber.org/zap"
)

// Handler reacts to a published event.
type Handler interface {
	Handle(ctx context.Context, e Event) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, e Event) error

func (f HandlerFunc) Handle(ctx context.Context, e Event) error {
	return f(ctx, e)
}

type subscription struct {
	name    string
	handler Handler
	types   []Type
}

// Bus dispatches events synchronously to its subscribers in subscription
// order. A failing handler is logged and the remaining handlers still run.
//
// Example:
//
//	bus := events.NewBus(logger)
//	bus.Subscribe("start", startHandler, events.OrderInitialized)
//	bus.Subscribe("kafka", forwarder) // all event types
//	bus.Publish(ctx, events.New(events.OrderCreated, o, time.Now()))
type Bus struct {
	mu     sync.RWMutex
	subs   []subscription
	logger *zap.Logger
}

func NewBus(logger *zap.Logger) *Bus {
	return &Bus{logger: logger.With(zap.String("component", "event_bus"))}
}

// Subscribe registers h for the given event types. No types subscribes h to
// every event.
func (b *Bus) Subscribe(name string, h Handler, types ...Type) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = append(b.subs, subscription{name: name, handler: h, types: types})
}

// Publish delivers each event to every matching subscriber.
func (b *Bus) Publish(ctx context.Context, evts ...Event) {
	b.mu.RLock()
	subs := slices.Clone(b.subs)
	b.mu.RUnlock()

	for _, e := range evts {
		for _, s := range subs {
			if len(s.types) > 0 && !slices.Contains(s.types, e.Type) {
				continue
			}
			if err := s.handler.Handle(ctx, e); err != nil {
				b.logger.Error("event handler failed",
					zap.String("subscriber", s.name),
					zap.String("event", string(e.Type)),
					zap.String("order", e.Order.PKey.String()),
					zap.Error(err),
				)
			}
		}
	}
}
