package commands_test

import (
	"context"
	"testing"
	"time"

	"tms/internal/core/application/eventhandlers"
	"tms/internal/core/application/events"
	"tms/internal/core/application/usecases/commands"
	"tms/internal/core/domain/model/order"
	"tms/internal/core/domain/services"

	"go.uber.org/zap/zaptest"
)

// harness wires every handler against the in-memory store and a real event
// bus, so a single command runs the whole orchestration chain.
type harness struct {
	store      *memStore
	topo       *fakeTopology
	locker     *fakeLocker
	recorder   *recordingPublisher
	bus        *events.Bus
	negotiator *MockStartNegotiator
	confirmer  *MockUnitRemovalConfirmer
	at         time.Time

	create   commands.CreateTransportOrderCommandHandler
	init     commands.InitializeTransportOrdersCommandHandler
	start    commands.StartTransportOrderCommandHandler
	trigger  commands.TriggerStartCommandHandler
	next     commands.StartNextTransportOrderCommandHandler
	response commands.HandleStartResponseCommandHandler
	expire   commands.ExpireStartRequestsCommandHandler
	pending  commands.StartPendingOrdersCommandHandler
	change   commands.ChangeTransportOrderStateCommandHandler
	update   commands.UpdateTransportOrderCommandHandler
	remove   commands.RemoveTransportUnitCommandHandler
}

type harnessOption func(*harnessConfig)

type harnessConfig struct {
	mode          commands.StartMode
	blockedStates []order.State
	maxAttempts   int
}

func negotiated() harnessOption {
	return func(c *harnessConfig) { c.mode = commands.StartModeNegotiated }
}

func blocking(states ...order.State) harnessOption {
	return func(c *harnessConfig) { c.blockedStates = states }
}

func newHarness(t *testing.T, opts ...harnessOption) *harness {
	t.Helper()
	cfg := harnessConfig{mode: commands.StartModeLocal, maxAttempts: 2}
	for _, opt := range opts {
		opt(&cfg)
	}

	logger := zaptest.NewLogger(t)
	h := &harness{
		store:      newMemStore(),
		topo:       newFakeTopology(),
		locker:     newFakeLocker(),
		recorder:   &recordingPublisher{},
		bus:        events.NewBus(logger),
		negotiator: new(MockStartNegotiator),
		confirmer:  new(MockUnitRemovalConfirmer),
		at:         fixedNow,
	}
	clock := func() time.Time { return h.at }
	h.bus.Subscribe("recorder", events.HandlerFunc(func(ctx context.Context, e events.Event) error {
		h.recorder.Publish(ctx, e)
		return nil
	}))

	chain := services.NewVoterChain(
		services.NewLocationVoter(h.topo, clock),
		services.NewLocationGroupVoter(h.topo, clock),
	)

	h.create = commands.NewCreateTransportOrderCommandHandler(h.store, h.bus, clock)
	h.init = commands.NewInitializeTransportOrdersCommandHandler(h.store, h.topo, h.bus, logger, clock)
	h.start = commands.NewStartTransportOrderCommandHandler(h.store, h.topo, h.topo, h.locker, h.bus, logger, clock)
	h.trigger = commands.NewTriggerStartCommandHandler(cfg.mode, h.start, h.store, h.negotiator, logger, clock)
	h.next = commands.NewStartNextTransportOrderCommandHandler(h.store, h.trigger, logger)
	h.response = commands.NewHandleStartResponseCommandHandler(h.store, h.start, logger, clock)
	h.expire = commands.NewExpireStartRequestsCommandHandler(h.store, h.negotiator, h.bus, time.Minute, cfg.maxAttempts, logger, clock)
	h.pending = commands.NewStartPendingOrdersCommandHandler(h.store, h.next, logger)
	h.change = commands.NewChangeTransportOrderStateCommandHandler(h.store, h.start, h.bus, logger, clock)
	h.update = commands.NewUpdateTransportOrderCommandHandler(h.store, chain, h.topo, logger, clock)
	h.remove = commands.NewRemoveTransportUnitCommandHandler(h.store, cfg.blockedStates, h.confirmer, h.bus, logger, clock)

	eventhandlers.Register(h.bus, h.init, h.trigger, h.next)
	return h
}

func (h *harness) advance(d time.Duration) {
	h.at = h.at.Add(d)
}
