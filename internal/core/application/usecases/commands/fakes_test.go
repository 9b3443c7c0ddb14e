package commands_test

import (
	"cmp"
	"context"
	"errors"
	"slices"
	"sync"
	"testing"
	"time"

	"tms/internal/core/application/events"
	"tms/internal/core/application/usecases/commands"
	"tms/internal/core/domain/model/kernel"
	"tms/internal/core/domain/model/order"
	"tms/internal/core/domain/model/topology"
	"tms/internal/core/ports"
	"tms/internal/pkg/errs"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var fixedNow = time.Date(2026, 4, 5, 6, 7, 8, 0, time.UTC)

func clock() time.Time { return fixedNow }

var errNoTransaction = errors.New("no active transaction")

// memStore is an in-memory database of orders and archived problems with
// the same isolation as the SQL store: writes become visible to other units
// of work on commit only.
type memStore struct {
	mu      sync.Mutex
	nextID  int64
	orders  map[string]order.Snapshot
	history []*order.ProblemHistory

	// beforeUpdate runs once, ahead of the next order update.
	beforeUpdate func()
}

func newMemStore() *memStore {
	return &memStore{orders: make(map[string]order.Snapshot)}
}

func (s *memStore) Create() commands.UoW {
	return &memUoW{store: s, staged: make(map[string]order.Snapshot)}
}

// seed stores an order in the given state directly.
func (s *memStore) seed(t *testing.T, unit string, state order.State, p order.Priority, group string) *order.TransportOrder {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	o, err := order.Restore(order.Snapshot{
		ID:                  s.nextID,
		PKey:                kernel.NewUUID(),
		TransportUnitBK:     unit,
		Priority:            p,
		State:               state,
		TargetLocationGroup: group,
		CreatedAt:           fixedNow,
	})
	require.NoError(t, err)
	s.orders[o.PKey().String()] = o.Snapshot()
	return o
}

func (s *memStore) takeBeforeUpdate() func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	hook := s.beforeUpdate
	s.beforeUpdate = nil
	return hook
}

// get returns the committed order.
func (s *memStore) get(t *testing.T, key kernel.UUID) *order.TransportOrder {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, ok := s.orders[key.String()]
	require.True(t, ok, "order %s not stored", key)
	o, err := order.Restore(snap)
	require.NoError(t, err)
	return o
}

func (s *memStore) archived(orderID int64) []*order.ProblemHistory {
	s.mu.Lock()
	defer s.mu.Unlock()

	var entries []*order.ProblemHistory
	for _, h := range s.history {
		if h.OrderID() == orderID {
			entries = append(entries, h)
		}
	}
	return entries
}

type memUoW struct {
	store   *memStore
	active  bool
	staged  map[string]order.Snapshot
	history []*order.ProblemHistory
}

func (u *memUoW) Begin(context.Context) error {
	u.active = true
	return nil
}

func (u *memUoW) Commit(context.Context) error {
	if !u.active {
		return errNoTransaction
	}
	u.store.mu.Lock()
	defer u.store.mu.Unlock()

	for k, snap := range u.staged {
		u.store.orders[k] = snap
	}
	u.store.history = append(u.store.history, u.history...)
	u.reset()
	return nil
}

func (u *memUoW) Rollback(context.Context) error {
	if !u.active {
		return errNoTransaction
	}
	u.reset()
	return nil
}

func (u *memUoW) reset() {
	u.active = false
	u.staged = make(map[string]order.Snapshot)
	u.history = nil
}

func (u *memUoW) OrderRepository() ports.OrderRepository {
	return memOrderRepo{uow: u}
}

func (u *memUoW) ProblemHistoryRepository() ports.ProblemHistoryRepository {
	return memProblemRepo{uow: u}
}

// view merges committed rows with the writes of this unit of work.
func (u *memUoW) view() []order.Snapshot {
	u.store.mu.Lock()
	defer u.store.mu.Unlock()

	merged := make(map[string]order.Snapshot, len(u.store.orders))
	for k, snap := range u.store.orders {
		merged[k] = snap
	}
	for k, snap := range u.staged {
		merged[k] = snap
	}
	rows := make([]order.Snapshot, 0, len(merged))
	for _, snap := range merged {
		rows = append(rows, snap)
	}
	slices.SortFunc(rows, func(a, b order.Snapshot) int { return cmp.Compare(a.ID, b.ID) })
	return rows
}

type memOrderRepo struct {
	uow *memUoW
}

func (r memOrderRepo) Add(_ context.Context, o *order.TransportOrder) error {
	if err := o.Validate(); err != nil {
		return err
	}
	for _, row := range r.uow.view() {
		if row.PKey.IsEqual(o.PKey()) {
			return errs.NewAlreadyExistsError("transport order", o.PKey().String())
		}
	}
	r.uow.store.mu.Lock()
	r.uow.store.nextID++
	id := r.uow.store.nextID
	r.uow.store.mu.Unlock()

	if err := o.AssignID(id); err != nil {
		return err
	}
	r.uow.staged[o.PKey().String()] = o.Snapshot()
	return nil
}

func (r memOrderRepo) Update(_ context.Context, o *order.TransportOrder) error {
	if err := o.Validate(); err != nil {
		return err
	}
	if hook := r.uow.store.takeBeforeUpdate(); hook != nil {
		hook()
	}
	snap := o.Snapshot()
	exists := false
	for _, row := range r.uow.view() {
		if row.PKey.IsEqual(snap.PKey) {
			exists = true
			continue
		}
		if snap.State == order.Started && row.State == order.Started && row.TransportUnitBK == snap.TransportUnitBK {
			return errs.NewStateChangeError(order.CodeAlreadyStartedOne, snap.PKey.String(), "unique violation")
		}
	}
	if !exists {
		return errs.NewObjectNotFoundError("transport order", snap.PKey.String())
	}
	r.uow.staged[snap.PKey.String()] = snap
	return nil
}

func (r memOrderRepo) GetByKey(_ context.Context, key kernel.UUID) (*order.TransportOrder, error) {
	for _, row := range r.uow.view() {
		if row.PKey.IsEqual(key) {
			return order.Restore(row)
		}
	}
	return nil, errs.NewObjectNotFoundError("transport order", key.String())
}

func (r memOrderRepo) find(match func(order.Snapshot) bool) ([]*order.TransportOrder, error) {
	var found []*order.TransportOrder
	for _, row := range r.uow.view() {
		if !match(row) {
			continue
		}
		o, err := order.Restore(row)
		if err != nil {
			return nil, err
		}
		found = append(found, o)
	}
	return found, nil
}

func inStates(s order.State, states []order.State) bool {
	return len(states) == 0 || slices.Contains(states, s)
}

func (r memOrderRepo) FindByUnitAndStates(_ context.Context, unitBK string, states ...order.State) ([]*order.TransportOrder, error) {
	return r.find(func(row order.Snapshot) bool {
		return row.TransportUnitBK == unitBK && inStates(row.State, states)
	})
}

func (r memOrderRepo) FindByTarget(_ context.Context, target string, states ...order.State) ([]*order.TransportOrder, error) {
	return r.find(func(row order.Snapshot) bool {
		return (row.TargetLocation == target || row.TargetLocationGroup == target) && inStates(row.State, states)
	})
}

func (r memOrderRepo) CountByUnitAndState(_ context.Context, unitBK string, state order.State) (int64, error) {
	var n int64
	for _, row := range r.uow.view() {
		if row.TransportUnitBK == unitBK && row.State == state {
			n++
		}
	}
	return n, nil
}

func (r memOrderRepo) FindAwaitingStartResponse(_ context.Context, requestedBefore time.Time) ([]*order.TransportOrder, error) {
	return r.find(func(row order.Snapshot) bool {
		return row.State == order.Initialized && row.StartRequestedAt != nil && row.StartRequestedAt.Before(requestedBefore)
	})
}

func (r memOrderRepo) FindUnitsWithPendingStart(_ context.Context) ([]string, error) {
	pending := map[string]bool{}
	for _, row := range r.uow.view() {
		if row.TransportUnitBK == "" {
			continue
		}
		switch row.State {
		case order.Started:
			pending[row.TransportUnitBK] = false
		case order.Initialized:
			if _, seen := pending[row.TransportUnitBK]; !seen {
				pending[row.TransportUnitBK] = true
			}
		}
	}
	var units []string
	for unit, ok := range pending {
		if ok {
			units = append(units, unit)
		}
	}
	slices.Sort(units)
	return units, nil
}

type memProblemRepo struct {
	uow *memUoW
}

func (r memProblemRepo) Add(_ context.Context, entry *order.ProblemHistory) error {
	r.uow.history = append(r.uow.history, entry)
	return nil
}

func (r memProblemRepo) FindByOrder(_ context.Context, orderID int64) ([]*order.ProblemHistory, error) {
	return r.uow.store.archived(orderID), nil
}

// recordingPublisher collects published events.
type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, evts ...events.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evts...)
}

func (p *recordingPublisher) types() []events.Type {
	p.mu.Lock()
	defer p.mu.Unlock()
	types := make([]events.Type, 0, len(p.events))
	for _, e := range p.events {
		types = append(types, e.Type)
	}
	return types
}

// fakeTopology serves locations, groups and transport units from maps.
type fakeTopology struct {
	locations map[string]topology.Location
	groups    map[string]topology.LocationGroup
	units     map[string]topology.TransportUnit
	targets   map[string]string
}

func newFakeTopology() *fakeTopology {
	return &fakeTopology{
		locations: map[string]topology.Location{},
		groups:    map[string]topology.LocationGroup{},
		units:     map[string]topology.TransportUnit{},
		targets:   map[string]string{},
	}
}

func (f *fakeTopology) withGroup(name string, active bool) *fakeTopology {
	f.groups[name] = topology.LocationGroup{Name: name, IncomingActive: active}
	return f
}

func (f *fakeTopology) withLocation(t *testing.T, coordinate string, active bool) *fakeTopology {
	t.Helper()
	pk, err := kernel.ParseLocationPK(coordinate)
	require.NoError(t, err)
	f.locations[pk.String()] = topology.Location{PK: pk, IncomingActive: active}
	return f
}

func (f *fakeTopology) withUnit(barcode, actual string) *fakeTopology {
	f.units[barcode] = topology.TransportUnit{Barcode: barcode, ActualLocation: actual}
	return f
}

func (f *fakeTopology) FindByPK(_ context.Context, pk kernel.LocationPK) (topology.Location, error) {
	if l, ok := f.locations[pk.String()]; ok {
		return l, nil
	}
	return topology.Location{}, errs.NewObjectNotFoundError("location", pk.String())
}

func (f *fakeTopology) FindByName(_ context.Context, name string) (topology.LocationGroup, error) {
	if g, ok := f.groups[name]; ok {
		return g, nil
	}
	return topology.LocationGroup{}, errs.NewObjectNotFoundError("location group", name)
}

func (f *fakeTopology) FindByBarcode(_ context.Context, barcode string) (topology.TransportUnit, error) {
	if u, ok := f.units[barcode]; ok {
		return u, nil
	}
	return topology.TransportUnit{}, errs.NewObjectNotFoundError("transport unit", barcode)
}

func (f *fakeTopology) UpdateTarget(_ context.Context, barcode, target string) error {
	f.targets[barcode] = target
	return nil
}

// fakeLocker grants one lease per unit.
type fakeLocker struct {
	mu   sync.Mutex
	held map[string]bool
}

func newFakeLocker() *fakeLocker {
	return &fakeLocker{held: map[string]bool{}}
}

func (l *fakeLocker) Lock(_ context.Context, unitBK string) (func(context.Context) error, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[unitBK] {
		return nil, ports.ErrUnitLocked
	}
	l.held[unitBK] = true
	return func(context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.held, unitBK)
		return nil
	}, nil
}

type MockStartNegotiator struct {
	mock.Mock
}

func (m *MockStartNegotiator) RequestStart(ctx context.Context, req ports.StartRequest) error {
	return m.Called(ctx, req).Error(0)
}

type MockUnitRemovalConfirmer struct {
	mock.Mock
}

func (m *MockUnitRemovalConfirmer) ConfirmRemoval(ctx context.Context, unitBK string) error {
	return m.Called(ctx, unitBK).Error(0)
}

func ptr(s string) *string { return &s }

func zapNop() *zap.Logger { return zap.NewNop() }
