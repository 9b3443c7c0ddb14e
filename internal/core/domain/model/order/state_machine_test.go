package order_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"tms/internal/core/domain/model/kernel"
	"tms/internal/core/domain/model/order"
	"tms/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockStartedOrderCounter struct{ mock.Mock }

func (m *MockStartedOrderCounter) CountByUnitAndState(ctx context.Context, unitBK string, state order.State) (int64, error) {
	args := m.Called(ctx, unitBK, state)
	return args.Get(0).(int64), args.Error(1)
}

var fixedNow = time.Date(2026, 5, 6, 7, 8, 9, 0, time.UTC)

func restoreInState(t *testing.T, s order.State) *order.TransportOrder {
	t.Helper()
	o, err := order.Restore(order.Snapshot{
		ID:                  1,
		PKey:                kernel.NewUUID(),
		TransportUnitBK:     "4711",
		Priority:            order.Normal,
		State:               s,
		TargetLocationGroup: "AREA",
		CreatedAt:           fixedNow,
	})
	require.NoError(t, err)
	return o
}

func stateChangeCode(t *testing.T, err error) string {
	t.Helper()
	var sce *errs.StateChangeError
	require.ErrorAs(t, err, &sce)
	return sce.Code
}

func TestStateMachine_TransitionTable(t *testing.T) {
	allowed := map[order.State][]order.State{
		order.Created:     {order.Initialized, order.Canceled},
		order.Initialized: {order.Started, order.Canceled, order.OnFailure},
		order.Started:     {order.Interrupted, order.OnFailure, order.Canceled, order.Finished},
		order.Interrupted: {order.OnFailure, order.Canceled, order.Finished},
	}

	counter := new(MockStartedOrderCounter)
	counter.On("CountByUnitAndState", mock.Anything, "4711", order.Started).Return(int64(0), nil)
	sm := order.NewStateMachine(counter, func() time.Time { return fixedNow })

	for _, from := range order.AllStates() {
		for _, to := range order.AllStates() {
			expected := false
			for _, s := range allowed[from] {
				if s == to {
					expected = true
				}
			}

			t.Run(from.String()+"->"+to.String(), func(t *testing.T) {
				o := restoreInState(t, from)
				err := sm.Validate(t.Context(), o, to)

				assert.Equal(t, expected, order.CanTransition(from, to))
				if expected {
					require.NoError(t, err)
					return
				}
				require.ErrorIs(t, err, errs.ErrStateChange)
				switch {
				case from.IsTerminal():
					assert.Equal(t, order.CodeStateFinal, stateChangeCode(t, err))
				case to < from:
					assert.Equal(t, order.CodeBackwardsNotAllowed, stateChangeCode(t, err))
				default:
					assert.Equal(t, order.CodeTransitionNotAllowed, stateChangeCode(t, err))
				}
			})
		}
	}
}

func TestStateMachine_Validate(t *testing.T) {
	ctx := t.Context()

	t.Run("should require a new state", func(t *testing.T) {
		sm := order.NewStateMachine(nil, nil)
		o := restoreInState(t, order.Created)

		err := sm.Validate(ctx, o, order.Unknown)

		assert.Equal(t, order.CodeStateRequired, stateChangeCode(t, err))
	})

	t.Run("should require unit and target to leave CREATED", func(t *testing.T) {
		sm := order.NewStateMachine(nil, nil)
		noUnit, _ := order.NewTransportOrder(kernel.NewUUID(), "", order.Normal, "", "AREA", fixedNow)
		noTarget, _ := order.NewTransportOrder(kernel.NewUUID(), "4711", order.Normal, "", "", fixedNow)

		for _, o := range []*order.TransportOrder{noUnit, noTarget} {
			assert.Equal(t, order.CodeNotReady, stateChangeCode(t, sm.Validate(ctx, o, order.Initialized)))
			assert.Equal(t, order.CodeNotReady, stateChangeCode(t, sm.Validate(ctx, o, order.Canceled)))
		}
	})

	t.Run("should reject a second started order of the unit", func(t *testing.T) {
		counter := new(MockStartedOrderCounter)
		counter.On("CountByUnitAndState", ctx, "4711", order.Started).Return(int64(1), nil).Once()
		sm := order.NewStateMachine(counter, nil)
		o := restoreInState(t, order.Initialized)

		err := sm.Validate(ctx, o, order.Started)

		assert.Equal(t, order.CodeAlreadyStartedOne, stateChangeCode(t, err))
		counter.AssertExpectations(t)
	})

	t.Run("should pass through counter failures", func(t *testing.T) {
		counter := new(MockStartedOrderCounter)
		counter.On("CountByUnitAndState", ctx, "4711", order.Started).Return(int64(0), errors.New("db down")).Once()
		sm := order.NewStateMachine(counter, nil)
		o := restoreInState(t, order.Initialized)

		err := sm.Validate(ctx, o, order.Started)

		require.Error(t, err)
		assert.NotErrorIs(t, err, errs.ErrStateChange)
		assert.Contains(t, err.Error(), "db down")
	})

	t.Run("should carry the order key", func(t *testing.T) {
		sm := order.NewStateMachine(nil, nil)
		o := restoreInState(t, order.Finished)

		err := sm.Validate(ctx, o, order.Canceled)

		var sce *errs.StateChangeError
		require.ErrorAs(t, err, &sce)
		assert.Equal(t, o.PKey().String(), sce.OrderKey)
	})
}

func TestStateMachine_Apply(t *testing.T) {
	ctx := t.Context()
	counter := new(MockStartedOrderCounter)
	counter.On("CountByUnitAndState", ctx, "4711", order.Started).Return(int64(0), nil)
	sm := order.NewStateMachine(counter, func() time.Time { return fixedNow })

	t.Run("should stamp the start date when entering STARTED", func(t *testing.T) {
		o := restoreInState(t, order.Initialized)
		o.MarkStartRequested(fixedNow)

		require.NoError(t, sm.Apply(ctx, o, order.Started))

		assert.Equal(t, order.Started, o.State())
		require.NotNil(t, o.StartDate())
		assert.Equal(t, fixedNow, *o.StartDate())
		assert.Nil(t, o.EndDate())
		assert.False(t, o.AwaitsStartResponse())
	})

	t.Run("should stamp the end date when entering a final state", func(t *testing.T) {
		for _, final := range []order.State{order.Finished, order.OnFailure, order.Canceled} {
			o := restoreInState(t, order.Started)

			require.NoError(t, sm.Apply(ctx, o, final))

			assert.Equal(t, final, o.State())
			require.NotNil(t, o.EndDate())
			assert.Equal(t, fixedNow, *o.EndDate())
		}
	})

	t.Run("should not stamp dates when interrupted", func(t *testing.T) {
		o := restoreInState(t, order.Started)

		require.NoError(t, sm.Apply(ctx, o, order.Interrupted))

		assert.Nil(t, o.EndDate())
	})

	t.Run("should leave the order untouched on rejection", func(t *testing.T) {
		o := restoreInState(t, order.Finished)
		before := o.Snapshot()

		require.Error(t, sm.Apply(ctx, o, order.Canceled))

		assert.Equal(t, before, o.Snapshot())
	})
}
