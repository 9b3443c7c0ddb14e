package order_test

import (
	"testing"

	"tms/internal/core/domain/model/order"
	"tms/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestState_Constants(t *testing.T) {
	t.Run("should keep the numeric order of the lifecycle", func(t *testing.T) {
		states := order.AllStates()
		for i := 1; i < len(states); i++ {
			assert.Less(t, int(states[i-1]), int(states[i]))
		}
		assert.Equal(t, 10, int(order.Created))
		assert.Equal(t, 70, int(order.Finished))
	})
}

func TestParseState(t *testing.T) {
	tests := []struct {
		in       string
		expected order.State
	}{
		{"CREATED", order.Created},
		{"initialized", order.Initialized},
		{" Started ", order.Started},
		{"INTERRUPTED", order.Interrupted},
		{"ONFAILURE", order.OnFailure},
		{"CANCELED", order.Canceled},
		{"FINISHED", order.Finished},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			s, err := order.ParseState(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, s)
			assert.Equal(t, tt.expected.String(), s.String())
		})
	}

	t.Run("should reject an unknown name", func(t *testing.T) {
		s, err := order.ParseState("DONE")

		require.Error(t, err)
		require.ErrorIs(t, err, errs.ErrValueIsInvalid)
		assert.Equal(t, order.Unknown, s)
	})
}

func TestState_IsTerminal(t *testing.T) {
	terminal := map[order.State]bool{
		order.Finished:  true,
		order.OnFailure: true,
		order.Canceled:  true,
	}
	for _, s := range order.AllStates() {
		assert.Equal(t, terminal[s], s.IsTerminal(), s.String())
	}

	assert.True(t, order.Interrupted.EndsExecution())
	assert.True(t, order.Finished.EndsExecution())
	assert.False(t, order.Started.EndsExecution())
}

func TestState_Validate(t *testing.T) {
	require.NoError(t, order.Started.Validate())
	require.ErrorIs(t, order.Unknown.Validate(), errs.ErrValueIsInvalid)
	require.ErrorIs(t, order.State(35).Validate(), errs.ErrValueIsInvalid)
	assert.Equal(t, "UNKNOWN", order.State(35).String())
}
