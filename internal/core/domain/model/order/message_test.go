package order_test

import (
	"testing"
	"time"

	"tms/internal/core/domain/model/order"
	"tms/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMessage(t *testing.T) {
	now := time.Date(2026, 3, 4, 10, 0, 0, 0, time.FixedZone("CET", 3600))

	t.Run("should create message with code only", func(t *testing.T) {
		m, err := order.NewMessage(now, order.CodeTargetBlocked, "", "key-1")

		require.NoError(t, err)
		require.NoError(t, m.Validate())
		assert.Equal(t, order.CodeTargetBlocked, m.Code())
		assert.Equal(t, "key-1", m.OrderKey())
		assert.Equal(t, time.UTC, m.OccurredAt().Location())
		assert.True(t, m.OccurredAt().Equal(now))
	})

	t.Run("should require a code or a text", func(t *testing.T) {
		_, err := order.NewMessage(now, " ", "  ", "key-1")

		require.ErrorIs(t, err, errs.ErrValueIsRequired)
	})

	t.Run("should require an occurrence", func(t *testing.T) {
		_, err := order.NewMessage(time.Time{}, "X", "", "key-1")

		require.ErrorIs(t, err, errs.ErrValueIsRequired)
	})

	t.Run("should reject a zero value", func(t *testing.T) {
		var m order.Message

		require.ErrorIs(t, m.Validate(), order.ErrMessageIsNotConstructed)
	})
}

func TestMessage_IsEqual(t *testing.T) {
	now := time.Now()
	a, _ := order.NewMessage(now, "A", "text", "k")
	b, _ := order.NewMessage(now, "A", "text", "k")
	c, _ := order.NewMessage(now, "B", "text", "k")

	assert.True(t, a.IsEqual(b))
	assert.False(t, a.IsEqual(c))
}

func TestNewProblemHistory(t *testing.T) {
	now := time.Now()
	m, _ := order.NewMessage(now, "A", "", "k")

	h, err := order.NewProblemHistory(42, m, now)
	require.NoError(t, err)
	assert.Equal(t, int64(42), h.OrderID())
	assert.True(t, h.Problem().IsEqual(m))
	assert.Zero(t, h.ID())

	h.AssignID(7)
	assert.Equal(t, int64(7), h.ID())

	_, err = order.NewProblemHistory(42, order.Message{}, now)
	require.ErrorIs(t, err, order.ErrMessageIsNotConstructed)
}
