package order_test

import (
	"testing"

	"tms/internal/core/domain/model/order"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComparePriority(t *testing.T) {
	withID := func(id int64, p order.Priority) *order.TransportOrder {
		o := newTestOrder(t, "4711", p)
		require.NoError(t, o.AssignID(id))
		return o
	}

	high := withID(5, order.High)
	lowFirst := withID(1, order.Low)
	lowSecond := withID(2, order.Low)

	t.Run("should put higher priority first", func(t *testing.T) {
		assert.Equal(t, -1, order.ComparePriority(high, lowFirst))
		assert.Equal(t, 1, order.ComparePriority(lowFirst, high))
	})

	t.Run("should break ties by ascending id", func(t *testing.T) {
		assert.Equal(t, -1, order.ComparePriority(lowFirst, lowSecond))
		assert.Equal(t, 1, order.ComparePriority(lowSecond, lowFirst))
		assert.Equal(t, 0, order.ComparePriority(lowFirst, lowFirst))
	})

	t.Run("should be antisymmetric for all pairs", func(t *testing.T) {
		all := []*order.TransportOrder{high, lowFirst, lowSecond, withID(3, order.Highest), withID(4, order.Low)}
		for _, a := range all {
			for _, b := range all {
				assert.Equal(t, -order.ComparePriority(b, a), order.ComparePriority(a, b))
			}
		}
	})

	t.Run("should sort most urgent first", func(t *testing.T) {
		orders := []*order.TransportOrder{lowSecond, high, lowFirst}

		order.SortByPriority(orders)

		assert.Equal(t, []int64{5, 1, 2}, []int64{orders[0].ID(), orders[1].ID(), orders[2].ID()})
	})
}
