package queries_test

import (
	"testing"

	"tms/internal/core/application/usecases/queries"
	"tms/internal/core/domain/model/order"
	"tms/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewListTransportOrdersQuery(t *testing.T) {
	t.Run("should require a unit or a target", func(t *testing.T) {
		_, err := queries.NewListTransportOrdersQuery(" ", "")

		require.ErrorIs(t, err, errs.ErrValueIsRequired)
	})

	t.Run("should parse state names", func(t *testing.T) {
		q, err := queries.NewListTransportOrdersQuery("4711", "", "started", "ONFAILURE")

		require.NoError(t, err)
		require.NoError(t, q.Validate())
		assert.Equal(t, []order.State{order.Started, order.OnFailure}, q.States())
	})

	t.Run("should reject unknown states", func(t *testing.T) {
		_, err := queries.NewListTransportOrdersQuery("4711", "", "PAUSED")

		require.ErrorIs(t, err, errs.ErrValueIsInvalid)
	})
}
