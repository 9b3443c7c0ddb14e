// Package ports defines the contracts between the transport order core and
// the infrastructure: repositories, lookups of warehouse entities owned by
// other services, and the messaging collaborators.
package ports

import (
	"context"
	"time"

	"tms/internal/core/domain/model/kernel"
	"tms/internal/core/domain/model/order"
)

// OrderRepository defines the persistence contract for transport orders.
type OrderRepository interface {
	// Add persists a new order and assigns its surrogate id.
	Add(ctx context.Context, aggregate *order.TransportOrder) error

	// Update persists changes to an existing order.
	Update(ctx context.Context, aggregate *order.TransportOrder) error

	// GetByKey retrieves an order by its persistent key.
	// Returns errs.ObjectNotFoundError for an unknown key.
	GetByKey(ctx context.Context, key kernel.UUID) (*order.TransportOrder, error)

	// FindByUnitAndStates returns the orders of a transport unit in any of the
	// given states ordered by surrogate id. No states means all states.
	FindByUnitAndStates(ctx context.Context, unitBK string, states ...order.State) ([]*order.TransportOrder, error)

	// FindByTarget returns the orders heading to a location or location group
	// in any of the given states ordered by surrogate id.
	FindByTarget(ctx context.Context, target string, states ...order.State) ([]*order.TransportOrder, error)

	// CountByUnitAndState counts the orders of a transport unit in a state.
	CountByUnitAndState(ctx context.Context, unitBK string, state order.State) (int64, error)

	// FindAwaitingStartResponse returns INITIALIZED orders whose start request
	// was sent before the given instant and is still unanswered.
	FindAwaitingStartResponse(ctx context.Context, requestedBefore time.Time) ([]*order.TransportOrder, error)

	// FindUnitsWithPendingStart returns the transport units having INITIALIZED
	// orders but no STARTED order.
	FindUnitsWithPendingStart(ctx context.Context) ([]string, error)
}

// ProblemHistoryRepository archives replaced order problems.
type ProblemHistoryRepository interface {
	Add(ctx context.Context, entry *order.ProblemHistory) error
	FindByOrder(ctx context.Context, orderID int64) ([]*order.ProblemHistory, error)
}
