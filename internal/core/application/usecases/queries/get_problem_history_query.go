package queries

import (
	"errors"

	"tms/internal/core/domain/model/kernel"
	"tms/internal/pkg/guard"
)

var ErrGetProblemHistoryQueryIsNotConstructed = errors.New(
	"GetProblemHistoryQuery must be created via NewGetProblemHistoryQuery constructor",
)

// GetProblemHistoryQuery lists the archived problems of an order, oldest first.
type GetProblemHistoryQuery struct {
	key   kernel.UUID
	guard guard.ConstructorGuard
}

func NewGetProblemHistoryQuery(key kernel.UUID) (GetProblemHistoryQuery, error) {
	if err := key.Validate(); err != nil {
		return GetProblemHistoryQuery{}, err
	}
	return GetProblemHistoryQuery{key: key, guard: guard.NewConstructorGuard()}, nil
}

func (q GetProblemHistoryQuery) Validate() error {
	return q.guard.Validate(ErrGetProblemHistoryQueryIsNotConstructed)
}

func (q GetProblemHistoryQuery) Key() kernel.UUID {
	return q.key
}
