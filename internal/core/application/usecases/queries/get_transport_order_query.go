package queries

import (
	"errors"

	"tms/internal/core/domain/model/kernel"
	"tms/internal/pkg/guard"
)

var ErrGetTransportOrderQueryIsNotConstructed = errors.New(
	"GetTransportOrderQuery must be created via NewGetTransportOrderQuery constructor",
)

// GetTransportOrderQuery reads one order by its persistent key.
type GetTransportOrderQuery struct {
	key   kernel.UUID
	guard guard.ConstructorGuard
}

func NewGetTransportOrderQuery(key kernel.UUID) (GetTransportOrderQuery, error) {
	if err := key.Validate(); err != nil {
		return GetTransportOrderQuery{}, err
	}
	return GetTransportOrderQuery{key: key, guard: guard.NewConstructorGuard()}, nil
}

func (q GetTransportOrderQuery) Validate() error {
	return q.guard.Validate(ErrGetTransportOrderQueryIsNotConstructed)
}

func (q GetTransportOrderQuery) Key() kernel.UUID {
	return q.key
}
