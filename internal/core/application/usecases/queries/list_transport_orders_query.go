package queries

import (
	"errors"
	"strings"

	"tms/internal/core/domain/model/order"
	"tms/internal/pkg/errs"
	"tms/internal/pkg/guard"
)

var ErrListTransportOrdersQueryIsNotConstructed = errors.New(
	"ListTransportOrdersQuery must be created via NewListTransportOrdersQuery constructor",
)

// ListTransportOrdersQuery lists the orders of a transport unit or heading to
// a target, optionally restricted to some states. Results are ordered by
// surrogate id.
type ListTransportOrdersQuery struct {
	unitBK string
	target string
	states []order.State
	guard  guard.ConstructorGuard
}

// NewListTransportOrdersQuery needs a unit or a target. State names are
// parsed case-insensitively; an unknown name is a validation error.
func NewListTransportOrdersQuery(unitBK, target string, states ...string) (ListTransportOrdersQuery, error) {
	q := ListTransportOrdersQuery{
		unitBK: strings.TrimSpace(unitBK),
		target: strings.TrimSpace(target),
		guard:  guard.NewConstructorGuard(),
	}
	if q.unitBK == "" && q.target == "" {
		return ListTransportOrdersQuery{}, errs.NewValueIsRequiredError("transport unit or target")
	}

	parseErrs := make([]error, 0, len(states))
	for _, name := range states {
		s, err := order.ParseState(name)
		if err != nil {
			parseErrs = append(parseErrs, err)
			continue
		}
		q.states = append(q.states, s)
	}
	if err := errors.Join(parseErrs...); err != nil {
		return ListTransportOrdersQuery{}, err
	}
	return q, nil
}

func (q ListTransportOrdersQuery) Validate() error {
	return q.guard.Validate(ErrListTransportOrdersQueryIsNotConstructed)
}

func (q ListTransportOrdersQuery) UnitBK() string {
	return q.unitBK
}

func (q ListTransportOrdersQuery) Target() string {
	return q.target
}

func (q ListTransportOrdersQuery) States() []order.State {
	return q.states
}
