package queries

import (
	"context"
	"strings"

	"gorm.io/gorm"
)

type ListTransportOrdersQueryHandler struct {
	db *gorm.DB
}

func NewListTransportOrdersQueryHandler(db *gorm.DB) ListTransportOrdersQueryHandler {
	return ListTransportOrdersQueryHandler{db: db}
}

func (h ListTransportOrdersQueryHandler) Handle(ctx context.Context, query ListTransportOrdersQuery) ([]TransportOrderResponse, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	var (
		where []string
		args  []any
	)
	if query.UnitBK() != "" {
		where = append(where, "transport_unit_bk = ?")
		args = append(args, query.UnitBK())
	}
	if query.Target() != "" {
		where = append(where, "(target_location = ? OR target_location_group = ?)")
		args = append(args, query.Target(), query.Target())
	}
	if states := query.States(); len(states) > 0 {
		codes := make([]int, 0, len(states))
		for _, s := range states {
			codes = append(codes, int(s))
		}
		where = append(where, "state IN ?")
		args = append(args, codes)
	}

	rows, err := h.db.WithContext(ctx).Raw(`
		SELECT `+transportOrderColumns+`
		FROM transport_orders
		WHERE `+strings.Join(where, " AND ")+`
		ORDER BY id
	`, args...).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := make([]TransportOrderResponse, 0)
	for rows.Next() {
		o, err := scanTransportOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return orders, nil
}
