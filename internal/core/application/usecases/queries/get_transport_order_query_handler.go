package queries

import (
	"context"

	"tms/internal/pkg/errs"

	"gorm.io/gorm"
)

// GetTransportOrderQueryHandler reads a single order.
//
// Example:
//
//	q, _ := NewGetTransportOrderQuery(key)
//	resp, err := handler.Handle(ctx, q)
//	if errors.Is(err, errs.ErrObjectNotFound) {
//	    // 404
//	}
type GetTransportOrderQueryHandler struct {
	db *gorm.DB
}

func NewGetTransportOrderQueryHandler(db *gorm.DB) GetTransportOrderQueryHandler {
	return GetTransportOrderQueryHandler{db: db}
}

func (h GetTransportOrderQueryHandler) Handle(ctx context.Context, query GetTransportOrderQuery) (TransportOrderResponse, error) {
	if err := query.Validate(); err != nil {
		return TransportOrderResponse{}, err
	}

	rows, err := h.db.WithContext(ctx).Raw(`
		SELECT `+transportOrderColumns+`
		FROM transport_orders
		WHERE p_key = ?
	`, query.Key().Bytes()).Rows()
	if err != nil {
		return TransportOrderResponse{}, err
	}
	defer rows.Close()

	if !rows.Next() {
		if err = rows.Err(); err != nil {
			return TransportOrderResponse{}, err
		}
		return TransportOrderResponse{}, errs.NewObjectNotFoundError("transport order", query.Key().String())
	}

	return scanTransportOrder(rows)
}
