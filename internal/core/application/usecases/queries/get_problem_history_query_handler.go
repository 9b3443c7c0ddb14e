package queries

import (
	"context"
	"time"

	"tms/internal/pkg/errs"

	"gorm.io/gorm"
)

// ProblemHistoryResponse is one archived problem.
type ProblemHistoryResponse struct {
	ProblemResponse
	Archived time.Time
}

type GetProblemHistoryQueryHandler struct {
	db *gorm.DB
}

func NewGetProblemHistoryQueryHandler(db *gorm.DB) GetProblemHistoryQueryHandler {
	return GetProblemHistoryQueryHandler{db: db}
}

// Handle fails with errs.ObjectNotFoundError for an unknown order.
func (h GetProblemHistoryQueryHandler) Handle(ctx context.Context, query GetProblemHistoryQuery) ([]ProblemHistoryResponse, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	db := h.db.WithContext(ctx)

	var orderID int64
	result := db.Raw(`SELECT id FROM transport_orders WHERE p_key = ?`, query.Key().Bytes()).Scan(&orderID)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, errs.NewObjectNotFoundError("transport order", query.Key().String())
	}

	rows, err := db.Raw(`
		SELECT
			occurred_at,
			code,
			text,
			archived
		FROM problem_histories
		WHERE order_id = ?
		ORDER BY id
	`, orderID).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	history := make([]ProblemHistoryResponse, 0)
	for rows.Next() {
		var entry ProblemHistoryResponse
		if err = rows.Scan(&entry.OccurredAt, &entry.Code, &entry.Text, &entry.Archived); err != nil {
			return nil, err
		}
		history = append(history, entry)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return history, nil
}
