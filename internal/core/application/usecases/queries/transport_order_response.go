// Package queries contains read operations on transport orders. Queries read
// straight from the database and never go through the aggregates.
package queries

import (
	"database/sql"
	"time"

	"tms/internal/core/domain/model/order"

	"github.com/google/uuid"
)

// TransportOrderResponse is the read model of a transport order.
type TransportOrderResponse struct {
	ID                  int64
	PKey                string
	TransportUnitBK     string
	Priority            string
	State               string
	SourceLocation      string
	TargetLocation      string
	TargetLocationGroup string
	StartDate           *time.Time
	EndDate             *time.Time
	CreatedAt           time.Time
	Problem             *ProblemResponse
}

// ProblemResponse is the read model of a current or archived problem.
type ProblemResponse struct {
	OccurredAt time.Time
	Code       string
	Text       string
}

const transportOrderColumns = `
	id,
	p_key,
	transport_unit_bk,
	priority,
	state,
	source_location,
	target_location,
	target_location_group,
	start_date,
	end_date,
	created_at,
	problem_occurred_at,
	problem_code,
	problem_text`

func scanTransportOrder(rows *sql.Rows) (TransportOrderResponse, error) {
	var (
		resp              TransportOrderResponse
		pKey              uuid.UUID
		priority, state   int
		startDate         sql.NullTime
		endDate           sql.NullTime
		problemOccurredAt sql.NullTime
		problemCode       sql.NullString
		problemText       sql.NullString
	)

	err := rows.Scan(
		&resp.ID,
		&pKey,
		&resp.TransportUnitBK,
		&priority,
		&state,
		&resp.SourceLocation,
		&resp.TargetLocation,
		&resp.TargetLocationGroup,
		&startDate,
		&endDate,
		&resp.CreatedAt,
		&problemOccurredAt,
		&problemCode,
		&problemText,
	)
	if err != nil {
		return TransportOrderResponse{}, err
	}

	resp.PKey = pKey.String()
	resp.Priority = order.Priority(priority).String()
	resp.State = order.State(state).String()
	if startDate.Valid {
		resp.StartDate = &startDate.Time
	}
	if endDate.Valid {
		resp.EndDate = &endDate.Time
	}
	if problemOccurredAt.Valid {
		resp.Problem = &ProblemResponse{
			OccurredAt: problemOccurredAt.Time,
			Code:       problemCode.String,
			Text:       problemText.String,
		}
	}
	return resp, nil
}
