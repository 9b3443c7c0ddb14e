package http

import (
	"time"

	"tms/internal/core/application/usecases/queries"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type NewTransportOrder struct {
	PKey     string `json:"pKey"`
	Barcode  string `json:"barcode"`
	Target   string `json:"target"`
	Priority string `json:"priority"`
}

type CreatedTransportOrder struct {
	PKey string `json:"pKey"`
}

type Problem struct {
	OccurredAt *time.Time `json:"occurredAt,omitempty"`
	Code       string     `json:"code,omitempty"`
	Text       string     `json:"text,omitempty"`
}

// TransportOrderPatch changes selected fields and optionally the state of an
// order. Absent fields are left untouched.
type TransportOrderPatch struct {
	State               *string  `json:"state"`
	Priority            *string  `json:"priority"`
	TargetLocation      *string  `json:"targetLocation"`
	TargetLocationGroup *string  `json:"targetLocationGroup"`
	Problem             *Problem `json:"problem"`
}

func (p TransportOrderPatch) hasFields() bool {
	return p.Priority != nil || p.TargetLocation != nil || p.TargetLocationGroup != nil || p.Problem != nil
}

type TransportOrder struct {
	PKey                string     `json:"pKey"`
	TransportUnitBK     string     `json:"transportUnitBK,omitempty"`
	Priority            string     `json:"priority"`
	State               string     `json:"state"`
	SourceLocation      string     `json:"sourceLocation,omitempty"`
	TargetLocation      string     `json:"targetLocation,omitempty"`
	TargetLocationGroup string     `json:"targetLocationGroup,omitempty"`
	StartDate           *time.Time `json:"startDate,omitempty"`
	EndDate             *time.Time `json:"endDate,omitempty"`
	CreatedAt           time.Time  `json:"createdAt"`
	Problem             *Problem   `json:"problem,omitempty"`
}

type ProblemHistoryEntry struct {
	OccurredAt time.Time `json:"occurredAt"`
	Code       string    `json:"code,omitempty"`
	Text       string    `json:"text,omitempty"`
	Archived   time.Time `json:"archived"`
}

func toTransportOrder(r queries.TransportOrderResponse) TransportOrder {
	o := TransportOrder{
		PKey:                r.PKey,
		TransportUnitBK:     r.TransportUnitBK,
		Priority:            r.Priority,
		State:               r.State,
		SourceLocation:      r.SourceLocation,
		TargetLocation:      r.TargetLocation,
		TargetLocationGroup: r.TargetLocationGroup,
		StartDate:           r.StartDate,
		EndDate:             r.EndDate,
		CreatedAt:           r.CreatedAt,
	}
	if r.Problem != nil {
		occurredAt := r.Problem.OccurredAt
		o.Problem = &Problem{OccurredAt: &occurredAt, Code: r.Problem.Code, Text: r.Problem.Text}
	}
	return o
}
