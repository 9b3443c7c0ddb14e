package order

import "time"

// ProblemHistory archives a problem that was replaced on its order.
// Entries are append-only.
type ProblemHistory struct {
	id       int64
	orderID  int64
	problem  Message
	archived time.Time
}

// NewProblemHistory archives problem for the order with the given surrogate id.
func NewProblemHistory(orderID int64, problem Message, archived time.Time) (*ProblemHistory, error) {
	if err := problem.Validate(); err != nil {
		return nil, err
	}
	return &ProblemHistory{
		orderID:  orderID,
		problem:  problem,
		archived: archived.UTC(),
	}, nil
}

// RestoreProblemHistory rebuilds an archived entry read from storage.
func RestoreProblemHistory(id, orderID int64, problem Message, archived time.Time) (*ProblemHistory, error) {
	h, err := NewProblemHistory(orderID, problem, archived)
	if err != nil {
		return nil, err
	}
	h.id = id
	return h, nil
}

func (h *ProblemHistory) ID() int64           { return h.id }
func (h *ProblemHistory) OrderID() int64      { return h.orderID }
func (h *ProblemHistory) Problem() Message    { return h.problem }
func (h *ProblemHistory) Archived() time.Time { return h.archived }

// AssignID stores the storage-assigned surrogate id.
func (h *ProblemHistory) AssignID(id int64) {
	h.id = id
}
