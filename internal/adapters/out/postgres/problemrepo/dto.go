// Package problemrepo stores the archive of replaced order problems.
package problemrepo

import (
	"time"

	"tms/internal/core/domain/model/order"
)

// ProblemHistoryDTO is one archived problem. Rows are never updated.
type ProblemHistoryDTO struct {
	ID         int64 `gorm:"primaryKey;autoIncrement"`
	OrderID    int64 `gorm:"index;not null"`
	OrderKey   string
	OccurredAt time.Time `gorm:"not null"`
	Code       string
	Text       string
	Archived   time.Time `gorm:"not null"`
}

func (ProblemHistoryDTO) TableName() string {
	return "problem_histories"
}

func fromDomain(h *order.ProblemHistory) ProblemHistoryDTO {
	return ProblemHistoryDTO{
		ID:         h.ID(),
		OrderID:    h.OrderID(),
		OrderKey:   h.Problem().OrderKey(),
		OccurredAt: h.Problem().OccurredAt(),
		Code:       h.Problem().Code(),
		Text:       h.Problem().Text(),
		Archived:   h.Archived(),
	}
}

func toDomain(dto ProblemHistoryDTO) (*order.ProblemHistory, error) {
	msg, err := order.NewMessage(dto.OccurredAt, dto.Code, dto.Text, dto.OrderKey)
	if err != nil {
		return nil, err
	}
	return order.RestoreProblemHistory(dto.ID, dto.OrderID, msg, dto.Archived)
}
