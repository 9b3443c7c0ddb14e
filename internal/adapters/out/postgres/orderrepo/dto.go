// Package orderrepo maps transport orders to the transport_orders table.
package orderrepo

import (
	"time"

	"tms/internal/core/domain/model/kernel"
	"tms/internal/core/domain/model/order"

	"github.com/google/uuid"
)

// TransportOrderDTO is the row of a transport order. At most one row per
// transport unit may be STARTED; the partial unique index enforcing that is
// created by postgres.Migrate.
type TransportOrderDTO struct {
	ID                   int64     `gorm:"primaryKey;autoIncrement"`
	PKey                 uuid.UUID `gorm:"type:uuid;uniqueIndex;not null"`
	TransportUnitBK      string    `gorm:"index;not null;default:''"`
	Priority             int       `gorm:"type:smallint;not null"`
	State                int       `gorm:"type:smallint;index;not null"`
	SourceLocation       string    `gorm:"not null;default:''"`
	TargetLocation       string    `gorm:"index;not null;default:''"`
	TargetLocationGroup  string    `gorm:"index;not null;default:''"`
	StartDate            *time.Time
	EndDate              *time.Time
	CreatedAt            time.Time  `gorm:"autoCreateTime:false;not null"`
	Problem              ProblemDTO `gorm:"embedded;embeddedPrefix:problem_"`
	StartRequestedAt     *time.Time `gorm:"index"`
	StartRequestAttempts int        `gorm:"not null;default:0"`
}

func (TransportOrderDTO) TableName() string {
	return "transport_orders"
}

// ProblemDTO holds the current problem of an order. All columns are null when
// the order has no problem.
type ProblemDTO struct {
	OccurredAt *time.Time
	Code       *string
	Text       *string
}

func fromDomain(o *order.TransportOrder) TransportOrderDTO {
	s := o.Snapshot()

	dto := TransportOrderDTO{
		ID:                   s.ID,
		PKey:                 s.PKey.Bytes(),
		TransportUnitBK:      s.TransportUnitBK,
		Priority:             int(s.Priority),
		State:                int(s.State),
		SourceLocation:       s.SourceLocation,
		TargetLocation:       s.TargetLocation,
		TargetLocationGroup:  s.TargetLocationGroup,
		StartDate:            s.StartDate,
		EndDate:              s.EndDate,
		CreatedAt:            s.CreatedAt,
		StartRequestedAt:     s.StartRequestedAt,
		StartRequestAttempts: s.StartRequestAttempts,
	}

	if p := s.Problem; p != nil {
		occurredAt := p.OccurredAt()
		code := p.Code()
		text := p.Text()
		dto.Problem = ProblemDTO{OccurredAt: &occurredAt, Code: &code, Text: &text}
	}

	return dto
}

func toDomain(dto TransportOrderDTO) (*order.TransportOrder, error) {
	pKey, err := kernel.UUIDFromBytes(dto.PKey[:])
	if err != nil {
		return nil, err
	}

	var problem *order.Message
	if dto.Problem.OccurredAt != nil {
		var code, text string
		if dto.Problem.Code != nil {
			code = *dto.Problem.Code
		}
		if dto.Problem.Text != nil {
			text = *dto.Problem.Text
		}
		msg, msgErr := order.NewMessage(*dto.Problem.OccurredAt, code, text, pKey.String())
		if msgErr != nil {
			return nil, msgErr
		}
		problem = &msg
	}

	return order.Restore(order.Snapshot{
		ID:                   dto.ID,
		PKey:                 pKey,
		TransportUnitBK:      dto.TransportUnitBK,
		Priority:             order.Priority(dto.Priority),
		State:                order.State(dto.State),
		SourceLocation:       dto.SourceLocation,
		TargetLocation:       dto.TargetLocation,
		TargetLocationGroup:  dto.TargetLocationGroup,
		StartDate:            dto.StartDate,
		EndDate:              dto.EndDate,
		CreatedAt:            dto.CreatedAt,
		Problem:              problem,
		StartRequestedAt:     dto.StartRequestedAt,
		StartRequestAttempts: dto.StartRequestAttempts,
	})
}

func toDomainList(dtos []TransportOrderDTO) ([]*order.TransportOrder, error) {
	orders := make([]*order.TransportOrder, 0, len(dtos))
	for _, dto := range dtos {
		o, err := toDomain(dto)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, nil
}
