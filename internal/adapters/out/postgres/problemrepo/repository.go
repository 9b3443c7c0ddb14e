package problemrepo

import (
	"context"

	"tms/internal/core/domain/model/order"
	"tms/internal/pkg/errs"

	"gorm.io/gorm"
)

// GormProblemHistoryRepository implements ports.ProblemHistoryRepository.
type GormProblemHistoryRepository struct {
	db *gorm.DB
}

func NewGormProblemHistoryRepository(db *gorm.DB) *GormProblemHistoryRepository {
	return &GormProblemHistoryRepository{db: db}
}

// Add appends an entry and assigns the generated id to it.
func (r *GormProblemHistoryRepository) Add(ctx context.Context, entry *order.ProblemHistory) error {
	if entry == nil {
		return errs.NewValueIsRequiredError("problem history")
	}
	if err := entry.Problem().Validate(); err != nil {
		return err
	}

	dto := fromDomain(entry)
	dto.ID = 0
	if err := r.db.WithContext(ctx).Create(&dto).Error; err != nil {
		return err
	}
	entry.AssignID(dto.ID)
	return nil
}

// FindByOrder returns the archive of an order, oldest entry first.
func (r *GormProblemHistoryRepository) FindByOrder(ctx context.Context, orderID int64) ([]*order.ProblemHistory, error) {
	var dtos []ProblemHistoryDTO
	if err := r.db.WithContext(ctx).Where("order_id = ?", orderID).Order("id").Find(&dtos).Error; err != nil {
		return nil, err
	}

	entries := make([]*order.ProblemHistory, 0, len(dtos))
	for _, dto := range dtos {
		h, err := toDomain(dto)
		if err != nil {
			return nil, err
		}
		entries = append(entries, h)
	}
	return entries, nil
}
