package orderrepo

import (
	"context"
	"errors"
	"time"

	"tms/internal/core/domain/model/kernel"
	"tms/internal/core/domain/model/order"
	"tms/internal/pkg/errs"

	"gorm.io/gorm"
)

// GormOrderRepository implements ports.OrderRepository using GORM.
type GormOrderRepository struct {
	db *gorm.DB
}

func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// Add inserts a new order and assigns the generated surrogate id to it.
func (r *GormOrderRepository) Add(ctx context.Context, aggregate *order.TransportOrder) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := fromDomain(aggregate)
	dto.ID = 0
	if err := r.db.WithContext(ctx).Create(&dto).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) && aggregate.State() != order.Started {
			return errs.NewAlreadyExistsError("transport order", aggregate.PKey().String())
		}
		return r.translate(err, aggregate)
	}
	return aggregate.AssignID(dto.ID)
}

// Update writes every column of an existing order, zero values included.
// A second STARTED order of the same unit violates the partial unique index
// and is reported as errs.StateChangeError.
func (r *GormOrderRepository) Update(ctx context.Context, aggregate *order.TransportOrder) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := fromDomain(aggregate)
	result := r.db.WithContext(ctx).
		Model(&TransportOrderDTO{}).
		Where("p_key = ?", dto.PKey).
		Select("*").
		Omit("id", "p_key", "created_at").
		Updates(&dto)
	if result.Error != nil {
		return r.translate(result.Error, aggregate)
	}

	if result.RowsAffected == 0 {
		return errs.NewObjectNotFoundError("transport order", aggregate.PKey().String())
	}
	return nil
}

func (r *GormOrderRepository) GetByKey(ctx context.Context, key kernel.UUID) (*order.TransportOrder, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}

	var dto TransportOrderDTO
	if err := r.db.WithContext(ctx).First(&dto, "p_key = ?", key.Bytes()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("transport order", key.String())
		}
		return nil, err
	}

	return toDomain(dto)
}

func (r *GormOrderRepository) FindByUnitAndStates(
	ctx context.Context,
	unitBK string,
	states ...order.State,
) ([]*order.TransportOrder, error) {
	q := r.db.WithContext(ctx).Where("transport_unit_bk = ?", unitBK)
	if len(states) > 0 {
		q = q.Where("state IN ?", stateCodes(states))
	}

	var dtos []TransportOrderDTO
	if err := q.Order("id").Find(&dtos).Error; err != nil {
		return nil, err
	}

	return toDomainList(dtos)
}

func (r *GormOrderRepository) FindByTarget(
	ctx context.Context,
	target string,
	states ...order.State,
) ([]*order.TransportOrder, error) {
	q := r.db.WithContext(ctx).Where("target_location = ? OR target_location_group = ?", target, target)
	if len(states) > 0 {
		q = q.Where("state IN ?", stateCodes(states))
	}

	var dtos []TransportOrderDTO
	if err := q.Order("id").Find(&dtos).Error; err != nil {
		return nil, err
	}

	return toDomainList(dtos)
}

func (r *GormOrderRepository) CountByUnitAndState(ctx context.Context, unitBK string, state order.State) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&TransportOrderDTO{}).
		Where("transport_unit_bk = ? AND state = ?", unitBK, int(state)).
		Count(&count).Error
	return count, err
}

func (r *GormOrderRepository) FindAwaitingStartResponse(
	ctx context.Context,
	requestedBefore time.Time,
) ([]*order.TransportOrder, error) {
	var dtos []TransportOrderDTO
	err := r.db.WithContext(ctx).
		Where("state = ? AND start_requested_at IS NOT NULL AND start_requested_at < ?", int(order.Initialized), requestedBefore).
		Order("id").
		Find(&dtos).Error
	if err != nil {
		return nil, err
	}

	return toDomainList(dtos)
}

func (r *GormOrderRepository) FindUnitsWithPendingStart(ctx context.Context) ([]string, error) {
	var units []string
	err := r.db.WithContext(ctx).Raw(`
		SELECT DISTINCT transport_unit_bk
		FROM transport_orders
		WHERE state = ?
		  AND transport_unit_bk <> ''
		  AND transport_unit_bk NOT IN (
			SELECT transport_unit_bk FROM transport_orders WHERE state = ?
		  )
		ORDER BY transport_unit_bk
	`, int(order.Initialized), int(order.Started)).Scan(&units).Error
	if err != nil {
		return nil, err
	}
	return units, nil
}

// translate maps a unique violation to the domain rejection. Requires the
// connection to be opened with gorm.Config.TranslateError.
func (r *GormOrderRepository) translate(err error, o *order.TransportOrder) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) && o.State() == order.Started {
		return errs.NewStateChangeError(order.CodeAlreadyStartedOne, o.PKey().String(),
			"transport unit "+o.TransportUnitBK()+" already has a started order")
	}
	return err
}

func stateCodes(states []order.State) []int {
	codes := make([]int, 0, len(states))
	for _, s := range states {
		codes = append(codes, int(s))
	}
	return codes
}
