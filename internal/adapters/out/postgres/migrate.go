package postgres

import (
	"fmt"

	"tms/internal/adapters/out/postgres/orderrepo"
	"tms/internal/adapters/out/postgres/problemrepo"
	"tms/internal/core/domain/model/order"

	"gorm.io/gorm"
)

// StartedUnitIndex guarantees at most one STARTED order per transport unit.
const StartedUnitIndex = "uq_transport_orders_started_unit"

// Migrate creates or updates the schema.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&orderrepo.TransportOrderDTO{}, &problemrepo.ProblemHistoryDTO{}); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	stmt := fmt.Sprintf(
		`CREATE UNIQUE INDEX IF NOT EXISTS %s ON transport_orders (transport_unit_bk) WHERE state = %d`,
		StartedUnitIndex, int(order.Started),
	)
	if err := db.Exec(stmt).Error; err != nil {
		return fmt.Errorf("create %s: %w", StartedUnitIndex, err)
	}

	return nil
}
