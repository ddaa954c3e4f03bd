package db

import (
	"context"
	"fmt"

	"turfbook/internal/models"
)

// CreateSchema creates the booking tables and the partial unique index that
// enforces one live claim per (ground, date, slot). Production schemas are
// managed by the migration runner; this path serves tests and first boots
// against an empty database.
func (d *DB) CreateSchema(ctx context.Context) error {
	schemaModels := []interface{}{
		(*models.Booking)(nil),
		(*models.SlotClaim)(nil),
		(*models.FrozenSlot)(nil),
		(*models.Coupon)(nil),
		(*models.PaymentSettings)(nil),
		(*models.AdminPermissions)(nil),
	}
	for _, model := range schemaModels {
		_, err := d.Bun.NewCreateTable().
			Model(model).
			IfNotExists().
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to create table for %T: %w", model, err)
		}
	}

	// Partial syntax is shared by Postgres and SQLite.
	_, err := d.Bun.ExecContext(ctx,
		`CREATE UNIQUE INDEX IF NOT EXISTS ux_slot_claims_live
		 ON slot_claims (ground_id, date, slot)
		 WHERE NOT released`)
	if err != nil {
		return fmt.Errorf("failed to create slot claim index: %w", err)
	}
	return nil
}
