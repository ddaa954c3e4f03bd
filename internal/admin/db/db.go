package db

import (
	"context"
	"database/sql"
	"errors"

	"github.com/uptrace/bun"

	"turfbook/internal/models"
)

type DB struct {
	Bun *bun.DB
}

// GetPermissions fetches the singleton flags row. (nil, nil) when the row
// has never been written.
func (d *DB) GetPermissions(ctx context.Context) (*models.AdminPermissions, error) {
	var p models.AdminPermissions
	err := d.Bun.NewSelect().
		Model(&p).
		Where("id = 1").
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// SavePermissions upserts the singleton flags row.
func (d *DB) SavePermissions(ctx context.Context, p *models.AdminPermissions) error {
	_, err := d.Bun.NewInsert().
		Model(p).
		On("CONFLICT (id) DO UPDATE").
		Set("manage_bookings = EXCLUDED.manage_bookings").
		Set("manage_coupons = EXCLUDED.manage_coupons").
		Set("freeze_slots = EXCLUDED.freeze_slots").
		Set("manage_payments = EXCLUDED.manage_payments").
		Set("view_analytics = EXCLUDED.view_analytics").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	return err
}

// GetPaymentSettings fetches the payment toggle row, (nil, nil) when unset.
func (d *DB) GetPaymentSettings(ctx context.Context) (*models.PaymentSettings, error) {
	var s models.PaymentSettings
	err := d.Bun.NewSelect().
		Model(&s).
		Where("id = 1").
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// SavePaymentSettings upserts the payment toggle row.
func (d *DB) SavePaymentSettings(ctx context.Context, s *models.PaymentSettings) error {
	_, err := d.Bun.NewInsert().
		Model(s).
		On("CONFLICT (id) DO UPDATE").
		Set("online_enabled = EXCLUDED.online_enabled").
		Set("updated_by = EXCLUDED.updated_by").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	return err
}

func (d *DB) CreateFreeze(ctx context.Context, f *models.FrozenSlot) error {
	_, err := d.Bun.NewInsert().Model(f).Exec(ctx)
	return err
}

// DeleteFreeze removes a freeze, reporting whether one existed.
func (d *DB) DeleteFreeze(ctx context.Context, groundID, date, slot string) (bool, error) {
	res, err := d.Bun.NewDelete().
		Model((*models.FrozenSlot)(nil)).
		Where("ground_id = ?", groundID).
		Where("date = ?", date).
		Where("slot = ?", slot).
		Exec(ctx)
	if err != nil {
		return false, err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

func (d *DB) ListFreezes(ctx context.Context, groundID, date string) ([]models.FrozenSlot, error) {
	var freezes []models.FrozenSlot
	err := d.Bun.NewSelect().
		Model(&freezes).
		Where("ground_id = ?", groundID).
		Where("date = ?", date).
		Order("slot").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return freezes, nil
}

// ActiveClaims mirrors the booking store's query; the freeze path needs it
// to refuse freezing a slot someone has already paid for.
func (d *DB) ActiveClaims(ctx context.Context, groundID, date string) ([]models.SlotClaim, error) {
	var claims []models.SlotClaim
	err := d.Bun.NewSelect().
		Model(&claims).
		Where("ground_id = ?", groundID).
		Where("date = ?", date).
		Where("NOT released").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return claims, nil
}
