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

// GetCouponByCode fetches one coupon; (nil, nil) when the code is unknown.
func (d *DB) GetCouponByCode(ctx context.Context, code string) (*models.Coupon, error) {
	var coupon models.Coupon
	err := d.Bun.NewSelect().
		Model(&coupon).
		Where("code = ?", code).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &coupon, nil
}

// IncrementUsage bumps used_count atomically in the store so concurrent
// redemptions cannot lose updates.
func (d *DB) IncrementUsage(ctx context.Context, code string) error {
	res, err := d.Bun.NewUpdate().
		Model((*models.Coupon)(nil)).
		Set("used_count = used_count + 1").
		Where("code = ?", code).
		Exec(ctx)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (d *DB) CreateCoupon(ctx context.Context, coupon *models.Coupon) error {
	_, err := d.Bun.NewInsert().Model(coupon).Exec(ctx)
	return err
}

func (d *DB) UpdateCoupon(ctx context.Context, coupon *models.Coupon) error {
	_, err := d.Bun.NewUpdate().
		Model(coupon).
		Column("type", "value", "applicable_slots", "applicable_sports",
			"booking_category", "assigned_emails", "min_amount", "usage_limit",
			"active", "expires_at").
		Where("code = ?", coupon.Code).
		Exec(ctx)
	return err
}

func (d *DB) DeleteCoupon(ctx context.Context, code string) error {
	_, err := d.Bun.NewDelete().
		Model((*models.Coupon)(nil)).
		Where("code = ?", code).
		Exec(ctx)
	return err
}

func (d *DB) ListCoupons(ctx context.Context) ([]models.Coupon, error) {
	var coupons []models.Coupon
	err := d.Bun.NewSelect().
		Model(&coupons).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return coupons, nil
}
