package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/uptrace/bun"

	"turfbook/internal/booking"
	"turfbook/internal/models"
)

type DB struct {
	Bun *bun.DB
}

// CreateBookingWithClaims inserts a booking and one claim row per slot in a
// single transaction. The claims are re-checked inside the transaction, and
// the partial unique index on slot_claims backstops the check: if another
// writer slips a claim in between, the insert fails and is translated into
// the same conflict error the check would have produced.
func (d *DB) CreateBookingWithClaims(ctx context.Context, b *models.Booking) error {
	err := d.Bun.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		var taken []string
		err := tx.NewSelect().
			Column("slot").
			Table("slot_claims").
			Where("ground_id = ?", b.GroundID).
			Where("date = ?", b.Date).
			Where("slot IN (?)", bun.In(b.Slots)).
			Where("NOT released").
			Scan(ctx, &taken)
		if err != nil {
			return fmt.Errorf("failed to check slot claims: %w", err)
		}
		if len(taken) > 0 {
			return &booking.SlotConflictError{GroundID: b.GroundID, Date: b.Date, Slots: taken}
		}

		if _, err := tx.NewInsert().Model(b).Exec(ctx); err != nil {
			return fmt.Errorf("failed to insert booking: %w", err)
		}

		claims := make([]models.SlotClaim, 0, len(b.Slots))
		for _, slot := range b.Slots {
			claims = append(claims, models.SlotClaim{
				ClaimID:   uuid.NewString(),
				BookingID: b.BookingID,
				GroundID:  b.GroundID,
				Sport:     b.Sport,
				Date:      b.Date,
				Slot:      slot,
				CreatedAt: time.Now(),
			})
		}
		if _, err := tx.NewInsert().Model(&claims).Exec(ctx); err != nil {
			if isUniqueViolation(err) {
				return &booking.SlotConflictError{GroundID: b.GroundID, Date: b.Date, Slots: b.Slots}
			}
			return fmt.Errorf("failed to insert slot claims: %w", err)
		}
		return nil
	})
	return err
}

// GetBookingByID fetches one booking and reassembles its slots from the
// claims table.
func (d *DB) GetBookingByID(ctx context.Context, id string) (*models.Booking, error) {
	var b models.Booking
	err := d.Bun.NewSelect().
		Model(&b).
		Where("booking_id = ?", id).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, booking.ErrBookingNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := d.attachSlots(ctx, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

// GetBookingByReference looks a booking up by its human-facing reference.
func (d *DB) GetBookingByReference(ctx context.Context, reference string) (*models.Booking, error) {
	var b models.Booking
	err := d.Bun.NewSelect().
		Model(&b).
		Where("reference = ?", reference).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, booking.ErrBookingNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := d.attachSlots(ctx, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

// ListBookingsByEmail returns a customer's bookings, newest first.
func (d *DB) ListBookingsByEmail(ctx context.Context, email string) ([]models.Booking, error) {
	var bookings []models.Booking
	err := d.Bun.NewSelect().
		Model(&bookings).
		Where("customer_email = ?", email).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	for i := range bookings {
		if err := d.attachSlots(ctx, &bookings[i]); err != nil {
			return nil, err
		}
	}
	return bookings, nil
}

// ListBookingsForDay returns every booking on a ground for one date,
// newest first. Used by the staff views.
func (d *DB) ListBookingsForDay(ctx context.Context, groundID, date string) ([]models.Booking, error) {
	var bookings []models.Booking
	err := d.Bun.NewSelect().
		Model(&bookings).
		Where("ground_id = ?", groundID).
		Where("date = ?", date).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	for i := range bookings {
		if err := d.attachSlots(ctx, &bookings[i]); err != nil {
			return nil, err
		}
	}
	return bookings, nil
}

// UpdateBooking writes back the mutable booking fields.
func (d *DB) UpdateBooking(ctx context.Context, b *models.Booking) error {
	_, err := d.Bun.NewUpdate().
		Model(b).
		Column("status", "payment_id", "transaction_id", "confirmed_at", "cancelled_at", "cancel_reason").
		Where("booking_id = ?", b.BookingID).
		Exec(ctx)
	return err
}

// ReleaseClaims frees every claim a booking holds. The rows stay behind for
// the audit trail; the partial index only covers unreleased rows.
func (d *DB) ReleaseClaims(ctx context.Context, bookingID string) error {
	_, err := d.Bun.NewUpdate().
		Model((*models.SlotClaim)(nil)).
		Set("released = ?", true).
		Where("booking_id = ?", bookingID).
		Exec(ctx)
	return err
}

// ActiveClaims returns the unreleased claims for a ground and date, across
// all sports.
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

// Freezes returns the admin freezes for a ground and date, across all
// sports.
func (d *DB) Freezes(ctx context.Context, groundID, date string) ([]models.FrozenSlot, error) {
	var freezes []models.FrozenSlot
	err := d.Bun.NewSelect().
		Model(&freezes).
		Where("ground_id = ?", groundID).
		Where("date = ?", date).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return freezes, nil
}

// GetActiveBookingBySlot finds the unconfirmed booking holding a slot, if
// any. Used when a checkout hold expires to decide what to cancel.
func (d *DB) GetActiveBookingBySlot(ctx context.Context, groundID, date, slot string) (*models.Booking, error) {
	var b models.Booking
	err := d.Bun.NewSelect().
		Model(&b).
		Join("JOIN slot_claims c ON c.booking_id = booking.booking_id").
		Where("c.ground_id = ?", groundID).
		Where("c.date = ?", date).
		Where("c.slot = ?", slot).
		Where("NOT c.released").
		Where("booking.status = ?", models.BookingActive).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := d.attachSlots(ctx, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

func (d *DB) attachSlots(ctx context.Context, b *models.Booking) error {
	var slots []string
	err := d.Bun.NewSelect().
		Column("slot").
		Table("slot_claims").
		Where("booking_id = ?", b.BookingID).
		Order("slot").
		Scan(ctx, &slots)
	if err != nil {
		return fmt.Errorf("failed to load slots for booking %s: %w", b.BookingID, err)
	}
	b.Slots = slots
	return nil
}

// isUniqueViolation recognizes a unique-index failure from Postgres (class
// 23505) or from SQLite in tests, where only the message is available.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value")
}
