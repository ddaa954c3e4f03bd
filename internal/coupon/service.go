package coupon

import (
	"context"
	"fmt"
	"math"
	"time"

	"turfbook/internal/logger"
	"turfbook/internal/models"
)

type DBLayer interface {
	GetCouponByCode(ctx context.Context, code string) (*models.Coupon, error)
	IncrementUsage(ctx context.Context, code string) error
	CreateCoupon(ctx context.Context, coupon *models.Coupon) error
	UpdateCoupon(ctx context.Context, coupon *models.Coupon) error
	DeleteCoupon(ctx context.Context, code string) error
	ListCoupons(ctx context.Context) ([]models.Coupon, error)
}

// Service validates and redeems coupons. Validate never mutates usage
// counters; Redeem is called separately once a booking is durably confirmed.
type Service struct {
	DB     DBLayer
	Logger *logger.Logger
}

func NewService(db DBLayer, log *logger.Logger) *Service {
	return &Service{DB: db, Logger: log}
}

func invalid(message string) *models.CouponResult {
	return &models.CouponResult{Valid: false, Message: message}
}

// Validate runs the applicability checks in a fixed order; the first failing
// check short-circuits with its own message. Re-validating the same invalid
// coupon yields the same answer.
func (s *Service) Validate(ctx context.Context, code string, bctx models.CouponContext, baseAmount float64) (*models.CouponResult, error) {
	c, err := s.DB.GetCouponByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("coupon lookup failed: %w", err)
	}
	if c == nil {
		return invalid("Invalid coupon code"), nil
	}

	if !c.Active {
		return invalid("Coupon is not active"), nil
	}

	if !c.ExpiresAt.IsZero() && time.Now().After(c.ExpiresAt) {
		return invalid("Coupon has expired"), nil
	}

	// An empty allow-list means the coupon is open to everyone.
	if len(c.AssignedEmails) > 0 && !contains(c.AssignedEmails, bctx.Email) {
		return invalid("Coupon is not available for this account"), nil
	}

	if c.UsageLimit > 0 && c.UsedCount >= c.UsageLimit {
		return invalid("Coupon usage limit has been reached"), nil
	}

	if c.BookingCategory != "" && c.BookingCategory != bctx.Category {
		return invalid("Coupon is not valid for this booking type"), nil
	}

	if len(c.ApplicableSports) > 0 && !contains(c.ApplicableSports, bctx.Sport) {
		return invalid("Coupon is not valid for this sport"), nil
	}

	if len(c.ApplicableSlots) > 0 {
		for _, slot := range bctx.Slots {
			if !contains(c.ApplicableSlots, slot) {
				return invalid("Coupon is not valid for the selected slots"), nil
			}
		}
	}

	if baseAmount < c.MinAmount {
		return invalid(fmt.Sprintf("Booking amount does not meet the coupon minimum of %.2f", c.MinAmount)), nil
	}

	discount := computeDiscount(c, baseAmount)

	return &models.CouponResult{
		Valid:      true,
		Message:    "Coupon applied",
		Discount:   discount,
		FinalPrice: round2(baseAmount - discount),
	}, nil
}

// Redeem increments the coupon's usage counter. Called exactly once per
// confirmed booking that carried the code.
func (s *Service) Redeem(ctx context.Context, code string) error {
	if code == "" {
		return nil
	}
	if err := s.DB.IncrementUsage(ctx, code); err != nil {
		return fmt.Errorf("failed to increment usage for coupon %s: %w", code, err)
	}
	if s.Logger != nil {
		s.Logger.Info("COUPON", fmt.Sprintf("Coupon %s redeemed", code))
	}
	return nil
}

func computeDiscount(c *models.Coupon, baseAmount float64) float64 {
	var discount float64
	switch c.Type {
	case models.DiscountFlat:
		discount = c.Value
	case models.DiscountPercent:
		discount = baseAmount * c.Value / 100
	}
	// A discount can never exceed what is being charged.
	if discount > baseAmount {
		discount = baseAmount
	}
	return round2(discount)
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
