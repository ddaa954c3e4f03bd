package models

import (
	"time"

	"github.com/uptrace/bun"
)

type DiscountType string

const (
	DiscountFlat    DiscountType = "flat"
	DiscountPercent DiscountType = "percent"
)

type Coupon struct {
	bun.BaseModel `bun:"table:coupons"`

	CouponID string       `bun:"coupon_id,pk" json:"coupon_id"`
	Code     string       `bun:"code,unique" json:"code"`
	Type     DiscountType `bun:"type" json:"type"`
	Value    float64      `bun:"value" json:"value"`

	// Applicability filters. An empty list means "applies to all".
	ApplicableSlots  []string `bun:"applicable_slots,array" json:"applicable_slots"`
	ApplicableSports []string `bun:"applicable_sports,array" json:"applicable_sports"`
	BookingCategory  string   `bun:"booking_category,nullzero" json:"booking_category,omitempty"`
	AssignedEmails   []string `bun:"assigned_emails,array" json:"assigned_emails"`

	MinAmount  float64 `bun:"min_amount" json:"min_amount"`
	UsageLimit int     `bun:"usage_limit" json:"usage_limit"`
	UsedCount  int     `bun:"used_count" json:"used_count"`

	Active    bool      `bun:"active" json:"active"`
	ExpiresAt time.Time `bun:"expires_at,nullzero" json:"expires_at,omitempty"`
	CreatedAt time.Time `bun:"created_at" json:"created_at"`
}

// CouponContext carries the booking details a coupon is validated against.
type CouponContext struct {
	Category string   `json:"category"`
	Sport    string   `json:"sport"`
	Date     string   `json:"date"`
	Slots    []string `json:"slots"`
	Email    string   `json:"email"`
}

type CouponResult struct {
	Valid      bool    `json:"valid"`
	Message    string  `json:"message"`
	Discount   float64 `json:"discount"`
	FinalPrice float64 `json:"final_price"`
}
