package models

import (
	"time"

	"github.com/uptrace/bun"
)

type BookingStatus string

const (
	// BookingActive is a freshly created booking whose advance payment (if
	// any) is still outstanding. It blocks its slots.
	BookingActive BookingStatus = "active"
	// BookingConfirmed is a paid (or pay-at-venue) booking. It blocks its
	// slots.
	BookingConfirmed BookingStatus = "confirmed"
	// BookingCompleted is set lazily once the latest slot's end time has
	// passed.
	BookingCompleted BookingStatus = "completed"
	// BookingCancelled releases the booking's slots.
	BookingCancelled BookingStatus = "cancelled"
)

// legalTransitions encodes the closed status machine. Completed and cancelled
// are terminal.
var legalTransitions = map[BookingStatus][]BookingStatus{
	BookingActive:    {BookingConfirmed, BookingCompleted, BookingCancelled},
	BookingConfirmed: {BookingCompleted, BookingCancelled},
}

func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	for _, t := range legalTransitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

// BlocksSlots reports whether a booking in this status holds its slots.
func (s BookingStatus) BlocksSlots() bool {
	return s == BookingActive || s == BookingConfirmed
}

type Booking struct {
	bun.BaseModel `bun:"table:bookings"`

	BookingID string `bun:"booking_id,pk" json:"booking_id"`
	Reference string `bun:"reference" json:"reference"`
	GroundID  string `bun:"ground_id" json:"ground_id"`
	Sport     string `bun:"sport" json:"sport"`
	Date      string `bun:"date" json:"date"`
	Category  string `bun:"category" json:"category"`

	// Slots is reassembled from the booking's slot_claims rows on read;
	// the claims table is the only place slots are persisted.
	Slots []string `bun:"-" json:"slots"`

	CustomerName  string `bun:"customer_name" json:"customer_name"`
	CustomerEmail string `bun:"customer_email" json:"customer_email"`
	CustomerPhone string `bun:"customer_phone" json:"customer_phone"`

	BasePrice      float64 `bun:"base_price" json:"base_price"`
	DiscountPct    float64 `bun:"discount_pct" json:"discount_pct"`
	DiscountAmount float64 `bun:"discount_amount" json:"discount_amount"`
	CouponCode     string  `bun:"coupon_code,nullzero" json:"coupon_code,omitempty"`
	CouponDiscount float64 `bun:"coupon_discount" json:"coupon_discount"`
	FinalPrice     float64 `bun:"final_price" json:"final_price"`
	AdvanceDue     float64 `bun:"advance_due" json:"advance_due"`
	BalanceDue     float64 `bun:"balance_due" json:"balance_due"`

	Status        BookingStatus `bun:"status" json:"status"`
	PaymentID     string        `bun:"payment_id,nullzero" json:"payment_id,omitempty"`
	TransactionID string        `bun:"transaction_id,nullzero" json:"transaction_id,omitempty"`

	CreatedAt    time.Time `bun:"created_at" json:"created_at"`
	ConfirmedAt  time.Time `bun:"confirmed_at,nullzero" json:"confirmed_at,omitempty"`
	CancelledAt  time.Time `bun:"cancelled_at,nullzero" json:"cancelled_at,omitempty"`
	CancelReason string    `bun:"cancel_reason,nullzero" json:"cancel_reason,omitempty"`
}

// SlotClaim is one row per (booking, slot). The partial unique index on
// (ground_id, date, slot) WHERE NOT released is the storage-level guarantee
// that two bookings can never hold the same slot, whatever sport claimed it.
type SlotClaim struct {
	bun.BaseModel `bun:"table:slot_claims"`

	ClaimID   string    `bun:"claim_id,pk" json:"claim_id"`
	BookingID string    `bun:"booking_id" json:"booking_id"`
	GroundID  string    `bun:"ground_id" json:"ground_id"`
	Sport     string    `bun:"sport" json:"sport"`
	Date      string    `bun:"date" json:"date"`
	Slot      string    `bun:"slot" json:"slot"`
	Released  bool      `bun:"released" json:"released"`
	CreatedAt time.Time `bun:"created_at" json:"created_at"`
}

type BookingRequest struct {
	GroundID      string   `json:"ground_id"`
	Sport         string   `json:"sport"`
	Date          string   `json:"date"`
	Slots         []string `json:"slots"`
	CustomerName  string   `json:"customer_name"`
	CustomerEmail string   `json:"customer_email"`
	CustomerPhone string   `json:"customer_phone"`
	CouponCode    string   `json:"coupon_code,omitempty"`
}

type BookingResponse struct {
	BookingID  string   `json:"booking_id"`
	Reference  string   `json:"reference"`
	GroundID   string   `json:"ground_id"`
	Sport      string   `json:"sport"`
	Date       string   `json:"date"`
	Slots      []string `json:"slots"`
	Status     string   `json:"status"`
	FinalPrice float64  `json:"final_price"`
	AdvanceDue float64  `json:"advance_due"`
	BalanceDue float64  `json:"balance_due"`
}

const (
	EventBookingCreated   = "booking.created"
	EventBookingConfirmed = "booking.confirmed"
	EventBookingCancelled = "booking.cancelled"
)

type BookingEvent struct {
	Type      string    `json:"type"`
	BookingID string    `json:"booking_id"`
	Reference string    `json:"reference"`
	GroundID  string    `json:"ground_id"`
	Sport     string    `json:"sport"`
	Date      string    `json:"date"`
	Slots     []string  `json:"slots"`
	Status    string    `json:"status"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Timestamp time.Time `json:"timestamp"`
}
