package models

import (
	"time"
)

type PaymentStatus string

const (
	StatusPending   PaymentStatus = "pending"
	StatusSuccess   PaymentStatus = "success"
	StatusFailed    PaymentStatus = "failed"
	StatusRefunded  PaymentStatus = "refunded"
	StatusCancelled PaymentStatus = "cancelled"
)

// Payment records one advance-payment attempt for a booking.
type Payment struct {
	PaymentID     string        `json:"payment_id" bun:"payment_id,pk"`
	BookingID     string        `json:"booking_id" bun:"booking_id"`
	Status        PaymentStatus `json:"status" bun:"status"`
	Amount        float64       `json:"amount" bun:"amount"`
	Currency      string        `json:"currency" bun:"currency"`
	TransactionID string        `json:"transaction_id,omitempty" bun:"transaction_id,nullzero"`
	CreatedDate   time.Time     `json:"created_date" bun:"created_date"`
	UpdatedDate   time.Time     `json:"updated_date,omitempty" bun:"updated_date,nullzero"`
}

type PaymentRequest struct {
	BookingID string  `json:"booking_id"`
	Amount    float64 `json:"amount,omitempty"`
	Token     string  `json:"token,omitempty"`
}

type PaymentResponse struct {
	PaymentID     string        `json:"payment_id"`
	BookingID     string        `json:"booking_id"`
	Status        PaymentStatus `json:"status"`
	Amount        float64       `json:"amount"`
	Currency      string        `json:"currency"`
	TransactionID string        `json:"transaction_id,omitempty"`
	ReceiptURL    string        `json:"receipt_url,omitempty"`
	CreatedDate   time.Time     `json:"created_date"`
}

type PaymentEvent struct {
	Type      string    `json:"type"`
	PaymentID string    `json:"payment_id"`
	BookingID string    `json:"booking_id"`
	Payment   *Payment  `json:"payment"`
	Timestamp time.Time `json:"timestamp"`
}
