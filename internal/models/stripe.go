package models

// StripeCard represents credit card information sent for the advance charge
type StripeCard struct {
	Number   string         `json:"number" binding:"required"`
	ExpMonth string         `json:"exp_month" binding:"required"`
	ExpYear  string         `json:"exp_year" binding:"required"`
	CVC      string         `json:"cvc" binding:"required"`
	Name     string         `json:"name,omitempty"`
	Address  *StripeAddress `json:"address,omitempty"`
}

// StripeAddress represents billing address information
type StripeAddress struct {
	Line1      string `json:"line1,omitempty"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city,omitempty"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`
	Country    string `json:"country,omitempty"`
}

// StripePaymentRequest represents a request to charge a booking's advance
// through Stripe. The amount is never taken from the request body; it is
// always resolved from the booking record server-side.
type StripePaymentRequest struct {
	BookingID   string            `json:"booking_id" binding:"required"`
	PaymentID   string            `json:"payment_id,omitempty"`
	Token       string            `json:"token,omitempty"`
	Card        *StripeCard       `json:"card,omitempty"`
	Amount      float64           `json:"amount,omitempty"`
	Currency    string            `json:"currency" default:"inr"`
	Description string            `json:"description,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// StripePaymentResponse represents the outcome of a Stripe charge attempt
type StripePaymentResponse struct {
	PaymentID     string        `json:"payment_id"`
	BookingID     string        `json:"booking_id"`
	Status        PaymentStatus `json:"status"`
	Amount        float64       `json:"amount"`
	Currency      string        `json:"currency"`
	TransactionID string        `json:"transaction_id,omitempty"`
	PaymentMethod string        `json:"payment_method,omitempty"`
	ReceiptURL    string        `json:"receipt_url,omitempty"`
	Created       int64         `json:"created"`
}

// StripeCardValidationRequest represents a request to validate a card before
// the customer commits to paying the advance
type StripeCardValidationRequest struct {
	BookingID string      `json:"booking_id" binding:"required"`
	Card      *StripeCard `json:"card" binding:"required"`
}

// StripeCardValidationResponse represents the response from a card validation
type StripeCardValidationResponse struct {
	Valid    bool   `json:"valid"`
	Message  string `json:"message,omitempty"`
	CardType string `json:"card_type,omitempty"`
	Last4    string `json:"last4,omitempty"`
}
