package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"turfbook/internal/auth"
	"turfbook/internal/logger"
	"turfbook/internal/models"
	"turfbook/internal/payment/storage"
	"turfbook/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-chi/chi/v5"
)

// BookingService is the slice of the booking core the payment flow needs:
// resolving the advance owed and confirming the booking once it is paid.
type BookingService interface {
	GetBooking(ctx context.Context, bookingID string) (*models.Booking, error)
	ConfirmBooking(ctx context.Context, bookingID, paymentID, transactionID string) error
}

// Processor abstracts the Stripe gateway so the handler can be tested
// without live credentials.
type Processor interface {
	ValidateCard(card *models.StripeCard) (*models.StripeCardValidationResponse, error)
	ProcessPayment(ctx context.Context, req *models.StripePaymentRequest) (*models.StripePaymentResponse, error)
}

// EventPublisher streams payment outcomes to the notification pipeline.
type EventPublisher interface {
	PublishPaymentSucceeded(event models.PaymentEvent) error
	PublishPaymentFailed(event models.PaymentEvent) error
}

type StripeHandler struct {
	stripeService Processor
	paymentStore  storage.Store
	producer      EventPublisher
	bookings      BookingService
	logger        *logger.Logger
}

func NewStripeHandler(stripeService Processor, paymentStore storage.Store, producer EventPublisher, bookings BookingService, logger *logger.Logger) *StripeHandler {
	return &StripeHandler{
		stripeService: stripeService,
		paymentStore:  paymentStore,
		producer:      producer,
		bookings:      bookings,
		logger:        logger,
	}
}

type handlerError struct {
	status  int
	message string
	details string
}

func (e *handlerError) Error() string { return e.message + ": " + e.details }

func fail(status int, message, details string) *handlerError {
	return &handlerError{status: status, message: message, details: details}
}

// processPayment runs the full advance-charge flow. The amount is always
// taken from the booking record, never from the request body.
func (h *StripeHandler) processPayment(ctx context.Context, req *models.StripePaymentRequest) (map[string]interface{}, *handlerError) {
	if req.BookingID == "" {
		return nil, fail(http.StatusBadRequest, "Invalid request payload", "booking_id is required")
	}
	if req.Currency == "" {
		req.Currency = "inr"
	}
	if req.Token == "" && req.Card == nil {
		return nil, fail(http.StatusBadRequest, "Invalid request payload", "Either token or card must be provided")
	}

	booking, err := h.bookings.GetBooking(ctx, req.BookingID)
	if err != nil {
		return nil, fail(http.StatusNotFound, "Booking not found", err.Error())
	}

	if booking.Status == models.BookingConfirmed {
		return map[string]interface{}{
			"booking_id": booking.BookingID,
			"status":     booking.Status,
			"message":    "booking is already confirmed",
		}, nil
	}
	if booking.Status != models.BookingActive {
		return nil, fail(http.StatusConflict, "Booking is not awaiting payment",
			fmt.Sprintf("booking %s is %s", booking.BookingID, booking.Status))
	}
	if booking.AdvanceDue <= 0 {
		return nil, fail(http.StatusConflict, "Nothing to pay",
			"booking has no advance due; it confirms without an online payment")
	}

	payment, err := h.paymentStore.GetPaymentByBookingID(req.BookingID)
	if err != nil || payment.Status == models.StatusFailed {
		payment = &models.Payment{
			PaymentID:   utils.GeneratePaymentID(),
			BookingID:   booking.BookingID,
			Status:      models.StatusPending,
			Amount:      booking.AdvanceDue,
			Currency:    req.Currency,
			CreatedDate: time.Now(),
		}
		if err := h.paymentStore.SavePayment(payment); err != nil {
			return nil, fail(http.StatusInternalServerError, "Payment creation failed", err.Error())
		}
		h.logger.Info("PAYMENT", fmt.Sprintf("Created payment record %s for booking %s, advance %.2f",
			payment.PaymentID, booking.BookingID, payment.Amount))
	}
	if payment.Status == models.StatusSuccess {
		return map[string]interface{}{
			"payment_record": payment,
			"message":        "advance already paid",
		}, nil
	}

	req.Amount = payment.Amount
	req.PaymentID = payment.PaymentID
	if req.Description == "" {
		req.Description = fmt.Sprintf("Advance for booking %s (%s %s)", booking.Reference, booking.GroundID, booking.Date)
	}

	result, err := h.stripeService.ProcessPayment(ctx, req)
	if err != nil {
		return nil, fail(http.StatusInternalServerError, "Payment processing failed", err.Error())
	}

	payment.Status = result.Status
	payment.TransactionID = result.TransactionID
	if err := h.paymentStore.UpdatePayment(payment); err != nil {
		h.logger.Error("PAYMENT", fmt.Sprintf("Failed to update payment record %s: %v", payment.PaymentID, err))
	}

	switch result.Status {
	case models.StatusSuccess:
		if err := h.bookings.ConfirmBooking(ctx, booking.BookingID, payment.PaymentID, result.TransactionID); err != nil {
			h.logger.Error("BOOKING", fmt.Sprintf("Payment %s captured but booking %s confirmation failed: %v",
				payment.PaymentID, booking.BookingID, err))
			return nil, fail(http.StatusInternalServerError, "Booking confirmation failed", err.Error())
		}
		h.publishEvent("payment.success", payment)
	case models.StatusFailed:
		h.publishEvent("payment.failed", payment)
	}

	return map[string]interface{}{
		"stripe_result":  result,
		"payment_record": payment,
	}, nil
}

func (h *StripeHandler) publishEvent(eventType string, payment *models.Payment) {
	event := models.PaymentEvent{
		Type:      eventType,
		PaymentID: payment.PaymentID,
		BookingID: payment.BookingID,
		Payment:   payment,
		Timestamp: time.Now(),
	}

	var err error
	if eventType == "payment.success" {
		err = h.producer.PublishPaymentSucceeded(event)
	} else {
		err = h.producer.PublishPaymentFailed(event)
	}
	if err != nil {
		h.logger.Error("KAFKA", fmt.Sprintf("Failed to publish %s for payment %s: %v", eventType, payment.PaymentID, err))
	}
}

// ValidateCard validates card details without creating a charge
func (h *StripeHandler) ValidateCard(c *gin.Context) {
	var req models.StripeCardValidationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Invalid request payload", err.Error()))
		return
	}

	// Only validate cards for bookings that actually owe an advance.
	booking, err := h.bookings.GetBooking(c.Request.Context(), req.BookingID)
	if err != nil {
		c.JSON(http.StatusNotFound, utils.ErrorResponse("Booking not found", err.Error()))
		return
	}
	if booking.Status != models.BookingActive {
		c.JSON(http.StatusConflict, utils.ErrorResponse("Booking is not awaiting payment",
			fmt.Sprintf("booking %s is %s", booking.BookingID, booking.Status)))
		return
	}

	result, err := h.stripeService.ValidateCard(req.Card)
	if err != nil {
		c.JSON(http.StatusInternalServerError, utils.ErrorResponse("Card validation failed", err.Error()))
		return
	}

	c.JSON(http.StatusOK, utils.SuccessResponse("Card validation result", result))
}

// ProcessPayment charges the booking advance through Stripe
func (h *StripeHandler) ProcessPayment(c *gin.Context) {
	var req models.StripePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Invalid request payload", err.Error()))
		return
	}

	response, herr := h.processPayment(c.Request.Context(), &req)
	if herr != nil {
		c.JSON(herr.status, utils.ErrorResponse(herr.message, herr.details))
		return
	}

	c.JSON(http.StatusOK, utils.SuccessResponse("Payment processed", response))
}

// GetPaymentStatus returns the latest payment attempt for a booking,
// or the full attempt history with ?history=true
func (h *StripeHandler) GetPaymentStatus(c *gin.Context) {
	bookingID := c.Param("bookingId")

	if strings.EqualFold(c.Query("history"), "true") {
		payments, err := h.paymentStore.ListPayments(bookingID, 20, 0)
		if err != nil {
			c.JSON(http.StatusInternalServerError, utils.ErrorResponse("Failed to list payments", err.Error()))
			return
		}
		c.JSON(http.StatusOK, utils.SuccessResponse("Payment history", payments))
		return
	}

	payment, err := h.paymentStore.GetPaymentByBookingID(bookingID)
	if err != nil {
		c.JSON(http.StatusNotFound, utils.ErrorResponse("No payment found for booking", err.Error()))
		return
	}

	c.JSON(http.StatusOK, utils.SuccessResponse("Payment status", payment))
}

// ProcessPaymentChi serves the same advance-charge flow on the main chi
// router, where the caller is an authenticated customer. The booking must
// belong to them.
func (h *StripeHandler) ProcessPaymentChi(w http.ResponseWriter, r *http.Request) {
	var req models.StripePaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeErrorResponse(w, "Invalid request payload", err.Error(), http.StatusBadRequest)
		return
	}

	if email := auth.Email(r.Context()); email != "" && req.BookingID != "" {
		booking, err := h.bookings.GetBooking(r.Context(), req.BookingID)
		if err == nil && !strings.EqualFold(booking.CustomerEmail, email) {
			h.writeErrorResponse(w, "Forbidden", "booking belongs to a different customer", http.StatusForbidden)
			return
		}
	}

	response, herr := h.processPayment(r.Context(), &req)
	if herr != nil {
		h.writeErrorResponse(w, herr.message, herr.details, herr.status)
		return
	}

	h.writeSuccessResponse(w, "Payment processed", response)
}

// GetPaymentStatusChi is the chi-router variant of GetPaymentStatus
func (h *StripeHandler) GetPaymentStatusChi(w http.ResponseWriter, r *http.Request) {
	bookingID := chi.URLParam(r, "bookingId")

	payment, err := h.paymentStore.GetPaymentByBookingID(bookingID)
	if err != nil {
		h.writeErrorResponse(w, "No payment found for booking", err.Error(), http.StatusNotFound)
		return
	}

	h.writeSuccessResponse(w, "Payment status", payment)
}

func (h *StripeHandler) writeErrorResponse(w http.ResponseWriter, message, details string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	response := map[string]interface{}{
		"status":  "error",
		"message": message,
		"details": details,
	}
	json.NewEncoder(w).Encode(response)
}

func (h *StripeHandler) writeSuccessResponse(w http.ResponseWriter, message string, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	response := map[string]interface{}{
		"status":  "success",
		"message": message,
		"data":    data,
	}
	json.NewEncoder(w).Encode(response)
}
