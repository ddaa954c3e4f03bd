package booking_api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"turfbook/internal/auth"
	"turfbook/internal/booking"
	"turfbook/internal/logger"
	"turfbook/internal/models"
)

type Handler struct {
	Service *booking.Service
	Logger  *logger.Logger
}

func NewHandler(service *booking.Service) *Handler {
	return &Handler{
		Service: service,
		Logger:  logger.NewLogger(),
	}
}

// statusFor maps service errors onto HTTP statuses so every handler agrees
// on what a conflict versus a bad request looks like.
func statusFor(err error) int {
	switch {
	case booking.IsValidation(err):
		return http.StatusBadRequest
	case booking.IsSlotConflict(err),
		errors.Is(err, booking.ErrSlotsLocked),
		errors.Is(err, booking.ErrNotCancellable),
		errors.Is(err, booking.ErrNotConfirmable):
		return http.StatusConflict
	case errors.Is(err, booking.ErrBookingNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) GetAvailability(w http.ResponseWriter, r *http.Request) {
	groundID := r.URL.Query().Get("ground")
	date := r.URL.Query().Get("date")
	h.Logger.Info("API", fmt.Sprintf("GetAvailability: ground=%s date=%s", groundID, date))

	statuses, err := h.Service.Availability(r.Context(), groundID, date)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("GetAvailability: %v", err))
		http.Error(w, err.Error(), statusFor(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]interface{}{
		"ground": groundID,
		"date":   date,
		"slots":  statuses,
	}); err != nil {
		h.Logger.Error("API", fmt.Sprintf("GetAvailability: failed to encode response: %v", err))
	}
}

func (h *Handler) Quote(w http.ResponseWriter, r *http.Request) {
	var req models.BookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Logger.Error("API", fmt.Sprintf("Quote: failed to decode request body: %v", err))
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	fillCustomerFromContext(r, &req)

	resp, err := h.Service.Quote(r.Context(), req)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("Quote: %v", err))
		http.Error(w, err.Error(), statusFor(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.Logger.Error("API", fmt.Sprintf("Quote: failed to encode response: %v", err))
	}
}

func (h *Handler) PlaceBooking(w http.ResponseWriter, r *http.Request) {
	var req models.BookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Logger.Error("API", fmt.Sprintf("PlaceBooking: failed to decode request body: %v", err))
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	fillCustomerFromContext(r, &req)
	h.Logger.Info("API", fmt.Sprintf("PlaceBooking: ground=%s sport=%s date=%s slots=%v", req.GroundID, req.Sport, req.Date, req.Slots))

	b, err := h.Service.PlaceBooking(r.Context(), req)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("PlaceBooking: %v", err))
		http.Error(w, err.Error(), statusFor(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(toResponse(b)); err != nil {
		h.Logger.Error("API", fmt.Sprintf("PlaceBooking: failed to encode response: %v", err))
	}
}

func (h *Handler) GetBooking(w http.ResponseWriter, r *http.Request) {
	bookingID := chi.URLParam(r, "bookingId")
	h.Logger.Info("API", fmt.Sprintf("GetBooking: bookingId=%s", bookingID))

	b, err := h.Service.GetBooking(r.Context(), bookingID)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("GetBooking: %v", err))
		http.Error(w, err.Error(), statusFor(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(b); err != nil {
		h.Logger.Error("API", fmt.Sprintf("GetBooking: failed to encode response: %v", err))
	}
}

func (h *Handler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	bookingID := chi.URLParam(r, "bookingId")
	h.Logger.Info("API", fmt.Sprintf("CancelBooking: bookingId=%s", bookingID))

	var body struct {
		Reason string `json:"reason"`
	}
	// A missing or empty body just means no reason was given.
	_ = json.NewDecoder(r.Body).Decode(&body)
	if body.Reason == "" {
		body.Reason = "cancelled by customer"
	}

	if err := h.Service.CancelBooking(r.Context(), bookingID, body.Reason); err != nil {
		h.Logger.Error("API", fmt.Sprintf("CancelBooking: %v", err))
		http.Error(w, err.Error(), statusFor(err))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) MyBookings(w http.ResponseWriter, r *http.Request) {
	email := auth.Email(r.Context())
	if email == "" {
		http.Error(w, "no email on token", http.StatusUnauthorized)
		return
	}
	h.Logger.Info("API", fmt.Sprintf("MyBookings: email=%s", email))

	bookings, err := h.Service.ListMyBookings(r.Context(), email)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("MyBookings: %v", err))
		http.Error(w, "Failed to retrieve bookings: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if bookings == nil {
		bookings = []models.Booking{}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(bookings); err != nil {
		h.Logger.Error("API", fmt.Sprintf("MyBookings: failed to encode response: %v", err))
	}
}

// DayBookings lists a ground's bookings for one date. Registered behind the
// staff permission gate.
func (h *Handler) DayBookings(w http.ResponseWriter, r *http.Request) {
	groundID := r.URL.Query().Get("ground")
	date := r.URL.Query().Get("date")
	h.Logger.Info("API", fmt.Sprintf("DayBookings: ground=%s date=%s", groundID, date))

	bookings, err := h.Service.ListBookingsForDay(r.Context(), groundID, date)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("DayBookings: %v", err))
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	if bookings == nil {
		bookings = []models.Booking{}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]interface{}{
		"ground":   groundID,
		"date":     date,
		"bookings": bookings,
	}); err != nil {
		h.Logger.Error("API", fmt.Sprintf("DayBookings: failed to encode response: %v", err))
	}
}

// fillCustomerFromContext backfills customer identity from the verified
// token so clients cannot book on someone else's email.
func fillCustomerFromContext(r *http.Request, req *models.BookingRequest) {
	if email := auth.Email(r.Context()); email != "" {
		req.CustomerEmail = email
	}
	if name := auth.UserName(r.Context()); name != "" && req.CustomerName == "" {
		req.CustomerName = name
	}
}

func toResponse(b *models.Booking) models.BookingResponse {
	return models.BookingResponse{
		BookingID:  b.BookingID,
		Reference:  b.Reference,
		GroundID:   b.GroundID,
		Sport:      b.Sport,
		Date:       b.Date,
		Slots:      b.Slots,
		Status:     string(b.Status),
		FinalPrice: b.FinalPrice,
		AdvanceDue: b.AdvanceDue,
		BalanceDue: b.BalanceDue,
	}
}
