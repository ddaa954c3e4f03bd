package pass_api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"turfbook/internal/auth"
	"turfbook/internal/booking"
	"turfbook/internal/logger"
	"turfbook/internal/models"
	"turfbook/internal/pass"
)

type Handler struct {
	Bookings  *booking.Service
	Generator *pass.Generator
	Logger    *logger.Logger
}

func NewHandler(bookings *booking.Service, generator *pass.Generator) *Handler {
	return &Handler{
		Bookings:  bookings,
		Generator: generator,
		Logger:    logger.NewLogger(),
	}
}

// GetPass serves the entry pass PNG for a confirmed booking. Only the
// booking's own customer can fetch it.
func (h *Handler) GetPass(w http.ResponseWriter, r *http.Request) {
	bookingID := chi.URLParam(r, "bookingId")
	h.Logger.Info("API", fmt.Sprintf("GetPass: bookingId=%s", bookingID))

	b, err := h.Bookings.GetBooking(r.Context(), bookingID)
	if err != nil {
		http.Error(w, "Booking not found", http.StatusNotFound)
		return
	}
	if email := auth.Email(r.Context()); email != "" && email != b.CustomerEmail {
		http.Error(w, "not your booking", http.StatusForbidden)
		return
	}

	png, err := h.Generator.GeneratePassPNG(b)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("GetPass: %v", err))
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	if _, err := w.Write(png); err != nil {
		h.Logger.Error("API", fmt.Sprintf("GetPass: failed to write response: %v", err))
	}
}

// VerifyPass decodes a scanned pass for gate staff.
func (h *Handler) VerifyPass(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Data string `json:"data"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	payload, err := h.Generator.Decode(body.Data)
	if err != nil {
		h.Logger.Warn("API", fmt.Sprintf("VerifyPass: %v", err))
		http.Error(w, "invalid pass", http.StatusUnprocessableEntity)
		return
	}

	// Cross-check against the live booking so a pass for a cancelled
	// booking doesn't open the gate.
	b, err := h.Bookings.GetBooking(r.Context(), payload.BookingID)
	if err != nil {
		http.Error(w, "booking no longer exists", http.StatusGone)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]interface{}{
		"pass":   payload,
		"status": b.Status,
		"valid":  b.Status == models.BookingConfirmed,
	}); err != nil {
		h.Logger.Error("API", fmt.Sprintf("VerifyPass: failed to encode response: %v", err))
	}
}
