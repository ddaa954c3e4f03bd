package booking_api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"turfbook/internal/auth"
	"turfbook/internal/booking"
	"turfbook/internal/logger"
	"turfbook/internal/sse"

	"github.com/go-chi/chi/v5"
)

// SSEHandler streams booking lifecycle events to connected clients.
type SSEHandler struct {
	Logger       *logger.Logger
	EventEmitter *sse.BookingEventEmitter
	Bookings     *booking.Service
}

func NewSSEHandler(log *logger.Logger, bookings *booking.Service) *SSEHandler {
	return &SSEHandler{
		Logger:       log,
		EventEmitter: sse.NewBookingEventEmitter(),
		Bookings:     bookings,
	}
}

// HandleBookingStream streams status events for one booking. The customer
// keeps this open while their advance payment is in flight. EventSource
// cannot set headers, so the token arrives as a query parameter.
func (h *SSEHandler) HandleBookingStream(w http.ResponseWriter, r *http.Request) {
	bookingID := chi.URLParam(r, "bookingId")
	if bookingID == "" {
		http.Error(w, "Booking ID is required", http.StatusBadRequest)
		return
	}

	if err := h.verifyBookingAccess(r, bookingID); err != nil {
		h.Logger.Error("SSE", fmt.Sprintf("Booking access verification failed: %v", err))
		http.Error(w, "Unauthorized access", http.StatusUnauthorized)
		return
	}

	h.setupSSEHeaders(w)

	ctx := r.Context()
	eventChan := h.EventEmitter.SubscribeToBooking(ctx, bookingID)

	fmt.Fprintf(w, "event: connected\ndata: {\"status\":\"connected\",\"bookingID\":\"%s\"}\n\n", bookingID)
	w.(http.Flusher).Flush()

	h.Logger.Info("SSE", fmt.Sprintf("Client connected to booking stream: %s", bookingID))

	for {
		select {
		case event, ok := <-eventChan:
			if !ok {
				h.Logger.Debug("SSE", fmt.Sprintf("Channel closed for booking: %s", bookingID))
				return
			}

			jsonData, err := json.Marshal(event)
			if err != nil {
				h.Logger.Error("SSE", fmt.Sprintf("Failed to serialize booking event: %v", err))
				continue
			}

			fmt.Fprintf(w, "event: booking\ndata: %s\n\n", jsonData)
			w.(http.Flusher).Flush()

		case <-ctx.Done():
			h.Logger.Debug("SSE", fmt.Sprintf("Client disconnected from booking stream: %s", bookingID))
			return
		}
	}
}

// HandleGroundDayStream streams booking activity for one ground-day so the
// availability board refreshes live. Availability is public; no auth here.
func (h *SSEHandler) HandleGroundDayStream(w http.ResponseWriter, r *http.Request) {
	groundID := chi.URLParam(r, "groundId")
	date := r.URL.Query().Get("date")
	if groundID == "" || date == "" {
		http.Error(w, "Ground ID and date are required", http.StatusBadRequest)
		return
	}

	h.setupSSEHeaders(w)

	ctx := r.Context()
	eventChan := h.EventEmitter.SubscribeToGroundDay(ctx, groundID, date)

	fmt.Fprintf(w, "event: connected\ndata: {\"status\":\"connected\",\"groundID\":\"%s\",\"date\":\"%s\"}\n\n", groundID, date)
	w.(http.Flusher).Flush()

	h.Logger.Info("SSE", fmt.Sprintf("Client connected to ground stream: %s %s", groundID, date))

	for {
		select {
		case event, ok := <-eventChan:
			if !ok {
				return
			}

			jsonData, err := json.Marshal(event)
			if err != nil {
				h.Logger.Error("SSE", fmt.Sprintf("Failed to serialize booking event: %v", err))
				continue
			}

			fmt.Fprintf(w, "event: booking\ndata: %s\n\n", jsonData)
			w.(http.Flusher).Flush()

		case <-ctx.Done():
			h.Logger.Debug("SSE", fmt.Sprintf("Client disconnected from ground stream: %s %s", groundID, date))
			return
		}
	}
}

func (h *SSEHandler) setupSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream;charset=UTF-8")
	w.Header().Set("Cache-Control", "no-cache, no-store, max-age=0, must-revalidate")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Pragma", "no-cache")
	w.Header().Set("Expires", "0")
	w.Header().Set("X-Content-Type-Options", "nosniff")
}

// verifyBookingAccess checks that the streaming client owns the booking.
func (h *SSEHandler) verifyBookingAccess(r *http.Request, bookingID string) error {
	token, err := auth.ExtractTokenFromRequest(r)
	if err != nil {
		return fmt.Errorf("failed to extract token: %w", err)
	}

	email, err := auth.ExtractEmailFromJWT(token)
	if err != nil {
		return fmt.Errorf("failed to extract email: %w", err)
	}

	b, err := h.Bookings.GetBooking(r.Context(), bookingID)
	if err != nil {
		return fmt.Errorf("failed to load booking: %w", err)
	}

	if !strings.EqualFold(b.CustomerEmail, email) {
		return fmt.Errorf("booking %s does not belong to %s", bookingID, email)
	}

	return nil
}
