package analytics_api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"turfbook/internal/analytics"
	"turfbook/internal/logger"
	"turfbook/internal/models"

	"github.com/go-chi/chi/v5"
)

// Handler serves the admin analytics endpoints. Permission checks happen in
// the router middleware; by the time a request lands here it is authorized.
type Handler struct {
	Service *analytics.Service
	Logger  *logger.Logger
}

func NewHandler(service *analytics.Service, logger *logger.Logger) *Handler {
	return &Handler{
		Service: service,
		Logger:  logger,
	}
}

// RegisterRoutes registers the analytics routes on a chi router.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/analytics", func(r chi.Router) {
		r.Get("/overview", h.GetOverview)
		r.Get("/grounds/{groundId}", h.GetGroundAnalytics)
		r.Get("/grounds/{groundId}/slots", h.GetSlotUtilization)
		r.Get("/coupons", h.GetCouponAnalytics)
	})
}

func sendJSONResponse(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func dateRange(r *http.Request) (string, string) {
	return r.URL.Query().Get("from"), r.URL.Query().Get("to")
}

// GetOverview returns the cross-ground revenue summary.
func (h *Handler) GetOverview(w http.ResponseWriter, r *http.Request) {
	from, to := dateRange(r)

	overview, err := h.Service.GetOverview(r.Context(), from, to)
	if err != nil {
		h.Logger.Error("ANALYTICS", fmt.Sprintf("Failed to build overview: %v", err))
		sendJSONResponse(w, http.StatusInternalServerError, map[string]string{"error": "failed to build overview"})
		return
	}

	sendJSONResponse(w, http.StatusOK, overview)
}

// GetGroundAnalytics returns revenue analytics for one ground.
func (h *Handler) GetGroundAnalytics(w http.ResponseWriter, r *http.Request) {
	groundID := chi.URLParam(r, "groundId")
	if !models.ValidGround(groundID) {
		sendJSONResponse(w, http.StatusBadRequest, map[string]string{"error": "unknown ground"})
		return
	}
	from, to := dateRange(r)

	result, err := h.Service.GetGroundAnalytics(r.Context(), groundID, from, to)
	if err != nil {
		h.Logger.Error("ANALYTICS", fmt.Sprintf("Failed to build analytics for ground %s: %v", groundID, err))
		sendJSONResponse(w, http.StatusInternalServerError, map[string]string{"error": "failed to build ground analytics"})
		return
	}

	sendJSONResponse(w, http.StatusOK, result)
}

// GetSlotUtilization returns the per-hour booking counts for one ground.
func (h *Handler) GetSlotUtilization(w http.ResponseWriter, r *http.Request) {
	groundID := chi.URLParam(r, "groundId")
	if !models.ValidGround(groundID) {
		sendJSONResponse(w, http.StatusBadRequest, map[string]string{"error": "unknown ground"})
		return
	}
	from, to := dateRange(r)

	result, err := h.Service.GetSlotUtilization(r.Context(), groundID, from, to)
	if err != nil {
		h.Logger.Error("ANALYTICS", fmt.Sprintf("Failed to build slot utilization for ground %s: %v", groundID, err))
		sendJSONResponse(w, http.StatusInternalServerError, map[string]string{"error": "failed to build slot utilization"})
		return
	}

	sendJSONResponse(w, http.StatusOK, result)
}

// GetCouponAnalytics returns coupon redemption metrics.
func (h *Handler) GetCouponAnalytics(w http.ResponseWriter, r *http.Request) {
	from, to := dateRange(r)

	result, err := h.Service.GetCouponAnalytics(r.Context(), from, to)
	if err != nil {
		h.Logger.Error("ANALYTICS", fmt.Sprintf("Failed to build coupon analytics: %v", err))
		sendJSONResponse(w, http.StatusInternalServerError, map[string]string{"error": "failed to build coupon analytics"})
		return
	}

	sendJSONResponse(w, http.StatusOK, result)
}
