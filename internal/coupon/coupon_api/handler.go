package coupon_api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"turfbook/internal/auth"
	"turfbook/internal/coupon"
	"turfbook/internal/logger"
	"turfbook/internal/models"
)

type Handler struct {
	Service *coupon.Service
	Logger  *logger.Logger
}

func NewHandler(service *coupon.Service) *Handler {
	return &Handler{
		Service: service,
		Logger:  logger.NewLogger(),
	}
}

type validateRequest struct {
	Code       string   `json:"code"`
	Category   string   `json:"category"`
	Sport      string   `json:"sport"`
	Date       string   `json:"date"`
	Slots      []string `json:"slots"`
	BaseAmount float64  `json:"base_amount"`
}

// Validate dry-runs a coupon against a quoted booking. It never touches
// usage counters, so clients may call it as often as they like.
func (h *Handler) Validate(w http.ResponseWriter, r *http.Request) {
	var req validateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Logger.Error("API", fmt.Sprintf("Validate: failed to decode request body: %v", err))
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.Code == "" {
		http.Error(w, "Coupon code is required", http.StatusBadRequest)
		return
	}
	h.Logger.Info("API", fmt.Sprintf("Validate: code=%s category=%s sport=%s", req.Code, req.Category, req.Sport))

	bctx := models.CouponContext{
		Category: req.Category,
		Sport:    req.Sport,
		Date:     req.Date,
		Slots:    req.Slots,
		Email:    auth.Email(r.Context()),
	}

	result, err := h.Service.Validate(r.Context(), req.Code, bctx, req.BaseAmount)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("Validate: lookup failed: %v", err))
		http.Error(w, "Could not validate coupon: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(result); err != nil {
		h.Logger.Error("API", fmt.Sprintf("Validate: failed to encode response: %v", err))
	}
}

func (h *Handler) CreateCoupon(w http.ResponseWriter, r *http.Request) {
	var c models.Coupon
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		h.Logger.Error("API", fmt.Sprintf("CreateCoupon: failed to decode request body: %v", err))
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if c.Code == "" {
		http.Error(w, "Coupon code is required", http.StatusBadRequest)
		return
	}
	if c.Type != models.DiscountFlat && c.Type != models.DiscountPercent {
		http.Error(w, "Coupon type must be flat or percent", http.StatusBadRequest)
		return
	}

	if err := h.Service.DB.CreateCoupon(r.Context(), &c); err != nil {
		h.Logger.Error("API", fmt.Sprintf("CreateCoupon: %v", err))
		http.Error(w, "Could not create coupon: "+err.Error(), http.StatusInternalServerError)
		return
	}
	h.Logger.Info("API", fmt.Sprintf("CreateCoupon: created %s by %s", c.Code, auth.AdminID(r.Context())))

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(c); err != nil {
		h.Logger.Error("API", fmt.Sprintf("CreateCoupon: failed to encode response: %v", err))
	}
}

func (h *Handler) UpdateCoupon(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	var c models.Coupon
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		h.Logger.Error("API", fmt.Sprintf("UpdateCoupon: failed to decode request body: %v", err))
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	c.Code = code

	if err := h.Service.DB.UpdateCoupon(r.Context(), &c); err != nil {
		h.Logger.Error("API", fmt.Sprintf("UpdateCoupon: %v", err))
		http.Error(w, "Could not update coupon: "+err.Error(), http.StatusInternalServerError)
		return
	}
	h.Logger.Info("API", fmt.Sprintf("UpdateCoupon: updated %s", code))

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(c); err != nil {
		h.Logger.Error("API", fmt.Sprintf("UpdateCoupon: failed to encode response: %v", err))
	}
}

func (h *Handler) DeleteCoupon(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	if err := h.Service.DB.DeleteCoupon(r.Context(), code); err != nil {
		h.Logger.Error("API", fmt.Sprintf("DeleteCoupon: %v", err))
		http.Error(w, "Could not delete coupon: "+err.Error(), http.StatusInternalServerError)
		return
	}
	h.Logger.Info("API", fmt.Sprintf("DeleteCoupon: deleted %s", code))

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ListCoupons(w http.ResponseWriter, r *http.Request) {
	coupons, err := h.Service.DB.ListCoupons(r.Context())
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("ListCoupons: %v", err))
		http.Error(w, "Could not list coupons: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(coupons); err != nil {
		h.Logger.Error("API", fmt.Sprintf("ListCoupons: failed to encode response: %v", err))
	}
}
