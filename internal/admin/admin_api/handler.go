package admin_api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"turfbook/internal/admin"
	"turfbook/internal/auth"
	"turfbook/internal/logger"
	"turfbook/internal/models"
)

type Handler struct {
	Service *admin.Service
	Logger  *logger.Logger
}

func NewHandler(service *admin.Service) *Handler {
	return &Handler{
		Service: service,
		Logger:  logger.NewLogger(),
	}
}

// RequirePerm wraps a route with the permission gate. The admin JWT
// middleware has already run, so the role claim is on the context.
func (h *Handler) RequirePerm(permission string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			err := h.Service.RequirePermission(r.Context(), auth.AdminRole(r.Context()), permission)
			if err != nil {
				h.Logger.Warn("ADMIN", fmt.Sprintf("%s denied %s on %s", auth.AdminID(r.Context()), permission, r.URL.Path))
				http.Error(w, "permission denied", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireSuperadmin guards the permission-editing routes themselves.
func RequireSuperadmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if auth.AdminRole(r.Context()) != models.RoleSuperadmin {
			http.Error(w, "superadmin required", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *Handler) GetPermissions(w http.ResponseWriter, r *http.Request) {
	perms, err := h.Service.GetPermissions(r.Context())
	if err != nil {
		h.Logger.Error("ADMIN", fmt.Sprintf("GetPermissions: %v", err))
		http.Error(w, "Could not load permissions: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(perms); err != nil {
		h.Logger.Error("ADMIN", fmt.Sprintf("GetPermissions: failed to encode response: %v", err))
	}
}

func (h *Handler) UpdatePermissions(w http.ResponseWriter, r *http.Request) {
	var p models.AdminPermissions
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.Service.UpdatePermissions(r.Context(), &p); err != nil {
		h.Logger.Error("ADMIN", fmt.Sprintf("UpdatePermissions: %v", err))
		http.Error(w, "Could not update permissions: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(p); err != nil {
		h.Logger.Error("ADMIN", fmt.Sprintf("UpdatePermissions: failed to encode response: %v", err))
	}
}

func (h *Handler) GetPaymentSettings(w http.ResponseWriter, r *http.Request) {
	enabled, err := h.Service.OnlinePaymentsEnabled(r.Context())
	if err != nil {
		h.Logger.Error("ADMIN", fmt.Sprintf("GetPaymentSettings: %v", err))
		http.Error(w, "Could not load payment settings: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]bool{"online_enabled": enabled}); err != nil {
		h.Logger.Error("ADMIN", fmt.Sprintf("GetPaymentSettings: failed to encode response: %v", err))
	}
}

func (h *Handler) SetPaymentSettings(w http.ResponseWriter, r *http.Request) {
	var body struct {
		OnlineEnabled bool `json:"online_enabled"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.Service.SetOnlinePayments(r.Context(), body.OnlineEnabled, auth.AdminID(r.Context())); err != nil {
		h.Logger.Error("ADMIN", fmt.Sprintf("SetPaymentSettings: %v", err))
		http.Error(w, "Could not update payment settings: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]bool{"online_enabled": body.OnlineEnabled}); err != nil {
		h.Logger.Error("ADMIN", fmt.Sprintf("SetPaymentSettings: failed to encode response: %v", err))
	}
}

type freezeRequest struct {
	GroundID string `json:"ground_id"`
	Sport    string `json:"sport"`
	Date     string `json:"date"`
	Slot     string `json:"slot"`
}

func (h *Handler) FreezeSlot(w http.ResponseWriter, r *http.Request) {
	var req freezeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	f, err := h.Service.FreezeSlot(r.Context(), req.GroundID, req.Sport, req.Date, req.Slot, auth.AdminID(r.Context()))
	if err != nil {
		h.Logger.Error("ADMIN", fmt.Sprintf("FreezeSlot: %v", err))
		status := http.StatusBadRequest
		if errors.Is(err, admin.ErrSlotHasBooking) {
			status = http.StatusConflict
		}
		http.Error(w, err.Error(), status)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(f); err != nil {
		h.Logger.Error("ADMIN", fmt.Sprintf("FreezeSlot: failed to encode response: %v", err))
	}
}

func (h *Handler) UnfreezeSlot(w http.ResponseWriter, r *http.Request) {
	var req freezeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.Service.UnfreezeSlot(r.Context(), req.GroundID, req.Date, req.Slot); err != nil {
		h.Logger.Error("ADMIN", fmt.Sprintf("UnfreezeSlot: %v", err))
		status := http.StatusInternalServerError
		if errors.Is(err, admin.ErrFreezeNotFound) {
			status = http.StatusNotFound
		}
		http.Error(w, err.Error(), status)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ListFreezes(w http.ResponseWriter, r *http.Request) {
	groundID := r.URL.Query().Get("ground")
	date := r.URL.Query().Get("date")

	freezes, err := h.Service.ListFreezes(r.Context(), groundID, date)
	if err != nil {
		h.Logger.Error("ADMIN", fmt.Sprintf("ListFreezes: %v", err))
		http.Error(w, "Could not list freezes: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if freezes == nil {
		freezes = []models.FrozenSlot{}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(freezes); err != nil {
		h.Logger.Error("ADMIN", fmt.Sprintf("ListFreezes: failed to encode response: %v", err))
	}
}
