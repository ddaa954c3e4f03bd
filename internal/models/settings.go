package models

import (
	"time"

	"github.com/uptrace/bun"
)

// PaymentSettings is a singleton row (id 1) toggling online payments for the
// whole site. When disabled, bookings are created pay-at-venue only.
type PaymentSettings struct {
	bun.BaseModel `bun:"table:payment_settings"`

	ID            int64     `bun:"id,pk" json:"id"`
	OnlineEnabled bool      `bun:"online_enabled" json:"online_enabled"`
	UpdatedBy     string    `bun:"updated_by,nullzero" json:"updated_by,omitempty"`
	UpdatedAt     time.Time `bun:"updated_at" json:"updated_at"`
}

// Permission names checked by the admin gate.
const (
	PermManageBookings = "manage_bookings"
	PermManageCoupons  = "manage_coupons"
	PermFreezeSlots    = "freeze_slots"
	PermManagePayments = "manage_payments"
	PermViewAnalytics  = "view_analytics"
)

// AdminPermissions is a singleton row (id 1) of named capability flags.
// Superadmins bypass it entirely.
type AdminPermissions struct {
	bun.BaseModel `bun:"table:admin_permissions"`

	ID             int64     `bun:"id,pk" json:"id"`
	ManageBookings bool      `bun:"manage_bookings" json:"manage_bookings"`
	ManageCoupons  bool      `bun:"manage_coupons" json:"manage_coupons"`
	FreezeSlots    bool      `bun:"freeze_slots" json:"freeze_slots"`
	ManagePayments bool      `bun:"manage_payments" json:"manage_payments"`
	ViewAnalytics  bool      `bun:"view_analytics" json:"view_analytics"`
	UpdatedAt      time.Time `bun:"updated_at" json:"updated_at"`
}

func (p *AdminPermissions) Allows(permission string) bool {
	switch permission {
	case PermManageBookings:
		return p.ManageBookings
	case PermManageCoupons:
		return p.ManageCoupons
	case PermFreezeSlots:
		return p.FreezeSlots
	case PermManagePayments:
		return p.ManagePayments
	case PermViewAnalytics:
		return p.ViewAnalytics
	}
	return false
}

// DefaultAdminPermissions returns the all-true row created when none exists
// yet, so a missing row never locks staff out.
func DefaultAdminPermissions() *AdminPermissions {
	return &AdminPermissions{
		ID:             1,
		ManageBookings: true,
		ManageCoupons:  true,
		FreezeSlots:    true,
		ManagePayments: true,
		ViewAnalytics:  true,
		UpdatedAt:      time.Now(),
	}
}

const (
	RoleAdmin      = "admin"
	RoleSuperadmin = "superadmin"
)
