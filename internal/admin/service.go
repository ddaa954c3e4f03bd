package admin

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"turfbook/internal/logger"
	"turfbook/internal/models"
)

var (
	ErrPermissionDenied = errors.New("permission denied")
	ErrFreezeNotFound   = errors.New("freeze not found")
	ErrSlotHasBooking   = errors.New("slot already has a live booking")
)

type DBLayer interface {
	GetPermissions(ctx context.Context) (*models.AdminPermissions, error)
	SavePermissions(ctx context.Context, p *models.AdminPermissions) error
	GetPaymentSettings(ctx context.Context) (*models.PaymentSettings, error)
	SavePaymentSettings(ctx context.Context, s *models.PaymentSettings) error
	CreateFreeze(ctx context.Context, f *models.FrozenSlot) error
	DeleteFreeze(ctx context.Context, groundID, date, slot string) (bool, error)
	ListFreezes(ctx context.Context, groundID, date string) ([]models.FrozenSlot, error)
	ActiveClaims(ctx context.Context, groundID, date string) ([]models.SlotClaim, error)
}

type Service struct {
	DB     DBLayer
	Logger *logger.Logger
}

func NewService(db DBLayer, log *logger.Logger) *Service {
	return &Service{DB: db, Logger: log}
}

// RequirePermission is the gate in front of every staff operation.
// Superadmins bypass the flags. If no permissions row exists, or the lookup
// fails outright, access is granted: the flags exist to let a superadmin
// narrow staff access, and a missing or unreadable row must never lock the
// whole staff out.
func (s *Service) RequirePermission(ctx context.Context, role, permission string) error {
	if role == models.RoleSuperadmin {
		return nil
	}

	perms, err := s.DB.GetPermissions(ctx)
	if err != nil {
		if s.Logger != nil {
			s.Logger.Warn("ADMIN", fmt.Sprintf("Permission lookup failed, allowing %s: %v", permission, err))
		}
		return nil
	}
	if perms == nil {
		return nil
	}
	if !perms.Allows(permission) {
		return ErrPermissionDenied
	}
	return nil
}

// GetPermissions returns the permission flags, creating the all-true row on
// first read.
func (s *Service) GetPermissions(ctx context.Context) (*models.AdminPermissions, error) {
	perms, err := s.DB.GetPermissions(ctx)
	if err != nil {
		return nil, err
	}
	if perms == nil {
		perms = models.DefaultAdminPermissions()
		if err := s.DB.SavePermissions(ctx, perms); err != nil {
			return nil, fmt.Errorf("failed to seed permissions: %w", err)
		}
	}
	return perms, nil
}

// UpdatePermissions replaces the flags. Only superadmins get here; the
// handler enforces that.
func (s *Service) UpdatePermissions(ctx context.Context, p *models.AdminPermissions) error {
	p.ID = 1
	p.UpdatedAt = time.Now()
	if err := s.DB.SavePermissions(ctx, p); err != nil {
		return fmt.Errorf("failed to update permissions: %w", err)
	}
	if s.Logger != nil {
		s.Logger.Info("ADMIN", "Permission flags updated")
	}
	return nil
}

// OnlinePaymentsEnabled reports the payment toggle. Defaults to enabled
// when the row has never been written.
func (s *Service) OnlinePaymentsEnabled(ctx context.Context) (bool, error) {
	settings, err := s.DB.GetPaymentSettings(ctx)
	if err != nil {
		return false, err
	}
	if settings == nil {
		return true, nil
	}
	return settings.OnlineEnabled, nil
}

// SetOnlinePayments flips the site-wide payment toggle.
func (s *Service) SetOnlinePayments(ctx context.Context, enabled bool, updatedBy string) error {
	settings := &models.PaymentSettings{
		ID:            1,
		OnlineEnabled: enabled,
		UpdatedBy:     updatedBy,
		UpdatedAt:     time.Now(),
	}
	if err := s.DB.SavePaymentSettings(ctx, settings); err != nil {
		return fmt.Errorf("failed to save payment settings: %w", err)
	}
	if s.Logger != nil {
		s.Logger.Info("ADMIN", fmt.Sprintf("Online payments set to %t by %s", enabled, updatedBy))
	}
	return nil
}

// FreezeSlot blocks a slot for every sport on the ground. A slot with a
// live booking cannot be frozen out from under the customer.
func (s *Service) FreezeSlot(ctx context.Context, groundID, sport, date, slot, frozenBy string) (*models.FrozenSlot, error) {
	if !models.ValidGround(groundID) {
		return nil, fmt.Errorf("unknown ground %q", groundID)
	}
	if !models.ValidSlot(slot) {
		return nil, fmt.Errorf("unknown slot %q", slot)
	}
	if _, err := models.ParseDate(date); err != nil {
		return nil, fmt.Errorf("malformed date %q", date)
	}

	claims, err := s.DB.ActiveClaims(ctx, groundID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to check bookings: %w", err)
	}
	for _, c := range claims {
		if c.Slot == slot {
			return nil, ErrSlotHasBooking
		}
	}

	f := &models.FrozenSlot{
		FreezeID: uuid.NewString(),
		GroundID: groundID,
		Sport:    sport,
		Date:     date,
		Slot:     slot,
		FrozenBy: frozenBy,
		FrozenAt: time.Now(),
	}
	if err := s.DB.CreateFreeze(ctx, f); err != nil {
		return nil, fmt.Errorf("failed to freeze slot: %w", err)
	}
	if s.Logger != nil {
		s.Logger.Info("ADMIN", fmt.Sprintf("Slot %s frozen on %s/%s by %s", slot, groundID, date, frozenBy))
	}
	return f, nil
}

// UnfreezeSlot lifts a freeze.
func (s *Service) UnfreezeSlot(ctx context.Context, groundID, date, slot string) error {
	found, err := s.DB.DeleteFreeze(ctx, groundID, date, slot)
	if err != nil {
		return fmt.Errorf("failed to unfreeze slot: %w", err)
	}
	if !found {
		return ErrFreezeNotFound
	}
	if s.Logger != nil {
		s.Logger.Info("ADMIN", fmt.Sprintf("Slot %s unfrozen on %s/%s", slot, groundID, date))
	}
	return nil
}

// ListFreezes returns the freezes for a ground and date.
func (s *Service) ListFreezes(ctx context.Context, groundID, date string) ([]models.FrozenSlot, error) {
	return s.DB.ListFreezes(ctx, groundID, date)
}
