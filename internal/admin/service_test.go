package admin_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"turfbook/internal/admin"
	"turfbook/internal/models"
)

type MockDBLayer struct {
	mock.Mock
}

func (m *MockDBLayer) GetPermissions(ctx context.Context) (*models.AdminPermissions, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AdminPermissions), args.Error(1)
}

func (m *MockDBLayer) SavePermissions(ctx context.Context, p *models.AdminPermissions) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockDBLayer) GetPaymentSettings(ctx context.Context) (*models.PaymentSettings, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PaymentSettings), args.Error(1)
}

func (m *MockDBLayer) SavePaymentSettings(ctx context.Context, s *models.PaymentSettings) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

func (m *MockDBLayer) CreateFreeze(ctx context.Context, f *models.FrozenSlot) error {
	args := m.Called(ctx, f)
	return args.Error(0)
}

func (m *MockDBLayer) DeleteFreeze(ctx context.Context, groundID, date, slot string) (bool, error) {
	args := m.Called(ctx, groundID, date, slot)
	return args.Bool(0), args.Error(1)
}

func (m *MockDBLayer) ListFreezes(ctx context.Context, groundID, date string) ([]models.FrozenSlot, error) {
	args := m.Called(ctx, groundID, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.FrozenSlot), args.Error(1)
}

func (m *MockDBLayer) ActiveClaims(ctx context.Context, groundID, date string) ([]models.SlotClaim, error) {
	args := m.Called(ctx, groundID, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.SlotClaim), args.Error(1)
}

func TestRequirePermissionSuperadminBypass(t *testing.T) {
	mockDB := new(MockDBLayer)
	svc := admin.NewService(mockDB, nil)

	err := svc.RequirePermission(context.Background(), models.RoleSuperadmin, models.PermManageCoupons)

	assert.NoError(t, err)
	mockDB.AssertNotCalled(t, "GetPermissions", mock.Anything)
}

func TestRequirePermissionFlagChecked(t *testing.T) {
	mockDB := new(MockDBLayer)
	svc := admin.NewService(mockDB, nil)

	perms := models.DefaultAdminPermissions()
	perms.ManageCoupons = false
	mockDB.On("GetPermissions", mock.Anything).Return(perms, nil)

	err := svc.RequirePermission(context.Background(), models.RoleAdmin, models.PermManageCoupons)
	assert.ErrorIs(t, err, admin.ErrPermissionDenied)

	err = svc.RequirePermission(context.Background(), models.RoleAdmin, models.PermFreezeSlots)
	assert.NoError(t, err)
}

func TestRequirePermissionOpensOnMissingRow(t *testing.T) {
	mockDB := new(MockDBLayer)
	svc := admin.NewService(mockDB, nil)

	mockDB.On("GetPermissions", mock.Anything).Return(nil, nil)

	err := svc.RequirePermission(context.Background(), models.RoleAdmin, models.PermManageBookings)
	assert.NoError(t, err)
}

func TestRequirePermissionOpensOnLookupError(t *testing.T) {
	mockDB := new(MockDBLayer)
	svc := admin.NewService(mockDB, nil)

	mockDB.On("GetPermissions", mock.Anything).Return(nil, errors.New("connection refused"))

	// An unreadable flags row must not lock the staff out.
	err := svc.RequirePermission(context.Background(), models.RoleAdmin, models.PermManageBookings)
	assert.NoError(t, err)
}

func TestGetPermissionsSeedsDefaults(t *testing.T) {
	mockDB := new(MockDBLayer)
	svc := admin.NewService(mockDB, nil)

	mockDB.On("GetPermissions", mock.Anything).Return(nil, nil)
	mockDB.On("SavePermissions", mock.Anything, mock.Anything).Return(nil)

	perms, err := svc.GetPermissions(context.Background())

	assert.NoError(t, err)
	assert.True(t, perms.ManageBookings)
	assert.True(t, perms.ViewAnalytics)
	mockDB.AssertCalled(t, "SavePermissions", mock.Anything, mock.Anything)
}

func TestOnlinePaymentsDefaultEnabled(t *testing.T) {
	mockDB := new(MockDBLayer)
	svc := admin.NewService(mockDB, nil)

	mockDB.On("GetPaymentSettings", mock.Anything).Return(nil, nil)

	enabled, err := svc.OnlinePaymentsEnabled(context.Background())

	assert.NoError(t, err)
	assert.True(t, enabled)
}

func TestSetOnlinePayments(t *testing.T) {
	mockDB := new(MockDBLayer)
	svc := admin.NewService(mockDB, nil)

	mockDB.On("SavePaymentSettings", mock.Anything, mock.MatchedBy(func(s *models.PaymentSettings) bool {
		return s.ID == 1 && !s.OnlineEnabled && s.UpdatedBy == "admin1"
	})).Return(nil)

	err := svc.SetOnlinePayments(context.Background(), false, "admin1")

	assert.NoError(t, err)
	mockDB.AssertExpectations(t)
}

func TestFreezeSlot(t *testing.T) {
	mockDB := new(MockDBLayer)
	svc := admin.NewService(mockDB, nil)

	mockDB.On("ActiveClaims", mock.Anything, models.GroundMatch, "2030-06-10").Return([]models.SlotClaim{}, nil)
	mockDB.On("CreateFreeze", mock.Anything, mock.Anything).Return(nil)

	f, err := svc.FreezeSlot(context.Background(), models.GroundMatch, models.SportCricket, "2030-06-10", "06:00-07:00", "admin1")

	assert.NoError(t, err)
	assert.Equal(t, "06:00-07:00", f.Slot)
	assert.Equal(t, "admin1", f.FrozenBy)
	assert.NotEmpty(t, f.FreezeID)
}

func TestFreezeSlotWithLiveBooking(t *testing.T) {
	mockDB := new(MockDBLayer)
	svc := admin.NewService(mockDB, nil)

	mockDB.On("ActiveClaims", mock.Anything, models.GroundMatch, "2030-06-10").Return([]models.SlotClaim{
		{Slot: "06:00-07:00", Sport: models.SportFootball},
	}, nil)

	_, err := svc.FreezeSlot(context.Background(), models.GroundMatch, models.SportCricket, "2030-06-10", "06:00-07:00", "admin1")

	assert.ErrorIs(t, err, admin.ErrSlotHasBooking)
	mockDB.AssertNotCalled(t, "CreateFreeze", mock.Anything, mock.Anything)
}

func TestFreezeSlotValidation(t *testing.T) {
	mockDB := new(MockDBLayer)
	svc := admin.NewService(mockDB, nil)

	_, err := svc.FreezeSlot(context.Background(), "stadium", models.SportCricket, "2030-06-10", "06:00-07:00", "admin1")
	assert.Error(t, err)

	_, err = svc.FreezeSlot(context.Background(), models.GroundMatch, models.SportCricket, "2030-06-10", "05:00-06:00", "admin1")
	assert.Error(t, err)

	_, err = svc.FreezeSlot(context.Background(), models.GroundMatch, models.SportCricket, "June 10", "06:00-07:00", "admin1")
	assert.Error(t, err)
}

func TestUnfreezeSlot(t *testing.T) {
	mockDB := new(MockDBLayer)
	svc := admin.NewService(mockDB, nil)

	mockDB.On("DeleteFreeze", mock.Anything, models.GroundMatch, "2030-06-10", "06:00-07:00").Return(true, nil).Once()
	mockDB.On("DeleteFreeze", mock.Anything, models.GroundMatch, "2030-06-10", "06:00-07:00").Return(false, nil)

	assert.NoError(t, svc.UnfreezeSlot(context.Background(), models.GroundMatch, "2030-06-10", "06:00-07:00"))
	assert.ErrorIs(t, svc.UnfreezeSlot(context.Background(), models.GroundMatch, "2030-06-10", "06:00-07:00"), admin.ErrFreezeNotFound)
}
