package coupon_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"turfbook/internal/coupon"
	"turfbook/internal/models"
)

type MockDBLayer struct {
	mock.Mock
}

func (m *MockDBLayer) GetCouponByCode(ctx context.Context, code string) (*models.Coupon, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Coupon), args.Error(1)
}

func (m *MockDBLayer) IncrementUsage(ctx context.Context, code string) error {
	args := m.Called(ctx, code)
	return args.Error(0)
}

func (m *MockDBLayer) CreateCoupon(ctx context.Context, c *models.Coupon) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *MockDBLayer) UpdateCoupon(ctx context.Context, c *models.Coupon) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *MockDBLayer) DeleteCoupon(ctx context.Context, code string) error {
	args := m.Called(ctx, code)
	return args.Error(0)
}

func (m *MockDBLayer) ListCoupons(ctx context.Context) ([]models.Coupon, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Coupon), args.Error(1)
}

func matchContext() models.CouponContext {
	return models.CouponContext{
		Category: models.GroundMatch,
		Sport:    models.SportCricket,
		Date:     "2025-03-18",
		Slots:    []string{"06:00-07:00", "07:00-08:00"},
		Email:    "player@example.com",
	}
}

func TestValidatePercentCoupon(t *testing.T) {
	mockDB := new(MockDBLayer)
	svc := coupon.NewService(mockDB, nil)

	save10 := &models.Coupon{
		Code:      "SAVE10",
		Type:      models.DiscountPercent,
		Value:     10,
		MinAmount: 100,
		Active:    true,
	}
	mockDB.On("GetCouponByCode", mock.Anything, "SAVE10").Return(save10, nil)

	res, err := svc.Validate(context.Background(), "SAVE10", matchContext(), 1680)

	assert.NoError(t, err)
	assert.True(t, res.Valid)
	assert.Equal(t, 168.0, res.Discount)
	assert.Equal(t, 1512.0, res.FinalPrice)
	mockDB.AssertExpectations(t)
}

func TestValidateFlatCouponCappedAtBase(t *testing.T) {
	mockDB := new(MockDBLayer)
	svc := coupon.NewService(mockDB, nil)

	flat := &models.Coupon{
		Code:   "FLAT500",
		Type:   models.DiscountFlat,
		Value:  500,
		Active: true,
	}
	mockDB.On("GetCouponByCode", mock.Anything, "FLAT500").Return(flat, nil)

	// Base amount below the flat value: discount must be capped, never negative.
	res, err := svc.Validate(context.Background(), "FLAT500", matchContext(), 300)

	assert.NoError(t, err)
	assert.True(t, res.Valid)
	assert.Equal(t, 300.0, res.Discount)
	assert.Equal(t, 0.0, res.FinalPrice)
}

func TestValidateUnknownCode(t *testing.T) {
	mockDB := new(MockDBLayer)
	svc := coupon.NewService(mockDB, nil)

	mockDB.On("GetCouponByCode", mock.Anything, "NOPE").Return(nil, nil)

	res, err := svc.Validate(context.Background(), "NOPE", matchContext(), 1000)

	assert.NoError(t, err)
	assert.False(t, res.Valid)
	assert.Equal(t, "Invalid coupon code", res.Message)
}

func TestValidateChecksShortCircuitInOrder(t *testing.T) {
	mockDB := new(MockDBLayer)
	svc := coupon.NewService(mockDB, nil)

	// Inactive AND expired AND over its cap: the inactive message must win
	// because it is checked first.
	c := &models.Coupon{
		Code:       "DEAD",
		Type:       models.DiscountFlat,
		Value:      50,
		Active:     false,
		ExpiresAt:  time.Now().Add(-24 * time.Hour),
		UsageLimit: 1,
		UsedCount:  5,
	}
	mockDB.On("GetCouponByCode", mock.Anything, "DEAD").Return(c, nil)

	res, err := svc.Validate(context.Background(), "DEAD", matchContext(), 1000)

	assert.NoError(t, err)
	assert.False(t, res.Valid)
	assert.Equal(t, "Coupon is not active", res.Message)
}

func TestValidateExpired(t *testing.T) {
	mockDB := new(MockDBLayer)
	svc := coupon.NewService(mockDB, nil)

	c := &models.Coupon{
		Code:      "OLD",
		Type:      models.DiscountFlat,
		Value:     50,
		Active:    true,
		ExpiresAt: time.Now().Add(-time.Hour),
	}
	mockDB.On("GetCouponByCode", mock.Anything, "OLD").Return(c, nil)

	res, err := svc.Validate(context.Background(), "OLD", matchContext(), 1000)

	assert.NoError(t, err)
	assert.False(t, res.Valid)
	assert.Equal(t, "Coupon has expired", res.Message)
}

func TestValidateAssignedEmails(t *testing.T) {
	mockDB := new(MockDBLayer)
	svc := coupon.NewService(mockDB, nil)

	c := &models.Coupon{
		Code:           "VIP",
		Type:           models.DiscountFlat,
		Value:          100,
		Active:         true,
		AssignedEmails: []string{"vip@example.com"},
	}
	mockDB.On("GetCouponByCode", mock.Anything, "VIP").Return(c, nil)

	res, err := svc.Validate(context.Background(), "VIP", matchContext(), 1000)

	assert.NoError(t, err)
	assert.False(t, res.Valid)
	assert.Equal(t, "Coupon is not available for this account", res.Message)

	// The assigned user sails through.
	ctxVIP := matchContext()
	ctxVIP.Email = "vip@example.com"
	res, err = svc.Validate(context.Background(), "VIP", ctxVIP, 1000)
	assert.NoError(t, err)
	assert.True(t, res.Valid)
}

func TestValidateUsageCap(t *testing.T) {
	mockDB := new(MockDBLayer)
	svc := coupon.NewService(mockDB, nil)

	c := &models.Coupon{
		Code:       "CAPPED",
		Type:       models.DiscountFlat,
		Value:      50,
		Active:     true,
		UsageLimit: 10,
		UsedCount:  10,
	}
	mockDB.On("GetCouponByCode", mock.Anything, "CAPPED").Return(c, nil)

	res, err := svc.Validate(context.Background(), "CAPPED", matchContext(), 1000)

	assert.NoError(t, err)
	assert.False(t, res.Valid)
	assert.Equal(t, "Coupon usage limit has been reached", res.Message)
}

func TestValidateCategorySportAndSlotFilters(t *testing.T) {
	mockDB := new(MockDBLayer)
	svc := coupon.NewService(mockDB, nil)

	c := &models.Coupon{
		Code:             "MORNING",
		Type:             models.DiscountPercent,
		Value:            15,
		Active:           true,
		BookingCategory:  models.GroundMatch,
		ApplicableSports: []string{models.SportFootball},
		ApplicableSlots:  []string{"06:00-07:00"},
	}
	mockDB.On("GetCouponByCode", mock.Anything, "MORNING").Return(c, nil)

	// Wrong category.
	bctx := matchContext()
	bctx.Category = models.GroundPractice
	res, err := svc.Validate(context.Background(), "MORNING", bctx, 1000)
	assert.NoError(t, err)
	assert.Equal(t, "Coupon is not valid for this booking type", res.Message)

	// Right category, wrong sport.
	bctx = matchContext()
	res, err = svc.Validate(context.Background(), "MORNING", bctx, 1000)
	assert.NoError(t, err)
	assert.Equal(t, "Coupon is not valid for this sport", res.Message)

	// Right sport, but booking includes a slot outside the coupon's list.
	bctx.Sport = models.SportFootball
	res, err = svc.Validate(context.Background(), "MORNING", bctx, 1000)
	assert.NoError(t, err)
	assert.Equal(t, "Coupon is not valid for the selected slots", res.Message)

	// Fully matching context.
	bctx.Slots = []string{"06:00-07:00"}
	res, err = svc.Validate(context.Background(), "MORNING", bctx, 1000)
	assert.NoError(t, err)
	assert.True(t, res.Valid)
	assert.Equal(t, 150.0, res.Discount)
}

func TestValidateMinAmount(t *testing.T) {
	mockDB := new(MockDBLayer)
	svc := coupon.NewService(mockDB, nil)

	c := &models.Coupon{
		Code:      "SAVE10",
		Type:      models.DiscountPercent,
		Value:     10,
		Active:    true,
		MinAmount: 100,
	}
	mockDB.On("GetCouponByCode", mock.Anything, "SAVE10").Return(c, nil)

	res, err := svc.Validate(context.Background(), "SAVE10", matchContext(), 99)

	assert.NoError(t, err)
	assert.False(t, res.Valid)
	assert.Contains(t, res.Message, "does not meet the coupon minimum")
}

func TestValidateIsIdempotent(t *testing.T) {
	mockDB := new(MockDBLayer)
	svc := coupon.NewService(mockDB, nil)

	c := &models.Coupon{Code: "OLD", Type: models.DiscountFlat, Value: 50, Active: false}
	mockDB.On("GetCouponByCode", mock.Anything, "OLD").Return(c, nil)

	first, err := svc.Validate(context.Background(), "OLD", matchContext(), 1000)
	assert.NoError(t, err)
	second, err := svc.Validate(context.Background(), "OLD", matchContext(), 1000)
	assert.NoError(t, err)

	assert.Equal(t, first, second)
	// Validation must never touch the usage counter.
	mockDB.AssertNotCalled(t, "IncrementUsage", mock.Anything, mock.Anything)
}

func TestRedeem(t *testing.T) {
	mockDB := new(MockDBLayer)
	svc := coupon.NewService(mockDB, nil)

	mockDB.On("IncrementUsage", mock.Anything, "SAVE10").Return(nil)

	assert.NoError(t, svc.Redeem(context.Background(), "SAVE10"))
	// Empty code is a no-op, not an error.
	assert.NoError(t, svc.Redeem(context.Background(), ""))
	mockDB.AssertExpectations(t)
}

func TestValidateUpstreamError(t *testing.T) {
	mockDB := new(MockDBLayer)
	svc := coupon.NewService(mockDB, nil)

	mockDB.On("GetCouponByCode", mock.Anything, "SAVE10").Return(nil, errors.New("connection refused"))

	res, err := svc.Validate(context.Background(), "SAVE10", matchContext(), 1000)

	assert.Error(t, err)
	assert.Nil(t, res)
}
