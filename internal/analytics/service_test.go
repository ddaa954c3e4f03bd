package analytics_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	_ "github.com/uptrace/bun/driver/sqliteshim"

	"turfbook/internal/analytics"
	bookingdb "turfbook/internal/booking/db"
	"turfbook/internal/models"
)

func setupAnalytics(t *testing.T) (*analytics.Service, *bun.DB) {
	sqldb, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)

	bunDB := bun.NewDB(sqldb, sqlitedialect.New())

	store := &bookingdb.DB{Bun: bunDB}
	require.NoError(t, store.CreateSchema(context.Background()))

	return analytics.NewService(bunDB), bunDB
}

func seedBooking(t *testing.T, bunDB *bun.DB, ground, sport, date, status, coupon string, finalPrice, couponDiscount float64, slots ...string) {
	t.Helper()
	ctx := context.Background()

	b := &models.Booking{
		BookingID:      uuid.NewString(),
		Reference:      "TB-SEED",
		GroundID:       ground,
		Sport:          sport,
		Date:           date,
		Category:       ground,
		CustomerEmail:  "seed@example.com",
		BasePrice:      finalPrice + couponDiscount,
		CouponCode:     coupon,
		CouponDiscount: couponDiscount,
		FinalPrice:     finalPrice,
		Status:         models.BookingStatus(status),
		CreatedAt:      time.Now(),
	}
	_, err := bunDB.NewInsert().Model(b).Exec(ctx)
	require.NoError(t, err)

	for _, slot := range slots {
		claim := &models.SlotClaim{
			ClaimID:   uuid.NewString(),
			BookingID: b.BookingID,
			GroundID:  ground,
			Sport:     sport,
			Date:      date,
			Slot:      slot,
			CreatedAt: time.Now(),
		}
		_, err := bunDB.NewInsert().Model(claim).Exec(ctx)
		require.NoError(t, err)
	}
}

func TestGroundAnalyticsAggregates(t *testing.T) {
	svc, bunDB := setupAnalytics(t)

	seedBooking(t, bunDB, models.GroundMatch, models.SportCricket, "2030-06-10", "confirmed", "", 1680, 0, "06:00-07:00", "07:00-08:00")
	seedBooking(t, bunDB, models.GroundMatch, models.SportFootball, "2030-06-11", "completed", "", 840, 0, "18:00-19:00")
	// Unpaid and cancelled bookings earn nothing.
	seedBooking(t, bunDB, models.GroundMatch, models.SportCricket, "2030-06-10", "active", "", 840, 0, "09:00-10:00")
	seedBooking(t, bunDB, models.GroundMatch, models.SportCricket, "2030-06-10", "cancelled", "", 840, 0, "10:00-11:00")
	// Other ground stays out of this report.
	seedBooking(t, bunDB, models.GroundPractice, models.SportBadminton, "2030-06-10", "confirmed", "", 600, 0, "06:00-07:00")

	result, err := svc.GetGroundAnalytics(context.Background(), models.GroundMatch, "", "")
	assert.NoError(t, err)

	assert.Equal(t, models.GroundMatch, result.GroundID)
	assert.Equal(t, 2520.0, result.TotalRevenue)
	assert.Equal(t, 2, result.TotalBookings)
	assert.Equal(t, 3, result.TotalSlotsSold)

	assert.Len(t, result.DailySales, 2)
	assert.Equal(t, "2030-06-10", result.DailySales[0].Date)
	assert.Equal(t, 1680.0, result.DailySales[0].Revenue)
	assert.Equal(t, 2, result.DailySales[0].SlotsBooked)

	assert.Len(t, result.SalesBySport, 2)
	assert.Equal(t, "cricket", result.SalesBySport[0].Sport)
	assert.Equal(t, 1680.0, result.SalesBySport[0].Revenue)
	assert.Equal(t, "football", result.SalesBySport[1].Sport)
}

func TestGroundAnalyticsDateRange(t *testing.T) {
	svc, bunDB := setupAnalytics(t)

	seedBooking(t, bunDB, models.GroundMatch, models.SportCricket, "2030-06-10", "confirmed", "", 1680, 0, "06:00-07:00")
	seedBooking(t, bunDB, models.GroundMatch, models.SportCricket, "2030-07-01", "confirmed", "", 840, 0, "06:00-07:00")

	result, err := svc.GetGroundAnalytics(context.Background(), models.GroundMatch, "2030-06-01", "2030-06-30")
	assert.NoError(t, err)

	assert.Equal(t, 1680.0, result.TotalRevenue)
	assert.Equal(t, 1, result.TotalBookings)
}

func TestCouponAnalytics(t *testing.T) {
	svc, bunDB := setupAnalytics(t)

	seedBooking(t, bunDB, models.GroundMatch, models.SportCricket, "2030-06-10", "confirmed", "SAVE10", 1512, 168, "06:00-07:00")
	seedBooking(t, bunDB, models.GroundMatch, models.SportFootball, "2030-06-10", "confirmed", "SAVE10", 756, 84, "07:00-08:00")
	seedBooking(t, bunDB, models.GroundPractice, models.SportBadminton, "2030-06-11", "confirmed", "MORNING", 450, 150, "06:00-07:00")
	seedBooking(t, bunDB, models.GroundMatch, models.SportCricket, "2030-06-12", "confirmed", "", 840, 0, "06:00-07:00")

	result, err := svc.GetCouponAnalytics(context.Background(), "", "")
	assert.NoError(t, err)

	assert.Len(t, result.CouponUsage, 2)
	assert.Equal(t, "SAVE10", result.CouponUsage[0].CouponCode)
	assert.Equal(t, 2, result.CouponUsage[0].UsageCount)
	assert.Equal(t, 252.0, result.CouponUsage[0].TotalDiscount)
	assert.Equal(t, "MORNING", result.CouponUsage[1].CouponCode)
}

func TestSlotUtilizationOrdersByDaySchedule(t *testing.T) {
	svc, bunDB := setupAnalytics(t)

	seedBooking(t, bunDB, models.GroundMatch, models.SportCricket, "2030-06-10", "confirmed", "", 840, 0, "18:00-19:00")
	seedBooking(t, bunDB, models.GroundMatch, models.SportFootball, "2030-06-11", "confirmed", "", 840, 0, "06:00-07:00", "18:00-19:00")

	result, err := svc.GetSlotUtilization(context.Background(), models.GroundMatch, "", "")
	assert.NoError(t, err)

	assert.Len(t, result.Slots, 2)
	assert.Equal(t, "06:00-07:00", result.Slots[0].Slot)
	assert.Equal(t, 1, result.Slots[0].Bookings)
	assert.Equal(t, "18:00-19:00", result.Slots[1].Slot)
	assert.Equal(t, 2, result.Slots[1].Bookings)
}

func TestOverviewSplitsByGround(t *testing.T) {
	svc, bunDB := setupAnalytics(t)

	seedBooking(t, bunDB, models.GroundMatch, models.SportCricket, "2030-06-10", "confirmed", "", 1680, 0, "06:00-07:00")
	seedBooking(t, bunDB, models.GroundPractice, models.SportBadminton, "2030-06-10", "confirmed", "", 600, 0, "06:00-07:00")

	result, err := svc.GetOverview(context.Background(), "", "")
	assert.NoError(t, err)

	assert.Equal(t, 2280.0, result.TotalRevenue)
	assert.Equal(t, 2, result.TotalBookings)
	assert.Len(t, result.Grounds, 2)
	assert.Equal(t, models.GroundMatch, result.Grounds[0].GroundID)
	assert.Equal(t, 1680.0, result.Grounds[0].TotalRevenue)
}
