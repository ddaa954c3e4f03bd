package analytics

import (
	"context"
	"sort"

	"turfbook/internal/models"

	"github.com/uptrace/bun"
)

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Service aggregates booking revenue and utilization metrics for the admin
// dashboard.
type Service struct {
	db *bun.DB
}

func NewService(db *bun.DB) *Service {
	return &Service{db: db}
}

// revenueStatuses are the booking states that count as money earned.
// Active bookings have not paid; cancelled ones never will.
var revenueStatuses = []string{
	string(models.BookingConfirmed),
	string(models.BookingCompleted),
}

// GroundAnalytics represents aggregated revenue data for one ground.
type GroundAnalytics struct {
	GroundID        string              `json:"ground_id"`
	TotalRevenue    float64             `json:"total_revenue"`
	TotalBeforeDisc float64             `json:"total_before_discounts"`
	TotalBookings   int                 `json:"total_bookings"`
	TotalSlotsSold  int                 `json:"total_slots_sold"`
	DailySales      []DailySalesMetrics `json:"daily_sales"`
	SalesBySport    []SportSalesMetrics `json:"sales_by_sport"`
}

// DailySalesMetrics contains metrics for a single calendar day of play.
type DailySalesMetrics struct {
	Date        string  `json:"date"`
	Revenue     float64 `json:"revenue"`
	Bookings    int     `json:"bookings"`
	SlotsBooked int     `json:"slots_booked"`
}

// SportSalesMetrics contains revenue split per sport on a shared ground.
type SportSalesMetrics struct {
	Sport       string  `json:"sport"`
	Bookings    int     `json:"bookings"`
	SlotsBooked int     `json:"slots_booked"`
	Revenue     float64 `json:"revenue"`
}

// CouponUsage tracks coupon redemptions by day.
type CouponUsage struct {
	Date          string  `json:"date"`
	CouponCode    string  `json:"coupon_code"`
	UsageCount    int     `json:"usage_count"`
	TotalDiscount float64 `json:"total_discount_amount"`
}

// CouponAnalytics represents coupon redemption totals across all grounds.
type CouponAnalytics struct {
	CouponUsage []CouponUsage `json:"coupon_usage"`
}

// SlotUsageMetrics is how often one hourly slot was booked in a date range.
type SlotUsageMetrics struct {
	Slot     string `json:"slot"`
	Bookings int    `json:"bookings"`
}

// SlotUtilization shows which hours fill up on a ground.
type SlotUtilization struct {
	GroundID string             `json:"ground_id"`
	From     string             `json:"from"`
	To       string             `json:"to"`
	Slots    []SlotUsageMetrics `json:"slots"`
}

// Overview is the landing-page summary across both grounds.
type Overview struct {
	TotalRevenue  float64          `json:"total_revenue"`
	TotalBookings int              `json:"total_bookings"`
	Grounds       []GroundOverview `json:"grounds"`
}

type GroundOverview struct {
	GroundID      string  `json:"ground_id"`
	TotalRevenue  float64 `json:"total_revenue"`
	TotalBookings int     `json:"total_bookings"`
}

// GetGroundAnalytics returns revenue analytics for one ground, optionally
// limited to a play-date range (inclusive, YYYY-MM-DD).
func (s *Service) GetGroundAnalytics(ctx context.Context, groundID, from, to string) (*GroundAnalytics, error) {
	var bookings []models.Booking
	query := s.db.NewSelect().
		Model(&bookings).
		Where("ground_id = ?", groundID).
		Where("status IN (?)", bun.In(revenueStatuses))
	if from != "" {
		query = query.Where("date >= ?", from)
	}
	if to != "" {
		query = query.Where("date <= ?", to)
	}

	if err := query.Scan(ctx); err != nil {
		return nil, err
	}

	result := &GroundAnalytics{GroundID: groundID}

	type dayAgg struct {
		revenue  float64
		bookings int
		slots    int
	}
	days := map[string]*dayAgg{}
	sports := map[string]*SportSalesMetrics{}

	for i := range bookings {
		b := &bookings[i]
		slots, err := s.slotCount(ctx, b.BookingID)
		if err != nil {
			return nil, err
		}

		result.TotalRevenue += b.FinalPrice
		result.TotalBeforeDisc += b.BasePrice
		result.TotalBookings++
		result.TotalSlotsSold += slots

		d := days[b.Date]
		if d == nil {
			d = &dayAgg{}
			days[b.Date] = d
		}
		d.revenue += b.FinalPrice
		d.bookings++
		d.slots += slots

		sp := sports[b.Sport]
		if sp == nil {
			sp = &SportSalesMetrics{Sport: b.Sport}
			sports[b.Sport] = sp
		}
		sp.Revenue += b.FinalPrice
		sp.Bookings++
		sp.SlotsBooked += slots
	}

	for _, date := range sortedKeys(days) {
		d := days[date]
		result.DailySales = append(result.DailySales, DailySalesMetrics{
			Date:        date,
			Revenue:     d.revenue,
			Bookings:    d.bookings,
			SlotsBooked: d.slots,
		})
	}
	for _, sport := range sortedKeys(sports) {
		result.SalesBySport = append(result.SalesBySport, *sports[sport])
	}

	return result, nil
}

func (s *Service) slotCount(ctx context.Context, bookingID string) (int, error) {
	return s.db.NewSelect().
		Model((*models.SlotClaim)(nil)).
		Where("booking_id = ?", bookingID).
		Count(ctx)
}

// GetCouponAnalytics returns coupon redemption metrics grouped by play date
// and code.
func (s *Service) GetCouponAnalytics(ctx context.Context, from, to string) (*CouponAnalytics, error) {
	type usageRaw struct {
		Date          string  `bun:"date"`
		CouponCode    string  `bun:"coupon_code"`
		UsageCount    int     `bun:"usage_count"`
		TotalDiscount float64 `bun:"total_discount"`
	}

	var rows []usageRaw
	query := s.db.NewSelect().
		ColumnExpr("booking.date AS date").
		ColumnExpr("booking.coupon_code AS coupon_code").
		ColumnExpr("COUNT(*) AS usage_count").
		ColumnExpr("SUM(booking.coupon_discount) AS total_discount").
		Model((*models.Booking)(nil)).
		Where("coupon_code IS NOT NULL AND coupon_code != ''").
		Where("status IN (?)", bun.In(revenueStatuses)).
		GroupExpr("booking.date, booking.coupon_code").
		OrderExpr("booking.date, booking.coupon_code")
	if from != "" {
		query = query.Where("date >= ?", from)
	}
	if to != "" {
		query = query.Where("date <= ?", to)
	}

	if err := query.Scan(ctx, &rows); err != nil {
		return nil, err
	}

	result := &CouponAnalytics{}
	for _, row := range rows {
		result.CouponUsage = append(result.CouponUsage, CouponUsage{
			Date:          row.Date,
			CouponCode:    row.CouponCode,
			UsageCount:    row.UsageCount,
			TotalDiscount: row.TotalDiscount,
		})
	}

	return result, nil
}

// GetSlotUtilization returns how many times each hourly slot was booked on
// a ground over a date range, so staff can see the peak hours.
func (s *Service) GetSlotUtilization(ctx context.Context, groundID, from, to string) (*SlotUtilization, error) {
	type slotRaw struct {
		Slot     string `bun:"slot"`
		Bookings int    `bun:"bookings"`
	}

	var rows []slotRaw
	query := s.db.NewSelect().
		ColumnExpr("slot_claim.slot AS slot").
		ColumnExpr("COUNT(*) AS bookings").
		Model((*models.SlotClaim)(nil)).
		Where("ground_id = ?", groundID).
		Where("NOT released").
		GroupExpr("slot_claim.slot")
	if from != "" {
		query = query.Where("date >= ?", from)
	}
	if to != "" {
		query = query.Where("date <= ?", to)
	}

	if err := query.Scan(ctx, &rows); err != nil {
		return nil, err
	}

	result := &SlotUtilization{GroundID: groundID, From: from, To: to}
	byLabel := map[string]int{}
	for _, row := range rows {
		byLabel[row.Slot] = row.Bookings
	}

	// Present in day order rather than whatever the group-by returns.
	for _, slot := range models.DailySlots {
		if count, ok := byLabel[slot]; ok {
			result.Slots = append(result.Slots, SlotUsageMetrics{Slot: slot, Bookings: count})
		}
	}

	return result, nil
}

// GetOverview returns the cross-ground summary.
func (s *Service) GetOverview(ctx context.Context, from, to string) (*Overview, error) {
	type groundRaw struct {
		GroundID string  `bun:"ground_id"`
		Revenue  float64 `bun:"revenue"`
		Bookings int     `bun:"bookings"`
	}

	var rows []groundRaw
	query := s.db.NewSelect().
		ColumnExpr("booking.ground_id AS ground_id").
		ColumnExpr("SUM(booking.final_price) AS revenue").
		ColumnExpr("COUNT(*) AS bookings").
		Model((*models.Booking)(nil)).
		Where("status IN (?)", bun.In(revenueStatuses)).
		GroupExpr("booking.ground_id").
		OrderExpr("booking.ground_id")
	if from != "" {
		query = query.Where("date >= ?", from)
	}
	if to != "" {
		query = query.Where("date <= ?", to)
	}

	if err := query.Scan(ctx, &rows); err != nil {
		return nil, err
	}

	result := &Overview{}
	for _, row := range rows {
		result.TotalRevenue += row.Revenue
		result.TotalBookings += row.Bookings
		result.Grounds = append(result.Grounds, GroundOverview{
			GroundID:      row.GroundID,
			TotalRevenue:  row.Revenue,
			TotalBookings: row.Bookings,
		})
	}

	return result, nil
}
