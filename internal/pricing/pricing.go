package pricing

import (
	"errors"
	"math"
	"time"

	"turfbook/internal/models"
)

var ErrInvalidQuote = errors.New("invalid quote request")

// Per-slot base rates and the fixed advance charged online for match
// bookings, in rupees. The balance is collected at the venue.
const (
	MatchSlotRate    = 1200.0
	PracticeSlotRate = 600.0
	MatchAdvance     = 200.0
)

// Weekday discount tiers for the match category. Practice bookings are never
// discounted.
const (
	weekdayDiscountPct = 30.0 // Monday through Thursday
	weekendDiscountPct = 10.0 // Friday through Sunday
)

type Quote struct {
	Category       string  `json:"category"`
	Date           string  `json:"date"`
	SlotCount      int     `json:"slot_count"`
	BasePrice      float64 `json:"base_price"`
	DiscountPct    float64 `json:"discount_pct"`
	DiscountAmount float64 `json:"discount_amount"`
	FinalPrice     float64 `json:"final_price"`
	Advance        float64 `json:"advance"`
	Balance        float64 `json:"balance"`
}

// Engine computes price quotes. It is pure apart from a small memo of
// date -> discount tier, which is re-derivable and safe to lose.
type Engine struct {
	tiers *tierCache
}

func NewEngine() *Engine {
	return &Engine{tiers: newTierCache()}
}

// Quote prices a booking of slotCount slots in the given category on the
// given date. Deterministic for a fixed input.
func (e *Engine) Quote(category, date string, slotCount int) (*Quote, error) {
	if slotCount <= 0 {
		return nil, ErrInvalidQuote
	}

	var rate float64
	switch category {
	case models.GroundMatch:
		rate = MatchSlotRate
	case models.GroundPractice:
		rate = PracticeSlotRate
	default:
		return nil, ErrInvalidQuote
	}

	pct, err := e.discountPct(category, date)
	if err != nil {
		return nil, ErrInvalidQuote
	}

	base := rate * float64(slotCount)
	discount := round2(base * pct / 100)
	final := round2(base - discount)

	q := &Quote{
		Category:       category,
		Date:           date,
		SlotCount:      slotCount,
		BasePrice:      base,
		DiscountPct:    pct,
		DiscountAmount: discount,
		FinalPrice:     final,
	}

	// Only match bookings carry the online advance split.
	if category == models.GroundMatch {
		q.Advance = MatchAdvance
		if q.Advance > final {
			q.Advance = final
		}
		q.Balance = round2(final - q.Advance)
	} else {
		q.Balance = final
	}

	return q, nil
}

func (e *Engine) discountPct(category, date string) (float64, error) {
	if category == models.GroundPractice {
		// Practice never gets the weekday tiers, no need to touch the cache.
		if _, err := models.ParseDate(date); err != nil {
			return 0, err
		}
		return 0, nil
	}

	if pct, ok := e.tiers.get(date); ok {
		return pct, nil
	}

	day, err := models.ParseDate(date)
	if err != nil {
		return 0, err
	}

	pct := tierFor(day.Weekday())
	e.tiers.set(date, pct)
	return pct, nil
}

func tierFor(weekday time.Weekday) float64 {
	switch weekday {
	case time.Monday, time.Tuesday, time.Wednesday, time.Thursday:
		return weekdayDiscountPct
	default:
		return weekendDiscountPct
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
