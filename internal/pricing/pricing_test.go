package pricing_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"turfbook/internal/models"
	"turfbook/internal/pricing"
)

func TestQuoteMatchTuesday(t *testing.T) {
	engine := pricing.NewEngine()

	// 2025-03-18 is a Tuesday: weekday tier, 30% off.
	q, err := engine.Quote(models.GroundMatch, "2025-03-18", 2)

	assert.NoError(t, err)
	assert.Equal(t, 2400.0, q.BasePrice)
	assert.Equal(t, 30.0, q.DiscountPct)
	assert.Equal(t, 720.0, q.DiscountAmount)
	assert.Equal(t, 1680.0, q.FinalPrice)
	assert.Equal(t, 200.0, q.Advance)
	assert.Equal(t, 1480.0, q.Balance)
}

func TestQuoteMatchWeekend(t *testing.T) {
	engine := pricing.NewEngine()

	// 2025-03-22 is a Saturday: weekend tier, 10% off.
	q, err := engine.Quote(models.GroundMatch, "2025-03-22", 1)

	assert.NoError(t, err)
	assert.Equal(t, 1200.0, q.BasePrice)
	assert.Equal(t, 10.0, q.DiscountPct)
	assert.Equal(t, 1080.0, q.FinalPrice)
	assert.Equal(t, 200.0, q.Advance)
	assert.Equal(t, 880.0, q.Balance)
}

func TestQuotePracticeNeverDiscounted(t *testing.T) {
	engine := pricing.NewEngine()

	for _, date := range []string{"2025-03-17", "2025-03-18", "2025-03-21", "2025-03-23"} {
		q, err := engine.Quote(models.GroundPractice, date, 3)
		assert.NoError(t, err)
		assert.Equal(t, 0.0, q.DiscountPct, "practice must not be discounted on %s", date)
		assert.Equal(t, 1800.0, q.FinalPrice)
		// Practice has no advance split: everything is due at the venue.
		assert.Equal(t, 0.0, q.Advance)
		assert.Equal(t, 1800.0, q.Balance)
	}
}

func TestQuoteTierIsOneOfThree(t *testing.T) {
	engine := pricing.NewEngine()

	// Walk a full week: every final price must be 70%, 90% or 100% of base.
	day, _ := time.Parse(models.DateLayout, "2025-03-17")
	for i := 0; i < 7; i++ {
		date := day.AddDate(0, 0, i).Format(models.DateLayout)

		matchQ, err := engine.Quote(models.GroundMatch, date, 1)
		assert.NoError(t, err)
		ratio := matchQ.FinalPrice / matchQ.BasePrice
		assert.Contains(t, []float64{0.7, 0.9}, ratio, "match ratio on %s", date)

		practiceQ, err := engine.Quote(models.GroundPractice, date, 1)
		assert.NoError(t, err)
		assert.Equal(t, 1.0, practiceQ.FinalPrice/practiceQ.BasePrice, "practice ratio on %s", date)
	}
}

func TestQuoteDeterministicAcrossCache(t *testing.T) {
	engine := pricing.NewEngine()

	first, err := engine.Quote(models.GroundMatch, "2025-03-18", 2)
	assert.NoError(t, err)

	// Second call hits the memoized tier; the answer must not change.
	second, err := engine.Quote(models.GroundMatch, "2025-03-18", 2)
	assert.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestQuoteRejectsBadInput(t *testing.T) {
	engine := pricing.NewEngine()

	_, err := engine.Quote(models.GroundMatch, "2025-03-18", 0)
	assert.ErrorIs(t, err, pricing.ErrInvalidQuote)

	_, err = engine.Quote("padel", "2025-03-18", 1)
	assert.ErrorIs(t, err, pricing.ErrInvalidQuote)

	_, err = engine.Quote(models.GroundMatch, "18-03-2025", 1)
	assert.ErrorIs(t, err, pricing.ErrInvalidQuote)

	_, err = engine.Quote(models.GroundPractice, "not-a-date", 1)
	assert.ErrorIs(t, err, pricing.ErrInvalidQuote)
}

func TestAdvanceNeverExceedsFinalPrice(t *testing.T) {
	engine := pricing.NewEngine()

	q, err := engine.Quote(models.GroundMatch, "2025-03-18", 1)
	assert.NoError(t, err)
	assert.LessOrEqual(t, q.Advance, q.FinalPrice)
	assert.Equal(t, q.FinalPrice, q.Advance+q.Balance)
}
