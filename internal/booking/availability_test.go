package booking_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"turfbook/internal/booking"
	"turfbook/internal/models"
)

func statusBySlot(statuses []models.SlotStatus) map[string]models.SlotStatus {
	m := make(map[string]models.SlotStatus, len(statuses))
	for _, s := range statuses {
		m[s.Slot] = s
	}
	return m
}

func TestBuildAvailabilityEmptyDay(t *testing.T) {
	statuses := booking.BuildAvailability(mondayDate, nil, nil, time.Now())

	assert.Len(t, statuses, len(models.DailySlots))
	for _, s := range statuses {
		assert.True(t, s.Available, "slot %s should be open", s.Slot)
		assert.False(t, s.BlockedByBooking)
		assert.False(t, s.BlockedByFreeze)
	}
}

func TestBuildAvailabilityMergesSports(t *testing.T) {
	claims := []models.SlotClaim{
		{Sport: models.SportCricket, Date: mondayDate, Slot: "06:00-07:00"},
		{Sport: models.SportFootball, Date: mondayDate, Slot: "07:00-08:00"},
		{Sport: models.SportBadminton, Date: mondayDate, Slot: "08:00-09:00", Released: true},
	}
	freezes := []models.FrozenSlot{
		{Sport: models.SportBadminton, Date: mondayDate, Slot: "09:00-10:00"},
	}

	statuses := booking.BuildAvailability(mondayDate, claims, freezes, time.Now())
	by := statusBySlot(statuses)

	// Claims block regardless of which sport made them.
	assert.False(t, by["06:00-07:00"].Available)
	assert.True(t, by["06:00-07:00"].BlockedByBooking)
	assert.False(t, by["07:00-08:00"].Available)

	// A released claim no longer blocks.
	assert.True(t, by["08:00-09:00"].Available)

	assert.False(t, by["09:00-10:00"].Available)
	assert.True(t, by["09:00-10:00"].BlockedByFreeze)

	assert.True(t, by["22:00-23:00"].Available)
}

func TestBuildAvailabilityIgnoresLapsedFreeze(t *testing.T) {
	// The freeze's slot ended years ago relative to "now".
	freezes := []models.FrozenSlot{
		{Date: "2020-05-01", Slot: "06:00-07:00"},
	}

	statuses := booking.BuildAvailability("2020-05-01", nil, freezes, time.Now())
	by := statusBySlot(statuses)

	assert.True(t, by["06:00-07:00"].Available)
	assert.False(t, by["06:00-07:00"].BlockedByFreeze)
}

func TestBuildAvailabilityFreezeStillLive(t *testing.T) {
	now := time.Date(2030, 6, 10, 5, 0, 0, 0, time.UTC)
	freezes := []models.FrozenSlot{
		{Date: mondayDate, Slot: "06:00-07:00"},
	}

	statuses := booking.BuildAvailability(mondayDate, nil, freezes, now)
	by := statusBySlot(statuses)

	assert.False(t, by["06:00-07:00"].Available)
}

func TestConflictingSlots(t *testing.T) {
	statuses := booking.BuildAvailability(mondayDate, []models.SlotClaim{
		{Date: mondayDate, Slot: "06:00-07:00"},
		{Date: mondayDate, Slot: "10:00-11:00"},
	}, nil, time.Now())

	conflicts := booking.ConflictingSlots([]string{"06:00-07:00", "07:00-08:00", "10:00-11:00"}, statuses)
	assert.Equal(t, []string{"06:00-07:00", "10:00-11:00"}, conflicts)

	assert.Nil(t, booking.ConflictingSlots([]string{"07:00-08:00"}, statuses))
}
