package models

import (
	"fmt"
	"time"
)

// Grounds are the two physical facilities. Every sport shares them: one
// booking on a ground blocks that slot for all sports on the same ground.
const (
	GroundMatch    = "match"
	GroundPractice = "practice"
)

const (
	SportCricket   = "cricket"
	SportFootball  = "football"
	SportBadminton = "badminton"
)

// DailySlots is the fixed daily schedule every ground runs on.
var DailySlots = []string{
	"06:00-07:00",
	"07:00-08:00",
	"08:00-09:00",
	"09:00-10:00",
	"10:00-11:00",
	"11:00-12:00",
	"12:00-13:00",
	"13:00-14:00",
	"14:00-15:00",
	"15:00-16:00",
	"16:00-17:00",
	"17:00-18:00",
	"18:00-19:00",
	"19:00-20:00",
	"20:00-21:00",
	"21:00-22:00",
	"22:00-23:00",
}

const DateLayout = "2006-01-02"

// SlotStatus is the aggregator's answer for a single slot on a ground/date.
type SlotStatus struct {
	Slot             string `json:"slot"`
	Available        bool   `json:"available"`
	BlockedByBooking bool   `json:"blocked_by_booking"`
	BlockedByFreeze  bool   `json:"blocked_by_freeze"`
}

func ValidGround(ground string) bool {
	return ground == GroundMatch || ground == GroundPractice
}

func ValidSport(sport string) bool {
	switch sport {
	case SportCricket, SportFootball, SportBadminton:
		return true
	}
	return false
}

func ValidSlot(slot string) bool {
	for _, s := range DailySlots {
		if s == slot {
			return true
		}
	}
	return false
}

func ParseDate(date string) (time.Time, error) {
	return time.Parse(DateLayout, date)
}

// SlotEnd returns the wall-clock end of a slot on a given date, e.g.
// ("2025-03-14", "06:00-07:00") -> 2025-03-14 07:00 UTC.
func SlotEnd(date, slot string) (time.Time, error) {
	day, err := ParseDate(date)
	if err != nil {
		return time.Time{}, err
	}
	if len(slot) != 11 || slot[5] != '-' {
		return time.Time{}, fmt.Errorf("malformed slot label: %q", slot)
	}
	end, err := time.Parse("15:04", slot[6:])
	if err != nil {
		return time.Time{}, fmt.Errorf("malformed slot label: %q", slot)
	}
	return time.Date(day.Year(), day.Month(), day.Day(), end.Hour(), end.Minute(), 0, 0, time.UTC), nil
}

// LatestSlotEnd returns the end time of the latest slot in the list. Used to
// decide when a booking counts as completed.
func LatestSlotEnd(date string, slots []string) (time.Time, error) {
	var latest time.Time
	for _, slot := range slots {
		end, err := SlotEnd(date, slot)
		if err != nil {
			return time.Time{}, err
		}
		if end.After(latest) {
			latest = end
		}
	}
	return latest, nil
}
