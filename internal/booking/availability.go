package booking

import (
	"time"

	"turfbook/internal/models"
)

// BuildAvailability folds unreleased slot claims and admin freezes into the
// per-slot view for one ground and date. Claims and freezes block a slot no
// matter which sport recorded them. A freeze whose slot has already ended is
// ignored, so stale freezes age out without admin cleanup.
func BuildAvailability(date string, claims []models.SlotClaim, freezes []models.FrozenSlot, now time.Time) []models.SlotStatus {
	claimed := make(map[string]bool, len(claims))
	for _, c := range claims {
		if !c.Released {
			claimed[c.Slot] = true
		}
	}

	frozen := make(map[string]bool, len(freezes))
	for _, f := range freezes {
		end, err := models.SlotEnd(f.Date, f.Slot)
		if err != nil || !end.After(now) {
			continue
		}
		frozen[f.Slot] = true
	}

	statuses := make([]models.SlotStatus, 0, len(models.DailySlots))
	for _, slot := range models.DailySlots {
		status := models.SlotStatus{
			Slot:             slot,
			BlockedByBooking: claimed[slot],
			BlockedByFreeze:  frozen[slot],
		}
		status.Available = !status.BlockedByBooking && !status.BlockedByFreeze
		statuses = append(statuses, status)
	}
	return statuses
}

// ConflictingSlots returns the requested slots that are already claimed or
// frozen, in request order.
func ConflictingSlots(requested []string, statuses []models.SlotStatus) []string {
	blocked := make(map[string]bool, len(statuses))
	for _, s := range statuses {
		if !s.Available {
			blocked[s.Slot] = true
		}
	}

	var conflicts []string
	for _, slot := range requested {
		if blocked[slot] {
			conflicts = append(conflicts, slot)
		}
	}
	return conflicts
}
