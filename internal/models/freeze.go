package models

import (
	"time"

	"github.com/uptrace/bun"
)

// FrozenSlot is an admin-imposed block on a slot, independent of bookings.
// A freeze recorded under any sport blocks the slot for every sport on the
// same ground. Freezes on past dates are ignored by the aggregator.
type FrozenSlot struct {
	bun.BaseModel `bun:"table:frozen_slots"`

	FreezeID string `bun:"freeze_id,pk" json:"freeze_id"`
	GroundID string `bun:"ground_id" json:"ground_id"`
	Sport    string `bun:"sport" json:"sport"`
	Date     string `bun:"date" json:"date"`
	Slot     string `bun:"slot" json:"slot"`

	FrozenBy string    `bun:"frozen_by" json:"frozen_by"`
	FrozenAt time.Time `bun:"frozen_at" json:"frozen_at"`
}
