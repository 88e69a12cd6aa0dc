package model

import (
	"time"

	"github.com/google/uuid"
)

// InventoryAdjustment is an append-only audit row recording a single
// operator-driven change to a departure's capacity_total.
type InventoryAdjustment struct {
	ID                      uuid.UUID `json:"id"`
	DepartureID             uuid.UUID `json:"departure_id"`
	Delta                   int32     `json:"delta"`
	Reason                  string    `json:"reason"`
	Actor                   string    `json:"actor"`
	CapacityTotalBefore     int32     `json:"capacity_total_before"`
	CapacityTotalAfter      int32     `json:"capacity_total_after"`
	CapacityAvailableBefore int32     `json:"capacity_available_before"`
	CapacityAvailableAfter  int32     `json:"capacity_available_after"`
	CreatedAt               time.Time `json:"created_at"`
}
