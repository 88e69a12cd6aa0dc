package model

import (
	"time"

	"github.com/google/uuid"
)

// HoldStatus enumerates the hold state machine. A hold transitions exactly
// once out of ACTIVE into one of the three terminal states.
type HoldStatus string

const (
	HoldActive    HoldStatus = "ACTIVE"
	HoldExpired   HoldStatus = "EXPIRED"
	HoldConfirmed HoldStatus = "CONFIRMED"
	HoldCanceled  HoldStatus = "CANCELED"
)

// Hold is a time-limited reservation of Seats seats on a departure, pending
// confirmation into a Booking or expiry.
type Hold struct {
	ID             uuid.UUID  `json:"id"`
	DepartureID    uuid.UUID  `json:"departure_id"`
	Seats          int32      `json:"seats"`
	CustomerRef    string     `json:"customer_ref"`
	ExpiresAt      time.Time  `json:"expires_at"`
	Status         HoldStatus `json:"status"`
	IdempotencyKey string     `json:"idempotency_key"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// Expired reports whether the hold's TTL has elapsed at the given instant,
// independent of its persisted Status. The read-time check always wins over
// the status column per the conservative rule in spec §9.
func (h Hold) Expired(now time.Time) bool {
	return !h.ExpiresAt.After(now)
}
