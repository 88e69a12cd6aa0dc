package model

import (
	"time"

	"github.com/google/uuid"
)

// Money mirrors the {amount_minor, currency} pair used on the wire. Amount is
// always integer minor units (cents); Currency is an ISO 4217 three-letter
// uppercase code.
type Money struct {
	AmountMinor int64  `json:"amount"`   // departures.price_amount
	Currency    string `json:"currency"` // departures.price_currency
}

// Departure is a specific, scheduled instance of a tour with finite seat
// capacity. Mutated only by the capacity, booking and inventory subsystems;
// never deleted while holds or bookings reference it.
//
// Invariant: 0 <= CapacityAvailable <= CapacityTotal.
type Departure struct {
	ID                uuid.UUID `json:"id"`
	TourRef           uuid.UUID `json:"tour_ref"`
	StartsAt          time.Time `json:"starts_at"`
	CapacityTotal     int32     `json:"capacity_total"`
	CapacityAvailable int32     `json:"capacity_available"`
	Price             Money     `json:"price"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}
