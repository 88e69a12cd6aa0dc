// Package queue defines message payloads exchanged over the message broker.
package queue

import "github.com/google/uuid"

// BookingConfirmedEvent is published when a booking is successfully
// confirmed. It carries enough information for downstream consumers to
// log, notify, or drive analytics without querying the primary database.
type BookingConfirmedEvent struct {
	BookingID   uuid.UUID `json:"booking_id"`
	HoldID      uuid.UUID `json:"hold_id"`
	DepartureID uuid.UUID `json:"departure_id"`
	Code        string    `json:"code"`
	Seats       int32     `json:"seats"`
	CustomerRef string    `json:"customer_ref"`
	ConfirmedAt string    `json:"confirmed_at"`
}

// WaitlistPromotedEvent is published when a waitlisted customer is notified
// via a manufactured short-TTL hold (spec §4.C9).
type WaitlistPromotedEvent struct {
	WaitlistEntryID uuid.UUID `json:"waitlist_entry_id"`
	DepartureID     uuid.UUID `json:"departure_id"`
	CustomerRef     string    `json:"customer_ref"`
	HoldID          uuid.UUID `json:"hold_id"`
	PromotedAt      string    `json:"promoted_at"`
}
