package model

import (
	"time"

	"github.com/google/uuid"
)

// BookingStatus enumerates the two booking states. A booking is created
// already CONFIRMED and can transition once to CANCELED.
type BookingStatus string

const (
	BookingConfirmed BookingStatus = "CONFIRMED"
	BookingCanceled  BookingStatus = "CANCELED"
)

// Booking is a confirmed, customer-visible reservation arising from exactly
// one Hold. Exactly one Booking exists per CONFIRMED hold.
type Booking struct {
	ID          uuid.UUID     `json:"id"`
	HoldID      uuid.UUID     `json:"hold_id"`
	DepartureID uuid.UUID     `json:"departure_id"`
	Code        string        `json:"code"`
	Seats       int32         `json:"seats"`
	CustomerRef string        `json:"customer_ref"`
	Status      BookingStatus `json:"status"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// codeAlphabet is the 36-symbol alphabet booking codes are drawn from.
const codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
