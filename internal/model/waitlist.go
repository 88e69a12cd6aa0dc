package model

import (
	"time"

	"github.com/google/uuid"
)

// WaitlistEntry is one customer's position in the FIFO queue for a
// departure. (DepartureID, CustomerRef) is unique: a second join by the
// same customer for the same departure is refused as a conflict, and the
// existing entry is not returned. NotifiedAt is set exactly once, by the waitlist
// engine, when a hold has been manufactured on the entry's behalf.
type WaitlistEntry struct {
	ID          uuid.UUID  `json:"id"`
	DepartureID uuid.UUID  `json:"departure_id"`
	CustomerRef string     `json:"customer_ref"`
	NotifiedAt  *time.Time `json:"notified_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}
