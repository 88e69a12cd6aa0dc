package model

import (
	"time"

	"github.com/google/uuid"
)

// Tour is the parent of one or more departures. Tour creation and listing
// are out of scope for this engine; only the read lookup needed to validate
// a departure's tour_ref lives here.
type Tour struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
