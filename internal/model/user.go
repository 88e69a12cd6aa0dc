package model

import (
	"time"

	"github.com/google/uuid"
)

// User is an operator account: staff who authenticate to call the
// inventory-adjustment endpoint and any other actor-attributed operation.
// Customers are identified by an opaque CustomerRef string on holds and
// bookings and never need an account of their own.
type User struct {
	ID           uuid.UUID
	Email        string
	PasswordHash string
	Role         string // ADMIN | OPERATOR
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// RefreshToken models an entry in the refresh_tokens table. Only the
// SHA-256 hash of the token is stored, never the raw value.
type RefreshToken struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	TokenHash string
	ExpiresAt time.Time
	RevokedAt *time.Time
	CreatedAt time.Time
}
