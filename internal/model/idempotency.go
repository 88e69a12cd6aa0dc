package model

import (
	"time"

	"github.com/google/uuid"
)

// IdempotencyRecord binds a (Key, Method) pair to the one persisted outcome
// of a mutating operation. A unique constraint on (Key, Method) is the sole
// serialization point for concurrent duplicate writers.
type IdempotencyRecord struct {
	ID              uuid.UUID         `json:"id"`
	Key             string            `json:"key"`
	Method          string            `json:"method"`
	RequestBodyHash string            `json:"request_body_hash"` // SHA-256 hex, 64 chars
	StatusCode      int               `json:"status_code"`
	ResponseBody    []byte            `json:"response_body,omitempty"`
	ResponseHeaders map[string]string `json:"response_headers,omitempty"`
	ExpiresAt       time.Time         `json:"expires_at"`
	CreatedAt       time.Time         `json:"created_at"`
}
