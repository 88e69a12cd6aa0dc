// Package problem implements the RFC 9457 problem-details error envelope
// used uniformly across the dispatcher (spec §6, §7, §9 "polymorphic
// problem-details errors").
package problem

import "fmt"

// Details is the wire shape of a domain error response.
type Details struct {
	Type       string         `json:"type,omitempty"`
	Title      string         `json:"title"`
	Status     int            `json:"status"`
	Detail     string         `json:"detail,omitempty"`
	Instance   string         `json:"instance,omitempty"`
	Code       string         `json:"code,omitempty"`
	Retryable  bool           `json:"retryable"`
	Violations []Violation    `json:"violations,omitempty"`
}

// Violation describes a single field-level validation failure.
type Violation struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// Error wraps Details so domain code can return it as a normal Go error
// while the dispatcher still has the structured payload it needs to cache
// and serialize.
type Error struct {
	Details
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Detail)
}

// New builds an *Error for the given catalogue entry.
func New(status int, code, title, detail string) *Error {
	return &Error{Details{
		Title:     title,
		Status:    status,
		Detail:    detail,
		Code:      code,
		Retryable: false,
	}}
}

// Catalogue entries from spec §7.
func NotFound(resource, detail string) *Error {
	return New(404, "", "Not Found", detail)
}

func Validation(detail string, violations ...Violation) *Error {
	e := New(422, "", "Validation Failed", detail)
	e.Violations = violations
	return e
}

func CapacityFull(detail string) *Error {
	return New(409, "FULL", "Capacity Full", detail)
}

func HoldExpiredErr(detail string) *Error {
	return New(410, "HOLD_EXPIRED", "Hold Expired", detail)
}

func CapacityConflict(detail string) *Error {
	return New(409, "CAPACITY_CONFLICT", "Capacity Conflict", detail)
}

func Conflict(detail string) *Error {
	return New(409, "", "Conflict", detail)
}

func IdempotencyMismatch(key, method string) *Error {
	return New(422, "IDEMPOTENCY_KEY_MISMATCH", "Idempotency Key Mismatch",
		fmt.Sprintf("idempotency key %q was already used for method %q with a different request body", key, method))
}

func Internal(detail string) *Error {
	e := New(500, "", "Internal Error", detail)
	e.Retryable = true
	return e
}

// As attempts to extract a *Error from a generic error, returning nil, false
// if err is not one of ours.
func As(err error) (*Error, bool) {
	pe, ok := err.(*Error)
	return pe, ok
}
