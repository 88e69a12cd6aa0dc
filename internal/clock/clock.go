// Package clock provides the monotonic-friendly wall clock and random-ID
// source shared by every subsystem (spec component C1). Tests substitute a
// Fixed clock to drive expiry/promotion scenarios deterministically.
package clock

import (
	"crypto/rand"
	"time"

	"github.com/google/uuid"
)

// Clock abstracts wall-clock time so expiry and TTL logic can be tested
// without sleeping.
type Clock interface {
	Now() time.Time
}

// System is the production Clock, always returning UTC time.
type System struct{}

func (System) Now() time.Time { return time.Now().UTC() }

// Fixed is a test Clock holding a settable instant.
type Fixed struct {
	T time.Time
}

func (f *Fixed) Now() time.Time { return f.T }

// Advance moves the fixed clock forward by d.
func (f *Fixed) Advance(d time.Duration) { f.T = f.T.Add(d) }

// NewUUID returns a new random (v4) UUID. Centralized here so the rest of
// the codebase never calls uuid.New directly, keeping the ID source
// swappable alongside the clock.
func NewUUID() uuid.UUID { return uuid.New() }

const codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// BookingCode returns a cryptographically random 8-character code drawn
// from [A-Z0-9], sized and alphabet-restricted per spec §4.C5.1.
func BookingCode() (string, error) {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	out := make([]byte, 8)
	for i, v := range b {
		out[i] = codeAlphabet[int(v)%len(codeAlphabet)]
	}
	return string(out), nil
}

// HoldToken returns a long random hex token used to correlate a hold with
// its client.
func HoldToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	const hex = "0123456789abcdef"
	out := make([]byte, 64)
	for i, v := range b {
		out[i*2] = hex[v>>4]
		out[i*2+1] = hex[v&0x0f]
	}
	return string(out), nil
}
