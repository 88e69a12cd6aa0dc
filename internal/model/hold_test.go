package model

import (
	"testing"
	"time"
)

func TestHoldExpiredBoundary(t *testing.T) {
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	h := Hold{ExpiresAt: t0}

	if h.Expired(t0.Add(-time.Second)) {
		t.Error("hold should not be expired before its expiry instant")
	}
	if !h.Expired(t0) {
		t.Error("hold should be expired exactly at its expiry instant")
	}
	if !h.Expired(t0.Add(time.Second)) {
		t.Error("hold should be expired after its expiry instant")
	}
}
