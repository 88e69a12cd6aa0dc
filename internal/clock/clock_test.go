package clock

import (
	"testing"
	"time"
)

func TestFixedAdvance(t *testing.T) {
	f := &Fixed{T: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	f.Advance(61 * time.Second)
	want := time.Date(2026, 1, 1, 0, 1, 1, 0, time.UTC)
	if !f.Now().Equal(want) {
		t.Errorf("Now() = %v, want %v", f.Now(), want)
	}
}

func TestSystemReturnsUTC(t *testing.T) {
	now := (System{}).Now()
	if now.Location() != time.UTC {
		t.Errorf("expected UTC location, got %v", now.Location())
	}
}

func TestBookingCodeShapeAndUniqueness(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		code, err := BookingCode()
		if err != nil {
			t.Fatalf("BookingCode: %v", err)
		}
		if len(code) != 8 {
			t.Fatalf("expected 8-char code, got %q", code)
		}
		for _, r := range code {
			if !((r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')) {
				t.Fatalf("code %q contains char outside [A-Z0-9]: %q", code, r)
			}
		}
		if seen[code] {
			t.Fatalf("duplicate booking code generated: %q", code)
		}
		seen[code] = true
	}
}

func TestHoldTokenShape(t *testing.T) {
	tok, err := HoldToken()
	if err != nil {
		t.Fatalf("HoldToken: %v", err)
	}
	if len(tok) != 64 {
		t.Fatalf("expected 64-char hex token, got %d chars", len(tok))
	}
	for _, r := range tok {
		if !((r >= '0' && r <= '9') || (r >= 'a' && r <= 'f')) {
			t.Fatalf("token %q contains non-hex char %q", tok, r)
		}
	}
}

func TestNewUUIDIsRandomV4(t *testing.T) {
	a := NewUUID()
	b := NewUUID()
	if a == b {
		t.Fatal("NewUUID returned the same value twice")
	}
	if a.Version() != 4 {
		t.Errorf("expected version 4 UUID, got version %d", a.Version())
	}
}
