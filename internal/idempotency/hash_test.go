package idempotency

import "testing"

type holdRequest struct {
	DepartureID string `json:"departure_id"`
	Seats       int    `json:"seats"`
	CustomerRef string `json:"customer_ref"`
}

func TestHashIsStableAcrossFieldOrder(t *testing.T) {
	a := map[string]any{"seats": 3, "customer_ref": "bob", "departure_id": "d1"}
	b := map[string]any{"departure_id": "d1", "customer_ref": "bob", "seats": 3}

	ha, err := Hash(a)
	if err != nil {
		t.Fatalf("Hash(a): %v", err)
	}
	hb, err := Hash(b)
	if err != nil {
		t.Fatalf("Hash(b): %v", err)
	}
	if ha != hb {
		t.Errorf("Hash differs across equivalent field order: %s != %s", ha, hb)
	}
}

func TestHashDiffersOnBodyChange(t *testing.T) {
	h1, _ := Hash(holdRequest{DepartureID: "d1", Seats: 3, CustomerRef: "bob"})
	h2, _ := Hash(holdRequest{DepartureID: "d1", Seats: 5, CustomerRef: "bob"})
	if h1 == h2 {
		t.Error("Hash should differ when request body changes")
	}
}

func TestHashLength(t *testing.T) {
	h, err := Hash(holdRequest{DepartureID: "d1", Seats: 1, CustomerRef: "bob"})
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if len(h) != 64 {
		t.Errorf("expected 64-char hex sha256 digest, got %d chars", len(h))
	}
}

func TestHashIsDeterministicForSameInput(t *testing.T) {
	h1, _ := Hash(map[string]string{"customer_ref": "a&b"})
	h2, _ := Hash(map[string]string{"customer_ref": "a&b"})
	if h1 != h2 {
		t.Error("Hash should be deterministic for the same input")
	}
}
