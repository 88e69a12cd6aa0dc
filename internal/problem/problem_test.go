package problem

import (
	"errors"
	"testing"
)

func TestCatalogueStatusCodes(t *testing.T) {
	cases := []struct {
		name string
		err  *Error
		code int
	}{
		{"NotFound", NotFound("departure", "x"), 404},
		{"Validation", Validation("bad input"), 422},
		{"CapacityFull", CapacityFull("d1"), 409},
		{"HoldExpiredErr", HoldExpiredErr("h1"), 410},
		{"CapacityConflict", CapacityConflict("reason"), 409},
		{"Conflict", Conflict("reason"), 409},
		{"IdempotencyMismatch", IdempotencyMismatch("k", "POST /x"), 422},
		{"Internal", Internal("boom"), 500},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if c.err.Status != c.code {
				t.Errorf("%s: Status = %d, want %d", c.name, c.err.Status, c.code)
			}
		})
	}
}

func TestIdempotencyMismatchCode(t *testing.T) {
	err := IdempotencyMismatch("key-1", "POST /v1/booking/hold")
	if err.Code != "IDEMPOTENCY_KEY_MISMATCH" {
		t.Errorf("Code = %q, want IDEMPOTENCY_KEY_MISMATCH", err.Code)
	}
}

func TestInternalIsRetryable(t *testing.T) {
	if !Internal("boom").Retryable {
		t.Error("Internal errors should be marked retryable")
	}
	if CapacityFull("d1").Retryable {
		t.Error("CapacityFull should not be marked retryable")
	}
}

func TestAsExtractsProblemError(t *testing.T) {
	var err error = CapacityFull("d1")
	pe, ok := As(err)
	if !ok {
		t.Fatal("As() = false, want true for a *problem.Error")
	}
	if pe.Code != "FULL" {
		t.Errorf("Code = %q, want FULL", pe.Code)
	}

	_, ok = As(errors.New("plain error"))
	if ok {
		t.Error("As() = true for a plain error, want false")
	}
}

func TestValidationCarriesViolations(t *testing.T) {
	err := Validation("seats must be between 1 and 10",
		Violation{Field: "seats", Reason: "out of range"})
	if len(err.Violations) != 1 || err.Violations[0].Field != "seats" {
		t.Errorf("unexpected violations: %+v", err.Violations)
	}
}
