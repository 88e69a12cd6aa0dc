package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

func TestNewAccessTokenRoundTrips(t *testing.T) {
	userID := uuid.New()
	tok, err := NewAccessToken("s3cret", userID, "ADMIN", 15)
	if err != nil {
		t.Fatalf("NewAccessToken: %v", err)
	}
	if tok.Exp.Before(time.Now().UTC()) {
		t.Fatal("expiry should be in the future")
	}

	parsed, err := jwt.Parse(tok.Token, func(*jwt.Token) (any, error) {
		return []byte("s3cret"), nil
	})
	if err != nil || !parsed.Valid {
		t.Fatalf("parse: %v", err)
	}
	claims := parsed.Claims.(jwt.MapClaims)
	if claims["sub"] != userID.String() {
		t.Errorf("sub claim = %v, want %v", claims["sub"], userID.String())
	}
	if claims["role"] != "ADMIN" {
		t.Errorf("role claim = %v, want ADMIN", claims["role"])
	}
}

func TestNewAccessTokenRejectsWrongSecret(t *testing.T) {
	tok, err := NewAccessToken("s3cret", uuid.New(), "OPERATOR", 15)
	if err != nil {
		t.Fatalf("NewAccessToken: %v", err)
	}
	_, err = jwt.Parse(tok.Token, func(*jwt.Token) (any, error) {
		return []byte("wrong-secret"), nil
	})
	if err == nil {
		t.Fatal("expected signature verification to fail with the wrong secret")
	}
}

func TestHashRefreshRawIsDeterministic(t *testing.T) {
	a := HashRefreshRaw("abc123")
	b := HashRefreshRaw("abc123")
	if a != b {
		t.Error("HashRefreshRaw should be deterministic")
	}
	if len(a) != 64 {
		t.Errorf("expected 64-char hex digest, got %d", len(a))
	}
}

func TestNewRefreshTokenUniqueness(t *testing.T) {
	a, err := NewRefreshToken(30)
	if err != nil {
		t.Fatalf("NewRefreshToken: %v", err)
	}
	b, err := NewRefreshToken(30)
	if err != nil {
		t.Fatalf("NewRefreshToken: %v", err)
	}
	if a.Raw == b.Raw {
		t.Error("expected two distinct refresh tokens")
	}
	if len(a.Raw) != 96 {
		t.Errorf("expected 96 hex chars (48 bytes), got %d", len(a.Raw))
	}
}
