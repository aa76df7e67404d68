package service

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestTokenRoundTrip(t *testing.T) {
	tokens := NewTokenService(testSecret, time.Hour)

	token, exp, err := tokens.Issue("admin-42")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if token == "" {
		t.Fatal("expected non-empty token")
	}
	if until := time.Until(exp); until < 59*time.Minute || until > time.Hour+time.Second {
		t.Errorf("expiry %v not ~1h away", exp)
	}

	id, err := tokens.Verify(token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if id != "admin-42" {
		t.Errorf("subject: got %q, want %q", id, "admin-42")
	}
}

func TestTokenLifetimeBoundary(t *testing.T) {
	ttl := 24 * time.Hour
	tests := []struct {
		name     string
		issuedAt time.Time
		epsilon  time.Duration
	}{
		{"whole second", time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC), time.Second},
		{"fractional second", time.Date(2025, 1, 1, 12, 0, 0, 900_000_000, time.UTC), 500 * time.Millisecond},
		{"just after a second", time.Date(2025, 1, 1, 12, 0, 0, 1, time.UTC), time.Nanosecond},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			now := tt.issuedAt
			tokens := NewTokenService(testSecret, ttl).WithClock(func() time.Time { return now })

			token, exp, err := tokens.Issue("admin-1")
			if err != nil {
				t.Fatalf("Issue: %v", err)
			}
			if limit := tt.issuedAt.Add(ttl); exp.Before(limit) || exp.Sub(limit) >= time.Second {
				t.Errorf("expiry = %v, want within 1s after %v", exp, limit)
			}

			now = tt.issuedAt.Add(ttl - tt.epsilon)
			if _, err := tokens.Verify(token); err != nil {
				t.Errorf("at T+lifetime-%v: %v, want accepted", tt.epsilon, err)
			}

			now = tt.issuedAt.Add(ttl + time.Second)
			if _, err := tokens.Verify(token); !errors.Is(err, ErrTokenExpired) {
				t.Errorf("at T+lifetime+1s: %v, want ErrTokenExpired", err)
			}
		})
	}
}

func TestTokenExpired(t *testing.T) {
	tokens := NewTokenService(testSecret, -time.Hour)

	token, _, err := tokens.Issue("admin-1")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := tokens.Verify(token); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("got %v, want ErrTokenExpired", err)
	}
}

func TestTokenInvalid(t *testing.T) {
	tokens := NewTokenService(testSecret, time.Hour)

	forged, _, err := NewTokenService("another-secret", time.Hour).Issue("admin-1")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Subject:   "admin-1",
		Issuer:    TokenIssuer,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none: %v", err)
	}

	otherIssuer, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "admin-1",
		Issuer:    "someone-else",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	noSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer:    TokenIssuer,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject: "admin-1",
		Issuer:  TokenIssuer,
	}).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	tests := map[string]string{
		"garbage":      "garbage.token.here",
		"empty":        "",
		"wrong secret": forged,
		"alg none":     unsigned,
		"wrong issuer": otherIssuer,
		"no subject":   noSubject,
		"no expiry":    noExpiry,
	}
	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := tokens.Verify(token); !errors.Is(err, ErrInvalidToken) {
				t.Errorf("got %v, want ErrInvalidToken", err)
			}
		})
	}
}
