package infra

import (
	"context"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

func signHS256(t *testing.T, secret string, claims jwtClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return s
}

func validClaims(sub string) jwtClaims {
	return jwtClaims{
		Email:    "pilot@example.com",
		Username: "pilot",
		Role:     "admin",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
}

func TestJWTVerifier_Valid(t *testing.T) {
	v, err := NewJWTVerifier("s3cret")
	if err != nil {
		t.Fatalf("new verifier: %v", err)
	}
	tok, err := v.VerifyIDToken(context.Background(), signHS256(t, "s3cret", validClaims("u-1")))
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if tok.Subject != "u-1" || tok.Email != "pilot@example.com" || tok.Name != "pilot" {
		t.Errorf("unexpected token %+v", tok)
	}
	if tok.Role() != "admin" {
		t.Errorf("expected admin role, got %q", tok.Role())
	}
}

func TestJWTVerifier_Rejects(t *testing.T) {
	v, err := NewJWTVerifier("s3cret")
	if err != nil {
		t.Fatalf("new verifier: %v", err)
	}

	expired := validClaims("u-1")
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))

	noExpiry := validClaims("u-1")
	noExpiry.ExpiresAt = nil

	cases := map[string]string{
		"wrong secret": signHS256(t, "other", validClaims("u-1")),
		"expired":      signHS256(t, "s3cret", expired),
		"no expiry":    signHS256(t, "s3cret", noExpiry),
		"no subject":   signHS256(t, "s3cret", validClaims("")),
		"garbage":      "not-a-token",
	}
	for name, raw := range cases {
		if _, err := v.VerifyIDToken(context.Background(), raw); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestNewJWTVerifier_EmptySecret(t *testing.T) {
	if _, err := NewJWTVerifier(""); err == nil {
		t.Fatal("expected error for empty secret")
	}
}
