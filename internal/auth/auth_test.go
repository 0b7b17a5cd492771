package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return signed
}

func TestParseValidToken(t *testing.T) {
	cfg := Config{Secret: "test-secret", Issuer: "levelup.identity"}
	signed := signToken(t, cfg.Secret, jwt.MapClaims{
		"iss":    cfg.Issuer,
		"sub":    "user-1",
		"scopes": []string{ScopeFitnessRead, ScopeFitnessWrite},
		"exp":    time.Now().Add(time.Hour).Unix(),
	})

	claims, err := Parse(signed, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if claims.Subject != "user-1" {
		t.Fatalf("expected subject user-1 got %s", claims.Subject)
	}
	if !claims.HasScope(ScopeFitnessRead) || !claims.HasScope(ScopeFitnessWrite) {
		t.Fatalf("missing scopes: %+v", claims.Scopes)
	}
	if claims.HasScope("admin") {
		t.Fatal("unexpected scope granted")
	}
}

func TestParseSpaceDelimitedScopes(t *testing.T) {
	cfg := Config{Secret: "test-secret", Issuer: "levelup.identity"}
	signed := signToken(t, cfg.Secret, jwt.MapClaims{
		"iss":    cfg.Issuer,
		"sub":    "user-1",
		"scopes": ScopeFitnessRead + " " + ScopeFitnessWrite,
		"exp":    time.Now().Add(time.Hour).Unix(),
	})

	claims, err := Parse(signed, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !claims.HasScope(ScopeFitnessWrite) {
		t.Fatalf("space-delimited scopes not normalised: %+v", claims.Scopes)
	}
}

func TestParseRejectsWrongIssuer(t *testing.T) {
	cfg := Config{Secret: "test-secret", Issuer: "levelup.identity"}
	signed := signToken(t, cfg.Secret, jwt.MapClaims{
		"iss": "someone-else",
		"sub": "user-1",
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	if _, err := Parse(signed, cfg); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken got %v", err)
	}
}

func TestParseRejectsMissingSubject(t *testing.T) {
	cfg := Config{Secret: "test-secret", Issuer: "levelup.identity"}
	signed := signToken(t, cfg.Secret, jwt.MapClaims{
		"iss": cfg.Issuer,
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	if _, err := Parse(signed, cfg); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken got %v", err)
	}
}

func TestParseRejectsExpiredToken(t *testing.T) {
	cfg := Config{Secret: "test-secret", Issuer: "levelup.identity"}
	signed := signToken(t, cfg.Secret, jwt.MapClaims{
		"iss": cfg.Issuer,
		"sub": "user-1",
		"exp": time.Now().Add(-time.Hour).Unix(),
	})

	if _, err := Parse(signed, cfg); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken got %v", err)
	}
}

func TestParseRejectsWrongSecret(t *testing.T) {
	cfg := Config{Secret: "test-secret", Issuer: "levelup.identity"}
	signed := signToken(t, "other-secret", jwt.MapClaims{
		"iss": cfg.Issuer,
		"sub": "user-1",
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	if _, err := Parse(signed, cfg); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken got %v", err)
	}
}

func TestParseEmptyToken(t *testing.T) {
	if _, err := Parse("  ", Config{Secret: "s", Issuer: "i"}); !errors.Is(err, ErrMissingToken) {
		t.Fatalf("expected ErrMissingToken got %v", err)
	}
}
