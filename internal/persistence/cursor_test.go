package persistence

import (
	"testing"
	"time"

	"example.com/levelup/internal/domain"
)

func TestCursorRoundTrip(t *testing.T) {
	cursor := &domain.Cursor{
		LoggedAt: time.Date(2026, time.March, 1, 8, 30, 15, 123456789, time.UTC),
		ID:       "workout-42",
	}

	token := EncodeCursor(cursor)
	if token == "" {
		t.Fatal("expected non-empty token")
	}

	decoded, err := DecodeCursor(token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !decoded.LoggedAt.Equal(cursor.LoggedAt) || decoded.ID != cursor.ID {
		t.Fatalf("round trip mismatch: %+v", decoded)
	}
}

func TestDecodeCursorEmpty(t *testing.T) {
	decoded, err := DecodeCursor("   ")
	if err != nil || decoded != nil {
		t.Fatalf("blank token must decode to nil, got %+v, %v", decoded, err)
	}
}

func TestDecodeCursorMalformed(t *testing.T) {
	if _, err := DecodeCursor("not-base64!!"); err == nil {
		t.Fatal("expected error for invalid base64")
	}
	if _, err := DecodeCursor("bm8tc2VwYXJhdG9y"); err == nil {
		t.Fatal("expected error for missing separator")
	}
}
