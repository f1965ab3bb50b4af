package pagination

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestNormalizeLimit(t *testing.T) {
	if got := NormalizeLimit(0); got != DefaultLimit {
		t.Fatalf("zero limit: got %d", got)
	}
	if got := NormalizeLimit(-4); got != DefaultLimit {
		t.Fatalf("negative limit: got %d", got)
	}
	if got := NormalizeLimit(MaxLimit + 50); got != MaxLimit {
		t.Fatalf("oversized limit: got %d", got)
	}
	if got := NormalizeLimit(7); got != 7 {
		t.Fatalf("in-range limit: got %d", got)
	}
	if got := LimitWithBuffer(7); got != 8 {
		t.Fatalf("buffered limit: got %d", got)
	}
}

func TestCursorRoundTrip(t *testing.T) {
	want := Cursor{
		CreatedAt: time.Date(2025, 6, 3, 11, 22, 33, 444000000, time.UTC),
		ID:        uuid.New(),
	}

	got, err := ParseCursor(EncodeCursor(want))
	if err != nil {
		t.Fatalf("parse cursor: %v", err)
	}
	if got == nil {
		t.Fatal("expected a cursor")
	}
	if !got.CreatedAt.Equal(want.CreatedAt) || got.ID != want.ID {
		t.Fatalf("round trip mismatch: %+v vs %+v", got, want)
	}
}

func TestParseCursorEdgeCases(t *testing.T) {
	if c, err := ParseCursor("   "); err != nil || c != nil {
		t.Fatalf("blank cursor should be first page, got %v %v", c, err)
	}
	if _, err := ParseCursor("%%%not-base64%%%"); err == nil {
		t.Fatal("expected decode error")
	}
	if _, err := ParseCursor(cursorEncoding.EncodeToString([]byte("no-separator"))); err == nil {
		t.Fatal("expected malformed cursor error")
	}
	if _, err := ParseCursor(cursorEncoding.EncodeToString([]byte("2025-06-03T11:22:33Z|not-a-uuid"))); err == nil {
		t.Fatal("expected id parse error")
	}
}
