package postgres

import (
	"database/sql"
	"fmt"
	"testing"

	"github.com/lib/pq"
)

func TestIsNotFound(t *testing.T) {
	t.Run("matches wrapped no rows", func(t *testing.T) {
		if !isNotFound(fmt.Errorf("get player: %w", sql.ErrNoRows)) {
			t.Fatalf("expected true for wrapped sql.ErrNoRows")
		}
	})

	t.Run("ignores unrelated error", func(t *testing.T) {
		if isNotFound(fakeErr("pq: relation archives does not exist")) {
			t.Fatalf("expected false for unrelated error")
		}
	})
}

func TestIsUniqueViolation(t *testing.T) {
	t.Run("matches 23505", func(t *testing.T) {
		err := fmt.Errorf("insert archive: %w", &pq.Error{Code: "23505"})
		if !isUniqueViolation(err) {
			t.Fatalf("expected true for unique violation")
		}
	})

	t.Run("ignores other codes", func(t *testing.T) {
		if isUniqueViolation(&pq.Error{Code: "23503"}) {
			t.Fatalf("expected false for foreign key violation")
		}
		if isUniqueViolation(fakeErr("pq: duplicate key")) {
			t.Fatalf("expected false for non pq error")
		}
	})
}

func TestNullableRanks(t *testing.T) {
	if got := nullIntToPtr(sql.NullInt64{}); got != nil {
		t.Fatalf("expected nil rank, got %d", *got)
	}

	rank := 3
	v := ptrToNullInt(&rank)
	if !v.Valid || v.Int64 != 3 {
		t.Fatalf("unexpected null int: %+v", v)
	}
	if got := nullIntToPtr(v); got == nil || *got != 3 {
		t.Fatalf("round trip lost rank: %v", got)
	}
	if ptrToNullInt(nil).Valid {
		t.Fatalf("expected invalid null int for nil rank")
	}
}

func TestHighscoreableRow(t *testing.T) {
	row := highscoreableRow{Kind: "mappack_episode", ID: 12, Name: "CTP-A-02", Tab: "S", MappackID: sql.NullInt64{Int64: 3, Valid: true}, ParentID: sql.NullInt64{Int64: 1, Valid: true}}
	h, err := row.toDomain()
	if err != nil {
		t.Fatalf("convert row: %v", err)
	}
	if h.Ref().String() != "mappack_episode:12" {
		t.Fatalf("unexpected ref: %s", h.Ref())
	}

	back := newHighscoreableRow(h)
	if back.MappackID != row.MappackID || back.ParentID != row.ParentID || back.Name != row.Name {
		t.Fatalf("unexpected row: %+v", back)
	}

	if _, err := (highscoreableRow{Kind: "trophy"}).toDomain(); err == nil {
		t.Fatalf("expected error for unknown kind")
	}
}

type fakeErr string

func (e fakeErr) Error() string { return string(e) }
