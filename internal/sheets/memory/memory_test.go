package memory

import (
	"context"
	"errors"
	"testing"

	"waist/internal/core"
)

func TestSheetReplaceAll(t *testing.T) {
	s := New()
	txs := []core.Transaction{{ID: 1, Category: "Food"}, {ID: 2, Category: "Bills"}}

	if err := s.ReplaceAll(context.Background(), txs); err != nil {
		t.Fatalf("ReplaceAll: %v", err)
	}
	txs[0].Category = "changed"

	rows := s.Rows()
	if len(rows) != 2 || rows[0].Category != "Food" {
		t.Fatalf("unexpected rows: %+v", rows)
	}

	if err := s.ReplaceAll(context.Background(), nil); err != nil {
		t.Fatalf("ReplaceAll: %v", err)
	}
	if len(s.Rows()) != 0 || s.Writes() != 2 {
		t.Fatalf("expected empty sheet after 2 writes, got %d rows, %d writes", len(s.Rows()), s.Writes())
	}
}

func TestSheetFailWith(t *testing.T) {
	s := New()
	boom := errors.New("quota exceeded")
	s.FailWith(boom)

	if err := s.ReplaceAll(context.Background(), nil); !errors.Is(err, boom) {
		t.Fatalf("expected %v, got %v", boom, err)
	}
	if s.Writes() != 0 {
		t.Fatal("failed write must not count")
	}

	s.FailWith(nil)
	if err := s.ReplaceAll(context.Background(), nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
