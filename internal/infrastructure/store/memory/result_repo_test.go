package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"docify/internal/domain/entity"
)

func storedResult(id string, ts time.Time) *entity.GenerationResult {
	return &entity.GenerationResult{
		ID:        id,
		Success:   false,
		Error:     "write failed",
		Document:  &entity.StructuredDocument{Title: "T " + id},
		Timestamp: ts,
	}
}

func TestSaveAndGetByID(t *testing.T) {
	repo := NewResultRepo()
	ctx := context.Background()

	want := storedResult("a", time.Now().UTC())
	if err := repo.Save(ctx, want); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := repo.GetByID(ctx, "a")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ID != "a" || got.Document.Title != "T a" {
		t.Errorf("unexpected result: %+v", got)
	}

	// The repo hands out copies, not aliases into its map.
	got.Error = "mutated"
	again, _ := repo.GetByID(ctx, "a")
	if again.Error != "write failed" {
		t.Error("stored result must not be mutable through returned pointers")
	}
}

func TestGetByIDNotFound(t *testing.T) {
	repo := NewResultRepo()
	if _, err := repo.GetByID(context.Background(), "missing"); !errors.Is(err, entity.ErrResultNotFound) {
		t.Fatalf("expected ErrResultNotFound, got %v", err)
	}
}

func TestUpdate(t *testing.T) {
	repo := NewResultRepo()
	ctx := context.Background()

	r := storedResult("a", time.Now().UTC())
	if err := repo.Save(ctx, r); err != nil {
		t.Fatalf("save: %v", err)
	}

	r.Success = true
	r.Written = true
	r.Error = ""
	if err := repo.Update(ctx, r); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, _ := repo.GetByID(ctx, "a")
	if !got.Success || !got.Written || got.Error != "" {
		t.Errorf("update not applied: %+v", got)
	}
}

func TestUpdateUnknownID(t *testing.T) {
	repo := NewResultRepo()
	err := repo.Update(context.Background(), storedResult("ghost", time.Now().UTC()))
	if !errors.Is(err, entity.ErrResultNotFound) {
		t.Fatalf("expected ErrResultNotFound, got %v", err)
	}
}

func TestListNewestFirst(t *testing.T) {
	repo := NewResultRepo()
	ctx := context.Background()

	base := time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)
	for i, id := range []string{"old", "mid", "new"} {
		if err := repo.Save(ctx, storedResult(id, base.Add(time.Duration(i)*time.Minute))); err != nil {
			t.Fatalf("save %s: %v", id, err)
		}
	}

	results, err := repo.List(ctx, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}
	for i, want := range []string{"new", "mid", "old"} {
		if results[i].ID != want {
			t.Errorf("results[%d] = %s, want %s", i, results[i].ID, want)
		}
	}

	limited, err := repo.List(ctx, 2)
	if err != nil {
		t.Fatalf("list limited: %v", err)
	}
	if len(limited) != 2 || limited[0].ID != "new" {
		t.Errorf("limited list wrong: %+v", limited)
	}
}
