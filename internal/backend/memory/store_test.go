package memory

import (
	"context"
	"errors"
	"testing"

	"taskdash/internal/service"
)

func TestStore_CRUD(t *testing.T) {
	ctx := context.Background()
	s := New()

	id, err := s.Insert(ctx, service.Task{ID: "ignored", Title: "Buy milk", OwnerID: "u1", Status: service.StatusToDo})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if id == "" || id == "ignored" {
		t.Fatalf("expected generated id, got %q", id)
	}

	got, err := s.Get(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ID != id || got.Title != "Buy milk" || got.OwnerID != "u1" {
		t.Errorf("unexpected record: %+v", got)
	}

	err = s.Update(ctx, id, service.TaskInput{Title: "Buy oat milk", Status: service.StatusCompleted})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	got, _ = s.Get(ctx, id)
	if got.Title != "Buy oat milk" || got.Status != service.StatusCompleted || got.OwnerID != "u1" {
		t.Errorf("unexpected record after update: %+v", got)
	}

	if err := s.Delete(ctx, id); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.Get(ctx, id); !errors.Is(err, service.ErrNotFound) {
		t.Errorf("expected not found after delete, got %v", err)
	}
	if err := s.Delete(ctx, id); !errors.Is(err, service.ErrNotFound) {
		t.Errorf("expected not found on second delete, got %v", err)
	}
}

func TestStore_QueryByOwner(t *testing.T) {
	ctx := context.Background()
	s := New()

	a, _ := s.Insert(ctx, service.Task{Title: "a", OwnerID: "u1"})
	s.Insert(ctx, service.Task{Title: "b", OwnerID: "u2"})
	c, _ := s.Insert(ctx, service.Task{Title: "c", OwnerID: "u1"})

	tasks, err := s.QueryByOwner(ctx, "u1")
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(tasks) != 2 || tasks[0].ID != a || tasks[1].ID != c {
		t.Errorf("expected [a c] in insertion order, got %+v", tasks)
	}

	none, err := s.QueryByOwner(ctx, "nobody")
	if err != nil || len(none) != 0 {
		t.Errorf("expected empty result, got %v, %v", none, err)
	}
}

func TestStore_UpdateMissing(t *testing.T) {
	s := New()
	err := s.Update(context.Background(), "missing", service.TaskInput{})
	if !errors.Is(err, service.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestStore_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := New()
	if _, err := s.Insert(ctx, service.Task{}); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if s.Len() != 0 {
		t.Errorf("expected nothing stored, got %d", s.Len())
	}
}
