package cloudfirestore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"taskdash/internal/service"
)

func TestDocumentRoundTrip(t *testing.T) {
	task := service.Task{
		ID:          "doc-1",
		Title:       "Buy milk",
		Description: "2% lactose-free",
		Status:      service.StatusToDo,
		DueDate:     "2025-01-10",
		OwnerID:     "u1",
	}

	doc := toDocument(task)
	if doc.UserID != "u1" {
		t.Errorf("owner should be stored as userId, got %q", doc.UserID)
	}
	if got := doc.task("doc-1"); got != task {
		t.Errorf("expected %+v, got %+v", task, got)
	}
}

func TestWrapError(t *testing.T) {
	if err := wrapError(status.Error(codes.NotFound, "no such document")); !errors.Is(err, service.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	err := wrapError(fmt.Errorf("rpc: %w", context.DeadlineExceeded))
	if err == nil || !strings.Contains(err.Error(), "request timed out") {
		t.Errorf("expected timeout error, got %v", err)
	}

	err = wrapError(status.Error(codes.PermissionDenied, "denied"))
	if err == nil || !strings.Contains(err.Error(), "credentials rejected") {
		t.Errorf("expected credentials error, got %v", err)
	}

	if wrapError(nil) != nil {
		t.Error("expected nil for nil error")
	}
}

// TestStore_Emulator runs against the Firestore emulator when
// FIRESTORE_EMULATOR_HOST is set.
func TestStore_Emulator(t *testing.T) {
	if os.Getenv("FIRESTORE_EMULATOR_HOST") == "" {
		t.Skip("FIRESTORE_EMULATOR_HOST not set")
	}

	ctx := context.Background()
	client, err := firestore.NewClient(ctx, "demo-taskdash")
	if err != nil {
		t.Fatalf("client: %v", err)
	}
	collection := fmt.Sprintf("tasks-%d", time.Now().UnixNano())
	s := NewWithClient(client, collection, 0)
	defer s.Close()

	id, err := s.Insert(ctx, service.Task{Title: "Buy milk", Status: service.StatusToDo, DueDate: "2025-01-10", OwnerID: "u1"})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if _, err := s.Insert(ctx, service.Task{Title: "Other", OwnerID: "u2"}); err != nil {
		t.Fatalf("insert: %v", err)
	}

	tasks, err := s.QueryByOwner(ctx, "u1")
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(tasks) != 1 || tasks[0].ID != id {
		t.Fatalf("expected only u1's task, got %+v", tasks)
	}

	if err := s.Update(ctx, id, service.TaskInput{Title: "Buy milk", Status: service.StatusCompleted, DueDate: "2025-01-10"}); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, err := s.Get(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != service.StatusCompleted || got.OwnerID != "u1" {
		t.Errorf("unexpected record: %+v", got)
	}

	if err := s.Delete(ctx, id); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.Get(ctx, id); !errors.Is(err, service.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
	if err := s.Update(ctx, id, service.TaskInput{}); !errors.Is(err, service.ErrNotFound) {
		t.Errorf("expected not found on update of deleted doc, got %v", err)
	}
}
