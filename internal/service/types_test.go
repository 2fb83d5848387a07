package service_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"taskdash/internal/service"
)

func validInput() service.TaskInput {
	return service.TaskInput{
		Title:       "Buy milk",
		Description: "2% lactose-free",
		Status:      service.StatusToDo,
		DueDate:     "2025-01-10",
	}
}

func TestTaskInputValidate_OK(t *testing.T) {
	if err := validInput().Validate(); err != nil {
		t.Fatalf("expected valid input, got %v", err)
	}
}

func TestTaskInputValidate_Fields(t *testing.T) {
	tests := []struct {
		name  string
		edit  func(*service.TaskInput)
		field string
		want  string
	}{
		{"empty title", func(in *service.TaskInput) { in.Title = "  " }, "title", "Title is required"},
		{"long title", func(in *service.TaskInput) { in.Title = strings.Repeat("a", 21) }, "title", "Title must be 20 characters or less"},
		{"empty description", func(in *service.TaskInput) { in.Description = "" }, "description", "Description is required"},
		{"long description", func(in *service.TaskInput) { in.Description = strings.Repeat("d", 101) }, "description", "Description must be 100 characters or less"},
		{"bad status", func(in *service.TaskInput) { in.Status = "Done" }, "status", "Status must be one of To Do, In Progress, Completed"},
		{"missing due date", func(in *service.TaskInput) { in.DueDate = "" }, "dueDate", "Due date is required"},
		{"bad due date", func(in *service.TaskInput) { in.DueDate = "10/01/2025" }, "dueDate", "Due date must be a YYYY-MM-DD date"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput()
			tt.edit(&in)

			err := in.Validate()
			if !errors.Is(err, service.ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
			var verr *service.Error
			if !errors.As(err, &verr) {
				t.Fatalf("expected *service.Error, got %T", err)
			}
			if got := verr.Fields[tt.field]; got != tt.want {
				t.Errorf("field %s: expected %q, got %q", tt.field, tt.want, got)
			}
		})
	}
}

func TestTaskInputValidate_CountsRunes(t *testing.T) {
	in := validInput()
	in.Title = strings.Repeat("é", 20)
	if err := in.Validate(); err != nil {
		t.Errorf("20 multibyte runes should be accepted, got %v", err)
	}
}

func TestTaskInputApply_KeepsOwnerAndID(t *testing.T) {
	task := service.Task{ID: "t1", OwnerID: "u1", Title: "old", Status: service.StatusToDo}
	in := validInput()
	in.Status = service.StatusCompleted

	got := in.Apply(task)
	if got.ID != "t1" || got.OwnerID != "u1" {
		t.Errorf("id/owner changed: %+v", got)
	}
	if got.Status != service.StatusCompleted || got.Title != "Buy milk" {
		t.Errorf("fields not applied: %+v", got)
	}
}

func TestErrorIs_MatchesByKind(t *testing.T) {
	err := fmt.Errorf("load: %w", &service.Error{Kind: service.KindNotFound, Message: "gone"})

	if !errors.Is(err, service.ErrNotFound) {
		t.Error("expected wrapped not-found error to match ErrNotFound")
	}
	if errors.Is(err, service.ErrForbidden) {
		t.Error("not-found error should not match ErrForbidden")
	}
	if service.KindOf(err) != service.KindNotFound {
		t.Errorf("expected KindNotFound, got %v", service.KindOf(err))
	}
	if service.KindOf(errors.New("boom")) != service.KindInternal {
		t.Error("unclassified errors should be internal")
	}
}

func TestInternal_HidesCause(t *testing.T) {
	err := service.Internal("Failed to fetch tasks", errors.New("connection reset"))

	if got := service.MessageOf(err, "x"); got != "Failed to fetch tasks" {
		t.Errorf("expected public message, got %q", got)
	}
	if !strings.Contains(err.Error(), "connection reset") {
		t.Errorf("expected cause in Error(), got %q", err.Error())
	}
}
