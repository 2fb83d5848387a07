// Package service defines the backend-agnostic task model and the contracts
// implemented by storage backends and identity verifiers.
package service

import (
	"strings"
	"time"
	"unicode/utf8"
)

// Field length limits enforced on task input.
const (
	MaxTitleLen       = 20
	MaxDescriptionLen = 100
)

// DateLayout is the calendar date format used for due dates.
const DateLayout = "2006-01-02"

// Status is the progress state of a task.
type Status string

const (
	StatusToDo       Status = "To Do"
	StatusInProgress Status = "In Progress"
	StatusCompleted  Status = "Completed"
)

// Statuses lists all valid statuses in display order.
var Statuses = []Status{StatusToDo, StatusInProgress, StatusCompleted}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	for _, v := range Statuses {
		if s == v {
			return true
		}
	}
	return false
}

// Task represents a single to-do item owned by one user.
type Task struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Status      Status `json:"status"`
	DueDate     string `json:"dueDate"`
	OwnerID     string `json:"ownerId"`
}

// TaskInput holds the client-settable fields of a task.
// The owner and id are never part of the input.
type TaskInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Status      Status `json:"status"`
	DueDate     string `json:"dueDate"`
}

// Input returns the client-settable fields of t.
func (t Task) Input() TaskInput {
	return TaskInput{
		Title:       t.Title,
		Description: t.Description,
		Status:      t.Status,
		DueDate:     t.DueDate,
	}
}

// Apply overwrites the client-settable fields of t with in.
// ID and OwnerID are kept.
func (in TaskInput) Apply(t Task) Task {
	t.Title = in.Title
	t.Description = in.Description
	t.Status = in.Status
	t.DueDate = in.DueDate
	return t
}

// Validate checks the input the way the task form does before submission.
// The returned error has KindValidation and carries one message per field.
func (in TaskInput) Validate() error {
	fields := make(map[string]string)

	switch {
	case strings.TrimSpace(in.Title) == "":
		fields["title"] = "Title is required"
	case utf8.RuneCountInString(in.Title) > MaxTitleLen:
		fields["title"] = "Title must be 20 characters or less"
	}

	switch {
	case strings.TrimSpace(in.Description) == "":
		fields["description"] = "Description is required"
	case utf8.RuneCountInString(in.Description) > MaxDescriptionLen:
		fields["description"] = "Description must be 100 characters or less"
	}

	if !in.Status.Valid() {
		fields["status"] = "Status must be one of To Do, In Progress, Completed"
	}

	if in.DueDate == "" {
		fields["dueDate"] = "Due date is required"
	} else if _, err := time.Parse(DateLayout, in.DueDate); err != nil {
		fields["dueDate"] = "Due date must be a YYYY-MM-DD date"
	}

	if len(fields) == 0 {
		return nil
	}
	return &Error{Kind: KindValidation, Message: "invalid task", Fields: fields}
}

// Identity is a verified user as reported by the identity provider.
type Identity struct {
	UID         string `json:"uid"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	PhotoURL    string `json:"photoURL"`
}
