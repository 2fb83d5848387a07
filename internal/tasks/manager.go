// Package tasks implements the owner-scoped task operations behind the API.
package tasks

import (
	"context"
	"errors"

	"taskdash/internal/service"
)

// Caller-visible messages for store failures.
const (
	msgFetchFailed  = "Failed to fetch tasks"
	msgCreateFailed = "Failed to create task"
	msgUpdateFailed = "Failed to update task"
	msgDeleteFailed = "Failed to delete task"
)

// Manager applies ownership rules on top of a service.Store.
// It holds no state of its own and is safe for concurrent use.
type Manager struct {
	store service.Store
}

// NewManager creates a manager backed by store.
func NewManager(store service.Store) *Manager {
	return &Manager{store: store}
}

// List returns every task owned by owner, in store order.
// The result is never nil.
func (m *Manager) List(ctx context.Context, owner string) ([]service.Task, error) {
	tasks, err := m.store.QueryByOwner(ctx, owner)
	if err != nil {
		return nil, service.Internal(msgFetchFailed, err)
	}
	if tasks == nil {
		tasks = []service.Task{}
	}
	return tasks, nil
}

// Create stores in as a new task owned by owner and returns the stored record.
func (m *Manager) Create(ctx context.Context, owner string, in service.TaskInput) (service.Task, error) {
	t := in.Apply(service.Task{OwnerID: owner})
	id, err := m.store.Insert(ctx, t)
	if err != nil {
		return service.Task{}, service.Internal(msgCreateFailed, err)
	}
	t.ID = id
	return t, nil
}

// Update overwrites the client-settable fields of task id and returns the
// merged record. The owner never changes.
func (m *Manager) Update(ctx context.Context, owner, id string, in service.TaskInput) (service.Task, error) {
	existing, err := m.owned(ctx, owner, id, msgUpdateFailed)
	if err != nil {
		return service.Task{}, err
	}
	if err := m.store.Update(ctx, id, in); err != nil {
		return service.Task{}, storeError(err, msgUpdateFailed)
	}
	return in.Apply(existing), nil
}

// Delete removes task id and returns the id.
func (m *Manager) Delete(ctx context.Context, owner, id string) (string, error) {
	if _, err := m.owned(ctx, owner, id, msgDeleteFailed); err != nil {
		return "", err
	}
	if err := m.store.Delete(ctx, id); err != nil {
		return "", storeError(err, msgDeleteFailed)
	}
	return id, nil
}

// owned loads task id and checks it belongs to owner.
func (m *Manager) owned(ctx context.Context, owner, id, failMsg string) (service.Task, error) {
	t, err := m.store.Get(ctx, id)
	if err != nil {
		return service.Task{}, storeError(err, failMsg)
	}
	if t.OwnerID != owner {
		return service.Task{}, service.ErrForbidden
	}
	return t, nil
}

// storeError passes not-found through and hides everything else behind msg.
func storeError(err error, msg string) error {
	if errors.Is(err, service.ErrNotFound) {
		return service.ErrNotFound
	}
	return service.Internal(msg, err)
}
