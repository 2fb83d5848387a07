// Package memory implements service.Store in process memory.
// Used for local development and tests; data is lost on exit.
package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"taskdash/internal/service"
)

// Store is an in-memory service.Store keyed by generated UUIDs.
type Store struct {
	mu    sync.RWMutex
	order []string // insertion order, for stable query results
	tasks map[string]service.Task
}

// New creates an empty store.
func New() *Store {
	return &Store{tasks: make(map[string]service.Task)}
}

// Insert implements service.Store.
func (s *Store) Insert(ctx context.Context, t service.Task) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	t.ID = uuid.NewString()
	s.tasks[t.ID] = t
	s.order = append(s.order, t.ID)
	return t.ID, nil
}

// Get implements service.Store.
func (s *Store) Get(ctx context.Context, id string) (service.Task, error) {
	if err := ctx.Err(); err != nil {
		return service.Task{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tasks[id]
	if !ok {
		return service.Task{}, service.ErrNotFound
	}
	return t, nil
}

// Update implements service.Store.
func (s *Store) Update(ctx context.Context, id string, in service.TaskInput) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[id]
	if !ok {
		return service.ErrNotFound
	}
	s.tasks[id] = in.Apply(t)
	return nil
}

// Delete implements service.Store.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tasks[id]; !ok {
		return service.ErrNotFound
	}
	delete(s.tasks, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// QueryByOwner implements service.Store.
func (s *Store) QueryByOwner(ctx context.Context, uid string) ([]service.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []service.Task
	for _, id := range s.order {
		if t := s.tasks[id]; t.OwnerID == uid {
			result = append(result, t)
		}
	}
	return result, nil
}

// Close implements service.Store.
func (s *Store) Close() error { return nil }

// Len returns the number of stored records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tasks)
}
