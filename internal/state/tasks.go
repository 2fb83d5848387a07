// Package state holds the client-side task and session state.
package state

import (
	"context"
	"errors"
	"sync"

	"taskdash/internal/client"
	"taskdash/internal/service"
)

// Status is the progress of the most recent task operation.
type Status string

const (
	StatusIdle      Status = "idle"
	StatusLoading   Status = "loading"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// TaskState is a snapshot of the client task cache.
type TaskState struct {
	Tasks  []service.Task
	Status Status
	Error  string
}

// Event is an input to Reduce.
type Event interface{ event() }

type (
	// Pending marks the start of a fetch or mutation.
	Pending struct{}
	// Fetched replaces the list.
	Fetched struct{ Tasks []service.Task }
	// Created appends a confirmed new task.
	Created struct{ Task service.Task }
	// Updated replaces the task with the same id.
	Updated struct{ Task service.Task }
	// Deleted removes the task with ID.
	Deleted struct{ ID string }
	// Failed records an error; the list is left as is.
	Failed struct{ Err string }
	// Reset empties the cache.
	Reset struct{}
)

func (Pending) event() {}
func (Fetched) event() {}
func (Created) event() {}
func (Updated) event() {}
func (Deleted) event() {}
func (Failed) event()  {}
func (Reset) event()   {}

// Reduce returns the state after applying e to s. s is not modified.
func Reduce(s TaskState, e Event) TaskState {
	switch e := e.(type) {
	case Pending:
		s.Status = StatusLoading
	case Fetched:
		s.Tasks = clone(e.Tasks)
		s.Status = StatusSucceeded
	case Created:
		tasks := make([]service.Task, 0, len(s.Tasks)+1)
		s.Tasks = append(append(tasks, s.Tasks...), e.Task)
		s.Status = StatusSucceeded
	case Updated:
		tasks := clone(s.Tasks)
		for i := range tasks {
			if tasks[i].ID == e.Task.ID {
				tasks[i] = e.Task
				break
			}
		}
		s.Tasks = tasks
		s.Status = StatusSucceeded
	case Deleted:
		tasks := make([]service.Task, 0, len(s.Tasks))
		for _, t := range s.Tasks {
			if t.ID != e.ID {
				tasks = append(tasks, t)
			}
		}
		s.Tasks = tasks
		s.Status = StatusSucceeded
	case Failed:
		s.Status = StatusFailed
		s.Error = e.Err
	case Reset:
		return TaskState{Tasks: []service.Task{}, Status: StatusIdle}
	}
	return s
}

func clone(tasks []service.Task) []service.Task {
	out := make([]service.Task, len(tasks))
	copy(out, tasks)
	return out
}

// Remote is the task API as seen by the client. *client.Client implements it.
type Remote interface {
	List(ctx context.Context) ([]service.Task, error)
	Create(ctx context.Context, in service.TaskInput) (service.Task, error)
	Update(ctx context.Context, id string, in service.TaskInput) (service.Task, error)
	Delete(ctx context.Context, id string) (string, error)
}

var _ Remote = (*client.Client)(nil)

// Draft returns the input a new task form starts with.
func Draft() service.TaskInput {
	return service.TaskInput{Status: service.StatusToDo}
}

// TaskStore is the client task cache. Events are applied one at a time
// under a lock; remote calls are not serialized, so concurrent operations
// complete in whatever order the server answers. Listeners see snapshots
// in the order events were applied and must not dispatch on the same store.
type TaskStore struct {
	remote Remote

	// notifyMu is held from reduce until every listener has returned.
	notifyMu sync.Mutex

	mu        sync.Mutex
	state     TaskState
	listeners map[int]func(TaskState)
	nextID    int
}

// NewTaskStore creates an idle, empty store backed by remote.
func NewTaskStore(remote Remote) *TaskStore {
	return &TaskStore{
		remote:    remote,
		state:     TaskState{Tasks: []service.Task{}, Status: StatusIdle},
		listeners: make(map[int]func(TaskState)),
	}
}

// State returns a snapshot of the current state.
func (s *TaskStore) State() TaskState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return snapshot(s.state)
}

// Subscribe registers fn to be called with a snapshot after every event.
// The returned function removes the subscription.
func (s *TaskStore) Subscribe(fn func(TaskState)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.listeners, id)
			s.mu.Unlock()
		})
	}
}

// dispatch applies e and notifies listeners outside the state lock.
func (s *TaskStore) dispatch(e Event) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	s.state = Reduce(s.state, e)
	snap := snapshot(s.state)
	listeners := make([]func(TaskState), 0, len(s.listeners))
	for _, fn := range s.listeners {
		listeners = append(listeners, fn)
	}
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(snap)
	}
}

func snapshot(s TaskState) TaskState {
	s.Tasks = clone(s.Tasks)
	return s
}

// Fetch loads the caller's tasks. On failure the previous list is kept.
func (s *TaskStore) Fetch(ctx context.Context) error {
	s.dispatch(Pending{})
	tasks, err := s.remote.List(ctx)
	if err != nil {
		s.dispatch(Failed{Err: errorMessage(err)})
		return err
	}
	s.dispatch(Fetched{Tasks: tasks})
	return nil
}

// FetchAsync runs Fetch in a new goroutine. The returned channel receives
// its result.
func (s *TaskStore) FetchAsync(ctx context.Context) <-chan error {
	done := make(chan error, 1)
	go func() { done <- s.Fetch(ctx) }()
	return done
}

// Create validates in and creates the task. The returned record is
// appended only after the server confirms it.
func (s *TaskStore) Create(ctx context.Context, in service.TaskInput) (service.Task, error) {
	if err := in.Validate(); err != nil {
		return service.Task{}, err
	}
	s.dispatch(Pending{})
	t, err := s.remote.Create(ctx, in)
	if err != nil {
		s.dispatch(Failed{Err: errorMessage(err)})
		return service.Task{}, err
	}
	s.dispatch(Created{Task: t})
	return t, nil
}

// Update validates in and overwrites task id.
func (s *TaskStore) Update(ctx context.Context, id string, in service.TaskInput) (service.Task, error) {
	if err := in.Validate(); err != nil {
		return service.Task{}, err
	}
	s.dispatch(Pending{})
	t, err := s.remote.Update(ctx, id, in)
	if err != nil {
		s.dispatch(Failed{Err: errorMessage(err)})
		return service.Task{}, err
	}
	s.dispatch(Updated{Task: t})
	return t, nil
}

// Delete removes task id.
func (s *TaskStore) Delete(ctx context.Context, id string) error {
	s.dispatch(Pending{})
	deleted, err := s.remote.Delete(ctx, id)
	if err != nil {
		s.dispatch(Failed{Err: errorMessage(err)})
		return err
	}
	if deleted == "" {
		deleted = id
	}
	s.dispatch(Deleted{ID: deleted})
	return nil
}

// Clear drops every cached task and returns to idle.
func (s *TaskStore) Clear() {
	s.dispatch(Reset{})
}

// errorMessage returns the text shown for a failed operation. API errors
// carry the server's message; anything else uses the error text.
func errorMessage(err error) string {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Error()
	}
	return err.Error()
}
