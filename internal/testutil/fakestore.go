// Package testutil provides testing utilities.
package testutil

import (
	"context"
	"sync"

	"taskdash/internal/backend/memory"
	"taskdash/internal/service"
)

// FakeStore is a service.Store backed by the memory store, with per-method
// error injection and call counters.
type FakeStore struct {
	*memory.Store

	mu    sync.Mutex
	calls map[string]int

	// Error injection for testing
	InsertErr       error
	GetErr          error
	UpdateErr       error
	DeleteErr       error
	QueryByOwnerErr error
}

// NewFakeStore creates an empty FakeStore.
func NewFakeStore() *FakeStore {
	return &FakeStore{Store: memory.New(), calls: make(map[string]int)}
}

// Seed inserts t as-is apart from the id and returns the assigned id.
func (f *FakeStore) Seed(t service.Task) string {
	id, err := f.Store.Insert(context.Background(), t)
	if err != nil {
		panic(err)
	}
	return id
}

// Calls returns how many times method was called.
func (f *FakeStore) Calls(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method]
}

// TotalCalls returns the number of store calls of any kind.
func (f *FakeStore) TotalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

func (f *FakeStore) record(method string) {
	f.mu.Lock()
	f.calls[method]++
	f.mu.Unlock()
}

// Insert implements service.Store.
func (f *FakeStore) Insert(ctx context.Context, t service.Task) (string, error) {
	f.record("Insert")
	if f.InsertErr != nil {
		return "", f.InsertErr
	}
	return f.Store.Insert(ctx, t)
}

// Get implements service.Store.
func (f *FakeStore) Get(ctx context.Context, id string) (service.Task, error) {
	f.record("Get")
	if f.GetErr != nil {
		return service.Task{}, f.GetErr
	}
	return f.Store.Get(ctx, id)
}

// Update implements service.Store.
func (f *FakeStore) Update(ctx context.Context, id string, in service.TaskInput) error {
	f.record("Update")
	if f.UpdateErr != nil {
		return f.UpdateErr
	}
	return f.Store.Update(ctx, id, in)
}

// Delete implements service.Store.
func (f *FakeStore) Delete(ctx context.Context, id string) error {
	f.record("Delete")
	if f.DeleteErr != nil {
		return f.DeleteErr
	}
	return f.Store.Delete(ctx, id)
}

// QueryByOwner implements service.Store.
func (f *FakeStore) QueryByOwner(ctx context.Context, uid string) ([]service.Task, error) {
	f.record("QueryByOwner")
	if f.QueryByOwnerErr != nil {
		return nil, f.QueryByOwnerErr
	}
	return f.Store.QueryByOwner(ctx, uid)
}

// FakeVerifier accepts tokens of the form "token-<uid>" and rejects
// everything else.
type FakeVerifier struct {
	mu    sync.Mutex
	calls int

	// Err, when set, is returned for every token.
	Err error
}

// TokenFor returns the token FakeVerifier maps to uid.
func TokenFor(uid string) string { return "token-" + uid }

// Verify implements service.Verifier.
func (f *FakeVerifier) Verify(ctx context.Context, token string) (service.Identity, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	if f.Err != nil {
		return service.Identity{}, f.Err
	}
	const prefix = "token-"
	if len(token) <= len(prefix) || token[:len(prefix)] != prefix {
		return service.Identity{}, service.ErrUnauthorized
	}
	uid := token[len(prefix):]
	return service.Identity{UID: uid, Email: uid + "@example.com"}, nil
}

// Calls returns how many tokens were verified.
func (f *FakeVerifier) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}
