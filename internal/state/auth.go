package state

import (
	"context"
	"sync"

	"taskdash/internal/service"
)

// TaskLoader is the part of TaskStore driven by sign-in changes.
type TaskLoader interface {
	FetchAsync(ctx context.Context) <-chan error
	Clear()
}

// SessionSource reports sign-in changes. fn is called once with the
// current session at registration and again after every change; nil means
// signed out.
type SessionSource interface {
	OnSessionChange(fn func(*service.Identity)) (unsubscribe func())
}

// AuthStore holds the signed-in identity and keeps the task cache in step
// with it: a new user triggers one fetch, signing out clears the cache.
type AuthStore struct {
	loader TaskLoader

	// setMu serializes Set so cache actions and notifications follow the
	// order identities arrive in.
	setMu sync.Mutex

	mu        sync.Mutex
	user      *service.Identity
	listeners map[int]func(*service.Identity)
	nextID    int
}

// NewAuthStore creates a signed-out store driving loader.
func NewAuthStore(loader TaskLoader) *AuthStore {
	return &AuthStore{
		loader:    loader,
		listeners: make(map[int]func(*service.Identity)),
	}
}

// Bind follows src until the returned function is called. Fetches run
// under ctx.
func (a *AuthStore) Bind(ctx context.Context, src SessionSource) (unbind func()) {
	return src.OnSessionChange(func(id *service.Identity) {
		a.Set(ctx, id)
	})
}

// Set records id as the current user (nil for signed out). A fetch already
// in flight is not cancelled; readers must check Current before showing tasks.
func (a *AuthStore) Set(ctx context.Context, id *service.Identity) {
	var next *service.Identity
	if id != nil {
		cp := *id
		next = &cp
	}

	a.setMu.Lock()
	defer a.setMu.Unlock()

	a.mu.Lock()
	prev := a.user
	a.user = next

	signedOut := prev != nil && next == nil
	switched := prev != nil && next != nil && prev.UID != next.UID
	signedIn := next != nil && (prev == nil || switched)
	changed := !sameIdentity(prev, next)
	listeners := a.snapshotListeners()
	a.mu.Unlock()

	if signedOut || switched {
		a.loader.Clear()
	}
	if signedIn {
		a.loader.FetchAsync(ctx)
	}
	if changed {
		for _, fn := range listeners {
			fn(copyIdentity(next))
		}
	}
}

// Current returns the signed-in identity, or nil.
func (a *AuthStore) Current() *service.Identity {
	a.mu.Lock()
	defer a.mu.Unlock()
	return copyIdentity(a.user)
}

// Subscribe registers fn for identity changes.
func (a *AuthStore) Subscribe(fn func(*service.Identity)) (unsubscribe func()) {
	a.mu.Lock()
	id := a.nextID
	a.nextID++
	a.listeners[id] = fn
	a.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			a.mu.Lock()
			delete(a.listeners, id)
			a.mu.Unlock()
		})
	}
}

func (a *AuthStore) snapshotListeners() []func(*service.Identity) {
	out := make([]func(*service.Identity), 0, len(a.listeners))
	for _, fn := range a.listeners {
		out = append(out, fn)
	}
	return out
}

func sameIdentity(a, b *service.Identity) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func copyIdentity(id *service.Identity) *service.Identity {
	if id == nil {
		return nil
	}
	cp := *id
	return &cp
}
