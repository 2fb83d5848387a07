package service

import "context"

// Store defines the persistence operations for task records.
// All database access goes through this interface; the API layer never
// imports a database SDK directly.
//
// Each call is a single independent round trip. There are no
// transactions and no retries.
type Store interface {
	// Insert persists a new record and returns the id the store assigned.
	// t.ID is ignored.
	Insert(ctx context.Context, t Task) (string, error)

	// Get returns the record with the given id.
	// Returns an error matching ErrNotFound if absent.
	Get(ctx context.Context, id string) (Task, error)

	// Update overwrites the client-settable fields of a record.
	// The owner is never touched.
	Update(ctx context.Context, id string, in TaskInput) error

	// Delete removes a record.
	Delete(ctx context.Context, id string) error

	// QueryByOwner returns all records whose owner equals uid.
	// Results are in store order (no sorting).
	QueryByOwner(ctx context.Context, uid string) ([]Task, error)

	// Close releases the underlying client.
	Close() error
}

// Verifier validates bearer credentials against the identity provider.
type Verifier interface {
	// Verify returns the identity behind token.
	// Returns an error matching ErrUnauthorized if the token is missing,
	// malformed, expired, or fails signature verification.
	Verify(ctx context.Context, token string) (Identity, error)
}
