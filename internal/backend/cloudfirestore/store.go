// Package cloudfirestore implements the service.Store interface using Cloud Firestore.
package cloudfirestore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"taskdash/internal/config"
	"taskdash/internal/service"
)

const (
	// APITimeout is the default timeout for a single Firestore call.
	APITimeout = 5 * time.Second

	// ownerField is the document field holding the owner's uid.
	ownerField = "userId"
)

// document is the persisted shape of a task. The document id is the task id.
type document struct {
	Title       string `firestore:"title"`
	Description string `firestore:"description"`
	Status      string `firestore:"status"`
	DueDate     string `firestore:"dueDate"`
	UserID      string `firestore:"userId"`
}

func toDocument(t service.Task) document {
	return document{
		Title:       t.Title,
		Description: t.Description,
		Status:      string(t.Status),
		DueDate:     t.DueDate,
		UserID:      t.OwnerID,
	}
}

func (d document) task(id string) service.Task {
	return service.Task{
		ID:          id,
		Title:       d.Title,
		Description: d.Description,
		Status:      service.Status(d.Status),
		DueDate:     d.DueDate,
		OwnerID:     d.UserID,
	}
}

// Store implements service.Store on a Firestore collection.
type Store struct {
	client     *firestore.Client
	collection string
	timeout    time.Duration
}

// New creates a Firestore-backed store for cfg.Store.
// Honors FIRESTORE_EMULATOR_HOST through the client library.
func New(ctx context.Context, cfg *config.Config, opts ...option.ClientOption) (*Store, error) {
	if cfg.Store.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.Store.CredentialsFile))
	}

	client, err := firestore.NewClient(ctx, cfg.Store.ProjectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}

	return NewWithClient(client, cfg.Store.Collection, cfg.Store.Timeout), nil
}

// NewWithClient wraps an existing client (for testing against the emulator).
func NewWithClient(client *firestore.Client, collection string, timeout time.Duration) *Store {
	if collection == "" {
		collection = config.DefaultCollection
	}
	if timeout <= 0 {
		timeout = APITimeout
	}
	return &Store{client: client, collection: collection, timeout: timeout}
}

func (s *Store) col() *firestore.CollectionRef {
	return s.client.Collection(s.collection)
}

// Insert implements service.Store. Firestore assigns the document id.
func (s *Store) Insert(ctx context.Context, t service.Task) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	ref, _, err := s.col().Add(ctx, toDocument(t))
	if err != nil {
		return "", wrapError(err)
	}
	return ref.ID, nil
}

// Get implements service.Store.
func (s *Store) Get(ctx context.Context, id string) (service.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	snap, err := s.col().Doc(id).Get(ctx)
	if err != nil {
		return service.Task{}, wrapError(err)
	}

	var doc document
	if err := snap.DataTo(&doc); err != nil {
		return service.Task{}, fmt.Errorf("decode task %s: %w", id, err)
	}
	return doc.task(snap.Ref.ID), nil
}

// Update implements service.Store. Fails with not found if the document
// no longer exists.
func (s *Store) Update(ctx context.Context, id string, in service.TaskInput) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	_, err := s.col().Doc(id).Update(ctx, []firestore.Update{
		{Path: "title", Value: in.Title},
		{Path: "description", Value: in.Description},
		{Path: "status", Value: string(in.Status)},
		{Path: "dueDate", Value: in.DueDate},
	})
	if err != nil {
		return wrapError(err)
	}
	return nil
}

// Delete implements service.Store.
func (s *Store) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if _, err := s.col().Doc(id).Delete(ctx); err != nil {
		return wrapError(err)
	}
	return nil
}

// QueryByOwner implements service.Store.
func (s *Store) QueryByOwner(ctx context.Context, uid string) ([]service.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	snaps, err := s.col().Where(ownerField, "==", uid).Documents(ctx).GetAll()
	if err != nil {
		return nil, wrapError(err)
	}

	result := make([]service.Task, 0, len(snaps))
	for _, snap := range snaps {
		var doc document
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("decode task %s: %w", snap.Ref.ID, err)
		}
		result = append(result, doc.task(snap.Ref.ID))
	}
	return result, nil
}

// Close implements service.Store.
func (s *Store) Close() error {
	return s.client.Close()
}

// wrapError maps Firestore errors onto the service error kinds.
func wrapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("request timed out: %w", err)
	}

	switch status.Code(err) {
	case codes.NotFound:
		return service.ErrNotFound
	case codes.DeadlineExceeded:
		return fmt.Errorf("request timed out: %w", err)
	case codes.PermissionDenied, codes.Unauthenticated:
		return fmt.Errorf("firestore credentials rejected: %w", err)
	}

	return err
}
