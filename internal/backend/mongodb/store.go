// Package mongodb implements the service.Store interface using MongoDB.
package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"taskdash/internal/config"
	"taskdash/internal/service"
)

// APITimeout is the default timeout for a single MongoDB call.
const APITimeout = 5 * time.Second

// document is the persisted shape of a task. Field names match the
// Firestore layout so both stores hold the same records.
type document struct {
	ID          string `bson:"_id"`
	Title       string `bson:"title"`
	Description string `bson:"description"`
	Status      string `bson:"status"`
	DueDate     string `bson:"dueDate"`
	UserID      string `bson:"userId"`
}

func toDocument(t service.Task) document {
	return document{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Status:      string(t.Status),
		DueDate:     t.DueDate,
		UserID:      t.OwnerID,
	}
}

func (d document) task() service.Task {
	return service.Task{
		ID:          d.ID,
		Title:       d.Title,
		Description: d.Description,
		Status:      service.Status(d.Status),
		DueDate:     d.DueDate,
		OwnerID:     d.UserID,
	}
}

// Store implements service.Store on a MongoDB collection.
type Store struct {
	client  *mongo.Client
	coll    *mongo.Collection
	timeout time.Duration
}

// New connects to cfg.Store.MongoURI and ensures the owner index exists.
func New(ctx context.Context, cfg *config.Config) (*Store, error) {
	timeout := cfg.Store.Timeout
	if timeout <= 0 {
		timeout = APITimeout
	}

	client, err := mongo.Connect(ctx, options.Client().
		ApplyURI(cfg.Store.MongoURI).
		SetTimeout(timeout))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	s := &Store{
		client:  client,
		coll:    client.Database(cfg.Store.Database).Collection(cfg.Store.Collection),
		timeout: timeout,
	}

	if err := s.ensureIndexes(ctx); err != nil {
		client.Disconnect(context.Background())
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	_, err := s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "userId", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("failed to create owner index: %w", wrapError(err))
	}
	return nil
}

// Insert implements service.Store. Ids are random UUIDs.
func (s *Store) Insert(ctx context.Context, t service.Task) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	t.ID = uuid.NewString()
	if _, err := s.coll.InsertOne(ctx, toDocument(t)); err != nil {
		return "", wrapError(err)
	}
	return t.ID, nil
}

// Get implements service.Store.
func (s *Store) Get(ctx context.Context, id string) (service.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var doc document
	if err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		return service.Task{}, wrapError(err)
	}
	return doc.task(), nil
}

// Update implements service.Store.
func (s *Store) Update(ctx context.Context, id string, in service.TaskInput) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	res, err := s.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"title":       in.Title,
		"description": in.Description,
		"status":      string(in.Status),
		"dueDate":     in.DueDate,
	}})
	if err != nil {
		return wrapError(err)
	}
	if res.MatchedCount == 0 {
		return service.ErrNotFound
	}
	return nil
}

// Delete implements service.Store.
func (s *Store) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return wrapError(err)
	}
	if res.DeletedCount == 0 {
		return service.ErrNotFound
	}
	return nil
}

// QueryByOwner implements service.Store.
func (s *Store) QueryByOwner(ctx context.Context, uid string) ([]service.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	cur, err := s.coll.Find(ctx, bson.M{"userId": uid})
	if err != nil {
		return nil, wrapError(err)
	}

	var docs []document
	if err := cur.All(ctx, &docs); err != nil {
		return nil, wrapError(err)
	}

	result := make([]service.Task, 0, len(docs))
	for _, d := range docs {
		result = append(result, d.task())
	}
	return result, nil
}

// Close implements service.Store.
func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// wrapError maps driver errors onto the service error kinds.
func wrapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return service.ErrNotFound
	}
	if mongo.IsTimeout(err) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("request timed out: %w", err)
	}
	return err
}
