// Package backend opens the task store and identity verifier selected by
// configuration.
package backend

import (
	"context"
	"fmt"

	"taskdash/internal/auth"
	"taskdash/internal/backend/cloudfirestore"
	"taskdash/internal/backend/memory"
	"taskdash/internal/backend/mongodb"
	"taskdash/internal/config"
	"taskdash/internal/service"
)

// Backend bundles the external collaborators of the API server.
type Backend struct {
	Store    service.Store
	Verifier service.Verifier
}

// Open connects the configured store and builds the configured verifier.
func Open(ctx context.Context, cfg *config.Config) (*Backend, error) {
	store, err := OpenStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	verifier, err := auth.New(ctx, cfg)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("auth: %w", err)
	}
	return &Backend{Store: store, Verifier: verifier}, nil
}

// OpenStore connects the store selected by cfg.Store.Driver.
func OpenStore(ctx context.Context, cfg *config.Config) (service.Store, error) {
	switch cfg.Store.Driver {
	case config.DriverMemory:
		return memory.New(), nil
	case config.DriverFirestore:
		s, err := cloudfirestore.New(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("firestore: %w", err)
		}
		return s, nil
	case config.DriverMongo:
		s, err := mongodb.New(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("mongo: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown store driver: %s", cfg.Store.Driver)
	}
}

// Close releases the store.
func (b *Backend) Close() error {
	if b == nil || b.Store == nil {
		return nil
	}
	return b.Store.Close()
}
