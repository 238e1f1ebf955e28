package service

import (
	"context"
	"log/slog"

	"github.com/iconcommons/iconcommons-server/internal/domain"
	"github.com/iconcommons/iconcommons-server/internal/store"
)

// DefaultCollectionName is used when an upload carries no collection hint
// and no name can be derived from the file.
const DefaultCollectionName = "default"

// CollectionService manages icon collections.
type CollectionService struct {
	store  store.Store
	logger *slog.Logger
}

// NewCollectionService creates a new collection service.
func NewCollectionService(store store.Store, logger *slog.Logger) *CollectionService {
	return &CollectionService{
		store:  store,
		logger: logger,
	}
}

// Resolve finds a collection by exact name or creates it. An empty name
// resolves to the default collection.
func (s *CollectionService) Resolve(ctx context.Context, name string) (*domain.Collection, error) {
	if name == "" {
		name = DefaultCollectionName
	}

	collection, created, err := s.store.FindOrCreateCollectionByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if created {
		s.logger.Info("created collection", "collection_id", collection.ID, "name", collection.Name)
	}
	return collection, nil
}

// Get resolves ref as a collection id, exact name, or slug.
func (s *CollectionService) Get(ctx context.Context, ref string) (*domain.Collection, error) {
	return s.store.GetCollection(ctx, ref)
}

// List returns all collections with icon counts, ordered by name.
func (s *CollectionService) List(ctx context.Context) ([]*domain.CollectionSummary, error) {
	return s.store.ListCollections(ctx)
}
