// Package store defines the persistence interface consumed by the services
// and the ingestion pipeline. The SQLite implementation lives in store/sqlite.
package store

import (
	"context"

	"github.com/iconcommons/iconcommons-server/internal/domain"
)

// IconFilter narrows an icon listing.
type IconFilter struct {
	// Collection matches a collection by id, exact name, or slug.
	// Empty means all collections.
	Collection string
	// Tags matches icons carrying any of the given tag names.
	Tags []string
}

// Store is the persistence contract for the icon repository.
//
// All resolve-or-create operations are race-safe: concurrent calls with the
// same key yield exactly one stored record, and the loser of a creation race
// observes and reuses the winner's row.
type Store interface {
	// Collections.
	FindOrCreateCollectionByName(ctx context.Context, name string) (*domain.Collection, bool, error)
	GetCollectionByID(ctx context.Context, id string) (*domain.Collection, error)
	// GetCollection resolves ref as an id, exact name, or slug.
	GetCollection(ctx context.Context, ref string) (*domain.Collection, error)
	ListCollections(ctx context.Context) ([]*domain.CollectionSummary, error)

	// Icons.
	FindOrCreateIcon(ctx context.Context, name, collectionID, owner string) (*domain.Icon, bool, error)
	GetIconByID(ctx context.Context, id string) (*domain.Icon, error)
	GetIconBySlugs(ctx context.Context, collectionSlug, iconSlug string) (*domain.Icon, error)
	ListIcons(ctx context.Context, filter IconFilter, page PageParams) (*Page[*domain.Icon], error)

	// Versions. CommitNewVersion atomically assigns latest+1 and touches the
	// icon's UpdatedAt; concurrent commits for one icon never share a number.
	LatestVersion(ctx context.Context, iconID string) (*domain.IconVersion, error)
	VersionAt(ctx context.Context, iconID string, version int) (*domain.IconVersion, error)
	CommitNewVersion(ctx context.Context, iconID string, svg []byte, changeLog string) (*domain.IconVersion, error)
	ListVersions(ctx context.Context, iconID string) ([]*domain.IconVersion, error)

	// Tags.
	FindOrCreateTagByName(ctx context.Context, name string) (*domain.Tag, bool, error)
	AddIconTags(ctx context.Context, iconID string, tagIDs []string) error
	GetIconTags(ctx context.Context, iconID string) ([]*domain.Tag, error)
	SearchTags(ctx context.Context, query string) ([]*domain.Tag, error)

	Close() error
}
