// Package service contains the orchestration layer between the HTTP API,
// the ingestion pipeline, and the store.
package service

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/iconcommons/iconcommons-server/internal/domain"
	"github.com/iconcommons/iconcommons-server/internal/errors"
	"github.com/iconcommons/iconcommons-server/internal/search"
	"github.com/iconcommons/iconcommons-server/internal/store"
)

// IconService manages icons and their version history.
type IconService struct {
	store  store.Store
	index  *search.Index
	logger *slog.Logger
}

// NewIconService creates a new icon service. The search index is optional;
// when nil, commits skip indexing.
func NewIconService(store store.Store, index *search.Index, logger *slog.Logger) *IconService {
	return &IconService{
		store:  store,
		index:  index,
		logger: logger,
	}
}

// Get retrieves an icon by ID.
func (s *IconService) Get(ctx context.Context, iconID string) (*domain.Icon, error) {
	return s.store.GetIconByID(ctx, iconID)
}

// GetBySlugs retrieves an icon by its collection slug and icon slug.
func (s *IconService) GetBySlugs(ctx context.Context, collectionSlug, iconSlug string) (*domain.Icon, error) {
	return s.store.GetIconBySlugs(ctx, collectionSlug, iconSlug)
}

// List returns a page of icons matching the filter.
func (s *IconService) List(ctx context.Context, filter store.IconFilter, page store.PageParams) (*store.Page[*domain.Icon], error) {
	return s.store.ListIcons(ctx, filter, page)
}

// Resolve finds an icon by name within a collection or creates it. Owner is
// recorded only at creation time; later uploads never reassign it.
func (s *IconService) Resolve(ctx context.Context, name, collectionID, owner string) (*domain.Icon, bool, error) {
	icon, created, err := s.store.FindOrCreateIcon(ctx, name, collectionID, owner)
	if err != nil {
		return nil, false, err
	}
	if created {
		s.logger.Info("created icon", "icon_id", icon.ID, "name", icon.Name, "collection_id", collectionID)
	}
	return icon, created, nil
}

// Latest returns the newest version of an icon, including its content.
func (s *IconService) Latest(ctx context.Context, iconID string) (*domain.IconVersion, error) {
	return s.store.LatestVersion(ctx, iconID)
}

// Version returns a specific version of an icon. A version of zero or less
// means latest.
func (s *IconService) Version(ctx context.Context, iconID string, version int) (*domain.IconVersion, error) {
	if version <= 0 {
		return s.store.LatestVersion(ctx, iconID)
	}
	return s.store.VersionAt(ctx, iconID, version)
}

// History lists an icon's versions oldest-first, without content.
func (s *IconService) History(ctx context.Context, iconID string) ([]*domain.IconVersion, error) {
	return s.store.ListVersions(ctx, iconID)
}

// ShouldCommit reports whether svg differs from the icon's latest stored
// version. A brand-new icon (no versions yet) always needs a commit; only an
// exact byte match with the latest version is a duplicate. Older identical
// versions do not suppress the commit.
func (s *IconService) ShouldCommit(ctx context.Context, iconID string, svg []byte) (bool, error) {
	latest, err := s.store.LatestVersion(ctx, iconID)
	if errors.Is(err, errors.ErrNotFound) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("load latest version: %w", err)
	}
	return !bytes.Equal(latest.SVG, svg), nil
}

// Commit stores svg as the icon's next version and refreshes the search
// index. Returns the new version record.
func (s *IconService) Commit(ctx context.Context, iconID string, svg []byte, changeLog string) (*domain.IconVersion, error) {
	version, err := s.store.CommitNewVersion(ctx, iconID, svg, changeLog)
	if err != nil {
		return nil, err
	}

	s.logger.Info("committed icon version",
		"icon_id", iconID,
		"version", version.Version,
		"changelog", changeLog,
	)

	if err := s.reindex(ctx, iconID); err != nil {
		// Search is a convenience layer; a failed index update must not
		// roll back a committed version.
		s.logger.Warn("failed to update search index", "icon_id", iconID, "error", err)
	}

	return version, nil
}

// Reindex rebuilds the search document for one icon from the store.
func (s *IconService) Reindex(ctx context.Context, iconID string) error {
	return s.reindex(ctx, iconID)
}

func (s *IconService) reindex(ctx context.Context, iconID string) error {
	if s.index == nil {
		return nil
	}

	icon, err := s.store.GetIconByID(ctx, iconID)
	if err != nil {
		return fmt.Errorf("get icon: %w", err)
	}
	collection, err := s.store.GetCollectionByID(ctx, icon.CollectionID)
	if err != nil {
		return fmt.Errorf("get collection: %w", err)
	}
	tags, err := s.store.GetIconTags(ctx, iconID)
	if err != nil {
		return fmt.Errorf("get tags: %w", err)
	}

	names := make([]string, len(tags))
	for n, tag := range tags {
		names[n] = tag.Name
	}

	return s.index.IndexIcon(search.IconToDocument(icon, collection.Slug, names))
}

// ReindexAll rebuilds the whole search index from the store, batch-indexing
// every icon. The index is dropped first so documents for icons that no
// longer exist do not linger. Returns the number of icons indexed.
func (s *IconService) ReindexAll(ctx context.Context) (int, error) {
	if s.index == nil {
		return 0, nil
	}

	if err := s.index.Rebuild(); err != nil {
		return 0, fmt.Errorf("rebuild index: %w", err)
	}

	slugs := make(map[string]string)
	var docs []*search.IconDocument

	params := store.PageParams{Number: 1, Size: store.MaxPageSize}
	for {
		page, err := s.store.ListIcons(ctx, store.IconFilter{}, params)
		if err != nil {
			return 0, fmt.Errorf("list icons: %w", err)
		}
		for _, icon := range page.Items {
			slug, ok := slugs[icon.CollectionID]
			if !ok {
				collection, err := s.store.GetCollectionByID(ctx, icon.CollectionID)
				if err != nil {
					return 0, fmt.Errorf("get collection: %w", err)
				}
				slug = collection.Slug
				slugs[icon.CollectionID] = slug
			}
			tags, err := s.store.GetIconTags(ctx, icon.ID)
			if err != nil {
				return 0, fmt.Errorf("get tags for %s: %w", icon.ID, err)
			}
			names := make([]string, len(tags))
			for n, tag := range tags {
				names[n] = tag.Name
			}
			docs = append(docs, search.IconToDocument(icon, slug, names))
		}
		if params.Number >= page.Pages {
			break
		}
		params.Number++
	}

	if err := s.index.IndexIcons(docs); err != nil {
		return 0, fmt.Errorf("index icons: %w", err)
	}
	return len(docs), nil
}
