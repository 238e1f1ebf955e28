package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/iconcommons/iconcommons-server/internal/domain"
	"github.com/iconcommons/iconcommons-server/internal/store"
)

// TagService manages tags and their assignment to icons.
type TagService struct {
	store  store.Store
	logger *slog.Logger
}

// NewTagService creates a new tag service.
func NewTagService(store store.Store, logger *slog.Logger) *TagService {
	return &TagService{
		store:  store,
		logger: logger,
	}
}

// TagIcon resolves each name to a tag (creating missing ones) and attaches
// them to the icon. Names are trimmed; empties are dropped. Attaching an
// already-attached tag is a no-op, so repeated uploads are idempotent.
func (s *TagService) TagIcon(ctx context.Context, iconID string, names []string) ([]*domain.Tag, error) {
	var (
		tags   []*domain.Tag
		tagIDs []string
	)
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		tag, created, err := s.store.FindOrCreateTagByName(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("resolve tag %q: %w", name, err)
		}
		if created {
			s.logger.Debug("created tag", "tag_id", tag.ID, "name", tag.Name)
		}
		tags = append(tags, tag)
		tagIDs = append(tagIDs, tag.ID)
	}

	if len(tagIDs) == 0 {
		return tags, nil
	}

	if err := s.store.AddIconTags(ctx, iconID, tagIDs); err != nil {
		return nil, fmt.Errorf("attach tags: %w", err)
	}
	return tags, nil
}

// Resolve finds a tag by exact name or creates it.
func (s *TagService) Resolve(ctx context.Context, name string) (*domain.Tag, error) {
	tag, created, err := s.store.FindOrCreateTagByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if created {
		s.logger.Debug("created tag", "tag_id", tag.ID, "name", tag.Name)
	}
	return tag, nil
}

// Attach links already-resolved tags to an icon. Idempotent.
func (s *TagService) Attach(ctx context.Context, iconID string, tagIDs []string) error {
	if len(tagIDs) == 0 {
		return nil
	}
	return s.store.AddIconTags(ctx, iconID, tagIDs)
}

// IconTags lists an icon's tags ordered by name.
func (s *TagService) IconTags(ctx context.Context, iconID string) ([]*domain.Tag, error) {
	return s.store.GetIconTags(ctx, iconID)
}

// Search finds in-use tags matching query: prefix match for queries of
// three characters or fewer, substring match for longer ones, both
// case-insensitive.
func (s *TagService) Search(ctx context.Context, query string) ([]*domain.Tag, error) {
	return s.store.SearchTags(ctx, query)
}
