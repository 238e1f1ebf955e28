package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/iconcommons/iconcommons-server/internal/domain"
	"github.com/iconcommons/iconcommons-server/internal/errors"
	"github.com/iconcommons/iconcommons-server/internal/id"
)

// tagSearchPrefixLen is the query length at or below which tag search uses
// prefix matching; longer queries use substring matching.
const tagSearchPrefixLen = 3

// scanTag scans a sql.Row (or sql.Rows via its Scan method) into a domain.Tag.
func scanTag(scanner interface{ Scan(dest ...any) error }) (*domain.Tag, error) {
	var t domain.Tag
	var createdAt string

	err := scanner.Scan(&t.ID, &t.Name, &createdAt)
	if err != nil {
		return nil, err
	}

	t.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// getTagByName retrieves a tag by its exact, case-sensitive name.
func (s *Store) getTagByName(ctx context.Context, name string) (*domain.Tag, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, created_at FROM tags WHERE name = ?`, name)

	t, err := scanTag(row)
	if err == sql.ErrNoRows {
		return nil, errors.NotFoundf("tag %q not found", name)
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

// FindOrCreateTagByName finds an existing tag by name or creates a new one.
// Returns (tag, created, error). Race losers reuse the winner's row.
func (s *Store) FindOrCreateTagByName(ctx context.Context, name string) (*domain.Tag, bool, error) {
	existing, err := s.getTagByName(ctx, name)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, errors.ErrNotFound) {
		return nil, false, err
	}

	tagID, err := id.Generate("tag")
	if err != nil {
		return nil, false, fmt.Errorf("generate tag id: %w", err)
	}

	t := &domain.Tag{
		ID:        tagID,
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO tags (id, name, created_at) VALUES (?, ?, ?)`,
		t.ID, t.Name, formatTime(t.CreatedAt))
	if err != nil {
		if isUniqueViolation(err) {
			existing, err := s.getTagByName(ctx, name)
			if err != nil {
				return nil, false, err
			}
			return existing, false, nil
		}
		return nil, false, err
	}

	return t, true, nil
}

// AddIconTags associates tags with an icon. Adding an already-present tag is
// a no-op, so repeated ingestion runs stay idempotent.
func (s *Store) AddIconTags(ctx context.Context, iconID string, tagIDs []string) error {
	if len(tagIDs) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	now := formatTime(time.Now().UTC())
	for _, tagID := range tagIDs {
		_, err := tx.ExecContext(ctx, `
			INSERT OR IGNORE INTO icon_tags (icon_id, tag_id, created_at)
			VALUES (?, ?, ?)`,
			iconID, tagID, now)
		if err != nil {
			return fmt.Errorf("insert icon_tag: %w", err)
		}
	}

	return tx.Commit()
}

// GetIconTags returns the tags associated with an icon, ordered by name.
func (s *Store) GetIconTags(ctx context.Context, iconID string) ([]*domain.Tag, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT t.id, t.name, t.created_at
		FROM tags t
		JOIN icon_tags it ON it.tag_id = t.id
		WHERE it.icon_id = ?
		ORDER BY t.name ASC`, iconID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tags []*domain.Tag
	for rows.Next() {
		t, err := scanTag(rows)
		if err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if tags == nil {
		tags = []*domain.Tag{}
	}
	return tags, nil
}

// SearchTags finds tags by name, ordered alphabetically. Queries up to three
// characters use case-insensitive prefix matching; longer queries use
// case-insensitive substring matching. Only tags attached to at least one
// icon are returned.
func (s *Store) SearchTags(ctx context.Context, query string) ([]*domain.Tag, error) {
	if query == "" {
		return []*domain.Tag{}, nil
	}

	pattern := escapeLike(query) + "%"
	if len(query) > tagSearchPrefixLen {
		pattern = "%" + pattern
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT t.id, t.name, t.created_at
		FROM tags t
		JOIN icon_tags it ON it.tag_id = t.id
		WHERE t.name LIKE ? ESCAPE '\'
		ORDER BY t.name ASC`, pattern)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tags []*domain.Tag
	for rows.Next() {
		t, err := scanTag(rows)
		if err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if tags == nil {
		tags = []*domain.Tag{}
	}
	return tags, nil
}

// escapeLike escapes LIKE wildcards in user input.
func escapeLike(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '%', '_', '\\':
			out = append(out, '\\')
		}
		out = append(out, s[i])
	}
	return string(out)
}
