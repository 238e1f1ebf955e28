package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/iconcommons/iconcommons-server/internal/domain"
	"github.com/iconcommons/iconcommons-server/internal/errors"
	"github.com/iconcommons/iconcommons-server/internal/id"
	"github.com/iconcommons/iconcommons-server/internal/store"
)

// iconColumns is the ordered list of columns selected in icon queries.
// Must match the scan order in scanIcon.
const iconColumns = `id, name, slug, collection_id, owner, created_at, updated_at`

// scanIcon scans a sql.Row (or sql.Rows via its Scan method) into a domain.Icon.
func scanIcon(scanner interface{ Scan(dest ...any) error }) (*domain.Icon, error) {
	var i domain.Icon

	var (
		owner     sql.NullString
		createdAt string
		updatedAt string
	)

	err := scanner.Scan(
		&i.ID,
		&i.Name,
		&i.Slug,
		&i.CollectionID,
		&owner,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	i.Owner = owner.String
	i.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	i.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, err
	}

	return &i, nil
}

// GetIconByID retrieves an icon by its ID.
// Returns errors.ErrNotFound if the icon does not exist.
func (s *Store) GetIconByID(ctx context.Context, iconID string) (*domain.Icon, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+iconColumns+` FROM icons WHERE id = ?`, iconID)

	i, err := scanIcon(row)
	if err == sql.ErrNoRows {
		return nil, errors.NotFoundf("icon %s not found", iconID)
	}
	if err != nil {
		return nil, err
	}
	return i, nil
}

// GetIconBySlugs retrieves an icon by its collection slug and icon slug pair.
// Returns errors.ErrNotFound if either slug does not resolve.
func (s *Store) GetIconBySlugs(ctx context.Context, collectionSlug, iconSlug string) (*domain.Icon, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT i.id, i.name, i.slug, i.collection_id, i.owner, i.created_at, i.updated_at
		FROM icons i
		JOIN collections c ON c.id = i.collection_id
		WHERE c.slug = ? AND i.slug = ?`,
		collectionSlug, iconSlug)

	i, err := scanIcon(row)
	if err == sql.ErrNoRows {
		return nil, errors.NotFoundf("icon %s/%s not found", collectionSlug, iconSlug)
	}
	if err != nil {
		return nil, err
	}
	return i, nil
}

// getIconByName retrieves an icon by its (name, collection) pair.
func (s *Store) getIconByName(ctx context.Context, name, collectionID string) (*domain.Icon, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+iconColumns+` FROM icons WHERE name = ? AND collection_id = ?`,
		name, collectionID)

	i, err := scanIcon(row)
	if err == sql.ErrNoRows {
		return nil, errors.NotFoundf("icon %q not found in collection %s", name, collectionID)
	}
	if err != nil {
		return nil, err
	}
	return i, nil
}

// FindOrCreateIcon finds an existing icon by (name, collection) or creates a
// new one with the given owner. The owner is only set at creation; an
// existing icon keeps its original owner. Returns (icon, created, error).
func (s *Store) FindOrCreateIcon(ctx context.Context, name, collectionID, owner string) (*domain.Icon, bool, error) {
	existing, err := s.getIconByName(ctx, name, collectionID)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, errors.ErrNotFound) {
		return nil, false, err
	}

	iconID, err := id.Generate("icon")
	if err != nil {
		return nil, false, fmt.Errorf("generate icon id: %w", err)
	}

	now := time.Now().UTC()
	i := &domain.Icon{
		ID:           iconID,
		Name:         name,
		CollectionID: collectionID,
		Owner:        owner,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	i.Normalize()

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO icons (id, name, slug, collection_id, owner, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		i.ID,
		i.Name,
		i.Slug,
		i.CollectionID,
		nullString(i.Owner),
		formatTime(i.CreatedAt),
		formatTime(i.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			// Race: the (name, collection) constraint fired; reuse the winner.
			existing, err := s.getIconByName(ctx, name, collectionID)
			if err != nil {
				return nil, false, err
			}
			return existing, false, nil
		}
		return nil, false, err
	}

	return i, true, nil
}

// ListIcons returns a page of icons matching the filter, ordered by name.
// The filter's Collection matches id, exact name, or slug; Tags matches
// icons carrying any of the given tag names.
func (s *Store) ListIcons(ctx context.Context, filter store.IconFilter, page store.PageParams) (*store.Page[*domain.Icon], error) {
	page.Normalize()

	var (
		conds []string
		args  []any
	)

	if filter.Collection != "" {
		conds = append(conds, `i.collection_id IN (
			SELECT id FROM collections WHERE id = ? OR name = ? OR slug = ?)`)
		args = append(args, filter.Collection, filter.Collection, filter.Collection)
	}
	if len(filter.Tags) > 0 {
		placeholders := strings.Repeat("?,", len(filter.Tags))
		placeholders = placeholders[:len(placeholders)-1]
		conds = append(conds, fmt.Sprintf(`i.id IN (
			SELECT it.icon_id FROM icon_tags it
			JOIN tags t ON t.id = it.tag_id
			WHERE t.name IN (%s))`, placeholders))
		for _, tag := range filter.Tags {
			args = append(args, tag)
		}
	}

	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var count int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM icons i`+where, args...).Scan(&count); err != nil {
		return nil, err
	}

	query := `SELECT i.id, i.name, i.slug, i.collection_id, i.owner, i.created_at, i.updated_at
		FROM icons i` + where + ` ORDER BY i.name ASC LIMIT ? OFFSET ?`

	rows, err := s.db.QueryContext(ctx, query, append(args, page.Size, page.Offset())...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var icons []*domain.Icon
	for rows.Next() {
		i, err := scanIcon(rows)
		if err != nil {
			return nil, err
		}
		icons = append(icons, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if icons == nil {
		icons = []*domain.Icon{}
	}
	return store.NewPage(icons, page, count), nil
}
