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

// collectionColumns is the ordered list of columns selected in collection
// queries. Must match the scan order in scanCollection.
const collectionColumns = `id, name, slug, description, created_at, updated_at`

// scanCollection scans a sql.Row (or sql.Rows via its Scan method) into a
// domain.Collection.
func scanCollection(scanner interface{ Scan(dest ...any) error }) (*domain.Collection, error) {
	var c domain.Collection

	var (
		description sql.NullString
		createdAt   string
		updatedAt   string
	)

	err := scanner.Scan(
		&c.ID,
		&c.Name,
		&c.Slug,
		&description,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	c.Description = description.String
	c.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	c.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, err
	}

	return &c, nil
}

// createCollection inserts a new collection row.
func (s *Store) createCollection(ctx context.Context, c *domain.Collection) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO collections (id, name, slug, description, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		c.ID,
		c.Name,
		c.Slug,
		nullString(c.Description),
		formatTime(c.CreatedAt),
		formatTime(c.UpdatedAt),
	)
	return err
}

// GetCollectionByID retrieves a collection by its ID.
// Returns errors.ErrNotFound if the collection does not exist.
func (s *Store) GetCollectionByID(ctx context.Context, collectionID string) (*domain.Collection, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+collectionColumns+` FROM collections WHERE id = ?`, collectionID)

	c, err := scanCollection(row)
	if err == sql.ErrNoRows {
		return nil, errors.NotFoundf("collection %s not found", collectionID)
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

// GetCollection resolves ref as a collection id, exact name, or slug, in
// that order of preference. Ties fall to the oldest row.
// Returns errors.ErrNotFound when nothing matches.
func (s *Store) GetCollection(ctx context.Context, ref string) (*domain.Collection, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+collectionColumns+` FROM collections
		WHERE id = ? OR name = ? OR slug = ?
		ORDER BY (id = ?) DESC, created_at ASC
		LIMIT 1`,
		ref, ref, ref, ref)

	c, err := scanCollection(row)
	if err == sql.ErrNoRows {
		return nil, errors.NotFoundf("collection %q not found", ref)
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

// getCollectionByName retrieves a collection by exact name.
func (s *Store) getCollectionByName(ctx context.Context, name string) (*domain.Collection, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+collectionColumns+` FROM collections WHERE name = ?`, name)

	c, err := scanCollection(row)
	if err == sql.ErrNoRows {
		return nil, errors.NotFoundf("collection %q not found", name)
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

// FindOrCreateCollectionByName finds an existing collection by exact name or
// creates a new one. Returns (collection, created, error).
//
// Concurrent callers with the same name may both attempt the insert; the
// loser re-reads and reuses the winner's row rather than failing.
func (s *Store) FindOrCreateCollectionByName(ctx context.Context, name string) (*domain.Collection, bool, error) {
	existing, err := s.getCollectionByName(ctx, name)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, errors.ErrNotFound) {
		return nil, false, err
	}

	colID, err := id.Generate("col")
	if err != nil {
		return nil, false, fmt.Errorf("generate collection id: %w", err)
	}

	now := time.Now().UTC()
	c := &domain.Collection{
		ID:        colID,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	c.Normalize()

	if err := s.createCollection(ctx, c); err != nil {
		if isUniqueViolation(err) {
			// Race: another caller created it between our read and insert.
			existing, err := s.getCollectionByName(ctx, name)
			if err != nil {
				return nil, false, err
			}
			return existing, false, nil
		}
		return nil, false, err
	}

	return c, true, nil
}

// ListCollections returns all collections with their icon counts, ordered by name.
func (s *Store) ListCollections(ctx context.Context) ([]*domain.CollectionSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.id, c.name, c.slug, c.description, c.created_at, c.updated_at,
		       COUNT(i.id)
		FROM collections c
		LEFT JOIN icons i ON i.collection_id = c.id
		GROUP BY c.id
		ORDER BY c.name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var collections []*domain.CollectionSummary
	for rows.Next() {
		var (
			cs          domain.CollectionSummary
			description sql.NullString
			createdAt   string
			updatedAt   string
		)
		err := rows.Scan(
			&cs.ID,
			&cs.Name,
			&cs.Slug,
			&description,
			&createdAt,
			&updatedAt,
			&cs.IconCount,
		)
		if err != nil {
			return nil, err
		}
		cs.Description = description.String
		if cs.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		if cs.UpdatedAt, err = parseTime(updatedAt); err != nil {
			return nil, err
		}
		collections = append(collections, &cs)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if collections == nil {
		collections = []*domain.CollectionSummary{}
	}
	return collections, nil
}
