package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/iconcommons/iconcommons-server/internal/domain"
	"github.com/iconcommons/iconcommons-server/internal/errors"
)

// maxCommitAttempts bounds the retry loop when concurrent commits race on
// the (icon_id, version) unique constraint.
const maxCommitAttempts = 3

// LatestVersion returns the version record with the maximum version number
// for the icon. Returns errors.ErrNotFound if the icon has no versions.
func (s *Store) LatestVersion(ctx context.Context, iconID string) (*domain.IconVersion, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT icon_id, version, svg, change_log, created_at
		FROM icon_versions
		WHERE icon_id = ?
		ORDER BY version DESC
		LIMIT 1`, iconID)

	v, err := scanVersion(row)
	if err == sql.ErrNoRows {
		return nil, errors.NotFoundf("icon %s has no versions", iconID)
	}
	if err != nil {
		return nil, err
	}
	return v, nil
}

// VersionAt returns the exact version record for the icon.
// Returns errors.ErrNotFound if that version does not exist.
func (s *Store) VersionAt(ctx context.Context, iconID string, version int) (*domain.IconVersion, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT icon_id, version, svg, change_log, created_at
		FROM icon_versions
		WHERE icon_id = ? AND version = ?`, iconID, version)

	v, err := scanVersion(row)
	if err == sql.ErrNoRows {
		return nil, errors.NotFoundf("icon %s has no version %d", iconID, version)
	}
	if err != nil {
		return nil, err
	}
	return v, nil
}

// CommitNewVersion appends the next version of the icon's content.
//
// The read-latest-then-insert sequence runs inside a single transaction, and
// the PRIMARY KEY (icon_id, version) backstops any interleaving: when two
// commits race on the same icon, the loser's insert fails the constraint and
// is retried with the next number. After maxCommitAttempts the race surfaces
// as errors.ErrConflict. The icon's updated_at is touched in the same
// transaction.
func (s *Store) CommitNewVersion(ctx context.Context, iconID string, svg []byte, changeLog string) (*domain.IconVersion, error) {
	// Fail fast with NotFound rather than a foreign key violation.
	if _, err := s.GetIconByID(ctx, iconID); err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 0; attempt < maxCommitAttempts; attempt++ {
		v, err := s.tryCommitVersion(ctx, iconID, svg, changeLog)
		if err == nil {
			return v, nil
		}
		if !isUniqueViolation(err) {
			return nil, err
		}
		lastErr = err
	}
	return nil, errors.Conflictf("icon %s: version commit lost race after %d attempts", iconID, maxCommitAttempts).WithCause(lastErr)
}

// tryCommitVersion performs one transactional read-increment-write attempt.
func (s *Store) tryCommitVersion(ctx context.Context, iconID string, svg []byte, changeLog string) (*domain.IconVersion, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var latest int
	err = tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(version), 0) FROM icon_versions WHERE icon_id = ?`,
		iconID).Scan(&latest)
	if err != nil {
		return nil, fmt.Errorf("read latest version: %w", err)
	}

	now := time.Now().UTC()
	v := &domain.IconVersion{
		IconID:    iconID,
		Version:   latest + 1,
		SVG:       svg,
		ChangeLog: changeLog,
		CreatedAt: now,
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO icon_versions (icon_id, version, svg, change_log, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		v.IconID,
		v.Version,
		v.SVG,
		nullString(v.ChangeLog),
		formatTime(v.CreatedAt),
	)
	if err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE icons SET updated_at = ? WHERE id = ?`,
		formatTime(now), iconID)
	if err != nil {
		return nil, fmt.Errorf("touch icon: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return v, nil
}

// ListVersions returns all version records for an icon in ascending order.
// SVG content is omitted; use VersionAt or LatestVersion for content.
func (s *Store) ListVersions(ctx context.Context, iconID string) ([]*domain.IconVersion, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT icon_id, version, change_log, created_at
		FROM icon_versions
		WHERE icon_id = ?
		ORDER BY version ASC`, iconID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var versions []*domain.IconVersion
	for rows.Next() {
		var (
			v         domain.IconVersion
			changeLog sql.NullString
			createdAt string
		)
		if err := rows.Scan(&v.IconID, &v.Version, &changeLog, &createdAt); err != nil {
			return nil, err
		}
		v.ChangeLog = changeLog.String
		if v.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		versions = append(versions, &v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if versions == nil {
		versions = []*domain.IconVersion{}
	}
	return versions, nil
}

// scanVersion scans a full version row including content.
func scanVersion(scanner interface{ Scan(dest ...any) error }) (*domain.IconVersion, error) {
	var (
		v         domain.IconVersion
		changeLog sql.NullString
		createdAt string
	)

	err := scanner.Scan(&v.IconID, &v.Version, &v.SVG, &changeLog, &createdAt)
	if err != nil {
		return nil, err
	}

	v.ChangeLog = changeLog.String
	v.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
