// Package domain contains the core entities of the icon repository.
package domain

import (
	"time"

	"github.com/iconcommons/iconcommons-server/internal/util"
)

// Collection is a named grouping of icons (an icon set).
// The slug is derived from the name and recomputed on every save; the name
// is unique and resolve-or-create during ingestion matches on it exactly.
type Collection struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Normalize recomputes the slug from the current name.
// Call before persisting.
func (c *Collection) Normalize() {
	c.Slug = util.Slugify(c.Name)
}

// CollectionSummary is a collection with its icon count, as returned by
// the collection listing.
type CollectionSummary struct {
	Collection
	IconCount int `json:"icons"`
}
