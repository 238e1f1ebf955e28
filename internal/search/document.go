// Package search provides full-text icon search using Bleve. Icons are
// indexed by name together with their collection and tags so clients can
// combine a free-text query with exact collection and tag filters.
package search

import (
	"github.com/iconcommons/iconcommons-server/internal/domain"
)

// IconDocument is the document structure for the Bleve index. Collection
// and tag names are denormalized into each icon document so a single query
// can filter on them without touching the store.
type IconDocument struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Slug       string   `json:"slug"`
	Collection string   `json:"collection"` // collection slug, exact match
	Tags       []string `json:"tags,omitempty"`

	// Timestamps for sorting. Unix millis.
	CreatedAt int64 `json:"created_at"`
	UpdatedAt int64 `json:"updated_at"`
}

// ToMap converts the document to a map with lowercase field names.
// Bleve by default uses Go struct field names (capitalized), but the
// mapping uses lowercase names, so we convert explicitly.
func (d *IconDocument) ToMap() map[string]interface{} {
	m := map[string]interface{}{
		"id":         d.ID,
		"name":       d.Name,
		"slug":       d.Slug,
		"collection": d.Collection,
		"created_at": d.CreatedAt,
		"updated_at": d.UpdatedAt,
	}
	if len(d.Tags) > 0 {
		m["tags"] = d.Tags
	}
	return m
}

// IconToDocument converts a domain Icon to an IconDocument. The collection
// slug and tag names are denormalized fields the caller resolves, since the
// search package shouldn't depend on store.
func IconToDocument(icon *domain.Icon, collectionSlug string, tags []string) *IconDocument {
	return &IconDocument{
		ID:         icon.ID,
		Name:       icon.Name,
		Slug:       icon.Slug,
		Collection: collectionSlug,
		Tags:       tags,
		CreatedAt:  icon.CreatedAt.UnixMilli(),
		UpdatedAt:  icon.UpdatedAt.UnixMilli(),
	}
}
