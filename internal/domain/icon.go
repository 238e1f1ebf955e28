package domain

import (
	"time"

	"github.com/iconcommons/iconcommons-server/internal/util"
)

// Icon is a named asset within a collection with an ordered history of
// content versions. (name, collection) is unique. An icon is owned by zero
// or one user; the owner is an opaque reference set only at creation.
type Icon struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Slug         string    `json:"slug"`
	CollectionID string    `json:"collection_id"`
	Owner        string    `json:"owner,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Normalize recomputes the slug from the current name.
// Call before persisting.
func (i *Icon) Normalize() {
	i.Slug = util.Slugify(i.Name)
}

// IconVersion is one immutable, numbered snapshot of an icon's SVG content.
// Versions for an icon start at 1 and increment by exactly 1 per accepted
// upload; numbers are never reused or skipped. There is no update or delete
// path once a version is written.
type IconVersion struct {
	IconID    string    `json:"icon_id"`
	Version   int       `json:"version"`
	SVG       []byte    `json:"-"`
	ChangeLog string    `json:"changelog,omitempty"`
	CreatedAt time.Time `json:"modified"`
}
