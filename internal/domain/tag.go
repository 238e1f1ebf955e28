package domain

import "time"

// Tag is a label shared across icons, used for classification and search.
// Tag identity is the exact, case-sensitive name; many-to-many with Icon.
type Tag struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}
