package domain

import "time"

// DefaultTagIcon is assigned to tags created without an icon.
const DefaultTagIcon = "fa-tag"

// MaxTagNameLength bounds Tag.Name.
const MaxTagNameLength = 50

// Tag is a named label attachable to many images.
// Slug is derived from Name once, when the tag is created, and is never
// recomputed afterwards; renaming a tag keeps its original slug.
type Tag struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	Icon      string    `json:"icon"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Touch updates the UpdatedAt timestamp.
func (t *Tag) Touch() {
	t.UpdatedAt = time.Now()
}

// ImageTag is a row of the image/tag association.
type ImageTag struct {
	ImageID   int64     `json:"image_id"`
	TagID     int64     `json:"tag_id"`
	CreatedAt time.Time `json:"created_at"`
}
