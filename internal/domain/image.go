// Package domain contains the gallery's core entities.
package domain

import "time"

// MaxTitleLength bounds Image.Title.
const MaxTitleLength = 100

// TrendingWindow is how far back the "trending" listing looks.
const TrendingWindow = 7 * 24 * time.Hour

// Image is an uploaded picture. The bytes live in the media store; PublicID
// is the only handle the gallery keeps on them.
type Image struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	PublicID    string    `json:"public_id"`
	UploadedAt  time.Time `json:"uploaded_at"` // Bumped on every metadata update
	Width       int       `json:"width,omitempty"`
	Height      int       `json:"height,omitempty"`
	BlurHash    string    `json:"blurhash,omitempty"`
	ThumbnailID string    `json:"thumbnail_id,omitempty"`
	Tags        []*Tag    `json:"tags"`
}

// Touch updates UploadedAt, mirroring an auto-now timestamp.
func (i *Image) Touch() {
	i.UploadedAt = time.Now()
}

// HasTag reports whether the image carries the tag with the given ID.
func (i *Image) HasTag(tagID int64) bool {
	for _, t := range i.Tags {
		if t.ID == tagID {
			return true
		}
	}
	return false
}

// TagIDs returns the IDs of the image's tags.
func (i *Image) TagIDs() []int64 {
	ids := make([]int64, len(i.Tags))
	for n, t := range i.Tags {
		ids[n] = t.ID
	}
	return ids
}

// IsTrending reports whether the image falls inside the trending window ending at now.
func (i *Image) IsTrending(now time.Time) bool {
	return !i.UploadedAt.Before(now.Add(-TrendingWindow))
}
