package search

import (
	"strconv"

	"github.com/galleryapp/gallery-server/internal/domain"
)

// Document is the indexed form of an image.
type Document struct {
	ImageID    int64
	Title      string
	Tags       []string
	TagSlugs   []string
	UploadedAt int64 // Unix seconds
}

// NewDocument builds the document for img.
func NewDocument(img *domain.Image) *Document {
	doc := &Document{
		ImageID:    img.ID,
		Title:      img.Title,
		UploadedAt: img.UploadedAt.Unix(),
	}
	for _, t := range img.Tags {
		doc.Tags = append(doc.Tags, t.Name)
		doc.TagSlugs = append(doc.TagSlugs, t.Slug)
	}
	return doc
}

// Key is the Bleve document id.
func (d *Document) Key() string { return key(d.ImageID) }

// toMap keeps field names aligned with buildIndexMapping.
func (d *Document) toMap() map[string]any {
	return map[string]any{
		"title":       d.Title,
		"tags":        d.Tags,
		"tag_slugs":   d.TagSlugs,
		"uploaded_at": float64(d.UploadedAt),
	}
}

func key(imageID int64) string {
	return strconv.FormatInt(imageID, 10)
}
