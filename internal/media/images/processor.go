// Package images derives presentation metadata from uploaded images:
// dimensions, a BlurHash placeholder and a JPEG thumbnail.
package images

import (
	"bytes"
	"context"
	"fmt"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder
	"log/slog"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp" // Register WebP decoder
)

// Default thumbnail box. Thumbnails are cropped to fill it.
const (
	DefaultThumbnailWidth  = 400
	DefaultThumbnailHeight = 300
	thumbnailQuality       = 82
)

// Result is the metadata derived from one image.
type Result struct {
	Width     int
	Height    int
	BlurHash  string
	Thumbnail []byte // JPEG
}

// Processor computes Result for uploaded image bytes.
type Processor struct {
	thumbWidth  int
	thumbHeight int
	logger      *slog.Logger
}

// NewProcessor creates a Processor producing thumbnails of width x height.
func NewProcessor(width, height int, logger *slog.Logger) *Processor {
	if width <= 0 {
		width = DefaultThumbnailWidth
	}
	if height <= 0 {
		height = DefaultThumbnailHeight
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Processor{thumbWidth: width, thumbHeight: height, logger: logger}
}

// Process decodes data and derives its metadata. EXIF orientation is applied
// before measuring. A BlurHash failure is logged and leaves BlurHash empty.
func (p *Processor) Process(ctx context.Context, data []byte) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	bounds := img.Bounds()
	res := &Result{Width: bounds.Dx(), Height: bounds.Dy()}

	thumb := imaging.Thumbnail(img, p.thumbWidth, p.thumbHeight, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, imaging.JPEG, imaging.JPEGQuality(thumbnailQuality)); err != nil {
		return nil, fmt.Errorf("encode thumbnail: %w", err)
	}
	res.Thumbnail = buf.Bytes()

	if hash, err := ComputeBlurHash(thumb); err != nil {
		p.logger.Warn("blurhash failed", "error", err)
	} else {
		res.BlurHash = hash
	}

	p.logger.Debug("processed image",
		"width", res.Width,
		"height", res.Height,
		"thumbnail_bytes", len(res.Thumbnail),
	)
	return res, nil
}
