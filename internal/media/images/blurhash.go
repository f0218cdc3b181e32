package images

import (
	"fmt"
	"image"

	"github.com/bbrks/go-blurhash"
	"github.com/disintegration/imaging"
)

// blurHashSize is the target size for BlurHash computation.
// A 64px image gives nearly the same hash as the original in milliseconds.
const blurHashSize = 64

// ComputeBlurHash encodes a 4x3 component BlurHash for img.
func ComputeBlurHash(img image.Image) (string, error) {
	hash, err := blurhash.Encode(4, 3, resizeForBlurHash(img))
	if err != nil {
		return "", fmt.Errorf("encode blurhash: %w", err)
	}
	return hash, nil
}

func resizeForBlurHash(img image.Image) image.Image {
	b := img.Bounds()
	if b.Dx() <= blurHashSize && b.Dy() <= blurHashSize {
		return img
	}
	if b.Dx() > b.Dy() {
		return imaging.Resize(img, blurHashSize, 0, imaging.Box)
	}
	return imaging.Resize(img, 0, blurHashSize, imaging.Box)
}
