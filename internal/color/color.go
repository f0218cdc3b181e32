// Package color derives stable display colors from names, used for user
// badges and tag chips.
package color

import (
	"fmt"
	"hash/fnv"
	"math"
	"strings"
)

const (
	saturation = 0.45
	lightness  = 0.62
)

// ForName returns a "#RRGGBB" color for name. Matching ignores case, so a
// tag keeps its color across renames that only change capitalisation.
func ForName(name string) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(strings.ToLower(strings.TrimSpace(name))))
	hue := float64(h.Sum32() % 360)

	r, g, b := hsl(hue, saturation, lightness)
	return fmt.Sprintf("#%02X%02X%02X", r, g, b)
}

// hsl converts hue in degrees and saturation/lightness in [0,1] to RGB.
func hsl(hue, s, l float64) (r, g, b uint8) {
	c := (1 - math.Abs(2*l-1)) * s
	x := c * (1 - math.Abs(math.Mod(hue/60, 2)-1))
	m := l - c/2

	var r1, g1, b1 float64
	switch {
	case hue < 60:
		r1, g1 = c, x
	case hue < 120:
		r1, g1 = x, c
	case hue < 180:
		g1, b1 = c, x
	case hue < 240:
		g1, b1 = x, c
	case hue < 300:
		r1, b1 = x, c
	default:
		r1, b1 = c, x
	}

	return channel(r1 + m), channel(g1 + m), channel(b1 + m)
}

func channel(v float64) uint8 {
	return uint8(math.Round(v * 255))
}
