package imaging

import (
	"image"

	"github.com/lucasb-eyer/go-colorful"
)

// Defaults for blank-cell detection.
const (
	// DefaultInkTolerance is the CIE Lab distance from the background beyond
	// which a pixel counts as ink. Anti-aliased edges of light gridlines stay
	// under it; glyph strokes do not.
	DefaultInkTolerance = 0.15

	// DefaultMinInk is the smallest ink ratio a cell needs to be sent to OCR.
	DefaultMinInk = 0.002
)

// InkStats describes how much foreground a cell image carries.
type InkStats struct {
	Background string  `json:"background"` // Dominant color as "#rrggbb"
	InkRatio   float64 `json:"ink_ratio"`  // Fraction of pixels away from the background
	Pixels     int     `json:"pixels"`
}

type bucket struct {
	count   int
	r, g, b int
}

// MeasureInk finds the dominant background color of img and the fraction of
// pixels that differ from it by more than tolerance in Lab space.
//
// The background is chosen from a histogram quantized to 16 levels per
// channel, then refined to the mean of the pixels falling in that bucket.
// Fully transparent pixels count as background.
func MeasureInk(img image.Image, tolerance float64) InkStats {
	bounds := img.Bounds()
	total := bounds.Dx() * bounds.Dy()
	if total <= 0 {
		return InkStats{Background: "#ffffff"}
	}

	buckets := make(map[uint32]*bucket)
	var best *bucket
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			r8, g8, b8 := int(r>>8), int(g>>8), int(b>>8)
			key := uint32(r8/16)<<8 | uint32(g8/16)<<4 | uint32(b8/16)
			bk, ok := buckets[key]
			if !ok {
				bk = &bucket{}
				buckets[key] = bk
			}
			bk.count++
			bk.r += r8
			bk.g += g8
			bk.b += b8
			if best == nil || bk.count > best.count {
				best = bk
			}
		}
	}

	bg := colorful.Color{
		R: float64(best.r) / float64(best.count) / 255.0,
		G: float64(best.g) / float64(best.count) / 255.0,
		B: float64(best.b) / float64(best.count) / 255.0,
	}

	ink := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			c, ok := colorful.MakeColor(img.At(x, y))
			if !ok {
				continue
			}
			if c.DistanceLab(bg) > tolerance {
				ink++
			}
		}
	}

	return InkStats{
		Background: bg.Clamped().Hex(),
		InkRatio:   float64(ink) / float64(total),
		Pixels:     total,
	}
}

// IsBlank reports whether img carries less than minInk ink. Empty images are
// blank.
func IsBlank(img image.Image, tolerance, minInk float64) bool {
	if img == nil || img.Bounds().Empty() {
		return true
	}
	return MeasureInk(img, tolerance).InkRatio < minInk
}
