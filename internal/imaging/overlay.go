package imaging

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// DefaultLineColor is used when OverlayOptions.LineColor is empty or invalid.
const DefaultLineColor = "#FF0000"

// OverlayOptions controls how boundaries are painted onto a preview image.
type OverlayOptions struct {
	// LineColor is "#RRGGBB" or "#RRGGBBAA".
	LineColor string
	// Thickness of each line in pixels. Values below 1 are treated as 1.
	Thickness int
	// Labels draws row indices down the left edge and column indices
	// along the top edge.
	Labels bool
}

// GridOverlay paints the row and column boundaries of a proportional grid
// onto a copy of img.
//
// rows and cols are cumulative fractions in [0, 1], the same values used to
// segment the table, so the preview shows exactly where cells will be cut.
// Each boundary is placed at int(f * dimension).
func GridOverlay(img image.Image, rows, cols []float64, opts OverlayOptions) *image.RGBA {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	result := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(result, result.Bounds(), img, bounds.Min, draw.Src)

	lineColor := resolveColor(opts.LineColor)
	thickness := opts.Thickness
	if thickness < 1 {
		thickness = 1
	}

	layer := image.NewNRGBA(result.Bounds())
	for _, f := range cols {
		x := int(f * float64(width))
		fillRect(layer, image.Rect(x, 0, x+thickness, height), lineColor)
	}
	for _, f := range rows {
		y := int(f * float64(height))
		fillRect(layer, image.Rect(0, y, width, y+thickness), lineColor)
	}
	draw.Draw(result, result.Bounds(), layer, image.Point{}, draw.Over)

	if opts.Labels {
		fg := color.RGBA{255, 255, 255, 255}
		bg := color.RGBA{0, 0, 0, 180}
		for i := 0; i+1 < len(rows); i++ {
			y := int(rows[i] * float64(height))
			drawLabel(result, 2, y+2, fmt.Sprintf("R%d", i), fg, bg)
		}
		for j := 0; j+1 < len(cols); j++ {
			x := int(cols[j] * float64(width))
			drawLabel(result, x+2, 2, fmt.Sprintf("C%d", j), fg, bg)
		}
	}

	return result
}

// BoxOverlay outlines rect on a copy of img. rect is in img's coordinates.
func BoxOverlay(img image.Image, rect image.Rectangle, hex string, thickness int) *image.RGBA {
	bounds := img.Bounds()
	result := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(result, result.Bounds(), img, bounds.Min, draw.Src)

	if thickness < 1 {
		thickness = 1
	}
	c := resolveColor(hex)
	r := rect.Sub(bounds.Min)

	layer := image.NewNRGBA(result.Bounds())
	fillRect(layer, image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+thickness), c)
	fillRect(layer, image.Rect(r.Min.X, r.Max.Y-thickness, r.Max.X, r.Max.Y), c)
	fillRect(layer, image.Rect(r.Min.X, r.Min.Y, r.Min.X+thickness, r.Max.Y), c)
	fillRect(layer, image.Rect(r.Max.X-thickness, r.Min.Y, r.Max.X, r.Max.Y), c)
	draw.Draw(result, result.Bounds(), layer, image.Point{}, draw.Over)

	return result
}

func resolveColor(hex string) color.NRGBA {
	c, err := parseHexColor(hex)
	if err != nil {
		c, _ = parseHexColor(DefaultLineColor)
	}
	return c
}

func fillRect(dst *image.NRGBA, r image.Rectangle, c color.NRGBA) {
	r = r.Intersect(dst.Bounds())
	if r.Empty() {
		return
	}
	draw.Draw(dst, r, image.NewUniform(c), image.Point{}, draw.Src)
}

// parseHexColor parses a hex color string like "#FF0000" or "#FF000080".
func parseHexColor(hex string) (color.NRGBA, error) {
	if hex == "" {
		return color.NRGBA{}, fmt.Errorf("empty color string")
	}
	if !strings.HasPrefix(hex, "#") {
		hex = "#" + hex
	}

	alpha := uint8(255)
	switch len(hex) {
	case 7:
	case 9:
		a, err := strconv.ParseUint(hex[7:], 16, 8)
		if err != nil {
			return color.NRGBA{}, fmt.Errorf("invalid alpha in %q: %w", hex, err)
		}
		alpha = uint8(a)
		hex = hex[:7]
	default:
		return color.NRGBA{}, fmt.Errorf("invalid hex color length")
	}

	c, err := colorful.Hex(hex)
	if err != nil {
		return color.NRGBA{}, err
	}
	r, g, b := c.RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: alpha}, nil
}

// drawLabel draws text on a filled background box with its top-left at (x, y).
func drawLabel(img *image.RGBA, x, y int, text string, fg, bg color.RGBA) {
	if text == "" {
		return
	}
	face := basicfont.Face7x13
	w := font.MeasureString(face, text).Ceil()
	h := face.Height

	box := image.Rect(x-1, y-1, x+w+1, y+h+1).Intersect(img.Bounds())
	if box.Empty() {
		return
	}
	draw.Draw(img, box, image.NewUniform(bg), image.Point{}, draw.Over)

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(fg),
		Face: face,
		Dot:  fixed.P(x, y+face.Ascent),
	}
	d.DrawString(text)
}
