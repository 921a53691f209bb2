package ocr

import (
	"image"

	"github.com/disintegration/imaging"
)

// minCellHeight is the height small cells are upscaled to before recognition.
// Tesseract loses accuracy on glyphs much below ~30px.
const minCellHeight = 48

// Prepare converts a cell to high-contrast grayscale and upscales short cells.
func Prepare(img image.Image) *image.NRGBA {
	gray := imaging.Grayscale(img)
	gray = imaging.AdjustContrast(gray, 20)
	if h := gray.Bounds().Dy(); h > 0 && h < minCellHeight {
		gray = imaging.Resize(gray, 0, minCellHeight, imaging.Lanczos)
	}
	gray = imaging.Sharpen(gray, 0.7)
	// Pad with white so glyphs touching the cell border are still segmented.
	return imaging.PasteCenter(
		imaging.New(gray.Bounds().Dx()+16, gray.Bounds().Dy()+16, image.White.C),
		gray,
	)
}
