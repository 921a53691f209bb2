package ocr

import (
	"errors"
	"image"
	"image/color"
	"image/draw"
	"strings"
	"testing"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// drawText draws text on an image using basicfont
func drawText(img *image.RGBA, x, y int, text string, col color.Color) {
	point := fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)}
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(col),
		Face: basicfont.Face7x13,
		Dot:  point,
	}
	d.DrawString(text)
}

// createCellImage renders text the way a table cell looks: dark glyphs on white,
// scaled up by an integer factor.
func createCellImage(text string, scale int) *image.RGBA {
	width := len(text)*7 + 20
	height := 24

	small := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(small, small.Bounds(), image.White, image.Point{}, draw.Src)
	drawText(small, 10, 17, text, color.Black)

	img := image.NewRGBA(image.Rect(0, 0, width*scale, height*scale))
	for y := 0; y < height*scale; y++ {
		for x := 0; x < width*scale; x++ {
			img.Set(x, y, small.At(x/scale, y/scale))
		}
	}
	return img
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in   string
		want Mode
	}{
		{"text", ModeText},
		{" TEXT ", ModeText},
		{"digits", ModeDigits},
		{"", ModeDigits},
		{"other", ModeDigits},
	}
	for _, tt := range tests {
		if got := ParseMode(tt.in); got != tt.want {
			t.Errorf("ParseMode(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
	if ModeText.String() != "text" || ModeDigits.String() != "digits" {
		t.Error("Unexpected Mode.String values")
	}
}

func TestJoin(t *testing.T) {
	tokens := []Token{{Text: "12"}, {Text: " "}, {Text: "34"}}

	if got := Join(tokens, ModeDigits); got != "1234" {
		t.Errorf("Join(digits) = %q, want 1234", got)
	}
	if got := Join(tokens, ModeText); got != "12 34" {
		t.Errorf("Join(text) = %q, want '12 34'", got)
	}
	if got := Join(nil, ModeText); got != "" {
		t.Errorf("Join(nil) = %q, want empty", got)
	}
}

func TestMeanConfidence(t *testing.T) {
	if got := MeanConfidence(nil); got != 0 {
		t.Errorf("Expected 0 for no tokens, got %g", got)
	}
	got := MeanConfidence([]Token{{Confidence: 0.5}, {Confidence: 1.0}})
	if got != 0.75 {
		t.Errorf("Expected 0.75, got %g", got)
	}
}

func TestReaderFunc(t *testing.T) {
	var gotMode Mode
	r := ReaderFunc(func(img image.Image, mode Mode) ([]Token, error) {
		gotMode = mode
		return []Token{{Text: "42", Confidence: 0.9}}, nil
	})

	var reader Reader = r
	tokens, err := reader.Read(createCellImage("42", 1), ModeText)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if gotMode != ModeText {
		t.Errorf("Expected mode to be passed through, got %v", gotMode)
	}
	if len(tokens) != 1 || tokens[0].Text != "42" {
		t.Errorf("Unexpected tokens %v", tokens)
	}

	failing := ReaderFunc(func(image.Image, Mode) ([]Token, error) {
		return nil, errors.New("engine down")
	})
	if _, err := failing.Read(nil, ModeDigits); err == nil {
		t.Error("Expected error to propagate")
	}
}

func TestPrepare(t *testing.T) {
	cell := createCellImage("1.50", 1)

	out := Prepare(cell)

	b := out.Bounds()
	if b.Dy() != minCellHeight+16 {
		t.Errorf("Expected short cell upscaled to %d plus padding, got height %d", minCellHeight, b.Dy())
	}
	if b.Dx() <= cell.Bounds().Dx() {
		t.Errorf("Expected width to grow with upscale, got %d", b.Dx())
	}
	c := out.NRGBAAt(0, 0)
	if c.R != 255 || c.G != 255 || c.B != 255 {
		t.Errorf("Expected white padding, got %v", c)
	}
	for y := 0; y < b.Dy(); y += 7 {
		for x := 0; x < b.Dx(); x += 7 {
			p := out.NRGBAAt(x, y)
			if p.R != p.G || p.G != p.B {
				t.Fatalf("Expected grayscale output, got %v at (%d,%d)", p, x, y)
			}
		}
	}
}

func TestPrepare_TallCellKeepsHeight(t *testing.T) {
	cell := createCellImage("87", 3)

	out := Prepare(cell)

	if out.Bounds().Dy() != cell.Bounds().Dy()+16 {
		t.Errorf("Expected height %d, got %d", cell.Bounds().Dy()+16, out.Bounds().Dy())
	}
}

func TestTesseractReader_EmptyImage(t *testing.T) {
	r := NewTesseractReader(TesseractOptions{})

	tokens, err := r.Read(image.NewRGBA(image.Rectangle{}), ModeDigits)
	if err != nil {
		t.Fatalf("Expected no error for empty image, got %v", err)
	}
	if len(tokens) != 0 {
		t.Errorf("Expected no tokens, got %v", tokens)
	}
	if r.opts.Language != "eng" {
		t.Errorf("Expected default language eng, got %q", r.opts.Language)
	}
}

func TestTesseractReader_Digits(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping Tesseract test in short mode")
	}

	r := NewTesseractReader(TesseractOptions{Language: "eng"})
	tokens, err := r.Read(createCellImage("1234", 4), ModeDigits)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "tesseract") {
			t.Skip("Tesseract not available")
		}
		t.Fatalf("Read failed: %v", err)
	}

	text := Join(tokens, ModeDigits)
	t.Logf("Digits extracted: %q (confidence %.2f)", text, MeanConfidence(tokens))
	for _, tok := range tokens {
		if tok.Confidence < 0 || tok.Confidence > 1 {
			t.Errorf("Confidence %g outside [0, 1]", tok.Confidence)
		}
	}
}

func TestTesseractReader_Text(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping Tesseract test in short mode")
	}

	r := NewTesseractReader(TesseractOptions{})
	tokens, err := r.Read(createCellImage("AA", 4), ModeText)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "tesseract") {
			t.Skip("Tesseract not available")
		}
		t.Fatalf("Read failed: %v", err)
	}

	t.Logf("Text extracted: %q", Join(tokens, ModeText))
}
