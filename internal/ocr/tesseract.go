package ocr

import (
	"bytes"
	"fmt"
	"image"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/otiai10/gosseract/v2"
)

// DigitWhitelist is the character set allowed in ModeDigits.
const DigitWhitelist = "0123456789.-+"

// TesseractOptions configures a TesseractReader.
type TesseractOptions struct {
	// Language is the Tesseract language code, e.g. "eng".
	Language string

	// TessdataPrefix overrides the directory holding *.traineddata files.
	TessdataPrefix string

	// SkipPreprocess sends cells to Tesseract exactly as given.
	SkipPreprocess bool
}

// TesseractReader implements Reader with gosseract. A fresh client is created
// per call, so a reader is safe for concurrent use.
type TesseractReader struct {
	opts TesseractOptions
}

// NewTesseractReader creates a reader; an empty language defaults to "eng".
func NewTesseractReader(opts TesseractOptions) *TesseractReader {
	if opts.Language == "" {
		opts.Language = "eng"
	}
	return &TesseractReader{opts: opts}
}

// Version reports the linked Tesseract version.
func (r *TesseractReader) Version() string {
	client := gosseract.NewClient()
	defer client.Close()
	return client.Version()
}

// Read recognises the words in img.
//
// Word-level tokens come from Tesseract's RIL_WORD iterator with confidence
// scaled to 0-1. If bounding boxes are unavailable, the full recognised text is
// returned as a single token with zero confidence. An image with no pixels
// yields no tokens.
func (r *TesseractReader) Read(img image.Image, mode Mode) ([]Token, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, nil
	}

	src := img
	if !r.opts.SkipPreprocess {
		src = Prepare(img)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, src, imaging.PNG); err != nil {
		return nil, fmt.Errorf("failed to encode cell image: %w", err)
	}

	client := gosseract.NewClient()
	defer client.Close()

	if r.opts.TessdataPrefix != "" {
		client.SetTessdataPrefix(r.opts.TessdataPrefix)
	}
	if err := client.SetLanguage(r.opts.Language); err != nil {
		return nil, fmt.Errorf("failed to set language: %w", err)
	}
	if err := configureMode(client, mode); err != nil {
		return nil, err
	}
	if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
		return nil, fmt.Errorf("failed to set image: %w", err)
	}

	boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err == nil {
		tokens := make([]Token, 0, len(boxes))
		for _, box := range boxes {
			word := strings.TrimSpace(box.Word)
			if word == "" {
				continue
			}
			tokens = append(tokens, Token{
				Text:       word,
				Confidence: float64(box.Confidence) / 100.0,
			})
		}
		return tokens, nil
	}

	// Return just text if boxes fail
	text, err := client.Text()
	if err != nil {
		return nil, fmt.Errorf("OCR failed: %w", err)
	}
	if text = strings.TrimSpace(text); text == "" {
		return nil, nil
	}
	return []Token{{Text: text}}, nil
}

func configureMode(client *gosseract.Client, mode Mode) error {
	switch mode {
	case ModeDigits:
		if err := client.SetWhitelist(DigitWhitelist); err != nil {
			return fmt.Errorf("failed to set whitelist: %w", err)
		}
		if err := client.SetPageSegMode(gosseract.PSM_SINGLE_LINE); err != nil {
			return fmt.Errorf("failed to set page segmentation mode: %w", err)
		}
	default:
		if err := client.SetPageSegMode(gosseract.PSM_AUTO); err != nil {
			return fmt.Errorf("failed to set page segmentation mode: %w", err)
		}
	}
	return nil
}
