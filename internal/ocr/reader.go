package ocr

import (
	"image"
	"strings"
)

// Mode selects how a cell is recognised.
type Mode int

const (
	// ModeDigits reads a single line of digits without layout detection.
	ModeDigits Mode = iota
	// ModeText reads free text with layout detection.
	ModeText
)

func (m Mode) String() string {
	if m == ModeText {
		return "text"
	}
	return "digits"
}

// ParseMode maps "digits" and "text" to a Mode. Anything else is ModeDigits.
func ParseMode(s string) Mode {
	if strings.EqualFold(strings.TrimSpace(s), "text") {
		return ModeText
	}
	return ModeDigits
}

// Token is one recognised word.
type Token struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

// Reader recognises the text in a cell image.
type Reader interface {
	Read(img image.Image, mode Mode) ([]Token, error)
}

// ReaderFunc adapts a function to the Reader interface.
type ReaderFunc func(img image.Image, mode Mode) ([]Token, error)

// Read calls f(img, mode).
func (f ReaderFunc) Read(img image.Image, mode Mode) ([]Token, error) {
	return f(img, mode)
}

// Join concatenates token texts. Digit tokens are joined without a separator so
// split digit groups stay one number; text tokens are joined with a space.
func Join(tokens []Token, mode Mode) string {
	sep := " "
	if mode == ModeDigits {
		sep = ""
	}
	parts := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if s := strings.TrimSpace(t.Text); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, sep)
}

// MeanConfidence averages token confidences; 0 for no tokens.
func MeanConfidence(tokens []Token) float64 {
	if len(tokens) == 0 {
		return 0
	}
	var sum float64
	for _, t := range tokens {
		sum += t.Confidence
	}
	return sum / float64(len(tokens))
}
