package table

import (
	"strings"
)

// Reading is the raw OCR text captured for one grid cell.
type Reading struct {
	Row  int    `json:"row"`
	Col  int    `json:"col"`
	Text string `json:"text"`

	// Character marks a cell that must be kept as free text regardless of the
	// layout's column classes.
	Character bool `json:"is_character_cell"`
}

// Digits returns the ASCII digits of s in order, dropping everything else.
func Digits(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
}

// ReconstructNumeric restores a fixed-point value from OCR text that lost its
// decimal point and sign. The digits are read as an integer count of
// 10^-precision units: "1234" with precision 2 is "12.34" and "5" is "0.05".
// Text with no digits yields "".
func ReconstructNumeric(raw string, precision int) string {
	all := Digits(raw)
	if all == "" {
		return ""
	}
	digits := strings.TrimLeft(all, "0")
	if precision <= 0 {
		if digits == "" {
			return "0"
		}
		return digits
	}
	if n := precision + 1; len(digits) < n {
		digits = strings.Repeat("0", n-len(digits)) + digits
	}
	cut := len(digits) - precision
	return digits[:cut] + "." + digits[cut:]
}

// ReconstructPercent reads the digits of raw as a whole number: "87%" is "87".
// Text with no digits yields "".
func ReconstructPercent(raw string) string {
	return ReconstructNumeric(raw, 0)
}

// ReconstructText trims surrounding whitespace and keeps every other character.
func ReconstructText(raw string) string {
	return strings.TrimSpace(raw)
}

// Reconstruct builds the canonical table for layout from the given readings.
// Cells without a reading reconstruct to "". Readings outside the layout, on
// spacer rows, or in the title column are ignored; for repeated cells the last
// reading wins. Signs are corrected on every row except spacer and free-text
// rows. The result depends only on its inputs.
func Reconstruct(layout *Layout, readings []Reading) *Table {
	rows, cols := layout.NumRows(), layout.NumCols()

	grid := make([][]string, rows)
	for i := range grid {
		grid[i] = make([]string, cols)
	}

	for _, r := range readings {
		if r.Row < 0 || r.Row >= rows || r.Col < 0 || r.Col >= cols {
			continue
		}
		kind := layout.Kind(r.Row, r.Col)
		if r.Character && kind != KindTitle && kind != KindSpacer {
			kind = KindText
		}
		grid[r.Row][r.Col] = reconstructCell(kind, r.Text, layout.DecimalPrecision)
	}

	t := &Table{
		Header:  titleHeader(layout),
		Columns: make([]string, 0, cols),
		Rows:    make([]Row, rows),
	}
	dataCols := layout.DataColumns()
	for _, j := range dataCols {
		t.Columns = append(t.Columns, layout.ColumnTitles[j])
	}

	for i := 0; i < rows; i++ {
		values := grid[i]
		if !layout.IsSpacer(i) && !contains(layout.TextRows, i) {
			values = CorrectSigns(layout.Roles, values)
		}
		row := Row{Label: layout.RowTitles[i], Values: make([]string, len(dataCols))}
		for k, j := range dataCols {
			row.Values[k] = values[j]
		}
		t.Rows[i] = row
	}
	return t
}

func reconstructCell(kind CellKind, raw string, precision int) string {
	switch kind {
	case KindNumeric:
		return ReconstructNumeric(raw, precision)
	case KindPercent:
		return ReconstructPercent(raw)
	case KindText:
		return ReconstructText(raw)
	default:
		return ""
	}
}

func titleHeader(layout *Layout) string {
	if layout.TitleColumn < 0 {
		return ""
	}
	return layout.ColumnTitles[layout.TitleColumn]
}
