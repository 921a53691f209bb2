package table

import (
	"encoding/csv"
	"fmt"
	"io"
)

// Row is one labelled table row. Values align with Table.Columns.
type Row struct {
	Label  string   `json:"label"`
	Values []string `json:"values"`
}

// Table is a reconstructed measurement table. Spacer rows are present with
// empty values so the row order matches the source image.
type Table struct {
	// Header labels the row-label column, e.g. "var".
	Header  string   `json:"header"`
	Columns []string `json:"columns"`
	Rows    []Row    `json:"rows"`
}

func (t *Table) columnIndex(col string) int {
	key := NormalizeLabel(col)
	for i, c := range t.Columns {
		if NormalizeLabel(c) == key {
			return i
		}
	}
	return -1
}

// Get returns the value at the first row labelled row and the column labelled
// col. Labels compare case-insensitively ignoring spaces and underscores. The
// boolean is false when either label is missing.
func (t *Table) Get(row, col string) (string, bool) {
	j := t.columnIndex(col)
	if j < 0 {
		return "", false
	}
	key := NormalizeLabel(row)
	for _, r := range t.Rows {
		if NormalizeLabel(r.Label) == key {
			if j >= len(r.Values) {
				return "", false
			}
			return r.Values[j], true
		}
	}
	return "", false
}

// HasRow reports whether a row with the given label exists.
func (t *Table) HasRow(row string) bool {
	key := NormalizeLabel(row)
	for _, r := range t.Rows {
		if NormalizeLabel(r.Label) == key {
			return true
		}
	}
	return false
}

// Map returns the table as row label -> column label -> value. Where labels
// repeat, the first row wins.
func (t *Table) Map() map[string]map[string]string {
	out := make(map[string]map[string]string, len(t.Rows))
	for _, r := range t.Rows {
		if _, seen := out[r.Label]; seen {
			continue
		}
		m := make(map[string]string, len(t.Columns))
		for j, c := range t.Columns {
			if j < len(r.Values) {
				m[c] = r.Values[j]
			} else {
				m[c] = ""
			}
		}
		out[r.Label] = m
	}
	return out
}

// WriteCSV writes the header row followed by one record per table row, each
// starting with its row label.
func (t *Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	header := append([]string{t.Header}, t.Columns...)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for i, r := range t.Rows {
		rec := make([]string, 0, len(t.Columns)+1)
		rec = append(rec, r.Label)
		for j := range t.Columns {
			if j < len(r.Values) {
				rec = append(rec, r.Values[j])
			} else {
				rec = append(rec, "")
			}
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("failed to write csv row %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSV parses a table written by WriteCSV. Short records are padded with
// empty values; long records are an error.
func ReadCSV(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("failed to read csv: no header row")
	}

	header := records[0]
	t := &Table{
		Header:  header[0],
		Columns: append([]string(nil), header[1:]...),
		Rows:    make([]Row, 0, len(records)-1),
	}
	for i, rec := range records[1:] {
		if len(rec) > len(header) {
			return nil, fmt.Errorf("csv row %d has %d fields, header has %d", i+1, len(rec), len(header))
		}
		row := Row{Label: rec[0], Values: make([]string, len(t.Columns))}
		copy(row.Values, rec[1:])
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}
