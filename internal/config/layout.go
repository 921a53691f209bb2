package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/George-Forgey/PFT-Reader/internal/detection"
	pfterrors "github.com/George-Forgey/PFT-Reader/internal/errors"
	"github.com/George-Forgey/PFT-Reader/internal/grid"
	"github.com/George-Forgey/PFT-Reader/internal/interpret"
	"github.com/George-Forgey/PFT-Reader/internal/table"
)

// DefaultDecimalPrecision is used when a layout file omits decimal_precision.
const DefaultDecimalPrecision = 2

// layoutFile mirrors the JSON written by the configuration editor.
type layoutFile struct {
	RowProportions    []float64         `json:"row_proportions"`
	ColumnProportions []float64         `json:"column_proportions"`
	RowTitles         []string          `json:"row_titles"`
	ColumnTitles      []string          `json:"column_titles"`
	EmptyRows         []int             `json:"empty_rows"`
	CharacterRows     []int             `json:"character_rows"`
	CharacterCells    []table.CellRef   `json:"character_cells"`
	ColumnsPercent    []int             `json:"columns_percent"`
	RowsPercent       []int             `json:"rows_percent"`
	DecimalPrecision  *int              `json:"decimal_precision"`
	TitleColumn       *int              `json:"title_column"`
	ColumnRoles       json.RawMessage   `json:"column_roles"`
	Labels            *interpret.Labels `json:"labels"`
	Match             json.RawMessage   `json:"match"`
}

// Layout is a validated table layout with everything each stage needs.
type Layout struct {
	Path   string
	Grid   grid.Spec
	Table  table.Layout
	Match  detection.MatchOptions
	Labels interpret.Labels
}

// LoadLayout reads and validates the layout file at path.
func LoadLayout(path string) (*Layout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, pfterrors.NewConfigError(path, "layout", fmt.Errorf("failed to read layout: %w", err))
	}
	l, err := ParseLayout(data)
	if err != nil {
		var pe *pfterrors.PipelineError
		if errors.As(err, &pe) {
			pe.Path = path
		}
		return nil, err
	}
	l.Path = path
	return l, nil
}

// ParseLayout decodes and validates a layout document.
//
// Omitted fields take their defaults: title_column 0, decimal_precision 2,
// column_roles derived from column_titles, labels from
// interpret.DefaultLabels, and match from detection.DefaultMatchOptions.
// Keys given inside column_roles or match override only themselves.
func ParseLayout(data []byte) (*Layout, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var f layoutFile
	if err := dec.Decode(&f); err != nil {
		return nil, pfterrors.NewConfigError("", "layout", fmt.Errorf("failed to parse layout: %w", err))
	}

	tl := table.Layout{
		RowTitles:        f.RowTitles,
		ColumnTitles:     f.ColumnTitles,
		TitleColumn:      0,
		SpacerRows:       f.EmptyRows,
		TextRows:         f.CharacterRows,
		TextCells:        f.CharacterCells,
		PercentColumns:   f.ColumnsPercent,
		PercentRows:      f.RowsPercent,
		DecimalPrecision: DefaultDecimalPrecision,
		Roles:            table.RolesFromTitles(f.ColumnTitles),
	}
	if f.TitleColumn != nil {
		tl.TitleColumn = *f.TitleColumn
	}
	if f.DecimalPrecision != nil {
		tl.DecimalPrecision = *f.DecimalPrecision
	}
	if len(f.ColumnRoles) > 0 {
		if err := json.Unmarshal(f.ColumnRoles, &tl.Roles); err != nil {
			return nil, pfterrors.NewConfigError("", "column_roles", err)
		}
	}

	match := detection.DefaultMatchOptions()
	if len(f.Match) > 0 {
		if err := json.Unmarshal(f.Match, &match); err != nil {
			return nil, pfterrors.NewConfigError("", "match", err)
		}
	}

	labels := interpret.DefaultLabels()
	if f.Labels != nil {
		labels = f.Labels.WithDefaults()
	}

	l := &Layout{
		Grid:   grid.Spec{Rows: f.RowProportions, Cols: f.ColumnProportions},
		Table:  tl,
		Match:  match,
		Labels: labels,
	}
	if err := l.Validate(); err != nil {
		return nil, err
	}
	return l, nil
}

// Validate checks each part and that the grid agrees with the declared titles.
func (l *Layout) Validate() error {
	if err := l.Grid.Validate(); err != nil {
		return pfterrors.NewConfigError(l.Path, "row_proportions/column_proportions", err)
	}
	if err := l.Table.Validate(); err != nil {
		return pfterrors.NewConfigError(l.Path, "titles", err)
	}
	if err := l.Match.Validate(); err != nil {
		return pfterrors.NewConfigError(l.Path, "match", err)
	}
	if got, want := l.Grid.NumRows(), l.Table.NumRows(); got != want {
		return pfterrors.NewConfigError(l.Path, "row_titles",
			fmt.Errorf("%d row titles for %d grid rows", want, got))
	}
	if got, want := l.Grid.NumCols(), l.Table.NumCols(); got != want {
		return pfterrors.NewConfigError(l.Path, "column_titles",
			fmt.Errorf("%d column titles for %d grid columns", want, got))
	}
	return nil
}
