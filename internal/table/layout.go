package table

import (
	"fmt"
	"strings"
)

// CellKind classifies a grid cell for reading and reconstruction.
type CellKind int

const (
	KindNumeric CellKind = iota
	KindPercent
	KindText
	KindTitle
	KindSpacer
)

func (k CellKind) String() string {
	switch k {
	case KindNumeric:
		return "numeric"
	case KindPercent:
		return "percent"
	case KindText:
		return "text"
	case KindTitle:
		return "title"
	case KindSpacer:
		return "spacer"
	default:
		return fmt.Sprintf("CellKind(%d)", int(k))
	}
}

// CellRef addresses a single grid cell.
type CellRef struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// ColumnRoles names the grid columns that sign correction reads and writes.
// A negative index means the column is absent from the layout.
type ColumnRoles struct {
	Pre             int `json:"pre"`
	ZScore          int `json:"zscore"`
	PercentPredPre  int `json:"pred_pre"`
	Post            int `json:"post"`
	ZScorePost      int `json:"zscore_post"`
	PercentPredPost int `json:"pred_post"`
	PercentChange   int `json:"change_post"`
}

// NoRoles returns roles with every column absent.
func NoRoles() ColumnRoles {
	return ColumnRoles{-1, -1, -1, -1, -1, -1, -1}
}

// RolesFromTitles assigns roles by matching normalised column titles, so both
// "ZScorePost" and "zscore post" select the post z-score column.
func RolesFromTitles(titles []string) ColumnRoles {
	r := NoRoles()
	for i, title := range titles {
		switch NormalizeLabel(title) {
		case "pre":
			r.Pre = i
		case "zscore", "zscorepre":
			r.ZScore = i
		case "%predpre", "%pred":
			r.PercentPredPre = i
		case "post":
			r.Post = i
		case "zscorepost":
			r.ZScorePost = i
		case "%predpost":
			r.PercentPredPost = i
		case "%changepost", "%change", "%chgpost", "%chg":
			r.PercentChange = i
		}
	}
	return r
}

// NormalizeLabel lowercases a label and drops spaces and underscores.
func NormalizeLabel(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '_', '\t':
			return -1
		}
		return r
	}, strings.ToLower(strings.TrimSpace(s)))
}

// Layout is the static description of a table: labels, row and column classes,
// and the columns involved in sign correction. Row and column indices are grid
// indices.
type Layout struct {
	RowTitles    []string `json:"row_titles"`
	ColumnTitles []string `json:"column_titles"`

	// TitleColumn holds the row labels and is never read; -1 means no title column.
	TitleColumn int `json:"title_column"`

	SpacerRows     []int     `json:"empty_rows"`
	TextRows       []int     `json:"character_rows"`
	TextCells      []CellRef `json:"character_cells"`
	PercentColumns []int     `json:"columns_percent"`
	PercentRows    []int     `json:"rows_percent"`

	// DecimalPrecision is the number of fraction digits restored on numeric cells.
	DecimalPrecision int `json:"decimal_precision"`

	Roles ColumnRoles `json:"column_roles"`
}

// NumRows returns the number of declared rows.
func (l *Layout) NumRows() int { return len(l.RowTitles) }

// NumCols returns the number of declared grid columns, title column included.
func (l *Layout) NumCols() int { return len(l.ColumnTitles) }

// Validate checks every index in the layout against its row and column counts.
func (l *Layout) Validate() error {
	rows, cols := l.NumRows(), l.NumCols()
	if rows == 0 {
		return fmt.Errorf("layout: no row titles")
	}
	if cols == 0 {
		return fmt.Errorf("layout: no column titles")
	}
	if l.TitleColumn < -1 || l.TitleColumn >= cols {
		return fmt.Errorf("layout: title_column %d out of range [-1, %d)", l.TitleColumn, cols)
	}
	if l.DecimalPrecision < 0 || l.DecimalPrecision > 6 {
		return fmt.Errorf("layout: decimal_precision %d out of range [0, 6]", l.DecimalPrecision)
	}
	if err := checkIndices("empty_rows", l.SpacerRows, rows); err != nil {
		return err
	}
	if err := checkIndices("character_rows", l.TextRows, rows); err != nil {
		return err
	}
	if err := checkIndices("rows_percent", l.PercentRows, rows); err != nil {
		return err
	}
	if err := checkIndices("columns_percent", l.PercentColumns, cols); err != nil {
		return err
	}
	for _, c := range l.TextCells {
		if c.Row < 0 || c.Row >= rows || c.Col < 0 || c.Col >= cols {
			return fmt.Errorf("layout: character_cells entry (%d,%d) outside %dx%d grid", c.Row, c.Col, rows, cols)
		}
	}
	roles := []struct {
		name string
		idx  int
	}{
		{"pre", l.Roles.Pre},
		{"zscore", l.Roles.ZScore},
		{"pred_pre", l.Roles.PercentPredPre},
		{"post", l.Roles.Post},
		{"zscore_post", l.Roles.ZScorePost},
		{"pred_post", l.Roles.PercentPredPost},
		{"change_post", l.Roles.PercentChange},
	}
	for _, r := range roles {
		if r.idx >= cols {
			return fmt.Errorf("layout: column_roles.%s = %d outside %d columns", r.name, r.idx, cols)
		}
	}
	return nil
}

func checkIndices(name string, idx []int, n int) error {
	for _, i := range idx {
		if i < 0 || i >= n {
			return fmt.Errorf("layout: %s index %d out of range [0, %d)", name, i, n)
		}
	}
	return nil
}

// Kind classifies the cell at (row, col). The title column wins over every row
// class, spacer rows win over text and percent, and text wins over percent.
func (l *Layout) Kind(row, col int) CellKind {
	switch {
	case col == l.TitleColumn:
		return KindTitle
	case contains(l.SpacerRows, row):
		return KindSpacer
	case contains(l.TextRows, row), l.isTextCell(row, col):
		return KindText
	case contains(l.PercentColumns, col), contains(l.PercentRows, row):
		return KindPercent
	default:
		return KindNumeric
	}
}

func (l *Layout) isTextCell(row, col int) bool {
	for _, c := range l.TextCells {
		if c.Row == row && c.Col == col {
			return true
		}
	}
	return false
}

// IsSpacer reports whether row is a declared spacer row.
func (l *Layout) IsSpacer(row int) bool {
	return contains(l.SpacerRows, row)
}

// DataColumns returns the grid column indices that carry values, in order.
func (l *Layout) DataColumns() []int {
	out := make([]int, 0, l.NumCols())
	for j := 0; j < l.NumCols(); j++ {
		if j != l.TitleColumn {
			out = append(out, j)
		}
	}
	return out
}

func contains(s []int, v int) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}
