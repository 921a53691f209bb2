package table

import (
	"reflect"
	"testing"
)

func testLayout() *Layout {
	titles := []string{"var", "Pre", "ZScore", "%PredPre", "Post", "ZScorePost", "%PredPost", "%ChangePost"}
	return &Layout{
		RowTitles:        []string{"", "FVC", "FEV1", "Test Grade"},
		ColumnTitles:     titles,
		TitleColumn:      0,
		SpacerRows:       []int{0},
		TextRows:         []int{3},
		PercentColumns:   []int{3, 6, 7},
		DecimalPrecision: 2,
		Roles:            RolesFromTitles(titles),
	}
}

func TestDigits(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"12.34", "1234"},
		{"-1,50", "150"},
		{"a1b2c3", "123"},
		{"", ""},
		{"N/A", ""},
		{"٣4", "4"},
	}
	for _, tt := range tests {
		if got := Digits(tt.in); got != tt.want {
			t.Errorf("Digits(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestReconstructNumeric(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		precision int
		want      string
	}{
		{"four digits", "1234", 2, "12.34"},
		{"one digit", "5", 2, "0.05"},
		{"two digits", "87", 2, "0.87"},
		{"three digits", "150", 2, "1.50"},
		{"dropped point kept", "12.34", 2, "12.34"},
		{"noise around digits", "~2,5O0", 2, "2.50"},
		{"leading zero", "0123", 2, "1.23"},
		{"all zeros", "000", 2, "0.00"},
		{"precision one", "123", 1, "12.3"},
		{"precision zero", "0042", 0, "42"},
		{"no digits", "abc", 2, ""},
		{"empty", "", 2, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ReconstructNumeric(tt.raw, tt.precision); got != tt.want {
				t.Errorf("ReconstructNumeric(%q, %d) = %q, want %q", tt.raw, tt.precision, got, tt.want)
			}
		})
	}
}

func TestReconstructPercent(t *testing.T) {
	tests := []struct {
		raw, want string
	}{
		{"87", "87"},
		{"87%", "87"},
		{"087", "87"},
		{"0", "0"},
		{"", ""},
		{"%", ""},
	}
	for _, tt := range tests {
		if got := ReconstructPercent(tt.raw); got != tt.want {
			t.Errorf("ReconstructPercent(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestLayout_Kind(t *testing.T) {
	l := testLayout()
	l.TextCells = []CellRef{{Row: 2, Col: 7}}
	l.PercentRows = []int{2}

	tests := []struct {
		row, col int
		want     CellKind
	}{
		{1, 0, KindTitle},
		{0, 0, KindTitle},
		{0, 3, KindSpacer},
		{3, 1, KindText},
		{2, 7, KindText},
		{1, 3, KindPercent},
		{2, 1, KindPercent},
		{1, 1, KindNumeric},
		{1, 2, KindNumeric},
	}
	for _, tt := range tests {
		if got := l.Kind(tt.row, tt.col); got != tt.want {
			t.Errorf("Kind(%d,%d) = %v, want %v", tt.row, tt.col, got, tt.want)
		}
	}
}

func TestLayout_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(l *Layout)
		wantErr bool
	}{
		{"valid", func(l *Layout) {}, false},
		{"no title column", func(l *Layout) { l.TitleColumn = -1 }, false},
		{"no rows", func(l *Layout) { l.RowTitles = nil }, true},
		{"no columns", func(l *Layout) { l.ColumnTitles = nil; l.Roles = NoRoles() }, true},
		{"title column out of range", func(l *Layout) { l.TitleColumn = 8 }, true},
		{"spacer out of range", func(l *Layout) { l.SpacerRows = []int{4} }, true},
		{"percent column negative", func(l *Layout) { l.PercentColumns = []int{-1} }, true},
		{"text cell outside", func(l *Layout) { l.TextCells = []CellRef{{Row: 1, Col: 9}} }, true},
		{"role outside", func(l *Layout) { l.Roles.Post = 12 }, true},
		{"precision too large", func(l *Layout) { l.DecimalPrecision = 9 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := testLayout()
			tt.mutate(l)
			err := l.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestRolesFromTitles(t *testing.T) {
	r := RolesFromTitles([]string{"var", "pre", "zscore", "lln", "%predpre", "post", "zscore post", "%predpost", "%changepost"})
	want := ColumnRoles{Pre: 1, ZScore: 2, PercentPredPre: 4, Post: 5, ZScorePost: 6, PercentPredPost: 7, PercentChange: 8}
	if r != want {
		t.Errorf("RolesFromTitles() = %+v, want %+v", r, want)
	}

	if got := RolesFromTitles([]string{"var", "value"}); got != NoRoles() {
		t.Errorf("Expected no roles, got %+v", got)
	}
}

func testReadings() []Reading {
	return []Reading{
		{Row: 1, Col: 1, Text: "2,50"},
		{Row: 1, Col: 2, Text: "1 50"},
		{Row: 1, Col: 3, Text: "110"},
		{Row: 1, Col: 4, Text: "2 75"},
		{Row: 1, Col: 5, Text: "0.8"},
		{Row: 1, Col: 6, Text: "95"},
		{Row: 1, Col: 7, Text: "10"},

		{Row: 2, Col: 1, Text: "300"},
		{Row: 2, Col: 2, Text: "150"},
		{Row: 2, Col: 4, Text: "250"},
		{Row: 2, Col: 7, Text: "17"},

		{Row: 3, Col: 4, Text: "  aa "},

		{Row: 0, Col: 1, Text: "999"},
		{Row: 1, Col: 0, Text: "garbage"},
		{Row: 9, Col: 1, Text: "1"},
	}
}

func TestReconstruct(t *testing.T) {
	tbl := Reconstruct(testLayout(), testReadings())

	if tbl.Header != "var" {
		t.Errorf("Expected header 'var', got %q", tbl.Header)
	}
	wantCols := []string{"Pre", "ZScore", "%PredPre", "Post", "ZScorePost", "%PredPost", "%ChangePost"}
	if !reflect.DeepEqual(tbl.Columns, wantCols) {
		t.Errorf("Columns = %v, want %v", tbl.Columns, wantCols)
	}

	want := []Row{
		{Label: "", Values: []string{"", "", "", "", "", "", ""}},
		{Label: "FVC", Values: []string{"2.50", "+1.50", "110", "2.75", "-0.08", "95", "+10"}},
		{Label: "FEV1", Values: []string{"3.00", "1.50", "", "2.50", "", "", "-17"}},
		{Label: "Test Grade", Values: []string{"", "", "", "aa", "", "", ""}},
	}
	if !reflect.DeepEqual(tbl.Rows, want) {
		t.Errorf("Rows mismatch\n got: %v\nwant: %v", tbl.Rows, want)
	}
}

func TestReconstruct_CharacterReading(t *testing.T) {
	tbl := Reconstruct(testLayout(), []Reading{
		{Row: 2, Col: 2, Text: "n/a", Character: true},
		{Row: 0, Col: 2, Text: "spacer", Character: true},
	})

	if v, _ := tbl.Get("FEV1", "ZScore"); v != "n/a" {
		t.Errorf("Expected free text to survive, got %q", v)
	}
	if v := tbl.Rows[0].Values[1]; v != "" {
		t.Errorf("Expected spacer row to stay empty, got %q", v)
	}
}

func TestReconstruct_TextRowKeepsSigns(t *testing.T) {
	// Numeric-looking free text must not be signed from its neighbours.
	tbl := Reconstruct(testLayout(), []Reading{
		{Row: 3, Col: 1, Text: "200"},
		{Row: 3, Col: 2, Text: "150"},
		{Row: 3, Col: 3, Text: "90"},
		{Row: 3, Col: 4, Text: "250"},
		{Row: 3, Col: 7, Text: "10"},
	})

	want := []string{"200", "150", "90", "250", "", "", "10"}
	if got := tbl.Rows[3].Values; !reflect.DeepEqual(got, want) {
		t.Errorf("Text row = %v, want %v", got, want)
	}
}

func TestReconstruct_LastReadingWins(t *testing.T) {
	tbl := Reconstruct(testLayout(), []Reading{
		{Row: 1, Col: 1, Text: "100"},
		{Row: 1, Col: 1, Text: "200"},
	})
	if v, _ := tbl.Get("FVC", "Pre"); v != "2.00" {
		t.Errorf("Expected last reading, got %q", v)
	}
}

func TestReconstruct_Idempotent(t *testing.T) {
	l := testLayout()
	readings := testReadings()

	first := Reconstruct(l, readings)
	second := Reconstruct(l, readings)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("Expected identical tables\nfirst:  %v\nsecond: %v", first, second)
	}
}

func TestReconstruct_NoTitleColumn(t *testing.T) {
	l := &Layout{
		RowTitles:        []string{"a", "b"},
		ColumnTitles:     []string{"x", "y"},
		TitleColumn:      -1,
		DecimalPrecision: 2,
		Roles:            NoRoles(),
	}
	tbl := Reconstruct(l, []Reading{{Row: 1, Col: 0, Text: "42"}})

	if tbl.Header != "" {
		t.Errorf("Expected empty header, got %q", tbl.Header)
	}
	if len(tbl.Columns) != 2 {
		t.Fatalf("Expected both columns as data, got %v", tbl.Columns)
	}
	if v, _ := tbl.Get("b", "x"); v != "0.42" {
		t.Errorf("Expected 0.42, got %q", v)
	}
}
