package storage

import (
	"context"
	"encoding/json"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/George-Forgey/PFT-Reader/internal/detection"
	pfterrors "github.com/George-Forgey/PFT-Reader/internal/errors"
	"github.com/George-Forgey/PFT-Reader/internal/interpret"
	"github.com/George-Forgey/PFT-Reader/internal/pipeline"
	"github.com/George-Forgey/PFT-Reader/internal/table"
)

func sampleResult() *pipeline.Result {
	tbl := &table.Table{
		Header:  "Variable",
		Columns: []string{"Pre", "%PredPre"},
		Rows: []table.Row{
			{Label: "FVC", Values: []string{"3.10", "92"}},
			{Label: "", Values: []string{"", ""}},
			{Label: "FEV1", Values: []string{"2.40", "85"}},
		},
	}
	report := interpret.Interpret(tbl, interpret.DefaultLabels())
	start := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	return &pipeline.Result{
		RunID:      "6f1c1c7e-1a5e-4b0a-9d7e-0d7c3c9c1a11",
		StartedAt:  start,
		FinishedAt: start.Add(2 * time.Second),
		Match:      &detection.MatchResult{Found: true, Score: 0.912345, Scale: 1.05},
		Table:      tbl,
		Report:     &report,
		Readings: []pipeline.CellReading{
			{Reading: table.Reading{Row: 0, Col: 1, Text: "310"}},
			{Reading: table.Reading{Row: 1, Col: 1}, Blank: true},
			{Reading: table.Reading{Row: 1, Col: 2}, Blank: true},
		},
	}
}

func TestNewRunRecord(t *testing.T) {
	rec, err := NewRunRecord(sampleResult())
	if err != nil {
		t.Fatalf("NewRunRecord failed: %v", err)
	}

	if !rec.Matched || rec.MatchScore != 0.9123 || rec.MatchScale != 1.05 {
		t.Errorf("match fields = %v %v %v", rec.Matched, rec.MatchScore, rec.MatchScale)
	}
	if len(rec.RowLabels) != 2 || rec.RowLabels[0] != "FVC" || rec.RowLabels[1] != "FEV1" {
		t.Errorf("RowLabels = %v, want [FVC FEV1]", rec.RowLabels)
	}
	if rec.BlankCells != 2 {
		t.Errorf("BlankCells = %d, want 2", rec.BlankCells)
	}
	if !strings.Contains(rec.Report, interpret.SectionSpirometry) {
		t.Errorf("Report missing spirometry section: %q", rec.Report)
	}

	var back table.Table
	if err := json.Unmarshal(rec.TableJSON, &back); err != nil {
		t.Fatalf("table JSON invalid: %v", err)
	}
	if v, _ := back.Get("fev1", "pre"); v != "2.40" {
		t.Errorf("stored FEV1 pre = %q, want 2.40", v)
	}
	if len(rec.FindingJSON) == 0 {
		t.Error("Expected findings JSON")
	}
}

func TestNewRunRecord_NoMatch(t *testing.T) {
	res := &pipeline.Result{
		RunID: "0b8d5b1e-53c4-4b5e-8d3f-4c1f7a2b9e00",
		Match: &detection.MatchResult{Found: false, Score: -1},
	}
	rec, err := NewRunRecord(res)
	if err != nil {
		t.Fatalf("NewRunRecord failed: %v", err)
	}
	if rec.Matched || rec.MatchScore != -1 {
		t.Errorf("Expected unmatched with score -1, got %+v", rec)
	}
	if rec.TableJSON != nil || rec.FindingJSON != nil || rec.Report != "" {
		t.Error("Expected no table, findings or report")
	}
	if nullJSON(rec.TableJSON) != nil {
		t.Error("Empty JSON must be stored as NULL")
	}
	// row_labels is NOT NULL; pq.Array writes a nil slice as NULL.
	if rec.RowLabels == nil || len(rec.RowLabels) != 0 {
		t.Errorf("Expected empty non-nil RowLabels, got %#v", rec.RowLabels)
	}
}

func TestNewRunRecord_MissingID(t *testing.T) {
	if _, err := NewRunRecord(&pipeline.Result{}); err == nil {
		t.Error("Expected error for missing run ID")
	}
	if _, err := NewRunRecord(nil); err == nil {
		t.Error("Expected error for nil result")
	}
}

func TestSanitizeScore(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{0.91234567, 0.9123},
		{0.99996, 1},
		{-0.12346, -0.1235},
		{1.2, 1},
		{-3, -1},
		{0, 0},
	}

	for _, tt := range tests {
		if got := sanitizeScore(tt.in); got != tt.want {
			t.Errorf("sanitizeScore(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestCreateTableSQL_QuotesSchema(t *testing.T) {
	table := qualifiedTable(`pft"reader`)
	if table != `"pft""reader"."pft_runs"` {
		t.Errorf("qualifiedTable = %s", table)
	}
	ddl := createTableSQL("pft", qualifiedTable("pft"))
	for _, want := range []string{`CREATE SCHEMA IF NOT EXISTS "pft"`, `"pft"."pft_runs"`, "row_labels  text[]"} {
		if !strings.Contains(ddl, want) {
			t.Errorf("DDL missing %q", want)
		}
	}
}

func TestNewPostgresStore_EmptyURL(t *testing.T) {
	if _, err := NewPostgresStore(context.Background(), "", ""); err == nil {
		t.Error("Expected error for empty URL")
	}
}

// TestPostgresStore_RoundTrip needs a reachable database in PFT_TEST_DATABASE_URL.
func TestPostgresStore_RoundTrip(t *testing.T) {
	url := os.Getenv("PFT_TEST_DATABASE_URL")
	if url == "" || testing.Short() {
		t.Skip("PFT_TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	store, err := NewPostgresStore(ctx, url, "pft_test")
	if err != nil {
		t.Fatalf("NewPostgresStore failed: %v", err)
	}
	defer store.Close()

	res := sampleResult()
	if err := store.Record(ctx, res); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	// Recording twice updates in place.
	if err := store.Record(ctx, res); err != nil {
		t.Fatalf("second Record failed: %v", err)
	}

	got, err := store.Get(ctx, res.RunID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.RunID != res.RunID || !got.Matched || got.BlankCells != 2 {
		t.Errorf("Get returned %+v", got)
	}
	if len(got.RowLabels) != 2 {
		t.Errorf("RowLabels = %v", got.RowLabels)
	}

	_, err = store.Get(ctx, "00000000-0000-0000-0000-000000000000")
	if !pfterrors.HasCode(err, pfterrors.ErrorStorageFailed) {
		t.Errorf("Expected STORAGE_FAILED for missing run, got %v", err)
	}
}
