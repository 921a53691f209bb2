// Package storage persists pipeline runs in PostgreSQL.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	pfterrors "github.com/George-Forgey/PFT-Reader/internal/errors"
	"github.com/George-Forgey/PFT-Reader/internal/pipeline"
)

// PostgresStore records runs in the pft_runs table.
type PostgresStore struct {
	db    *sql.DB
	table string
}

// RunRecord is one row of pft_runs.
type RunRecord struct {
	RunID       string
	StartedAt   time.Time
	FinishedAt  time.Time
	Matched     bool
	MatchScore  float64
	MatchScale  float64
	RowLabels   []string
	TableJSON   []byte
	Report      string
	FindingJSON []byte
	BlankCells  int
}

// NewPostgresStore connects to databaseURL and ensures the schema exists.
// schema defaults to "public".
func NewPostgresStore(ctx context.Context, databaseURL, schema string) (*PostgresStore, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("database URL is required")
	}
	if schema == "" {
		schema = "public"
	}

	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &PostgresStore{db: db, table: qualifiedTable(schema)}
	if _, err := db.ExecContext(ctx, createTableSQL(schema, s.table)); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create %s: %w", s.table, err)
	}
	return s, nil
}

func qualifiedTable(schema string) string {
	return pq.QuoteIdentifier(schema) + "." + pq.QuoteIdentifier("pft_runs")
}

func createTableSQL(schema, table string) string {
	return fmt.Sprintf(`
		CREATE SCHEMA IF NOT EXISTS %s;
		CREATE TABLE IF NOT EXISTS %s (
			id          uuid PRIMARY KEY,
			started_at  timestamptz NOT NULL,
			finished_at timestamptz NOT NULL,
			matched     boolean NOT NULL,
			match_score numeric(5,4) NOT NULL,
			match_scale numeric(6,3) NOT NULL,
			row_labels  text[] NOT NULL DEFAULT '{}',
			table_data  jsonb,
			report      text NOT NULL DEFAULT '',
			findings    jsonb,
			blank_cells integer NOT NULL DEFAULT 0
		)`, pq.QuoteIdentifier(schema), table)
}

// NewRunRecord flattens a pipeline result into a row.
func NewRunRecord(res *pipeline.Result) (*RunRecord, error) {
	if res == nil || res.RunID == "" {
		return nil, fmt.Errorf("run ID is required")
	}

	rec := &RunRecord{
		RunID:      res.RunID,
		StartedAt:  res.StartedAt,
		FinishedAt: res.FinishedAt,
		Matched:    res.Matched(),
		RowLabels:  []string{},
	}
	if res.Match != nil {
		rec.MatchScore = sanitizeScore(res.Match.Score)
		rec.MatchScale = res.Match.Scale
	}
	if res.Table != nil {
		data, err := json.Marshal(res.Table)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal table: %w", err)
		}
		rec.TableJSON = data
		for _, r := range res.Table.Rows {
			if strings.TrimSpace(r.Label) != "" {
				rec.RowLabels = append(rec.RowLabels, r.Label)
			}
		}
	}
	if res.Report != nil {
		rec.Report = res.Report.String()
		data, err := json.Marshal(res.Report.Findings)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal findings: %w", err)
		}
		rec.FindingJSON = data
	}
	for _, r := range res.Readings {
		if r.Blank {
			rec.BlankCells++
		}
	}
	return rec, nil
}

// sanitizeScore rounds a correlation score to 4 decimals within [-1, 1] so it
// fits numeric(5,4).
func sanitizeScore(score float64) float64 {
	if score < -1 {
		return -1
	}
	if score > 1 {
		return 1
	}
	if score < 0 {
		return float64(int(score*10000-0.5)) / 10000
	}
	return float64(int(score*10000+0.5)) / 10000
}

// Record implements pipeline.Recorder.
func (s *PostgresStore) Record(ctx context.Context, res *pipeline.Result) error {
	rec, err := NewRunRecord(res)
	if err != nil {
		return pfterrors.NewStorageFailedError("", err)
	}
	return s.Save(ctx, rec)
}

// Save inserts rec, replacing any earlier row with the same run ID.
func (s *PostgresStore) Save(ctx context.Context, rec *RunRecord) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (
			id, started_at, finished_at, matched, match_score, match_scale,
			row_labels, table_data, report, findings, blank_cells
		) VALUES ($1::uuid, $2, $3, $4, $5, $6, $7, $8::jsonb, $9, $10::jsonb, $11)
		ON CONFLICT (id) DO UPDATE SET
			finished_at = EXCLUDED.finished_at,
			matched     = EXCLUDED.matched,
			match_score = EXCLUDED.match_score,
			match_scale = EXCLUDED.match_scale,
			row_labels  = EXCLUDED.row_labels,
			table_data  = EXCLUDED.table_data,
			report      = EXCLUDED.report,
			findings    = EXCLUDED.findings,
			blank_cells = EXCLUDED.blank_cells`, s.table)

	_, err := s.db.ExecContext(ctx, query,
		rec.RunID, rec.StartedAt, rec.FinishedAt, rec.Matched, rec.MatchScore, rec.MatchScale,
		pq.Array(rec.RowLabels), nullJSON(rec.TableJSON), rec.Report, nullJSON(rec.FindingJSON), rec.BlankCells,
	)
	if err != nil {
		return pfterrors.NewStorageFailedError(rec.RunID, err)
	}
	return nil
}

// Get loads the run with the given ID.
func (s *PostgresStore) Get(ctx context.Context, runID string) (*RunRecord, error) {
	query := fmt.Sprintf(`
		SELECT id, started_at, finished_at, matched, match_score, match_scale,
		       row_labels, COALESCE(table_data::text, ''), report,
		       COALESCE(findings::text, ''), blank_cells
		FROM %s WHERE id = $1::uuid`, s.table)

	var rec RunRecord
	var tableText, findingsText string
	err := s.db.QueryRowContext(ctx, query, runID).Scan(
		&rec.RunID, &rec.StartedAt, &rec.FinishedAt, &rec.Matched, &rec.MatchScore, &rec.MatchScale,
		pq.Array(&rec.RowLabels), &tableText, &rec.Report, &findingsText, &rec.BlankCells,
	)
	if err == sql.ErrNoRows {
		return nil, pfterrors.NewStorageFailedError(runID, fmt.Errorf("run not found"))
	}
	if err != nil {
		return nil, pfterrors.NewStorageFailedError(runID, err)
	}
	if tableText != "" {
		rec.TableJSON = []byte(tableText)
	}
	if findingsText != "" {
		rec.FindingJSON = []byte(findingsText)
	}
	return &rec, nil
}

// Close closes the database connection.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func nullJSON(b []byte) interface{} {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}
