// Package pipeline runs the PFT reader stages in order for one screenshot:
// template matching, grid segmentation, per-cell OCR, value reconstruction
// and interpretation.
//
// Stages run strictly one after another. The context is checked between
// stages and between cells; a stage that has started is never interrupted.
package pipeline

import (
	"context"
	"fmt"
	"image"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/George-Forgey/PFT-Reader/internal/config"
	"github.com/George-Forgey/PFT-Reader/internal/detection"
	pfterrors "github.com/George-Forgey/PFT-Reader/internal/errors"
	"github.com/George-Forgey/PFT-Reader/internal/grid"
	"github.com/George-Forgey/PFT-Reader/internal/imaging"
	"github.com/George-Forgey/PFT-Reader/internal/interpret"
	"github.com/George-Forgey/PFT-Reader/internal/logging"
	"github.com/George-Forgey/PFT-Reader/internal/ocr"
	"github.com/George-Forgey/PFT-Reader/internal/table"
)

// Recorder persists finished runs.
type Recorder interface {
	Record(ctx context.Context, r *Result) error
}

// Options configures a Pipeline. Layout and Reader are required.
type Options struct {
	Layout *config.Layout
	Reader ocr.Reader
	Logger *logging.Logger

	// Cache decodes input files for RunFiles. A fresh cache is used when nil.
	Cache *imaging.ImageCache

	// DebugDir receives table.png, grid.png and cells/ for every run when set.
	DebugDir string

	// InkTolerance and MinInk tune blank-cell detection. Zero selects the
	// imaging package defaults. Set SkipBlankCheck to OCR every cell.
	InkTolerance   float64
	MinInk         float64
	SkipBlankCheck bool

	// Recorder stores each completed run when set. Failures are logged and
	// do not fail the run.
	Recorder Recorder
}

// CellReading is the OCR outcome for one cell.
type CellReading struct {
	table.Reading
	Confidence float64 `json:"confidence"`
	Blank      bool    `json:"blank"`
}

// Result is everything one run produced.
type Result struct {
	RunID      string                 `json:"run_id"`
	StartedAt  time.Time              `json:"started_at"`
	FinishedAt time.Time              `json:"finished_at"`
	Match      *detection.MatchResult `json:"match"`
	Table      *table.Table           `json:"table,omitempty"`
	Report     *interpret.Report      `json:"report,omitempty"`
	Readings   []CellReading          `json:"readings,omitempty"`
}

// Matched reports whether the template was located.
func (r *Result) Matched() bool {
	return r.Match != nil && r.Match.Found
}

// Pipeline holds the configuration shared by runs. Runs do not share any
// other state, so a Pipeline may be used from several goroutines.
type Pipeline struct {
	mu     sync.RWMutex
	layout *config.Layout

	reader   ocr.Reader
	log      *logging.Logger
	cache    *imaging.ImageCache
	debugDir string
	tol      float64
	minInk   float64
	noBlank  bool
	recorder Recorder
}

// New validates opts and builds a Pipeline.
func New(opts Options) (*Pipeline, error) {
	if opts.Layout == nil {
		return nil, pfterrors.NewInvalidInputError("pipeline: layout is required")
	}
	if err := opts.Layout.Validate(); err != nil {
		return nil, err
	}
	if opts.Reader == nil {
		return nil, pfterrors.NewInvalidInputError("pipeline: OCR reader is required")
	}

	p := &Pipeline{
		layout:   opts.Layout,
		reader:   opts.Reader,
		log:      opts.Logger,
		cache:    opts.Cache,
		debugDir: opts.DebugDir,
		tol:      opts.InkTolerance,
		minInk:   opts.MinInk,
		noBlank:  opts.SkipBlankCheck,
		recorder: opts.Recorder,
	}
	if p.log == nil {
		p.log = logging.Discard()
	}
	if p.cache == nil {
		p.cache = imaging.NewImageCache()
	}
	if p.tol <= 0 {
		p.tol = imaging.DefaultInkTolerance
	}
	if p.minInk <= 0 {
		p.minInk = imaging.DefaultMinInk
	}
	return p, nil
}

// Layout returns the layout new runs will use.
func (p *Pipeline) Layout() *config.Layout {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.layout
}

// SetLayout replaces the layout for runs started afterwards. Runs already in
// progress keep the layout they started with.
func (p *Pipeline) SetLayout(l *config.Layout) error {
	if err := l.Validate(); err != nil {
		return err
	}
	p.mu.Lock()
	p.layout = l
	p.mu.Unlock()
	p.log.Info("layout updated", "path", l.Path, "rows", l.Table.NumRows(), "cols", l.Table.NumCols())
	return nil
}

// RunFiles loads the template and target from disk and calls Run.
func (p *Pipeline) RunFiles(ctx context.Context, templatePath, targetPath string) (*Result, error) {
	tmpl, err := p.cache.Load(templatePath)
	if err != nil {
		return nil, err
	}
	target, err := imaging.LoadImage(targetPath)
	if err != nil {
		return nil, err
	}
	return p.Run(ctx, tmpl, target)
}

// Run executes every stage for one screenshot.
//
// When the template is not found the result carries the rejected match and
// no table; this is not an error, and the run is still recorded.
func (p *Pipeline) Run(ctx context.Context, tmpl, target image.Image) (*Result, error) {
	layout := p.Layout()
	res := &Result{RunID: uuid.NewString(), StartedAt: time.Now()}
	log := p.log.With("run " + res.RunID[:8])

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	crop, match, err := detection.LocateTable(tmpl, target, layout.Match)
	if err != nil {
		return nil, err
	}
	res.Match = match
	if !match.Found {
		log.Warn("template not found", "score", match.Score, "threshold", layout.Match.Threshold,
			"scales_tried", match.ScalesTried)
		res.FinishedAt = time.Now()
		p.record(ctx, res, log)
		return res, nil
	}
	log.Info("template located", "score", fmt.Sprintf("%.3f", match.Score),
		"scale", fmt.Sprintf("%.2f", match.Scale), "rect", match.Rect())

	tbl, readings, err := p.read(ctx, layout, crop, res.RunID, log)
	if err != nil {
		return nil, err
	}
	res.Table = tbl
	res.Readings = readings

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	report := interpret.Interpret(tbl, layout.Labels)
	res.Report = &report
	res.FinishedAt = time.Now()
	log.Info("run complete", "duration", res.FinishedAt.Sub(res.StartedAt).Round(time.Millisecond))

	p.record(ctx, res, log)
	return res, nil
}

// record hands a finished run, matched or not, to the recorder.
func (p *Pipeline) record(ctx context.Context, res *Result, log *logging.Logger) {
	if p.recorder == nil {
		return
	}
	if err := p.recorder.Record(ctx, res); err != nil {
		log.Error("failed to record run", "error", err)
	}
}

// ReadTable segments an already-cropped table image, reads every cell and
// reconstructs the table.
func (p *Pipeline) ReadTable(ctx context.Context, tableImg image.Image) (*table.Table, []CellReading, error) {
	return p.read(ctx, p.Layout(), tableImg, "", p.log)
}

func (p *Pipeline) read(ctx context.Context, layout *config.Layout, tableImg image.Image, runID string, log *logging.Logger) (*table.Table, []CellReading, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	g, err := grid.Segment(tableImg, layout.Grid)
	if err != nil {
		return nil, nil, err
	}
	defer g.Release()
	log.Debug("table segmented", "rows", g.Rows, "cols", g.Cols)

	dump := p.debugDir != "" && runID != ""
	if dump {
		p.dumpTable(runID, tableImg, layout, log)
	}

	readings, err := p.readCells(ctx, &layout.Table, g, runID, dump, log)
	if err != nil {
		return nil, nil, err
	}

	raw := make([]table.Reading, len(readings))
	for i, r := range readings {
		raw[i] = r.Reading
	}
	return table.Reconstruct(&layout.Table, raw), readings, nil
}

func (p *Pipeline) readCells(ctx context.Context, tl *table.Layout, g *grid.Grid, runID string, dump bool, log *logging.Logger) ([]CellReading, error) {
	out := make([]CellReading, 0, g.Rows*g.Cols)
	blank := 0

	for i := 0; i < g.Rows; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for j := 0; j < g.Cols; j++ {
			cell := g.At(i, j)
			kind := tl.Kind(i, j)
			if kind == table.KindTitle || kind == table.KindSpacer {
				cell.Release()
				continue
			}

			if dump {
				p.dumpCell(runID, cell, log)
			}

			cr := CellReading{Reading: table.Reading{Row: i, Col: j, Character: kind == table.KindText}}
			if cell.Empty() || (!p.noBlank && imaging.IsBlank(cell.Image, p.tol, p.minInk)) {
				cr.Blank = true
				blank++
				cell.Release()
				out = append(out, cr)
				continue
			}

			mode := ocr.ModeDigits
			if kind == table.KindText {
				mode = ocr.ModeText
			}
			tokens, err := p.reader.Read(cell.Image, mode)
			cell.Release()
			if err != nil {
				return nil, pfterrors.NewOCRFailedError(i, j, err)
			}

			cr.Text = ocr.Join(tokens, mode)
			cr.Confidence = ocr.MeanConfidence(tokens)
			log.Debug("cell read", "row", i, "col", j, "mode", mode, "text", cr.Text,
				"confidence", fmt.Sprintf("%.2f", cr.Confidence))
			out = append(out, cr)
		}
	}

	log.Info("cells read", "cells", len(out), "blank", blank)
	return out, nil
}

func (p *Pipeline) dumpTable(runID string, tableImg image.Image, layout *config.Layout, log *logging.Logger) {
	dir := filepath.Join(p.debugDir, runID)
	if err := imaging.SavePNG(filepath.Join(dir, "table.png"), tableImg); err != nil {
		log.Warn("debug dump failed", "error", err)
		return
	}
	overlay := imaging.GridOverlay(tableImg, layout.Grid.Rows, layout.Grid.Cols, imaging.OverlayOptions{Labels: true})
	if err := imaging.SavePNG(filepath.Join(dir, "grid.png"), overlay); err != nil {
		log.Warn("debug dump failed", "error", err)
	}
}

func (p *Pipeline) dumpCell(runID string, cell *grid.Cell, log *logging.Logger) {
	if cell.Empty() {
		return
	}
	name := fmt.Sprintf("r%02d_c%02d.png", cell.Row, cell.Col)
	if err := imaging.SavePNG(filepath.Join(p.debugDir, runID, "cells", name), cell.Image); err != nil {
		log.Warn("debug dump failed", "cell", name, "error", err)
	}
}
