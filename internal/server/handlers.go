package server

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/George-Forgey/PFT-Reader/internal/detection"
	"github.com/George-Forgey/PFT-Reader/internal/imaging"
	"github.com/George-Forgey/PFT-Reader/internal/interpret"
	"github.com/George-Forgey/PFT-Reader/internal/ocr"
	"github.com/George-Forgey/PFT-Reader/internal/pipeline"
	"github.com/George-Forgey/PFT-Reader/internal/table"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "pft_run").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	if err != nil {
		s.log.Warn("tool failed", "tool", params.Name, "error", err)
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	switch name {
	case "pft_match_template":
		return s.handleMatchTemplate(args)
	case "pft_grid_preview":
		return s.handleGridPreview(args)
	case "pft_ocr_cell":
		return s.handleOCRCell(args)
	case "pft_read_table":
		return s.handleReadTable(ctx, args)
	case "pft_interpret":
		return s.handleInterpret(args)
	case "pft_run":
		return s.handleRun(ctx, args)
	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// Panics are suppressed; on marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

func decodeArgs(args json.RawMessage, v interface{}) error {
	if len(args) == 0 {
		return fmt.Errorf("missing arguments")
	}
	return json.Unmarshal(args, v)
}

// === Template Matching ===

type matchTemplateArgs struct {
	TemplatePath string   `json:"template_path"`
	TargetPath   string   `json:"target_path"`
	Threshold    *float64 `json:"threshold"`
	MinScale     *float64 `json:"min_scale"`
	MaxScale     *float64 `json:"max_scale"`
	Steps        *int     `json:"steps"`
	Preview      bool     `json:"preview"`
}

type matchTemplateResult struct {
	Match   *detection.MatchResult `json:"match"`
	Preview *imaging.EncodedImage  `json:"preview,omitempty"`
}

func (s *Server) handleMatchTemplate(args json.RawMessage) (interface{}, error) {
	var a matchTemplateArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}

	opts := detection.DefaultMatchOptions()
	if p, err := s.pipeline(); err == nil {
		opts = p.Layout().Match
	}
	if a.Threshold != nil {
		opts.Threshold = *a.Threshold
	}
	if a.MinScale != nil {
		opts.MinScale = *a.MinScale
	}
	if a.MaxScale != nil {
		opts.MaxScale = *a.MaxScale
	}
	if a.Steps != nil {
		opts.Steps = *a.Steps
	}

	tmpl, err := s.cache.Load(a.TemplatePath)
	if err != nil {
		return nil, err
	}
	target, err := imaging.LoadImage(a.TargetPath)
	if err != nil {
		return nil, err
	}

	match, err := detection.MatchTemplate(tmpl, target, opts)
	if err != nil {
		return nil, err
	}

	res := matchTemplateResult{Match: match}
	if a.Preview && match.ScalesTried > 0 {
		rect := match.Rect().Add(target.Bounds().Min)
		color := "#00C000"
		if !match.Found {
			color = "#FF0000"
		}
		res.Preview, err = imaging.EncodePNG(imaging.BoxOverlay(target, rect, color, 3))
		if err != nil {
			return nil, err
		}
	}
	return res, nil
}

// === Grid Preview ===

type gridPreviewArgs struct {
	Path      string `json:"path"`
	Labels    *bool  `json:"labels"`
	LineColor string `json:"line_color"`
}

type gridPreviewResult struct {
	*imaging.EncodedImage
	Rows int `json:"rows"`
	Cols int `json:"cols"`
}

func (s *Server) handleGridPreview(args json.RawMessage) (interface{}, error) {
	var a gridPreviewArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	p, err := s.pipeline()
	if err != nil {
		return nil, err
	}
	spec := p.Layout().Grid

	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}

	labels := true
	if a.Labels != nil {
		labels = *a.Labels
	}
	overlay := imaging.GridOverlay(img, spec.Rows, spec.Cols, imaging.OverlayOptions{
		LineColor: a.LineColor,
		Labels:    labels,
	})
	enc, err := imaging.EncodePNG(overlay)
	if err != nil {
		return nil, err
	}
	return gridPreviewResult{EncodedImage: enc, Rows: spec.NumRows(), Cols: spec.NumCols()}, nil
}

// === Cell OCR ===

type ocrCellArgs struct {
	Path             string `json:"path"`
	X1               *int   `json:"x1"`
	Y1               *int   `json:"y1"`
	X2               *int   `json:"x2"`
	Y2               *int   `json:"y2"`
	Mode             string `json:"mode"`
	DecimalPrecision *int   `json:"decimal_precision"`
}

type ocrCellResult struct {
	Mode       string      `json:"mode"`
	Tokens     []ocr.Token `json:"tokens"`
	Raw        string      `json:"raw"`
	Confidence float64     `json:"confidence"`
	Blank      bool        `json:"blank"`
	Numeric    string      `json:"numeric"`
	Percent    string      `json:"percent"`
	Text       string      `json:"text"`
}

func (s *Server) handleOCRCell(args json.RawMessage) (interface{}, error) {
	var a ocrCellArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if s.reader == nil {
		return nil, fmt.Errorf("no OCR reader configured")
	}

	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}

	region := a.X1 != nil || a.Y1 != nil || a.X2 != nil || a.Y2 != nil
	if region {
		if a.X1 == nil || a.Y1 == nil || a.X2 == nil || a.Y2 == nil {
			return nil, fmt.Errorf("x1, y1, x2 and y2 must be given together")
		}
		img, err = imaging.Crop(img, *a.X1, *a.Y1, *a.X2, *a.Y2, 1.0)
		if err != nil {
			return nil, err
		}
	}

	precision := 2
	if a.DecimalPrecision != nil {
		precision = *a.DecimalPrecision
	}
	mode := ocr.ParseMode(a.Mode)

	res := ocrCellResult{Mode: mode.String()}
	if imaging.IsBlank(img, imaging.DefaultInkTolerance, imaging.DefaultMinInk) {
		res.Blank = true
		return res, nil
	}

	tokens, err := s.reader.Read(img, mode)
	if err != nil {
		return nil, err
	}
	res.Tokens = tokens
	res.Raw = ocr.Join(tokens, mode)
	res.Confidence = ocr.MeanConfidence(tokens)
	res.Numeric = table.ReconstructNumeric(res.Raw, precision)
	res.Percent = table.ReconstructPercent(res.Raw)
	res.Text = table.ReconstructText(res.Raw)
	return res, nil
}

// === Table Reading ===

type readTableArgs struct {
	Path      string `json:"path"`
	OutputCSV string `json:"output_csv"`
}

type readTableResult struct {
	Table    *table.Table           `json:"table"`
	Readings []pipeline.CellReading `json:"readings"`
	CSVPath  string                 `json:"csv_path,omitempty"`
}

func (s *Server) handleReadTable(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a readTableArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	p, err := s.pipeline()
	if err != nil {
		return nil, err
	}

	img, err := imaging.LoadImage(a.Path)
	if err != nil {
		return nil, err
	}
	tbl, readings, err := p.ReadTable(ctx, img)
	if err != nil {
		return nil, err
	}

	res := readTableResult{Table: tbl, Readings: readings}
	if a.OutputCSV != "" {
		if err := writeCSV(a.OutputCSV, tbl); err != nil {
			return nil, err
		}
		res.CSVPath = a.OutputCSV
	}
	return res, nil
}

// === Interpretation ===

type interpretArgs struct {
	CSVPath string `json:"csv_path"`
}

type interpretResult struct {
	Text     string              `json:"text"`
	Sections []interpret.Section `json:"sections"`
	Findings interpret.Findings  `json:"findings"`
}

func (s *Server) handleInterpret(args json.RawMessage) (interface{}, error) {
	var a interpretArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}

	f, err := os.Open(a.CSVPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open csv: %w", err)
	}
	defer f.Close()

	tbl, err := table.ReadCSV(f)
	if err != nil {
		return nil, err
	}

	labels := interpret.DefaultLabels()
	if p, err := s.pipeline(); err == nil {
		labels = p.Layout().Labels
	}
	report := interpret.Interpret(tbl, labels)
	return interpretResult{Text: report.String(), Sections: report.Sections, Findings: report.Findings}, nil
}

// === Full Pipeline ===

type runArgs struct {
	TemplatePath string `json:"template_path"`
	TargetPath   string `json:"target_path"`
	OutputCSV    string `json:"output_csv"`
}

type runResult struct {
	*pipeline.Result
	ReportText string `json:"report_text,omitempty"`
	CSVPath    string `json:"csv_path,omitempty"`
	Message    string `json:"message,omitempty"`
}

func (s *Server) handleRun(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a runArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	p, err := s.pipeline()
	if err != nil {
		return nil, err
	}

	res, err := p.RunFiles(ctx, a.TemplatePath, a.TargetPath)
	if err != nil {
		return nil, err
	}

	out := runResult{Result: res}
	if !res.Matched() {
		out.Message = fmt.Sprintf("table not found: best score %.3f is below threshold %.3f",
			res.Match.Score, p.Layout().Match.Threshold)
		return out, nil
	}
	out.ReportText = res.Report.String()
	if a.OutputCSV != "" {
		if err := writeCSV(a.OutputCSV, res.Table); err != nil {
			return nil, err
		}
		out.CSVPath = a.OutputCSV
	}
	return out, nil
}

func writeCSV(path string, tbl *table.Table) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create csv: %w", err)
	}
	if err := tbl.WriteCSV(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
