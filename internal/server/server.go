package server

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/George-Forgey/PFT-Reader/internal/config"
	"github.com/George-Forgey/PFT-Reader/internal/imaging"
	"github.com/George-Forgey/PFT-Reader/internal/logging"
	"github.com/George-Forgey/PFT-Reader/internal/ocr"
	"github.com/George-Forgey/PFT-Reader/internal/pipeline"
)

// Version is reported in the initialize handshake.
const Version = "0.3.0"

// Options wires the server to the reader's stages.
type Options struct {
	// Pipeline runs table reads. Tools that need a layout fail while it is nil.
	Pipeline *pipeline.Pipeline

	// Reader serves pft_ocr_cell. It is normally the pipeline's reader.
	Reader ocr.Reader

	Cache  *imaging.ImageCache
	Logger *logging.Logger
}

// Server handles MCP protocol communication
type Server struct {
	cache  *imaging.ImageCache
	reader ocr.Reader
	log    *logging.Logger

	mu   sync.RWMutex
	pipe *pipeline.Pipeline
}

// MCPRequest represents an incoming JSON-RPC request
type MCPRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// MCPResponse represents an outgoing JSON-RPC response
type MCPResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *MCPError   `json:"error,omitempty"`
}

// MCPError represents a JSON-RPC error
type MCPError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// New creates a new MCP server instance
func New(opts Options) *Server {
	s := &Server{
		cache:  opts.Cache,
		reader: opts.Reader,
		log:    opts.Logger,
		pipe:   opts.Pipeline,
	}
	if s.cache == nil {
		s.cache = imaging.NewImageCache()
	}
	if s.log == nil {
		s.log = logging.Discard()
	}
	return s
}

// pipeline returns the current pipeline or an error when no layout is loaded.
func (s *Server) pipeline() (*pipeline.Pipeline, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.pipe == nil {
		return nil, fmt.Errorf("no table layout configured; set PFT_LAYOUT_PATH")
	}
	return s.pipe, nil
}

// UpdateLayout applies a reloaded layout to subsequent tool calls.
func (s *Server) UpdateLayout(l *config.Layout) {
	p, err := s.pipeline()
	if err != nil {
		s.log.Warn("layout reload ignored", "error", err)
		return
	}
	if err := p.SetLayout(l); err != nil {
		s.log.Error("layout reload rejected", "path", l.Path, "error", err)
	}
}

// Run serves requests from stdin until it closes or ctx is done.
func (s *Server) Run(ctx context.Context) error {
	return s.Serve(ctx, os.Stdin, os.Stdout)
}

// Serve reads newline-delimited requests from in and writes responses to out.
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	// Increase buffer size for large requests
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	encoder := json.NewEncoder(out)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req MCPRequest
		if err := json.Unmarshal(line, &req); err != nil {
			s.log.Warn("failed to parse request", "error", err)
			continue
		}

		resp := s.handleRequest(ctx, &req)
		if resp != nil {
			if err := encoder.Encode(resp); err != nil {
				s.log.Error("failed to encode response", "error", err)
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scanner error: %w", err)
	}

	return nil
}

// handleRequest routes requests to appropriate handlers
func (s *Server) handleRequest(ctx context.Context, req *MCPRequest) *MCPResponse {
	switch req.Method {
	case "initialize":
		return s.handleInitialize(req)
	case "notifications/initialized":
		// Client acknowledgment, no response needed
		return nil
	case "tools/list":
		return s.handleToolsList(req)
	case "tools/call":
		return s.handleToolsCall(ctx, req)
	case "ping":
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Result:  map[string]interface{}{},
		}
	default:
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error: &MCPError{
				Code:    -32601,
				Message: fmt.Sprintf("Method not found: %s", req.Method),
			},
		}
	}
}

// handleInitialize responds to the initialize request
func (s *Server) handleInitialize(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"protocolVersion": "2024-11-05",
			"capabilities": map[string]interface{}{
				"tools": map[string]interface{}{},
			},
			"serverInfo": map[string]interface{}{
				"name":    "pft-reader",
				"version": Version,
			},
		},
	}
}

// handleToolsList returns the available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
