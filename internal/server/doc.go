// Package server implements the MCP (Model Context Protocol) server for the
// PFT reader.
//
// The server exposes each stage of the reader as a tool so an MCP client can
// inspect a run step by step or execute it end to end.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
//   - pft_match_template: Locate the reference table in a screenshot
//   - pft_grid_preview: Draw the layout's cell boundaries on a table image
//   - pft_ocr_cell: OCR one cell and show its reconstructed forms
//   - pft_read_table: Segment, OCR and reconstruct a cropped table
//   - pft_interpret: Interpret a table CSV
//   - pft_run: Run every stage on a template and screenshot
//
// Tools that depend on the table layout fail until one is configured. The
// layout may be swapped while the server runs; see Server.UpdateLayout.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: The Go error string
//
// A screenshot in which the table is not found is not an error: pft_run and
// pft_match_template report it in their result.
package server
