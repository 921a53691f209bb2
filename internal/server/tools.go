package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func pathProperty(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": description,
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Stage tools
		{
			Name:        "pft_match_template",
			Description: "Locate a reference table image inside a screenshot using multi-scale normalized cross-correlation. Returns the score, scale and bounding box, and optionally a preview with the match outlined.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"template_path": pathProperty("Absolute path to the reference table image"),
					"target_path":   pathProperty("Absolute path to the screenshot to search"),
					"threshold": map[string]interface{}{
						"type":        "number",
						"description": "Minimum correlation score to accept. Defaults to the layout's match threshold",
					},
					"min_scale": map[string]interface{}{
						"type":        "number",
						"description": "Smallest template scale tried",
					},
					"max_scale": map[string]interface{}{
						"type":        "number",
						"description": "Largest template scale tried",
					},
					"steps": map[string]interface{}{
						"type":        "integer",
						"description": "Number of evenly spaced scales between min_scale and max_scale",
					},
					"preview": map[string]interface{}{
						"type":        "boolean",
						"description": "Include a PNG of the screenshot with the match outlined. Default false",
						"default":     false,
					},
				},
				"required": []string{"template_path", "target_path"},
			},
		},
		{
			Name:        "pft_grid_preview",
			Description: "Draw the configured row and column boundaries onto a cropped table image so the layout can be checked before reading.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty("Absolute path to the cropped table image"),
					"labels": map[string]interface{}{
						"type":        "boolean",
						"description": "Label rows and columns with their indices. Default true",
						"default":     true,
					},
					"line_color": map[string]interface{}{
						"type":        "string",
						"description": "Boundary color as #RRGGBB or #RRGGBBAA. Default #FF0000",
						"default":     "#FF0000",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "pft_ocr_cell",
			Description: "Run OCR on one cell region and show both the raw text and its reconstructed numeric, percent and text forms.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty("Absolute path to the image holding the cell"),
					"x1": map[string]interface{}{
						"type":        "integer",
						"description": "Left edge X coordinate (0-based). Omit all four to read the whole image",
					},
					"y1": map[string]interface{}{
						"type":        "integer",
						"description": "Top edge Y coordinate (0-based)",
					},
					"x2": map[string]interface{}{
						"type":        "integer",
						"description": "Right edge X coordinate (exclusive)",
					},
					"y2": map[string]interface{}{
						"type":        "integer",
						"description": "Bottom edge Y coordinate (exclusive)",
					},
					"mode": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"digits", "text"},
						"description": "digits reads one line of digits; text reads free text. Default digits",
						"default":     "digits",
					},
					"decimal_precision": map[string]interface{}{
						"type":        "integer",
						"description": "Fraction digits restored for the numeric form. Default 2",
						"default":     2,
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "pft_read_table",
			Description: "Segment a cropped table image with the configured layout, OCR every cell and return the reconstructed table.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":       pathProperty("Absolute path to the cropped table image"),
					"output_csv": pathProperty("Optional path to write the table as CSV"),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "pft_interpret",
			Description: "Interpret a reconstructed table saved as CSV and return the report sections and findings.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"csv_path": pathProperty("Absolute path to a table CSV written by pft_read_table or pft_run"),
				},
				"required": []string{"csv_path"},
			},
		},

		// Full pipeline
		{
			Name:        "pft_run",
			Description: "Run the full reader: locate the table in the screenshot, read every cell, reconstruct values and interpret them.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"template_path": pathProperty("Absolute path to the reference table image"),
					"target_path":   pathProperty("Absolute path to the screenshot"),
					"output_csv":    pathProperty("Optional path to write the table as CSV"),
				},
				"required": []string{"template_path", "target_path"},
			},
		},
	}
}
