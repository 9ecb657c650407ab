package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// pathProperty is the schema shared by every tool's path argument.
var pathProperty = map[string]interface{}{
	"type":        "string",
	"description": "Absolute path to the image file",
}

// modeProperty selects where digits are looked for.
var modeProperty = map[string]interface{}{
	"type":        "string",
	"enum":        []string{"sign", "direct"},
	"description": "sign: find the sheet of paper first and read the digits on it. direct: read digits from the whole image. Defaults to the server's configured mode.",
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Basic Image Information
		{
			Name:        "image_load",
			Description: "Load an image file and return its dimensions, format and color depth. The image and its grayscale buffer stay cached for subsequent operations.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_dimensions",
			Description: "Get the width and height of an image file.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_threshold",
			Description: "Binarize the grayscale image at its automatic ISODATA level. Returns the level, the foreground pixel count and optionally the black and white mask as base64 PNG.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
					"include_image": map[string]interface{}{
						"type":        "boolean",
						"description": "Return the binarized mask as base64 PNG. Default false",
						"default":     false,
					},
					"scale": map[string]interface{}{
						"type":        "number",
						"description": "Optional scale factor for the returned mask. Default 1.0",
						"default":     1.0,
					},
				},
				"required": []string{"path"},
			},
		},

		// Sign Operations
		{
			Name:        "sign_locate",
			Description: "Find sheet-like bright blobs in a photo. Returns every accepted candidate bounding box in label order; the first one is treated as the sign.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
					"min_pixels": map[string]interface{}{
						"type":        "integer",
						"description": "Minimum blob pixel count. Defaults to the server configuration",
					},
					"min_aspect": map[string]interface{}{
						"type":        "number",
						"description": "Minimum width/height ratio. Defaults to the server configuration",
					},
					"min_fill": map[string]interface{}{
						"type":        "number",
						"description": "Minimum fraction of the bounding box covered by the blob. Defaults to the server configuration",
					},
					"annotate": map[string]interface{}{
						"type":        "boolean",
						"description": "Return the photo with candidate boxes drawn on it as base64 PNG. Default false",
						"default":     false,
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "sign_rectify",
			Description: "Warp the sign onto an upright rectangle. Corners are estimated from the located sign unless given explicitly (top-left, top-right, bottom-right, bottom-left in image coordinates).",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
					"corners": map[string]interface{}{
						"type":        "array",
						"minItems":    4,
						"maxItems":    4,
						"description": "Optional sign corners in image coordinates",
						"items": map[string]interface{}{
							"type": "object",
							"properties": map[string]interface{}{
								"x": map[string]interface{}{"type": "number"},
								"y": map[string]interface{}{"type": "number"},
							},
							"required": []string{"x", "y"},
						},
					},
					"border": map[string]interface{}{
						"type":        "integer",
						"description": "Pixels trimmed from every side of the rectified sign. Defaults to the server configuration",
					},
					"scale": map[string]interface{}{
						"type":        "number",
						"description": "Optional scale factor for the returned image. Default 1.0",
						"default":     1.0,
					},
				},
				"required": []string{"path"},
			},
		},

		// Digit Operations
		{
			Name:        "digits_segment",
			Description: "Frame the digit zone and split it into per-digit column intervals. Returns the zone bounds, the intervals, the intervals dropped as too narrow, and the binarized zone with intervals outlined as base64 PNG.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
					"mode": modeProperty,
					"min_digit_width": map[string]interface{}{
						"type":        "integer",
						"description": "Drop intervals narrower than this. Defaults to the server configuration",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "digits_read",
			Description: "Run the full pipeline and read the digits. Returns the digit string, per-digit positions and confidences, and a diagnostic for every skipped unit of work.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
					"mode": modeProperty,
				},
				"required": []string{"path"},
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
