package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"math"
	"strconv"
	"time"

	"github.com/ironsheep/digit-sign-mcp/internal/blob"
	"github.com/ironsheep/digit-sign-mcp/internal/imaging"
	"github.com/ironsheep/digit-sign-mcp/internal/pipeline"
	"github.com/ironsheep/digit-sign-mcp/internal/pixbuf"
	"github.com/ironsheep/digit-sign-mcp/internal/rectify"
	"github.com/ironsheep/digit-sign-mcp/internal/segment"
	"github.com/ironsheep/digit-sign-mcp/internal/threshold"
)

// errInvalidArgs marks tool failures caused by the caller's arguments.
var errInvalidArgs = errors.New("invalid arguments")

// annotationColor outlines boxes and intervals on returned images.
const annotationColor = "#FF3030"

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "image_load", "digits_read").
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
// Argument errors return code -32602 and execution errors code -32000.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	start := time.Now()
	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	if err != nil {
		s.log.Warn("tool failed", "tool", params.Name, "error", err)
		if errors.Is(err, errInvalidArgs) {
			return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
		}
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}
	s.log.Debug("tool done", "tool", params.Name, "elapsed", time.Since(start))

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
//
// Each tool handler:
//  1. Unmarshals arguments from JSON
//  2. Applies server defaults for optional parameters
//  3. Loads the grayscale buffer from cache
//  4. Runs the pipeline stages the tool exposes
//  5. Returns the result or error
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Basic Image Information
	case "image_load":
		return s.handleImageLoad(args)
	case "image_dimensions":
		return s.handleImageDimensions(args)
	case "image_threshold":
		return s.handleImageThreshold(args)

	// Sign Operations
	case "sign_locate":
		return s.handleSignLocate(args)
	case "sign_rectify":
		return s.handleSignRectify(args)

	// Digit Operations
	case "digits_segment":
		return s.handleDigitsSegment(args)
	case "digits_read":
		return s.handleDigitsRead(ctx, args)

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

// decodeArgs unmarshals args into v and checks that path is set.
func decodeArgs(args json.RawMessage, v interface{}, path func() string) error {
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}
	if err := json.Unmarshal(args, v); err != nil {
		return fmt.Errorf("%w: %v", errInvalidArgs, err)
	}
	if path() == "" {
		return fmt.Errorf("%w: path is required", errInvalidArgs)
	}
	return nil
}

// resolveMode parses mode, falling back to the reader's configured mode.
func (s *Server) resolveMode(mode string) (pipeline.Mode, error) {
	if mode == "" {
		return s.reader.Options().Mode, nil
	}
	m, err := pipeline.ParseMode(mode)
	if err != nil {
		return m, fmt.Errorf("%w: %v", errInvalidArgs, err)
	}
	return m, nil
}

func boxRect(b blob.BoundingBox) image.Rectangle {
	return image.Rect(b.MinX, b.MinY, b.MaxX+1, b.MaxY+1)
}

// === Basic Image Information Handlers ===

type pathArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleImageLoad(args json.RawMessage) (interface{}, error) {
	var a pathArgs
	if err := decodeArgs(args, &a, func() string { return a.Path }); err != nil {
		return nil, err
	}
	return imaging.LoadImageInfo(s.cache, a.Path)
}

func (s *Server) handleImageDimensions(args json.RawMessage) (interface{}, error) {
	var a pathArgs
	if err := decodeArgs(args, &a, func() string { return a.Path }); err != nil {
		return nil, err
	}
	return imaging.GetDimensions(s.cache, a.Path)
}

type imageThresholdArgs struct {
	Path         string  `json:"path"`
	IncludeImage bool    `json:"include_image"`
	Scale        float64 `json:"scale"`
}

type thresholdResult struct {
	Width      int                   `json:"width"`
	Height     int                   `json:"height"`
	Level      float32               `json:"level"`
	Foreground int                   `json:"foreground_pixels"`
	Image      *imaging.EncodedImage `json:"image,omitempty"`
}

func (s *Server) handleImageThreshold(args json.RawMessage) (interface{}, error) {
	var a imageThresholdArgs
	if err := decodeArgs(args, &a, func() string { return a.Path }); err != nil {
		return nil, err
	}
	if a.Scale == 0 {
		a.Scale = 1.0
	}
	if a.Scale < 0 {
		return nil, fmt.Errorf("%w: scale must be positive, got %v", errInvalidArgs, a.Scale)
	}

	luma, err := s.cache.LoadLuma(a.Path)
	if err != nil {
		return nil, err
	}
	binary, level := threshold.Auto(luma)

	result := &thresholdResult{
		Width:  binary.Width(),
		Height: binary.Height(),
		Level:  level,
	}
	binary.Range(func(_, _ int, v float32) {
		if v > 0 {
			result.Foreground++
		}
	})

	if a.IncludeImage {
		img, err := imaging.EncodeBuffer(binary, a.Scale)
		if err != nil {
			return nil, fmt.Errorf("encode mask: %w", err)
		}
		result.Image = img
	}
	return result, nil
}

// === Sign Handlers ===

type signLocateArgs struct {
	Path      string   `json:"path"`
	MinPixels *int     `json:"min_pixels"`
	MinAspect *float64 `json:"min_aspect"`
	MinFill   *float64 `json:"min_fill"`
	Annotate  bool     `json:"annotate"`
}

type signLocateResult struct {
	*pipeline.SignLocation
	Sign  *blob.BoundingBox     `json:"sign,omitempty"`
	Image *imaging.EncodedImage `json:"image,omitempty"`
}

func (s *Server) handleSignLocate(args json.RawMessage) (interface{}, error) {
	var a signLocateArgs
	if err := decodeArgs(args, &a, func() string { return a.Path }); err != nil {
		return nil, err
	}

	opts := s.reader.Options().Sign
	if a.MinPixels != nil {
		opts.MinPixels = *a.MinPixels
	}
	if a.MinAspect != nil {
		opts.MinAspect = *a.MinAspect
	}
	if a.MinFill != nil {
		opts.MinFill = *a.MinFill
	}

	luma, err := s.cache.LoadLuma(a.Path)
	if err != nil {
		return nil, err
	}
	loc := pipeline.LocateSign(luma, opts)

	result := &signLocateResult{SignLocation: loc}
	if sign, ok := loc.Sign(); ok {
		result.Sign = &sign
	}

	if a.Annotate {
		marks := make([]imaging.Mark, len(loc.Candidates))
		for i, c := range loc.Candidates {
			marks[i] = imaging.Mark{Rect: boxRect(c), Label: strconv.Itoa(i)}
		}
		img, err := imaging.Annotate(luma, marks, annotationColor)
		if err != nil {
			return nil, fmt.Errorf("annotate candidates: %w", err)
		}
		result.Image = img
	}
	return result, nil
}

type signRectifyArgs struct {
	Path    string          `json:"path"`
	Corners []rectify.Point `json:"corners"`
	Border  *int            `json:"border"`
	Scale   float64         `json:"scale"`
}

type signRectifyResult struct {
	Sign blob.BoundingBox `json:"sign"`

	// Quad holds the corners in image coordinates.
	Quad      rectify.Quad          `json:"quad"`
	Estimated bool                  `json:"estimated"`
	Width     int                   `json:"width"`
	Height    int                   `json:"height"`
	Image     *imaging.EncodedImage `json:"image"`
}

func (s *Server) handleSignRectify(args json.RawMessage) (interface{}, error) {
	var a signRectifyArgs
	if err := decodeArgs(args, &a, func() string { return a.Path }); err != nil {
		return nil, err
	}
	if a.Corners != nil && len(a.Corners) != 4 {
		return nil, fmt.Errorf("%w: corners must hold 4 points, got %d", errInvalidArgs, len(a.Corners))
	}
	if a.Scale == 0 {
		a.Scale = 1.0
	}
	if a.Scale < 0 {
		return nil, fmt.Errorf("%w: scale must be positive, got %v", errInvalidArgs, a.Scale)
	}

	opts := s.reader.Options().Sign
	if a.Border != nil {
		if *a.Border < 0 {
			return nil, fmt.Errorf("%w: border must not be negative, got %d", errInvalidArgs, *a.Border)
		}
		opts.BorderTrim = *a.Border
	}

	luma, err := s.cache.LoadLuma(a.Path)
	if err != nil {
		return nil, err
	}

	var (
		ext *pipeline.Extraction
		box blob.BoundingBox
	)
	if a.Corners != nil {
		var quad rectify.Quad
		copy(quad[:], a.Corners)
		if ext, box, err = pipeline.ExtractQuad(luma, quad, opts.BorderTrim); err != nil {
			return nil, err
		}
	} else {
		if ext, box, err = extractSign(luma, opts); err != nil {
			return nil, err
		}
	}

	img, err := imaging.EncodeBuffer(ext.Warped, a.Scale)
	if err != nil {
		return nil, fmt.Errorf("encode sign: %w", err)
	}

	quad := ext.Quad
	for i := range quad {
		quad[i].X += float64(box.MinX)
		quad[i].Y += float64(box.MinY)
	}
	return &signRectifyResult{
		Sign:      box,
		Quad:      quad,
		Estimated: a.Corners == nil,
		Width:     ext.Warped.Width(),
		Height:    ext.Warped.Height(),
		Image:     img,
	}, nil
}

// extractSign locates the sign in luma and rectifies it.
func extractSign(luma *pixbuf.Buffer[float32], opts pipeline.SignOptions) (*pipeline.Extraction, blob.BoundingBox, error) {
	loc := pipeline.LocateSign(luma, opts)
	box, ok := loc.Sign()
	if !ok {
		return nil, box, fmt.Errorf("%w among %d blobs", pipeline.ErrNoSign, loc.Blobs)
	}
	ext, err := pipeline.ExtractSign(luma, box, opts)
	if err != nil {
		return nil, box, err
	}
	return ext, box, nil
}

// === Digit Handlers ===

type digitsSegmentArgs struct {
	Path          string `json:"path"`
	Mode          string `json:"mode"`
	MinDigitWidth *int   `json:"min_digit_width"`
}

type digitsSegmentResult struct {
	Mode string            `json:"mode"`
	Sign *blob.BoundingBox `json:"sign,omitempty"`
	*pipeline.Digits
	Image *imaging.EncodedImage `json:"image"`
}

func (s *Server) handleDigitsSegment(args json.RawMessage) (interface{}, error) {
	var a digitsSegmentArgs
	if err := decodeArgs(args, &a, func() string { return a.Path }); err != nil {
		return nil, err
	}
	mode, err := s.resolveMode(a.Mode)
	if err != nil {
		return nil, err
	}

	opts := s.reader.Options()
	if a.MinDigitWidth != nil {
		if *a.MinDigitWidth < 0 {
			return nil, fmt.Errorf("%w: min_digit_width must not be negative, got %d", errInvalidArgs, *a.MinDigitWidth)
		}
		opts.MinDigitWidth = *a.MinDigitWidth
	}

	luma, err := s.cache.LoadLuma(a.Path)
	if err != nil {
		return nil, err
	}

	result := &digitsSegmentResult{Mode: mode.String()}
	source := luma
	if mode == pipeline.ModeSign {
		ext, box, err := extractSign(luma, opts.Sign)
		if err != nil {
			return nil, err
		}
		source = ext.Warped
		result.Sign = &box
	}

	digits, err := pipeline.SegmentDigits(source, opts)
	if err != nil {
		return nil, err
	}
	result.Digits = digits

	h := digits.Binary.Height()
	marks := make([]imaging.Mark, 0, len(digits.Intervals)+len(digits.Narrow))
	for i, iv := range digits.Intervals {
		marks = append(marks, imaging.Mark{Rect: intervalRect(iv, h), Label: strconv.Itoa(i)})
	}
	for _, iv := range digits.Narrow {
		marks = append(marks, imaging.Mark{Rect: intervalRect(iv, h)})
	}
	img, err := imaging.Annotate(digits.Binary, marks, annotationColor)
	if err != nil {
		return nil, fmt.Errorf("annotate intervals: %w", err)
	}
	result.Image = img
	return result, nil
}

func intervalRect(iv segment.Interval, height int) image.Rectangle {
	return image.Rect(iv.Start, 0, iv.Stop, height)
}

type digitsReadArgs struct {
	Path string `json:"path"`
	Mode string `json:"mode"`
}

type digitsReadResult struct {
	Digits string `json:"digits"`

	// MeanConfidence averages the recognition confidences, 0 when none.
	MeanConfidence float32 `json:"mean_confidence"`
	*pipeline.Result
}

func (s *Server) handleDigitsRead(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a digitsReadArgs
	if err := decodeArgs(args, &a, func() string { return a.Path }); err != nil {
		return nil, err
	}
	mode, err := s.resolveMode(a.Mode)
	if err != nil {
		return nil, err
	}

	luma, err := s.cache.LoadLuma(a.Path)
	if err != nil {
		return nil, err
	}

	res, err := s.reader.ReadMode(ctx, luma, mode)
	if err != nil {
		return nil, err
	}

	result := &digitsReadResult{Digits: res.String(), Result: res}
	if n := len(res.Recognitions); n > 0 {
		var sum float64
		for _, rec := range res.Recognitions {
			sum += float64(rec.Confidence)
		}
		result.MeanConfidence = float32(math.Round(sum/float64(n)*100) / 100)
	}
	s.log.Info("digits read", "path", a.Path, "mode", mode, "digits", result.Digits, "run_id", res.RunID)
	return result, nil
}
