package pipeline

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/ironsheep/digit-sign-mcp/internal/segment"
)

// Mode selects where the pipeline looks for digits.
type Mode int

const (
	// ModeSign locates the largest sheet-like blob, rectifies it and reads
	// the digits written on it.
	ModeSign Mode = iota

	// ModeDirect reads digits from the whole image.
	ModeDirect
)

func (m Mode) String() string {
	if m == ModeDirect {
		return "direct"
	}
	return "sign"
}

// ParseMode accepts "sign" or "direct". An empty string selects ModeSign.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "sign":
		return ModeSign, nil
	case "direct":
		return ModeDirect, nil
	default:
		return ModeSign, fmt.Errorf("unknown mode %q (want sign or direct)", s)
	}
}

// ModelInfo describes the input a classifier expects: a square glyph of
// InputSize pixels with samples in [MinRange, MaxRange].
type ModelInfo struct {
	Name      string  `json:"name"`
	InputSize int     `json:"input_size"`
	MinRange  float32 `json:"min_range"`
	MaxRange  float32 `json:"max_range"`
}

var (
	// ModelKaggle takes 32×32 glyphs in [-1, 1].
	ModelKaggle = ModelInfo{Name: "kaggle", InputSize: 32, MinRange: -1, MaxRange: 1}

	// ModelCaffe takes 28×28 glyphs in [0, 1].
	ModelCaffe = ModelInfo{Name: "caffe", InputSize: 28, MinRange: 0, MaxRange: 1}
)

// ModelByName returns the input layout registered under name.
func ModelByName(name string) (ModelInfo, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "kaggle":
		return ModelKaggle, nil
	case "caffe":
		return ModelCaffe, nil
	default:
		return ModelInfo{}, fmt.Errorf("unknown model %q (want kaggle or caffe)", name)
	}
}

// SignOptions are the blob filters that pick a sign candidate.
type SignOptions struct {
	// MinPixels is the smallest accepted foreground pixel count.
	MinPixels int

	// MinAspect is the smallest accepted width/height ratio.
	MinAspect float64

	// MinFill is the smallest accepted count/(width·height) ratio.
	MinFill float64

	// BorderTrim is removed from every side of the rectified sign.
	BorderTrim int
}

// ZoneOptions control the edge-profile crop around the digits.
type ZoneOptions struct {
	// EdgeLevel binarizes the normalized Sobel magnitude.
	EdgeLevel uint8

	// ProfileLevel binarizes the edge row and column profiles.
	ProfileLevel float64

	// MarginDivisor sets the margin to (stopY-startY)/MarginDivisor. It was
	// tuned empirically and is a knob, not an invariant.
	MarginDivisor int
}

// Options configure a Reader.
type Options struct {
	Mode   Mode
	Model  ModelInfo
	Sign   SignOptions
	Zone   ZoneOptions
	Center segment.CenterOptions

	// InkThreshold binarizes the zone column profile into intervals.
	InkThreshold float64

	// MinDigitWidth drops intervals narrower than this many columns.
	MinDigitWidth int

	// Workers bounds concurrent glyph classification.
	Workers int

	// Rotations, in degrees, are classified in addition to the upright
	// glyph and the most confident answer wins. Empty disables it.
	Rotations []float64
}

// DefaultOptions returns the tuned defaults for the kaggle model.
func DefaultOptions() Options {
	return Options{
		Mode:  ModeSign,
		Model: ModelKaggle,
		Sign: SignOptions{
			MinPixels:  2500,
			MinAspect:  1.25,
			MinFill:    0.5,
			BorderTrim: 2,
		},
		Zone: ZoneOptions{
			EdgeLevel:     40,
			ProfileLevel:  5,
			MarginDivisor: 7,
		},
		Center:        segment.DefaultCenterOptions(),
		InkThreshold:  1,
		MinDigitWidth: 10,
		Workers:       runtime.NumCPU(),
	}
}

// Validate checks the options for values the pipeline cannot run with.
func (o Options) Validate() error {
	if o.Model.InputSize < o.Center.OutputSize {
		return fmt.Errorf("model input %d smaller than centered glyph %d", o.Model.InputSize, o.Center.OutputSize)
	}
	if !(o.Model.MaxRange > o.Model.MinRange) {
		return fmt.Errorf("model range [%v,%v] is empty", o.Model.MinRange, o.Model.MaxRange)
	}
	if o.Center.IntermediateSize <= 0 || o.Center.OutputSize < o.Center.IntermediateSize {
		return fmt.Errorf("centering sizes %d/%d are invalid", o.Center.IntermediateSize, o.Center.OutputSize)
	}
	if o.Zone.MarginDivisor <= 0 {
		return fmt.Errorf("margin divisor must be positive, got %d", o.Zone.MarginDivisor)
	}
	if o.Sign.BorderTrim < 0 {
		return fmt.Errorf("border trim must not be negative, got %d", o.Sign.BorderTrim)
	}
	if o.MinDigitWidth < 0 {
		return fmt.Errorf("minimum digit width must not be negative, got %d", o.MinDigitWidth)
	}
	if o.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", o.Workers)
	}
	return nil
}
