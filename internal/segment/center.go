package segment

import (
	"errors"
	"fmt"
	"math"

	"github.com/ironsheep/digit-sign-mcp/internal/pixbuf"
)

// ErrCannotCenter reports a glyph whose ink box is empty or degenerate.
// The caller skips the glyph.
var ErrCannotCenter = errors.New("cannot center glyph")

// CenterOptions controls glyph centering.
type CenterOptions struct {
	// InkThreshold is the minimal profile value counted as ink.
	InkThreshold float64

	// IntermediateSize is the square size the glyph is downsampled to
	// before its center of mass is measured.
	IntermediateSize int

	// OutputSize is the square canvas the centered glyph is pasted into.
	OutputSize int
}

// DefaultCenterOptions returns MNIST-style centering: a 20×20 glyph
// recentered by mass in a 28×28 canvas.
func DefaultCenterOptions() CenterOptions {
	return CenterOptions{
		InkThreshold:     1,
		IntermediateSize: 20,
		OutputSize:       28,
	}
}

// Centered is a glyph ready for classification together with the geometry
// measured while centering it.
type Centered struct {
	// Glyph is OutputSize×OutputSize with samples in [0, 1].
	Glyph *pixbuf.Buffer[float32]

	// Box is the tight ink box inside the input, stop exclusive.
	Box Interval2D

	// MassX and MassY are the center of mass in the intermediate image.
	MassX, MassY int
}

// Interval2D is a tight box with exclusive stops.
type Interval2D struct {
	X Interval `json:"x"`
	Y Interval `json:"y"`
}

// CenterGlyph centers the ink of glyph inside a fixed-size canvas.
//
// Parameters:
//   - glyph: A binarized column band holding one digit. It is not modified.
//   - opts: Centering sizes and ink threshold.
//
// Returns:
//   - *Centered: The centered glyph normalized to [0, 1].
//   - error: ErrCannotCenter when the ink box is empty or degenerate, or
//     when the downsampled glyph has no contrast left.
//
// # Algorithm
//
//  1. Extent: first ink run of the column and row profiles
//  2. Square: crop to that box and pad to a centered max(w, h) square
//  3. Downsample to IntermediateSize and stretch to [0, 255]
//  4. Center of mass: floor(Σv·x/Σv), floor(Σv·y/Σv)
//  5. Paste into OutputSize at fraction 1 - mass/IntermediateSize, then
//     stretch to [0, 1]
func CenterGlyph(glyph *pixbuf.Buffer[float32], opts CenterOptions) (*Centered, error) {
	if opts.IntermediateSize <= 0 || opts.OutputSize < opts.IntermediateSize {
		return nil, fmt.Errorf("%w: sizes %d/%d", pixbuf.ErrInvalidRange, opts.IntermediateSize, opts.OutputSize)
	}

	lines, rows := glyph.LineRowSums()
	startX, stopX, okX := Extent(rows.Samples(), opts.InkThreshold)
	startY, stopY, okY := Extent(lines.Samples(), opts.InkThreshold)
	if !okX || !okY || stopX <= startX || stopY <= startY {
		return nil, fmt.Errorf("%w: box x=[%d,%d) y=[%d,%d)", ErrCannotCenter, startX, stopX, startY, stopY)
	}

	work, err := glyph.Crop(startX, startY, stopX, stopY)
	if err != nil {
		return nil, fmt.Errorf("crop glyph: %w", err)
	}
	side := max(stopX-startX, stopY-startY)
	if work, err = work.CanvasResize(side, side, 0.5, 0.5); err != nil {
		return nil, fmt.Errorf("square glyph: %w", err)
	}
	if work, err = work.Resize(opts.IntermediateSize, opts.IntermediateSize); err != nil {
		return nil, fmt.Errorf("downsample glyph: %w", err)
	}
	if err := work.Normalize(0, 255); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCannotCenter, err)
	}

	massX, massY, err := centerOfMass(work)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCannotCenter, err)
	}

	size := float64(opts.IntermediateSize)
	out, err := work.CanvasResize(opts.OutputSize, opts.OutputSize,
		1-float64(massX)/size, 1-float64(massY)/size)
	if err != nil {
		return nil, fmt.Errorf("recenter glyph: %w", err)
	}
	if err := out.Normalize(0, 1); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCannotCenter, err)
	}

	return &Centered{
		Glyph: out,
		Box: Interval2D{
			X: Interval{Start: startX, Stop: stopX},
			Y: Interval{Start: startY, Stop: stopY},
		},
		MassX: massX,
		MassY: massY,
	}, nil
}

// centerOfMass returns the floored intensity-weighted mean position.
func centerOfMass(b *pixbuf.Buffer[float32]) (int, int, error) {
	var sx, sy, total float64
	b.Range(func(x, y int, v float32) {
		sx += float64(v) * float64(x)
		sy += float64(v) * float64(y)
		total += float64(v)
	})
	if total <= 0 {
		return 0, 0, pixbuf.ErrNoMass
	}
	return int(math.Floor(sx / total)), int(math.Floor(sy / total)), nil
}
