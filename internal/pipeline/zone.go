package pipeline

import (
	"errors"
	"fmt"

	"github.com/ironsheep/digit-sign-mcp/internal/pixbuf"
	"github.com/ironsheep/digit-sign-mcp/internal/segment"
	"github.com/ironsheep/digit-sign-mcp/internal/threshold"
)

// ErrNoDigitRegion reports an image without enough edge ink to frame digits.
var ErrNoDigitRegion = errors.New("no digit region found")

// Zone is the inverted crop around the digits of an image.
type Zone struct {
	// X0, Y0 are inclusive and X1, Y1 exclusive bounds in the source.
	X0     int `json:"x0"`
	Y0     int `json:"y0"`
	X1     int `json:"x1"`
	Y1     int `json:"y1"`
	Margin int `json:"margin"`

	// Image holds 1 - v for each source sample v in the zone.
	Image *pixbuf.Buffer[float32] `json:"-"`
}

// CropDigitZone frames the digits of img using its edge profile.
//
// Parameters:
//   - img: Grayscale samples in [0, 255], dark ink on a light background.
//   - opts: Edge and profile levels and the margin divisor.
//
// Returns:
//   - *Zone: The framed region, inverted so ink is high.
//   - error: ErrNoDigitRegion when the image has no edges to frame.
//
// # Algorithm
//
//  1. Quantize to 8 bits and take the Sobel magnitude
//  2. Stretch the magnitude to [0, 255] and binarize it at EdgeLevel
//  3. Sum rows and columns, binarize both profiles at ProfileLevel
//  4. Take the first and last ink position on each axis
//  5. Widen by margin = (stopY-startY)/MarginDivisor vertically and twice
//     that horizontally, clamped to the image
//  6. Crop and invert
func CropDigitZone(img *pixbuf.Buffer[float32], opts ZoneOptions) (*Zone, error) {
	if opts.MarginDivisor <= 0 {
		return nil, fmt.Errorf("margin divisor must be positive, got %d", opts.MarginDivisor)
	}
	work := img.Clone()
	work.Clamp(0, 255)
	edges := pixbuf.Sobel(pixbuf.Convert[uint8](work))
	if err := edges.Normalize(0, 255); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoDigitRegion, err)
	}
	edges.Threshold(opts.EdgeLevel)

	lines, rows := edges.LineRowSums()
	lines.Threshold(opts.ProfileLevel)
	rows.Threshold(opts.ProfileLevel)

	startX, stopX, okX := inkBounds(rows)
	startY, stopY, okY := inkBounds(lines)
	if !okX || !okY {
		return nil, ErrNoDigitRegion
	}

	margin := (stopY - startY) / opts.MarginDivisor
	startX -= min(startX, 2*margin)
	startY -= min(startY, margin)
	stopX += min(img.Width()-stopX-1, 2*margin)
	stopY += min(img.Height()-stopY-1, margin)
	if stopX <= startX || stopY <= startY {
		return nil, fmt.Errorf("%w: zone (%d,%d)-(%d,%d) is empty", ErrNoDigitRegion, startX, startY, stopX, stopY)
	}

	crop, err := img.Crop(startX, startY, stopX, stopY)
	if err != nil {
		return nil, fmt.Errorf("crop digit zone: %w", err)
	}
	return &Zone{
		X0: startX, Y0: startY, X1: stopX, Y1: stopY,
		Margin: margin,
		Image:  crop.Invert(1),
	}, nil
}

// inkBounds returns the first and last non-zero index of a profile.
func inkBounds(p *pixbuf.Buffer[float64]) (first, last int, ok bool) {
	first, last = -1, -1
	for i := 0; i < p.Len(); i++ {
		if p.Index(i) != 0 {
			if first < 0 {
				first = i
			}
			last = i
		}
	}
	return first, last, first >= 0
}

// Digits is a segmented digit zone.
type Digits struct {
	Zone *Zone `json:"zone"`

	// Level is the ISODATA level the stretched zone was binarized at.
	Level float32 `json:"level"`

	// Binary is the binarized zone the intervals were measured on.
	Binary *pixbuf.Buffer[float32] `json:"-"`

	// Intervals are the digit candidates wide enough to classify.
	Intervals []segment.Interval `json:"intervals"`

	// Narrow are intervals dropped for being thinner than MinDigitWidth.
	Narrow []segment.Interval `json:"narrow,omitempty"`
}

// SegmentDigits frames the digits of img and splits the frame into
// per-digit column intervals.
func SegmentDigits(img *pixbuf.Buffer[float32], opts Options) (*Digits, error) {
	zone, err := CropDigitZone(img, opts.Zone)
	if err != nil {
		return nil, err
	}

	binary := zone.Image.Clone()
	if err := binary.Normalize(0, 255); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoDigitRegion, err)
	}
	level := threshold.AutoInPlace(binary)

	all := segment.FindIntervals(binary.RowSums().Samples(), opts.InkThreshold)
	kept := segment.FilterNarrow(all, opts.MinDigitWidth)
	narrow := make([]segment.Interval, 0, len(all)-len(kept))
	for _, iv := range all {
		if iv.Width() < opts.MinDigitWidth {
			narrow = append(narrow, iv)
		}
	}

	return &Digits{
		Zone:      zone,
		Level:     level,
		Binary:    binary,
		Intervals: kept,
		Narrow:    narrow,
	}, nil
}
