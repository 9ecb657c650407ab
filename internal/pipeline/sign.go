package pipeline

import (
	"errors"
	"fmt"
	"math"

	"github.com/ironsheep/digit-sign-mcp/internal/blob"
	"github.com/ironsheep/digit-sign-mcp/internal/pixbuf"
	"github.com/ironsheep/digit-sign-mcp/internal/rectify"
	"github.com/ironsheep/digit-sign-mcp/internal/threshold"
)

// ErrNoSign reports an image without any blob passing the sign filters.
var ErrNoSign = errors.New("no sign candidate found")

// SignLocation is the outcome of LocateSign.
type SignLocation struct {
	// Level is the ISODATA level the image was binarized at.
	Level float32 `json:"level"`

	// Blobs is the number of components found before filtering.
	Blobs int `json:"blobs"`

	// Candidates are the accepted components in label order. The first one
	// is the sign.
	Candidates []blob.BoundingBox `json:"candidates"`

	// Binary is the binarized image the blobs were labeled on.
	Binary *pixbuf.Buffer[float32] `json:"-"`
}

// Sign returns the first candidate, or false when there is none.
func (l *SignLocation) Sign() (blob.BoundingBox, bool) {
	if len(l.Candidates) == 0 {
		return blob.BoundingBox{}, false
	}
	return l.Candidates[0], true
}

// Accepts reports whether box looks like a sheet: enough pixels, wider than
// tall by MinAspect, and at least MinFill of its box covered. Boxes with a
// zero width or height are rejected.
func (o SignOptions) Accepts(box blob.BoundingBox) bool {
	if box.Width() == 0 || box.Height() == 0 {
		return false
	}
	return box.Count >= o.MinPixels &&
		box.AspectRatio() >= o.MinAspect &&
		box.FillRatio() >= o.MinFill
}

// LocateSign binarizes img at its ISODATA level, labels the bright
// components, and keeps those accepted by opts. img is not modified.
func LocateSign(img *pixbuf.Buffer[float32], opts SignOptions) *SignLocation {
	binary, level := threshold.Auto(img)
	boxes := blob.Label(binary)

	candidates := make([]blob.BoundingBox, 0)
	for _, box := range boxes {
		if opts.Accepts(box) {
			candidates = append(candidates, box)
		}
	}
	return &SignLocation{
		Level:      level,
		Blobs:      len(boxes),
		Candidates: candidates,
		Binary:     binary,
	}
}

// EstimateQuad guesses the sheet corners inside a crop of the sign.
//
// The crop is binarized and projected on both axes. On each profile the
// first and last positions with a zero central difference mark where the
// sheet edge stops drifting, which for a skewed sheet is where a corner sits.
// The corners are ordered top-left, top-right, bottom-right, bottom-left and
// clamped into the crop.
func EstimateQuad(crop *pixbuf.Buffer[float32]) rectify.Quad {
	binary, _ := threshold.Auto(crop)
	lines, rows := binary.LineRowSums()
	dRows := rows.DLine()
	dLines := lines.DColumn()

	w := crop.Width() - 1
	h := crop.Height() - 1

	i0 := firstZero(dRows, 1, dRows.Len())
	i1 := lastZero(dRows, dRows.Len()-2)
	j0 := firstZero(dLines, 1, dLines.Len())
	j1 := lastZero(dLines, dLines.Len()-2)

	i0, i1 = clamp(i0, 0, w), clamp(i1, 0, w)
	j0, j1 = clamp(j0, 0, h), clamp(j1, 0, h)

	return rectify.Quad{
		{X: float64(i0), Y: 0},
		{X: float64(w), Y: float64(j0)},
		{X: float64(i1), Y: float64(h)},
		{X: 0, Y: float64(j1)},
	}
}

// firstZero returns the first index in [from, to) holding 0, or to.
func firstZero(p *pixbuf.Buffer[float64], from, to int) int {
	i := from
	for ; i < to; i++ {
		if p.Index(i) == 0 {
			break
		}
	}
	return i
}

// lastZero returns the last index in [0, from] holding 0, or -1.
func lastZero(p *pixbuf.Buffer[float64], from int) int {
	i := from
	for ; i >= 0; i-- {
		if p.Index(i) == 0 {
			break
		}
	}
	return i
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}

// Extraction is a rectified sign.
type Extraction struct {
	// Quad holds the estimated corners in crop coordinates.
	Quad rectify.Quad `json:"quad"`

	// Warped is the rectified sign with BorderTrim removed.
	Warped *pixbuf.Buffer[float32] `json:"-"`
}

// ExtractSign crops img to box, estimates the sheet corners and warps them
// onto the crop rectangle. box stops are used as exclusive crop bounds.
func ExtractSign(img *pixbuf.Buffer[float32], box blob.BoundingBox, opts SignOptions) (*Extraction, error) {
	crop, err := img.Crop(box.MinX, box.MinY, box.MaxX, box.MaxY)
	if err != nil {
		return nil, fmt.Errorf("crop sign: %w", err)
	}
	if crop.Width() < 2 || crop.Height() < 2 {
		return nil, fmt.Errorf("%w: sign crop %dx%d", pixbuf.ErrInvalidRegion, crop.Width(), crop.Height())
	}
	quad := EstimateQuad(crop)
	return RectifySign(crop, quad, opts.BorderTrim)
}

// RectifySign warps quad inside crop onto the full crop rectangle and trims
// border pixels from every side.
func RectifySign(crop *pixbuf.Buffer[float32], quad rectify.Quad, border int) (*Extraction, error) {
	w := float64(crop.Width() - 1)
	h := float64(crop.Height() - 1)
	warped, err := rectify.Warp(crop, quad, rectify.RectQuad(w, h))
	if err != nil {
		return nil, fmt.Errorf("rectify sign: %w", err)
	}
	if warped, err = warped.RemoveBorder(border); err != nil {
		return nil, fmt.Errorf("trim sign: %w", err)
	}
	return &Extraction{Quad: quad, Warped: warped}, nil
}

// ExtractQuad rectifies a sign whose corners are given in img coordinates.
// The image is cropped to the corners' bounding box first, so the output has
// the size of that box less the border.
func ExtractQuad(img *pixbuf.Buffer[float32], quad rectify.Quad, border int) (*Extraction, blob.BoundingBox, error) {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range quad {
		minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
		minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
	}
	box := blob.BoundingBox{
		MinX: clamp(int(math.Floor(minX)), 0, img.Width()-1),
		MinY: clamp(int(math.Floor(minY)), 0, img.Height()-1),
		MaxX: clamp(int(math.Ceil(maxX)), 0, img.Width()-1),
		MaxY: clamp(int(math.Ceil(maxY)), 0, img.Height()-1),
	}
	crop, err := img.Crop(box.MinX, box.MinY, box.MaxX+1, box.MaxY+1)
	if err != nil {
		return nil, box, fmt.Errorf("crop sign: %w", err)
	}
	if crop.Width() < 2 || crop.Height() < 2 {
		return nil, box, fmt.Errorf("%w: sign crop %dx%d", pixbuf.ErrInvalidRegion, crop.Width(), crop.Height())
	}

	local := quad
	for i := range local {
		local[i].X -= float64(box.MinX)
		local[i].Y -= float64(box.MinY)
	}
	ext, err := RectifySign(crop, local, border)
	return ext, box, err
}
