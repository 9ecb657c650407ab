package pixbuf

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/anthonynsimon/bild/effect"
	"golang.org/x/image/draw"
)

// snapEpsilon absorbs floating-point noise from projective mapping so that a
// coordinate computed as 41.9999999 samples pixel 42 exactly.
const snapEpsilon = 1e-6

// Interpolation selects the kernel used by ResizeWith.
type Interpolation int

const (
	// InterpolationArea uses Catmull-Rom, which widens its support when
	// downscaling and so averages over the covered source area.
	InterpolationArea Interpolation = iota

	// InterpolationLinear uses bilinear interpolation.
	InterpolationLinear

	// InterpolationNearest uses nearest-neighbor sampling.
	InterpolationNearest
)

func (i Interpolation) scaler() draw.Scaler {
	switch i {
	case InterpolationLinear:
		return draw.BiLinear
	case InterpolationNearest:
		return draw.NearestNeighbor
	default:
		return draw.CatmullRom
	}
}

// Bilinear estimates the value at a non-integer position from the four
// surrounding samples.
//
// It returns false, and the zero value, when any of the four neighbours lies
// outside the buffer; there is no wraparound and no extrapolation. A
// coordinate that sits exactly on a sample column or row only needs that
// column or row, so positions on the last column or row are still valid.
func (b *Buffer[T]) Bilinear(x, y float64) (T, bool) {
	if math.IsNaN(x) || math.IsNaN(y) || math.IsInf(x, 0) || math.IsInf(y, 0) {
		return 0, false
	}
	x, y = snap(x), snap(y)

	left := int(math.Floor(x))
	top := int(math.Floor(y))
	right, bottom := left+1, top+1
	if x == float64(left) {
		right = left
	}
	if y == float64(top) {
		bottom = top
	}
	if left < 0 || top < 0 || right >= b.width || bottom >= b.height {
		return 0, false
	}

	hp := x - float64(left)
	vp := y - float64(top)

	tl := float64(b.data[top*b.width+left])
	tr := float64(b.data[top*b.width+right])
	bl := float64(b.data[bottom*b.width+left])
	br := float64(b.data[bottom*b.width+right])

	topBlock := tl + hp*(tr-tl)
	bottomBlock := bl + hp*(br-bl)
	return T(topBlock + vp*(bottomBlock-topBlock)), true
}

func snap(v float64) float64 {
	if r := math.Round(v); math.Abs(v-r) < snapEpsilon {
		return r
	}
	return v
}

// Resize returns a newW×newH resampled copy using InterpolationArea.
func (b *Buffer[T]) Resize(newW, newH int) (*Buffer[T], error) {
	return b.ResizeWith(newW, newH, InterpolationArea)
}

// ResizeWith returns a newW×newH resampled copy.
//
// Samples are mapped onto 16-bit gray over the buffer's own [min, max] range,
// scaled with golang.org/x/image/draw, and mapped back, so the output keeps
// the input's dynamic range. A flat buffer resizes to a flat buffer.
func (b *Buffer[T]) ResizeWith(newW, newH int, interp Interpolation) (*Buffer[T], error) {
	if newW <= 0 || newH <= 0 {
		return nil, fmt.Errorf("%w: resize to %dx%d", ErrInvalidRegion, newW, newH)
	}
	if b.width == 0 || b.height == 0 {
		return nil, fmt.Errorf("%w: resize of empty %dx%d buffer", ErrInvalidRegion, b.width, b.height)
	}
	lo, hi := b.MinMax()
	if lo == hi {
		return New(newW, newH, lo), nil
	}
	dyn := float64(hi) - float64(lo)

	src := image.NewGray16(image.Rect(0, 0, b.width, b.height))
	for i, v := range b.data {
		g := math.Round((float64(v) - float64(lo)) / dyn * 0xffff)
		src.SetGray16(i%b.width, i/b.width, color.Gray16{Y: uint16(g)})
	}

	dst := image.NewGray16(image.Rect(0, 0, newW, newH))
	interp.scaler().Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)

	out := &Buffer[T]{width: newW, height: newH, data: make([]T, newW*newH)}
	for y := 0; y < newH; y++ {
		for x := 0; x < newW; x++ {
			g := float64(dst.Gray16At(x, y).Y) / 0xffff
			out.data[y*newW+x] = T(float64(lo) + g*dyn)
		}
	}
	return out, nil
}

// ToGray copies an 8-bit buffer into an *image.Gray.
func ToGray(b *Buffer[uint8]) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, b.width, b.height))
	for y := 0; y < b.height; y++ {
		copy(img.Pix[y*img.Stride:y*img.Stride+b.width], b.data[y*b.width:(y+1)*b.width])
	}
	return img
}

// FromImage builds an 8-bit buffer from the luminance of img as reported by
// color.GrayModel. Use it for images that are already grayscale.
func FromImage(img image.Image) *Buffer[uint8] {
	bounds := img.Bounds()
	out := New[uint8](bounds.Dx(), bounds.Dy(), 0)
	for y := 0; y < out.height; y++ {
		for x := 0; x < out.width; x++ {
			g := color.GrayModel.Convert(img.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.Gray)
			out.data[y*out.width+x] = g.Y
		}
	}
	return out
}

// Sobel returns the Sobel gradient magnitude of an 8-bit buffer, clamped to
// [0, 255]. The one-pixel frame is zero because the 3×3 kernel has no full
// neighbourhood there.
func Sobel(b *Buffer[uint8]) *Buffer[uint8] {
	if b.width == 0 || b.height == 0 {
		return b.Clone()
	}
	edges := FromImage(effect.Sobel(ToGray(b)))
	for x := 0; x < edges.width; x++ {
		edges.data[x] = 0
		edges.data[(edges.height-1)*edges.width+x] = 0
	}
	for y := 0; y < edges.height; y++ {
		edges.data[y*edges.width] = 0
		edges.data[y*edges.width+edges.width-1] = 0
	}
	return edges
}
