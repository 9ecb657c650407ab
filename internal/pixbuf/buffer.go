package pixbuf

import (
	"errors"
	"fmt"
	"math"
)

// Sentinel errors returned by region and range operations.
var (
	ErrOutOfBounds   = errors.New("region outside buffer bounds")
	ErrInvalidRegion = errors.New("invalid region")
	ErrFlatBuffer    = errors.New("buffer has no dynamic range")
	ErrInvalidRange  = errors.New("invalid output range")
	ErrNoMass        = errors.New("no intensity mass")
)

// Sample is the set of numeric types a Buffer can hold.
type Sample interface {
	~uint8 | ~uint16 | ~int | ~int32 | ~float32 | ~float64
}

// Buffer is a width×height grid of samples stored row-major.
//
// The zero value is an empty 0×0 buffer.
type Buffer[T Sample] struct {
	width  int
	height int
	data   []T
}

// New creates a width×height buffer with every sample set to fill.
//
// Negative dimensions are a programming error and panic.
func New[T Sample](width, height int, fill T) *Buffer[T] {
	if width < 0 || height < 0 {
		panic(fmt.Sprintf("pixbuf: negative dimensions %dx%d", width, height))
	}
	data := make([]T, width*height)
	if fill != 0 {
		for i := range data {
			data[i] = fill
		}
	}
	return &Buffer[T]{width: width, height: height, data: data}
}

// FromSamples creates a buffer from row-major samples. The samples are
// copied, so the caller keeps ownership of its slice.
func FromSamples[T Sample](width, height int, samples []T) (*Buffer[T], error) {
	if width < 0 || height < 0 {
		return nil, fmt.Errorf("%w: negative dimensions %dx%d", ErrInvalidRegion, width, height)
	}
	if len(samples) != width*height {
		return nil, fmt.Errorf("%w: %d samples for %dx%d buffer", ErrInvalidRegion, len(samples), width, height)
	}
	data := make([]T, len(samples))
	copy(data, samples)
	return &Buffer[T]{width: width, height: height, data: data}, nil
}

// Width returns the number of columns.
func (b *Buffer[T]) Width() int { return b.width }

// Height returns the number of rows.
func (b *Buffer[T]) Height() int { return b.height }

// Len returns width*height.
func (b *Buffer[T]) Len() int { return len(b.data) }

// InBounds reports whether (x, y) addresses a sample.
func (b *Buffer[T]) InBounds(x, y int) bool {
	return x >= 0 && x < b.width && y >= 0 && y < b.height
}

func (b *Buffer[T]) index(x, y int) int {
	if !b.InBounds(x, y) {
		panic(fmt.Sprintf("pixbuf: access (%d,%d) outside %dx%d buffer", x, y, b.width, b.height))
	}
	return y*b.width + x
}

// At returns the sample at (x, y). It panics if (x, y) is out of range.
func (b *Buffer[T]) At(x, y int) T {
	return b.data[b.index(x, y)]
}

// Set stores v at (x, y). It panics if (x, y) is out of range.
func (b *Buffer[T]) Set(x, y int, v T) {
	b.data[b.index(x, y)] = v
}

// Index returns the i-th sample in row-major order.
func (b *Buffer[T]) Index(i int) T {
	return b.data[i]
}

// Samples returns a row-major copy of the samples.
func (b *Buffer[T]) Samples() []T {
	out := make([]T, len(b.data))
	copy(out, b.data)
	return out
}

// Range calls fn for every sample in raster order.
func (b *Buffer[T]) Range(fn func(x, y int, v T)) {
	for y := 0; y < b.height; y++ {
		row := b.data[y*b.width : (y+1)*b.width]
		for x, v := range row {
			fn(x, y, v)
		}
	}
}

// Apply replaces every sample with fn(sample).
func (b *Buffer[T]) Apply(fn func(T) T) {
	for i, v := range b.data {
		b.data[i] = fn(v)
	}
}

// Clone returns a deep copy.
func (b *Buffer[T]) Clone() *Buffer[T] {
	data := make([]T, len(b.data))
	copy(data, b.data)
	return &Buffer[T]{width: b.width, height: b.height, data: data}
}

// Convert casts every sample of b to U. The geometry is unchanged and b is
// not modified. Float to integer casts truncate; values outside the range of
// U should be brought into range (Normalize, Clamp) before converting.
func Convert[U, T Sample](b *Buffer[T]) *Buffer[U] {
	out := &Buffer[U]{width: b.width, height: b.height, data: make([]U, len(b.data))}
	for i, v := range b.data {
		out.data[i] = U(v)
	}
	return out
}

// MinMax returns the smallest and largest sample. An empty buffer returns
// zeros.
func (b *Buffer[T]) MinMax() (T, T) {
	if len(b.data) == 0 {
		return 0, 0
	}
	lo, hi := b.data[0], b.data[0]
	for _, v := range b.data[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}

// IsFlat reports whether every sample holds the same value. Empty buffers
// are flat.
func (b *Buffer[T]) IsFlat() bool {
	lo, hi := b.MinMax()
	return lo == hi
}

// Mean returns the average sample value, or 0 for an empty buffer.
func (b *Buffer[T]) Mean() float64 {
	if len(b.data) == 0 {
		return 0
	}
	var sum float64
	for _, v := range b.data {
		sum += float64(v)
	}
	return sum / float64(len(b.data))
}

// Normalize rescales samples linearly from [currentMin, currentMax] onto
// [min, max].
//
// A flat buffer has no range to rescale and returns ErrFlatBuffer with the
// samples untouched; callers special-case it instead of dividing by zero.
// Integer sample types truncate the rescaled value.
func (b *Buffer[T]) Normalize(min, max T) error {
	if !(max > min) {
		return fmt.Errorf("%w: [%v,%v]", ErrInvalidRange, min, max)
	}
	curMin, curMax := b.MinMax()
	if !(curMax > curMin) {
		return ErrFlatBuffer
	}
	curDyn := float64(curMax) - float64(curMin)
	outDyn := float64(max) - float64(min)
	for i, v := range b.data {
		b.data[i] = T(float64(min) + outDyn*(float64(v)-float64(curMin))/curDyn)
	}
	return nil
}

// Threshold binarizes in place: samples strictly above level become 1,
// everything else 0.
func (b *Buffer[T]) Threshold(level T) {
	for i, v := range b.data {
		if v > level {
			b.data[i] = 1
		} else {
			b.data[i] = 0
		}
	}
}

// Clamp limits every sample to [lo, hi].
func (b *Buffer[T]) Clamp(lo, hi T) {
	for i, v := range b.data {
		switch {
		case v < lo:
			b.data[i] = lo
		case v > hi:
			b.data[i] = hi
		}
	}
}

// Invert returns a new buffer holding c - v for every sample v.
func (b *Buffer[T]) Invert(c T) *Buffer[T] {
	out := b.Clone()
	for i, v := range out.data {
		out.data[i] = c - v
	}
	return out
}

// LineCentroid returns the intensity-weighted mean x position of row y.
func (b *Buffer[T]) LineCentroid(y int) (float64, error) {
	if y < 0 || y >= b.height {
		return 0, fmt.Errorf("%w: row %d of %d", ErrOutOfBounds, y, b.height)
	}
	var moment, total float64
	for x := 0; x < b.width; x++ {
		v := float64(b.data[y*b.width+x])
		moment += float64(x) * v
		total += v
	}
	if total == 0 || math.IsNaN(total) {
		return 0, ErrNoMass
	}
	return moment / total, nil
}
