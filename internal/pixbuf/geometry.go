package pixbuf

import "fmt"

// Crop returns a new (x1-x0)×(y1-y0) buffer copied from the region with
// inclusive start (x0, y0) and exclusive stop (x1, y1).
//
// A zero-width or zero-height region is valid and yields an empty buffer.
// Errors:
//   - ErrInvalidRegion if x1 < x0 or y1 < y0
//   - ErrOutOfBounds if the region reaches outside the buffer
func (b *Buffer[T]) Crop(x0, y0, x1, y1 int) (*Buffer[T], error) {
	if x1 < x0 || y1 < y0 {
		return nil, fmt.Errorf("%w: (%d,%d)-(%d,%d)", ErrInvalidRegion, x0, y0, x1, y1)
	}
	if x0 < 0 || y0 < 0 || x1 > b.width || y1 > b.height {
		return nil, fmt.Errorf("%w: (%d,%d)-(%d,%d) in %dx%d", ErrOutOfBounds, x0, y0, x1, y1, b.width, b.height)
	}
	w, h := x1-x0, y1-y0
	out := &Buffer[T]{width: w, height: h, data: make([]T, w*h)}
	for y := 0; y < h; y++ {
		src := b.data[(y0+y)*b.width+x0 : (y0+y)*b.width+x1]
		copy(out.data[y*w:(y+1)*w], src)
	}
	return out, nil
}

// Columns returns the full-height band of columns [x0, x1).
func (b *Buffer[T]) Columns(x0, x1 int) (*Buffer[T], error) {
	return b.Crop(x0, 0, x1, b.height)
}

// Lines returns the full-width band of rows [y0, y1).
func (b *Buffer[T]) Lines(y0, y1 int) (*Buffer[T], error) {
	return b.Crop(0, y0, b.width, y1)
}

// RemoveBorder returns a copy with n samples trimmed from every side.
func (b *Buffer[T]) RemoveBorder(n int) (*Buffer[T], error) {
	if n < 0 || 2*n > b.width || 2*n > b.height {
		return nil, fmt.Errorf("%w: border %d on %dx%d buffer", ErrInvalidRegion, n, b.width, b.height)
	}
	return b.Crop(n, n, b.width-n, b.height-n)
}

// Shift returns a same-size buffer where out(x, y) = b(x+dx, y+dy). Samples
// that fall outside b are set to pad.
func (b *Buffer[T]) Shift(dx, dy int, pad T) (*Buffer[T], error) {
	if abs(dx) > b.width || abs(dy) > b.height {
		return nil, fmt.Errorf("%w: shift (%d,%d) on %dx%d buffer", ErrOutOfBounds, dx, dy, b.width, b.height)
	}
	out := New(b.width, b.height, pad)
	for y := 0; y < b.height; y++ {
		sy := y + dy
		if sy < 0 || sy >= b.height {
			continue
		}
		for x := 0; x < b.width; x++ {
			sx := x + dx
			if sx < 0 || sx >= b.width {
				continue
			}
			out.data[y*b.width+x] = b.data[sy*b.width+sx]
		}
	}
	return out, nil
}

// CanvasResize returns a larger newW×newH zero-filled buffer with b pasted at
// offset (int(centerX*(newW-width)), int(centerY*(newH-height))).
//
// centerX and centerY are placement fractions in [0, 1]: 0 pastes against
// the left/top edge, 0.5 centers, 1 pastes against the right/bottom edge.
func (b *Buffer[T]) CanvasResize(newW, newH int, centerX, centerY float64) (*Buffer[T], error) {
	if newW < b.width || newH < b.height {
		return nil, fmt.Errorf("%w: canvas %dx%d smaller than %dx%d", ErrInvalidRegion, newW, newH, b.width, b.height)
	}
	if centerX < 0 || centerX > 1 || centerY < 0 || centerY > 1 {
		return nil, fmt.Errorf("%w: placement (%g,%g) outside [0,1]", ErrInvalidRange, centerX, centerY)
	}
	xc := int(centerX * float64(newW-b.width))
	yc := int(centerY * float64(newH-b.height))

	out := &Buffer[T]{width: newW, height: newH, data: make([]T, newW*newH)}
	for y := 0; y < b.height; y++ {
		dst := out.data[(y+yc)*newW+xc : (y+yc)*newW+xc+b.width]
		copy(dst, b.data[y*b.width:(y+1)*b.width])
	}
	return out, nil
}

// RowSums returns a width×1 profile holding the sum of each column.
func (b *Buffer[T]) RowSums() *Buffer[float64] {
	out := New[float64](b.width, 1, 0)
	for y := 0; y < b.height; y++ {
		for x := 0; x < b.width; x++ {
			out.data[x] += float64(b.data[y*b.width+x])
		}
	}
	return out
}

// LineSums returns a 1×height profile holding the sum of each row.
func (b *Buffer[T]) LineSums() *Buffer[float64] {
	out := New[float64](1, b.height, 0)
	for y := 0; y < b.height; y++ {
		var sum float64
		for _, v := range b.data[y*b.width : (y+1)*b.width] {
			sum += float64(v)
		}
		out.data[y] = sum
	}
	return out
}

// LineRowSums computes LineSums and RowSums in a single pass.
func (b *Buffer[T]) LineRowSums() (lines, rows *Buffer[float64]) {
	lines = New[float64](1, b.height, 0)
	rows = New[float64](b.width, 1, 0)
	for y := 0; y < b.height; y++ {
		for x := 0; x < b.width; x++ {
			v := float64(b.data[y*b.width+x])
			lines.data[y] += v
			rows.data[x] += v
		}
	}
	return lines, rows
}

// DLine returns the horizontal central difference (v(x+1)-v(x-1))/2.
// The first and last columns are zero.
func (b *Buffer[T]) DLine() *Buffer[float64] {
	out := New[float64](b.width, b.height, 0)
	for y := 0; y < b.height; y++ {
		for x := 1; x < b.width-1; x++ {
			i := y*b.width + x
			out.data[i] = (float64(b.data[i+1]) - float64(b.data[i-1])) / 2
		}
	}
	return out
}

// DColumn returns the vertical central difference (v(y+1)-v(y-1))/2.
// The first and last rows are zero.
func (b *Buffer[T]) DColumn() *Buffer[float64] {
	out := New[float64](b.width, b.height, 0)
	for y := 1; y < b.height-1; y++ {
		for x := 0; x < b.width; x++ {
			i := y*b.width + x
			out.data[i] = (float64(b.data[i+b.width]) - float64(b.data[i-b.width])) / 2
		}
	}
	return out
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
