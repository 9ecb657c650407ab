package pixbuf

import (
	"errors"
	"testing"
)

func TestCrop(t *testing.T) {
	b := newRamp(10, 8)

	c, err := b.Crop(2, 3, 6, 5)
	if err != nil {
		t.Fatalf("Crop failed: %v", err)
	}
	if c.Width() != 4 || c.Height() != 2 {
		t.Fatalf("dimensions: got %dx%d, want 4x2", c.Width(), c.Height())
	}
	for y := 0; y < 2; y++ {
		for x := 0; x < 4; x++ {
			if got, want := c.At(x, y), b.At(x+2, y+3); got != want {
				t.Errorf("(%d,%d): got %v, want %v", x, y, got, want)
			}
		}
	}

	c.Set(0, 0, -1)
	if b.At(2, 3) == -1 {
		t.Error("Crop shares storage with its source")
	}
}

func TestCrop_InvalidRegion(t *testing.T) {
	b := newRamp(10, 10)

	tests := []struct {
		name           string
		x0, y0, x1, y1 int
		want           error
	}{
		{"x1 < x0", 5, 0, 4, 5, ErrInvalidRegion},
		{"y1 < y0", 0, 5, 5, 4, ErrInvalidRegion},
		{"x0 negative", -1, 0, 5, 5, ErrOutOfBounds},
		{"y0 negative", 0, -1, 5, 5, ErrOutOfBounds},
		{"x1 past width", 0, 0, 11, 5, ErrOutOfBounds},
		{"y1 past height", 0, 0, 5, 11, ErrOutOfBounds},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := b.Crop(tt.x0, tt.y0, tt.x1, tt.y1)
			if !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}
}

func TestCrop_Empty(t *testing.T) {
	b := newRamp(10, 10)
	c, err := b.Crop(3, 3, 3, 7)
	if err != nil {
		t.Fatalf("zero-width crop failed: %v", err)
	}
	if c.Width() != 0 || c.Height() != 4 || c.Len() != 0 {
		t.Errorf("got %dx%d len %d, want 0x4 len 0", c.Width(), c.Height(), c.Len())
	}
}

func TestColumnsAndLines(t *testing.T) {
	b := newRamp(6, 4)

	cols, err := b.Columns(1, 3)
	if err != nil {
		t.Fatalf("Columns failed: %v", err)
	}
	if cols.Width() != 2 || cols.Height() != 4 {
		t.Errorf("Columns: got %dx%d, want 2x4", cols.Width(), cols.Height())
	}

	lines, err := b.Lines(2, 4)
	if err != nil {
		t.Fatalf("Lines failed: %v", err)
	}
	if lines.Width() != 6 || lines.Height() != 2 {
		t.Errorf("Lines: got %dx%d, want 6x2", lines.Width(), lines.Height())
	}
	if lines.At(0, 0) != b.At(0, 2) {
		t.Errorf("Lines(0,0): got %v, want %v", lines.At(0, 0), b.At(0, 2))
	}
}

func TestRemoveBorder(t *testing.T) {
	b := newRamp(10, 8)
	r, err := b.RemoveBorder(2)
	if err != nil {
		t.Fatalf("RemoveBorder failed: %v", err)
	}
	if r.Width() != 6 || r.Height() != 4 {
		t.Fatalf("dimensions: got %dx%d, want 6x4", r.Width(), r.Height())
	}
	if r.At(0, 0) != b.At(2, 2) {
		t.Errorf("origin: got %v, want %v", r.At(0, 0), b.At(2, 2))
	}

	if _, err := b.RemoveBorder(5); !errors.Is(err, ErrInvalidRegion) {
		t.Errorf("oversized border: got %v, want ErrInvalidRegion", err)
	}
}

func TestShift(t *testing.T) {
	b := newRamp(4, 4)

	s, err := b.Shift(1, 0, -1)
	if err != nil {
		t.Fatalf("Shift failed: %v", err)
	}
	if s.At(0, 0) != b.At(1, 0) {
		t.Errorf("(0,0): got %v, want %v", s.At(0, 0), b.At(1, 0))
	}
	if s.At(3, 0) != -1 {
		t.Errorf("padded column: got %v, want -1", s.At(3, 0))
	}

	s, err = b.Shift(0, -2, 9)
	if err != nil {
		t.Fatalf("Shift failed: %v", err)
	}
	if s.At(0, 0) != 9 || s.At(0, 1) != 9 {
		t.Errorf("padded rows: got %v,%v, want 9,9", s.At(0, 0), s.At(0, 1))
	}
	if s.At(2, 2) != b.At(2, 0) {
		t.Errorf("(2,2): got %v, want %v", s.At(2, 2), b.At(2, 0))
	}

	if _, err := b.Shift(5, 0, 0); !errors.Is(err, ErrOutOfBounds) {
		t.Errorf("oversized shift: got %v, want ErrOutOfBounds", err)
	}
}

func TestCanvasResize(t *testing.T) {
	b := New[float32](2, 2, 1)

	tests := []struct {
		name       string
		cx, cy     float64
		wantX      int
		wantY      int
		wantWidth  int
		wantHeight int
	}{
		{"top-left", 0, 0, 0, 0, 6, 4},
		{"centered", 0.5, 0.5, 2, 1, 6, 4},
		{"bottom-right", 1, 1, 4, 2, 6, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := b.CanvasResize(tt.wantWidth, tt.wantHeight, tt.cx, tt.cy)
			if err != nil {
				t.Fatalf("CanvasResize failed: %v", err)
			}
			var count int
			c.Range(func(x, y int, v float32) {
				inside := x >= tt.wantX && x < tt.wantX+2 && y >= tt.wantY && y < tt.wantY+2
				if inside && v != 1 {
					t.Errorf("(%d,%d): got %v, want 1", x, y, v)
				}
				if !inside && v != 0 {
					t.Errorf("(%d,%d): got %v, want background 0", x, y, v)
				}
				if v == 1 {
					count++
				}
			})
			if count != 4 {
				t.Errorf("pasted samples: got %d, want 4", count)
			}
		})
	}
}

func TestCanvasResize_Invalid(t *testing.T) {
	b := New[float32](4, 4, 1)

	if _, err := b.CanvasResize(3, 4, 0.5, 0.5); !errors.Is(err, ErrInvalidRegion) {
		t.Errorf("smaller canvas: got %v, want ErrInvalidRegion", err)
	}
	if _, err := b.CanvasResize(8, 8, 1.5, 0.5); !errors.Is(err, ErrInvalidRange) {
		t.Errorf("placement > 1: got %v, want ErrInvalidRange", err)
	}
	if _, err := b.CanvasResize(8, 8, 0.5, -0.1); !errors.Is(err, ErrInvalidRange) {
		t.Errorf("placement < 0: got %v, want ErrInvalidRange", err)
	}
}

func TestCropCanvasRoundTrip(t *testing.T) {
	b := newRamp(12, 9)
	x0, y0, x1, y1 := 0, 0, 5, 4

	c, err := b.Crop(x0, y0, x1, y1)
	if err != nil {
		t.Fatalf("Crop failed: %v", err)
	}
	r, err := c.CanvasResize(b.Width(), b.Height(), 0, 0)
	if err != nil {
		t.Fatalf("CanvasResize failed: %v", err)
	}

	r.Range(func(x, y int, v float32) {
		if x < x1 && y < y1 {
			if v != b.At(x, y) {
				t.Errorf("(%d,%d): got %v, want %v", x, y, v, b.At(x, y))
			}
		} else if v != 0 {
			t.Errorf("(%d,%d): got %v, want zero padding", x, y, v)
		}
	})
}

func TestProjections(t *testing.T) {
	b, _ := FromSamples[float32](3, 2, []float32{
		1, 2, 3,
		4, 5, 6,
	})

	rows := b.RowSums()
	if rows.Width() != 3 || rows.Height() != 1 {
		t.Fatalf("RowSums dimensions: got %dx%d, want 3x1", rows.Width(), rows.Height())
	}
	for i, w := range []float64{5, 7, 9} {
		if got := rows.Index(i); got != w {
			t.Errorf("RowSums[%d]: got %v, want %v", i, got, w)
		}
	}

	lines := b.LineSums()
	if lines.Width() != 1 || lines.Height() != 2 {
		t.Fatalf("LineSums dimensions: got %dx%d, want 1x2", lines.Width(), lines.Height())
	}
	for i, w := range []float64{6, 15} {
		if got := lines.Index(i); got != w {
			t.Errorf("LineSums[%d]: got %v, want %v", i, got, w)
		}
	}

	l2, r2 := b.LineRowSums()
	for i := 0; i < 3; i++ {
		if r2.Index(i) != rows.Index(i) {
			t.Errorf("LineRowSums rows[%d]: got %v, want %v", i, r2.Index(i), rows.Index(i))
		}
	}
	for i := 0; i < 2; i++ {
		if l2.Index(i) != lines.Index(i) {
			t.Errorf("LineRowSums lines[%d]: got %v, want %v", i, l2.Index(i), lines.Index(i))
		}
	}
}

func TestDerivatives(t *testing.T) {
	row, _ := FromSamples[float64](5, 1, []float64{0, 2, 4, 4, 4})
	d := row.DLine()
	for i, w := range []float64{0, 2, 1, 0, 0} {
		if got := d.Index(i); got != w {
			t.Errorf("DLine[%d]: got %v, want %v", i, got, w)
		}
	}

	col, _ := FromSamples[float64](1, 4, []float64{1, 1, 3, 5})
	dc := col.DColumn()
	for i, w := range []float64{0, 1, 2, 0} {
		if got := dc.Index(i); got != w {
			t.Errorf("DColumn[%d]: got %v, want %v", i, got, w)
		}
	}
}
