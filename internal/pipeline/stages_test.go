package pipeline

import (
	"errors"
	"testing"

	"github.com/ironsheep/digit-sign-mcp/internal/blob"
	"github.com/ironsheep/digit-sign-mcp/internal/pixbuf"
	"github.com/ironsheep/digit-sign-mcp/internal/rectify"
)

// newSignImage returns a dark 320×200 photo holding a bright 200×100 sheet
// at (50, 40) with the three test digits written on it.
func newSignImage() *pixbuf.Buffer[float32] {
	sheet := rect{50, 40, 200, 100, 235}
	rects := append([]rect{sheet}, digitBars(sheet.x+30, sheet.y+30)...)
	return newTestImage(320, 200, 20, rects...)
}

func TestLocateSign(t *testing.T) {
	img := newSignImage()
	before := img.Clone()

	loc := LocateSign(img, DefaultOptions().Sign)

	if loc.Blobs != 1 {
		t.Errorf("blobs: got %d, want 1", loc.Blobs)
	}
	if loc.Level <= 20 || loc.Level >= 235 {
		t.Errorf("level %v outside the background/sheet gap", loc.Level)
	}
	sign, ok := loc.Sign()
	if !ok {
		t.Fatal("no sign found")
	}
	want := blob.BoundingBox{Label: sign.Label, MinX: 50, MinY: 40, MaxX: 249, MaxY: 139, Count: 200*100 - 3*40*20}
	if sign != want {
		t.Errorf("sign: got %+v, want %+v", sign, want)
	}
	if loc.Binary.At(60, 50) != 1 || loc.Binary.At(10, 10) != 0 {
		t.Error("binary image does not separate sheet from background")
	}

	for i := 0; i < img.Len(); i++ {
		if img.Index(i) != before.Index(i) {
			t.Fatal("LocateSign modified its input")
		}
	}
}

func TestLocateSign_NoCandidate(t *testing.T) {
	img := newTestImage(100, 100, 10, rect{20, 20, 40, 40, 240})

	loc := LocateSign(img, DefaultOptions().Sign)
	if loc.Blobs != 1 {
		t.Errorf("blobs: got %d, want 1", loc.Blobs)
	}
	if _, ok := loc.Sign(); ok {
		t.Error("square blob accepted as a sign")
	}
}

func TestEstimateQuad_FlatCrop(t *testing.T) {
	crop := pixbuf.New[float32](50, 30, 200)

	got := EstimateQuad(crop)
	want := rectify.Quad{{X: 1, Y: 0}, {X: 49, Y: 1}, {X: 48, Y: 29}, {X: 0, Y: 28}}
	if got != want {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestExtractSign(t *testing.T) {
	img := newSignImage()
	sign, ok := LocateSign(img, DefaultOptions().Sign).Sign()
	if !ok {
		t.Fatal("no sign found")
	}

	ext, err := ExtractSign(img, sign, DefaultOptions().Sign)
	if err != nil {
		t.Fatalf("ExtractSign failed: %v", err)
	}

	wantQuad := rectify.Quad{{X: 1, Y: 0}, {X: 198, Y: 1}, {X: 197, Y: 98}, {X: 0, Y: 97}}
	if ext.Quad != wantQuad {
		t.Errorf("quad: got %v, want %v", ext.Quad, wantQuad)
	}
	if ext.Warped.Width() != 195 || ext.Warped.Height() != 95 {
		t.Errorf("warped size: got %dx%d, want 195x95", ext.Warped.Width(), ext.Warped.Height())
	}
	if v := ext.Warped.At(10, 10); v < 230 {
		t.Errorf("sheet sample at (10,10): got %v, want ~235", v)
	}
	if v := ext.Warped.At(34, 45); v > 5 {
		t.Errorf("ink sample at (34,45): got %v, want ~0", v)
	}
}

func TestExtractSign_TooSmall(t *testing.T) {
	img := newTestImage(20, 20, 0)
	box := blob.BoundingBox{MinX: 5, MinY: 5, MaxX: 6, MaxY: 9}

	if _, err := ExtractSign(img, box, DefaultOptions().Sign); !errors.Is(err, pixbuf.ErrInvalidRegion) {
		t.Errorf("got %v, want ErrInvalidRegion", err)
	}
}

func TestRectifySign_Identity(t *testing.T) {
	crop := newTestImage(30, 20, 100, rect{10, 5, 4, 4, 0})

	ext, err := RectifySign(crop, rectify.RectQuad(29, 19), 0)
	if err != nil {
		t.Fatalf("RectifySign failed: %v", err)
	}
	for i := 0; i < crop.Len(); i++ {
		if ext.Warped.Index(i) != crop.Index(i) {
			t.Fatalf("identity rectification changed sample %d: %v != %v", i, ext.Warped.Index(i), crop.Index(i))
		}
	}

	if _, err := RectifySign(crop, rectify.RectQuad(29, 19), 15); err == nil {
		t.Error("border larger than the sign accepted")
	}
}

func TestCropDigitZone(t *testing.T) {
	img := newTestImage(260, 90, 255, digitBars(40, 25)...)

	zone, err := CropDigitZone(img, DefaultOptions().Zone)
	if err != nil {
		t.Fatalf("CropDigitZone failed: %v", err)
	}

	// Bars span x 40..197 and y 25..64; the edge frame sits within a pixel
	// of them and the margin is a seventh of its height.
	if zone.Margin != 5 {
		t.Errorf("margin: got %d, want 5", zone.Margin)
	}
	if zone.X0 < 25 || zone.X0 > 31 || zone.X1 < 206 || zone.X1 > 212 {
		t.Errorf("x bounds: got [%d,%d)", zone.X0, zone.X1)
	}
	if zone.Y0 < 17 || zone.Y0 > 21 || zone.Y1 < 68 || zone.Y1 > 72 {
		t.Errorf("y bounds: got [%d,%d)", zone.Y0, zone.Y1)
	}
	if zone.Image.Width() != zone.X1-zone.X0 || zone.Image.Height() != zone.Y1-zone.Y0 {
		t.Errorf("image size %dx%d does not match bounds", zone.Image.Width(), zone.Image.Height())
	}
	if got := zone.Image.At(0, 0); got != -254 {
		t.Errorf("background not inverted: got %v, want -254", got)
	}
	if got := zone.Image.At(40-zone.X0, 45-zone.Y0); got != 1 {
		t.Errorf("ink not inverted: got %v, want 1", got)
	}
}

func TestCropDigitZone_ClampsMargin(t *testing.T) {
	img := newTestImage(60, 50, 255, rect{3, 3, 50, 40, 0})

	zone, err := CropDigitZone(img, DefaultOptions().Zone)
	if err != nil {
		t.Fatalf("CropDigitZone failed: %v", err)
	}
	if zone.X0 != 0 || zone.Y0 != 0 {
		t.Errorf("start: got (%d,%d), want (0,0)", zone.X0, zone.Y0)
	}
	if zone.X1 > img.Width()-1 || zone.Y1 > img.Height()-1 {
		t.Errorf("stop (%d,%d) past the last pixel", zone.X1, zone.Y1)
	}
}

func TestCropDigitZone_Errors(t *testing.T) {
	tests := []struct {
		name string
		img  *pixbuf.Buffer[float32]
		opts ZoneOptions
		want error
	}{
		{"blank page", newTestImage(50, 50, 255), DefaultOptions().Zone, ErrNoDigitRegion},
		{"empty image", newTestImage(0, 0, 0), DefaultOptions().Zone, ErrNoDigitRegion},
		{"zero divisor", newTestImage(50, 50, 255), ZoneOptions{EdgeLevel: 40, ProfileLevel: 5}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CropDigitZone(tt.img, tt.opts)
			if err == nil {
				t.Fatal("expected an error")
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}
}

func TestSegmentDigits(t *testing.T) {
	rects := append(digitBars(40, 25), rect{220, 25, 6, 40, 0})
	img := newTestImage(280, 90, 255, rects...)

	digits, err := SegmentDigits(img, DefaultOptions())
	if err != nil {
		t.Fatalf("SegmentDigits failed: %v", err)
	}
	if digits.Level != 128 {
		t.Errorf("level: got %v, want 128", digits.Level)
	}

	x0 := digits.Zone.X0
	want := []struct{ start, width int }{{40, 12}, {100, 20}, {170, 28}}
	if len(digits.Intervals) != len(want) {
		t.Fatalf("intervals: got %v, want %d", digits.Intervals, len(want))
	}
	for i, w := range want {
		iv := digits.Intervals[i]
		if iv.Start != w.start-x0 || iv.Width() != w.width {
			t.Errorf("interval %d: got %v, want start %d width %d", i, iv, w.start-x0, w.width)
		}
	}

	if len(digits.Narrow) != 1 || digits.Narrow[0].Start != 220-x0 || digits.Narrow[0].Width() != 6 {
		t.Errorf("narrow: got %v, want one 6-wide interval at %d", digits.Narrow, 220-x0)
	}

	if lo, hi := digits.Binary.MinMax(); lo != 0 || hi != 1 {
		t.Errorf("binary range: got [%v,%v], want [0,1]", lo, hi)
	}
}

func TestExtractQuad(t *testing.T) {
	img := newSignImage()
	quad := rectify.Quad{{X: 50, Y: 40}, {X: 249, Y: 40}, {X: 249, Y: 139}, {X: 50, Y: 139}}

	ext, box, err := ExtractQuad(img, quad, 0)
	if err != nil {
		t.Fatalf("ExtractQuad failed: %v", err)
	}
	if box.MinX != 50 || box.MinY != 40 || box.MaxX != 249 || box.MaxY != 139 {
		t.Errorf("box: got %+v", box)
	}
	if ext.Quad[0] != (rectify.Point{X: 0, Y: 0}) || ext.Quad[2] != (rectify.Point{X: 199, Y: 99}) {
		t.Errorf("local quad: got %v", ext.Quad)
	}
	if ext.Warped.Width() != 200 || ext.Warped.Height() != 100 {
		t.Fatalf("warped size: got %dx%d, want 200x100", ext.Warped.Width(), ext.Warped.Height())
	}
	// The quad is the crop rectangle, so the warp is the identity.
	if ext.Warped.At(0, 0) != 235 || ext.Warped.At(35, 50) != 0 {
		t.Errorf("samples: got %v and %v, want 235 and 0", ext.Warped.At(0, 0), ext.Warped.At(35, 50))
	}
	if quad[0] != (rectify.Point{X: 50, Y: 40}) {
		t.Error("ExtractQuad modified the caller's quad")
	}
}

func TestExtractQuad_Degenerate(t *testing.T) {
	img := newSignImage()

	collapsed := rectify.Quad{{X: 10, Y: 10}, {X: 10, Y: 10}, {X: 10, Y: 10}, {X: 10, Y: 10}}
	if _, _, err := ExtractQuad(img, collapsed, 0); !errors.Is(err, pixbuf.ErrInvalidRegion) {
		t.Errorf("collapsed quad: got %v, want ErrInvalidRegion", err)
	}

	collinear := rectify.Quad{{X: 10, Y: 10}, {X: 20, Y: 20}, {X: 30, Y: 30}, {X: 40, Y: 40}}
	if _, _, err := ExtractQuad(img, collinear, 0); !errors.Is(err, rectify.ErrDegenerateQuad) {
		t.Errorf("collinear quad: got %v, want ErrDegenerateQuad", err)
	}
}
