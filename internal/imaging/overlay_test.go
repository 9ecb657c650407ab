package imaging

import (
	"image"
	"image/color"
	"testing"

	"github.com/ironsheep/digit-sign-mcp/internal/pixbuf"
)

func rgbaAt(img image.Image, x, y int) color.RGBA {
	return color.RGBAModel.Convert(img.At(x, y)).(color.RGBA)
}

func TestAnnotate_Rect(t *testing.T) {
	buf := pixbuf.New[float32](40, 30, 0)
	buf.Set(39, 29, 1)

	res, err := Annotate(buf, []Mark{{Rect: image.Rect(5, 5, 15, 12)}}, "#00FF00")
	if err != nil {
		t.Fatalf("Annotate failed: %v", err)
	}
	if res.Width != 40 || res.Height != 30 {
		t.Fatalf("dimensions: got %dx%d, want 40x30", res.Width, res.Height)
	}
	img := decodePNG(t, res)

	green := color.RGBA{0, 255, 0, 255}
	for _, p := range []image.Point{{5, 5}, {14, 5}, {14, 11}, {5, 11}, {10, 5}, {5, 8}} {
		if got := rgbaAt(img, p.X, p.Y); got != green {
			t.Errorf("outline at %v: got %v, want %v", p, got, green)
		}
	}
	if got := rgbaAt(img, 10, 8); got != (color.RGBA{0, 0, 0, 255}) {
		t.Errorf("interior at (10,8): got %v, want black", got)
	}
	if got := rgbaAt(img, 15, 12); got != (color.RGBA{0, 0, 0, 255}) {
		t.Errorf("exclusive corner at (15,12): got %v, want black", got)
	}
}

func TestAnnotate_PolygonAndLabel(t *testing.T) {
	buf := pixbuf.New[float32](60, 40, 0)
	buf.Set(0, 0, 1)

	quad := []image.Point{{2, 2}, {50, 4}, {48, 35}, {3, 33}}
	res, err := Annotate(buf, []Mark{{Polygon: quad, Label: "7"}}, "invalid")
	if err != nil {
		t.Fatalf("Annotate failed: %v", err)
	}
	img := decodePNG(t, res)

	red := color.RGBA{255, 0, 0, 255}
	for _, p := range quad {
		if got := rgbaAt(img, p.X, p.Y); got != red {
			t.Errorf("corner %v: got %v, want fallback red", p, got)
		}
	}

	// The label box is filled with the mark color and holds white glyph pixels.
	white := 0
	for y := 4; y < 18; y++ {
		for x := 4; x < 12; x++ {
			if rgbaAt(img, x, y) == (color.RGBA{255, 255, 255, 255}) {
				white++
			}
		}
	}
	if white == 0 {
		t.Error("label text not drawn")
	}
}

func TestAnnotate_ClipsOutside(t *testing.T) {
	buf := pixbuf.New[float32](10, 10, 0)
	marks := []Mark{{Rect: image.Rect(-5, -5, 20, 20), Label: "123456789"}}

	if _, err := Annotate(buf, marks, "#FF0000"); err != nil {
		t.Fatalf("Annotate failed: %v", err)
	}
	if _, err := Annotate(pixbuf.New[float32](0, 0, 0), nil, ""); err == nil {
		t.Error("Annotate should fail for an empty buffer")
	}
}

func TestParseHexColor(t *testing.T) {
	tests := []struct {
		in      string
		want    color.RGBA
		wantErr bool
	}{
		{"#FF0000", color.RGBA{255, 0, 0, 255}, false},
		{"00ff0080", color.RGBA{0, 255, 0, 128}, false},
		{"", color.RGBA{}, true},
		{"#FFF", color.RGBA{}, true},
		{"#GGGGGG", color.RGBA{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseHexColor(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("error: got %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}
