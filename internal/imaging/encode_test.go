package imaging

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/ironsheep/digit-sign-mcp/internal/pixbuf"
)

// decodePNG decodes the base64 PNG of an encoded result.
func decodePNG(t *testing.T, res *EncodedImage) image.Image {
	t.Helper()
	data, err := base64.StdEncoding.DecodeString(res.ImageBase64)
	if err != nil {
		t.Fatalf("invalid base64: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("invalid PNG: %v", err)
	}
	return img
}

func grayAt(img image.Image, x, y int) uint8 {
	return color.GrayModel.Convert(img.At(x, y)).(color.Gray).Y
}

func TestGrayImage(t *testing.T) {
	tests := []struct {
		name      string
		buf       *pixbuf.Buffer[float32]
		wantLow   uint8
		wantHigh  uint8
		highPoint image.Point
	}{
		{"binary", binaryBuffer(), 0, 255, image.Pt(1, 1)},
		{"signed range", signedBuffer(), 0, 255, image.Pt(2, 0)},
		{"flat", pixbuf.New[float32](3, 3, 7), 0, 0, image.Pt(1, 1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gray, err := GrayImage(tt.buf)
			if err != nil {
				t.Fatalf("GrayImage failed: %v", err)
			}
			if got := gray.GrayAt(0, 0).Y; got != tt.wantLow {
				t.Errorf("low sample: got %d, want %d", got, tt.wantLow)
			}
			if got := gray.GrayAt(tt.highPoint.X, tt.highPoint.Y).Y; got != tt.wantHigh {
				t.Errorf("high sample: got %d, want %d", got, tt.wantHigh)
			}
		})
	}
}

func binaryBuffer() *pixbuf.Buffer[float32] {
	b := pixbuf.New[float32](3, 3, 0)
	b.Set(1, 1, 1)
	return b
}

func signedBuffer() *pixbuf.Buffer[float32] {
	b, _ := pixbuf.FromSamples(3, 1, []float32{-1, 0, 1})
	return b
}

func TestEncodeBuffer(t *testing.T) {
	res, err := EncodeBuffer(binaryBuffer(), 1)
	if err != nil {
		t.Fatalf("EncodeBuffer failed: %v", err)
	}
	if res.MimeType != "image/png" || res.Width != 3 || res.Height != 3 {
		t.Errorf("metadata: got %+v", res)
	}
	img := decodePNG(t, res)
	if grayAt(img, 1, 1) != 255 || grayAt(img, 0, 0) != 0 {
		t.Error("decoded PNG does not match buffer")
	}
}

func TestEncodeBuffer_Scale(t *testing.T) {
	tests := []struct {
		scale        float64
		wantW, wantH int
	}{
		{2, 20, 10},
		{0.5, 5, 2},
		{0, 10, 5},
		{-1, 10, 5},
		{0.01, 1, 1},
	}

	buf := pixbuf.New[float32](10, 5, 0)
	buf.Set(2, 2, 1)
	for _, tt := range tests {
		res, err := EncodeBuffer(buf, tt.scale)
		if err != nil {
			t.Fatalf("scale %v: %v", tt.scale, err)
		}
		if res.Width != tt.wantW || res.Height != tt.wantH {
			t.Errorf("scale %v: got %dx%d, want %dx%d", tt.scale, res.Width, res.Height, tt.wantW, tt.wantH)
		}
	}
}

func TestEncodeBuffer_Empty(t *testing.T) {
	if _, err := EncodeBuffer(pixbuf.New[float32](0, 4, 0), 1); err == nil {
		t.Error("EncodeBuffer should fail for an empty buffer")
	}
}
