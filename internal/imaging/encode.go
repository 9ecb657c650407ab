package imaging

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/digit-sign-mcp/internal/pixbuf"
)

// EncodedImage is a PNG ready to return from a tool call.
type EncodedImage struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

// GrayImage renders a buffer as an 8-bit grayscale image, stretching its
// range to [0, 255]. A flat buffer renders black. Binary 0/1 buffers come out
// black and white.
func GrayImage(b *pixbuf.Buffer[float32]) (*image.Gray, error) {
	stretched := b.Clone()
	if err := stretched.Normalize(0, 255); err != nil {
		if !errors.Is(err, pixbuf.ErrFlatBuffer) {
			return nil, fmt.Errorf("failed to stretch buffer: %w", err)
		}
		stretched = pixbuf.New[float32](b.Width(), b.Height(), 0)
	}
	return pixbuf.ToGray(pixbuf.Convert[uint8](stretched)), nil
}

// EncodeBuffer renders b with GrayImage and encodes it as base64 PNG.
//
// Parameters:
//   - b: The buffer to render. Must not be empty.
//   - scale: Output scale factor. Values other than 1 resize with Lanczos;
//     values <= 0 are treated as 1.
//
// Returns:
//   - *EncodedImage: The encoded PNG and its final dimensions.
//   - error: Non-nil if the buffer is empty or encoding fails.
func EncodeBuffer(b *pixbuf.Buffer[float32], scale float64) (*EncodedImage, error) {
	if b.Width() == 0 || b.Height() == 0 {
		return nil, fmt.Errorf("cannot encode empty %dx%d buffer", b.Width(), b.Height())
	}
	gray, err := GrayImage(b)
	if err != nil {
		return nil, err
	}
	return EncodeImage(gray, scale)
}

// EncodeImage encodes img as base64 PNG, optionally rescaled.
func EncodeImage(img image.Image, scale float64) (*EncodedImage, error) {
	out := img
	if scale != 1.0 && scale > 0 {
		newWidth := max(1, int(float64(img.Bounds().Dx())*scale))
		newHeight := max(1, int(float64(img.Bounds().Dy())*scale))
		out = imaging.Resize(img, newWidth, newHeight, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, out, imaging.PNG); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	return &EncodedImage{
		Width:       out.Bounds().Dx(),
		Height:      out.Bounds().Dy(),
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:    "image/png",
	}, nil
}
