package ocr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/otiai10/gosseract/v2"

	"github.com/ironsheep/digit-sign-mcp/internal/pixbuf"
)

// Digits is the Tesseract whitelist used for glyph recognition.
const Digits = "0123456789"

// Options configure a TesseractClassifier.
type Options struct {
	// Language is the Tesseract language code, "eng" by default.
	Language string

	// TessdataPrefix overrides the tessdata directory when non-empty.
	TessdataPrefix string

	// Scale is the integer upscale applied to the glyph before recognition.
	Scale int

	// Padding is the white margin, in upscaled pixels, around the glyph.
	Padding int
}

// DefaultOptions returns settings that suit 28 and 32 pixel glyphs.
func DefaultOptions() Options {
	return Options{
		Language: "eng",
		Scale:    4,
		Padding:  32,
	}
}

// TesseractClassifier scores digit glyphs with Tesseract.
type TesseractClassifier struct {
	opts Options
}

// NewTesseractClassifier validates opts and returns a classifier.
func NewTesseractClassifier(opts Options) (*TesseractClassifier, error) {
	if opts.Language == "" {
		opts.Language = "eng"
	}
	if opts.Scale < 1 {
		return nil, fmt.Errorf("scale must be at least 1, got %d", opts.Scale)
	}
	if opts.Padding < 0 {
		return nil, fmt.Errorf("padding must not be negative, got %d", opts.Padding)
	}
	return &TesseractClassifier{opts: opts}, nil
}

// Classify recognizes one glyph and returns its 10-element score vector.
//
// Parameters:
//   - ctx: Checked before the image is handed to Tesseract. Recognition of a
//     single glyph is not interruptible.
//   - glyph: A square glyph with ink as the high samples.
//
// Returns:
//   - []float32: confidence/100 at the recognized digit, zero elsewhere.
//     All zeros when nothing digit-like was recognized.
//   - error: Non-nil if the glyph cannot be rendered or Tesseract fails.
func (c *TesseractClassifier) Classify(ctx context.Context, glyph *pixbuf.Buffer[float32]) ([]float32, error) {
	page, err := RenderGlyph(glyph, c.opts.Scale, c.opts.Padding)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, page, imaging.PNG); err != nil {
		return nil, fmt.Errorf("failed to encode glyph: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	client := gosseract.NewClient()
	defer client.Close()

	if c.opts.TessdataPrefix != "" {
		if err := client.SetTessdataPrefix(c.opts.TessdataPrefix); err != nil {
			return nil, fmt.Errorf("failed to set tessdata path: %w", err)
		}
	}
	if err := client.SetLanguage(c.opts.Language); err != nil {
		return nil, fmt.Errorf("failed to set language: %w", err)
	}
	if err := client.SetPageSegMode(gosseract.PSM_SINGLE_CHAR); err != nil {
		return nil, fmt.Errorf("failed to set page segmentation mode: %w", err)
	}
	if err := client.SetWhitelist(Digits); err != nil {
		return nil, fmt.Errorf("failed to set whitelist: %w", err)
	}
	if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
		return nil, fmt.Errorf("failed to set image: %w", err)
	}

	boxes, err := client.GetBoundingBoxes(gosseract.RIL_SYMBOL)
	if err != nil {
		return nil, fmt.Errorf("OCR failed: %w", err)
	}
	symbols := make([]Symbol, 0, len(boxes))
	for _, box := range boxes {
		symbols = append(symbols, Symbol{Text: box.Word, Confidence: box.Confidence})
	}
	return Scores(symbols), nil
}

// Symbol is one character reported by Tesseract.
type Symbol struct {
	Text string

	// Confidence is Tesseract's score in [0, 100].
	Confidence float64
}

// Scores turns recognized symbols into a digit score vector. The most
// confident single-digit symbol wins; anything else is ignored.
func Scores(symbols []Symbol) []float32 {
	scores := make([]float32, len(Digits))
	best := -1
	bestConf := 0.0
	for _, s := range symbols {
		text := strings.TrimSpace(s.Text)
		if len(text) != 1 {
			continue
		}
		d := strings.IndexByte(Digits, text[0])
		if d < 0 || s.Confidence <= bestConf {
			continue
		}
		best, bestConf = d, s.Confidence
	}
	if best >= 0 {
		scores[best] = float32(min(bestConf, 100) / 100)
	}
	return scores
}

// errEmptyGlyph reports a glyph with no samples to render.
var errEmptyGlyph = errors.New("glyph is empty")

// RenderGlyph draws glyph as dark ink on a white page.
//
// The glyph range is stretched so its highest sample is black and its lowest
// white. The page is upscaled by scale with nearest-neighbour sampling and
// padded by padding white pixels on every side.
func RenderGlyph(glyph *pixbuf.Buffer[float32], scale, padding int) (*image.NRGBA, error) {
	if glyph.Width() == 0 || glyph.Height() == 0 {
		return nil, errEmptyGlyph
	}
	ink := glyph.Clone()
	if err := ink.Normalize(0, 255); err != nil {
		if !errors.Is(err, pixbuf.ErrFlatBuffer) {
			return nil, fmt.Errorf("failed to stretch glyph: %w", err)
		}
		ink = pixbuf.New[float32](glyph.Width(), glyph.Height(), 0)
	}
	gray := pixbuf.ToGray(pixbuf.Convert[uint8](ink.Invert(255)))

	w, h := glyph.Width()*scale, glyph.Height()*scale
	scaled := imaging.Resize(gray, w, h, imaging.NearestNeighbor)
	page := imaging.New(w+2*padding, h+2*padding, color.White)
	return imaging.Paste(page, scaled, image.Pt(padding, padding)), nil
}
