package imaging

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"strconv"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/ironsheep/digit-sign-mcp/internal/pixbuf"
)

// Mark is one annotation drawn over an image.
//
// A mark with a Polygon draws the closed outline through its points;
// otherwise Rect is outlined. Label, when set, is drawn at the top-left
// corner of the mark.
type Mark struct {
	Rect    image.Rectangle
	Polygon []image.Point
	Label   string
}

// Annotate renders b in grayscale, outlines every mark in the given color,
// and encodes the result as base64 PNG.
//
// Parameters:
//   - b: Background buffer, stretched to [0, 255].
//   - marks: Annotations in buffer coordinates.
//   - colorHex: "#RRGGBB" or "#RRGGBBAA". Invalid values fall back to red.
//
// Returns:
//   - *EncodedImage: The annotated PNG at the buffer's size.
//   - error: Non-nil if the buffer is empty or encoding fails.
func Annotate(b *pixbuf.Buffer[float32], marks []Mark, colorHex string) (*EncodedImage, error) {
	if b.Width() == 0 || b.Height() == 0 {
		return nil, fmt.Errorf("cannot annotate empty %dx%d buffer", b.Width(), b.Height())
	}
	gray, err := GrayImage(b)
	if err != nil {
		return nil, err
	}

	markColor, err := parseHexColor(colorHex)
	if err != nil {
		markColor = color.RGBA{255, 0, 0, 255}
	}

	result := image.NewRGBA(gray.Bounds())
	draw.Draw(result, result.Bounds(), gray, image.Point{}, draw.Src)

	labelColor := color.RGBA{255, 255, 255, 255}
	for _, m := range marks {
		anchor := m.Rect.Min
		if len(m.Polygon) > 0 {
			drawPolygon(result, m.Polygon, markColor)
			anchor = m.Polygon[0]
		} else {
			drawRect(result, m.Rect, markColor)
		}
		if m.Label != "" {
			drawLabel(result, anchor.X+2, anchor.Y+2, m.Label, labelColor, markColor)
		}
	}

	return EncodeImage(result, 1)
}

// parseHexColor parses a hex color string like "#FF0000" or "#FF000080"
func parseHexColor(hex string) (color.RGBA, error) {
	if len(hex) == 0 {
		return color.RGBA{}, fmt.Errorf("empty color string")
	}
	if hex[0] == '#' {
		hex = hex[1:]
	}

	var r, g, b, a uint8 = 0, 0, 0, 255

	switch len(hex) {
	case 6:
		val, err := strconv.ParseUint(hex, 16, 32)
		if err != nil {
			return color.RGBA{}, err
		}
		r = uint8(val >> 16)
		g = uint8(val >> 8)
		b = uint8(val)
	case 8:
		val, err := strconv.ParseUint(hex, 16, 32)
		if err != nil {
			return color.RGBA{}, err
		}
		r = uint8(val >> 24)
		g = uint8(val >> 16)
		b = uint8(val >> 8)
		a = uint8(val)
	default:
		return color.RGBA{}, fmt.Errorf("invalid hex color length")
	}

	return color.RGBA{R: r, G: g, B: b, A: a}, nil
}

// drawRect outlines r; Max is exclusive.
func drawRect(img *image.RGBA, r image.Rectangle, c color.RGBA) {
	if r.Empty() {
		return
	}
	x0, y0, x1, y1 := r.Min.X, r.Min.Y, r.Max.X-1, r.Max.Y-1
	drawLine(img, image.Pt(x0, y0), image.Pt(x1, y0), c)
	drawLine(img, image.Pt(x1, y0), image.Pt(x1, y1), c)
	drawLine(img, image.Pt(x1, y1), image.Pt(x0, y1), c)
	drawLine(img, image.Pt(x0, y1), image.Pt(x0, y0), c)
}

func drawPolygon(img *image.RGBA, pts []image.Point, c color.RGBA) {
	for i, p := range pts {
		drawLine(img, p, pts[(i+1)%len(pts)], c)
	}
}

// drawLine plots the segment from a to b inclusive, clipped to img.
func drawLine(img *image.RGBA, a, b image.Point, c color.RGBA) {
	dx, dy := b.X-a.X, b.Y-a.Y
	steps := max(abs(dx), abs(dy))
	if steps == 0 {
		setClipped(img, a.X, a.Y, c)
		return
	}
	for i := 0; i <= steps; i++ {
		t := float64(i) / float64(steps)
		x := a.X + int(math.Round(t*float64(dx)))
		y := a.Y + int(math.Round(t*float64(dy)))
		setClipped(img, x, y, c)
	}
}

func setClipped(img *image.RGBA, x, y int, c color.RGBA) {
	if image.Pt(x, y).In(img.Bounds()) {
		img.SetRGBA(x, y, c)
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// drawLabel draws text over a filled background box with basicfont.
func drawLabel(img *image.RGBA, x, y int, text string, fg, bg color.RGBA) {
	face := basicfont.Face7x13
	width := font.MeasureString(face, text).Ceil()
	box := image.Rect(x-1, y-1, x+width+1, y+face.Height+1).Intersect(img.Bounds())
	draw.Draw(img, box, image.NewUniform(bg), image.Point{}, draw.Over)

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(fg),
		Face: face,
		Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y + face.Ascent)},
	}
	d.DrawString(text)
}
