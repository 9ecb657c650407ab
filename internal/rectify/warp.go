package rectify

import (
	"fmt"
	"math"

	"github.com/ironsheep/digit-sign-mcp/internal/pixbuf"
)

// Warp resamples b so that the src quad lands on the dst quad. The output has
// b's dimensions and uncovered pixels are 0.
func Warp[T pixbuf.Sample](b *pixbuf.Buffer[T], src, dst Quad) (*pixbuf.Buffer[T], error) {
	return WarpFill(b, src, dst, 0)
}

// WarpFill is Warp with an explicit value for uncovered pixels.
//
// The forward transform src → dst is solved and inverted, then every output
// pixel (X, Y) samples b at the inverse image of (X, Y) with bilinear
// interpolation.
func WarpFill[T pixbuf.Sample](b *pixbuf.Buffer[T], src, dst Quad, fill T) (*pixbuf.Buffer[T], error) {
	forward, err := SolveHomography(src, dst)
	if err != nil {
		return nil, fmt.Errorf("solve warp: %w", err)
	}
	back, err := forward.Inverse()
	if err != nil {
		return nil, fmt.Errorf("solve warp: %w", err)
	}
	return Resample(b, back, fill), nil
}

// Resample builds a same-size buffer where pixel (X, Y) is b sampled at
// back(X, Y). Pixels whose source neighbourhood leaves b keep fill.
func Resample[T pixbuf.Sample](b *pixbuf.Buffer[T], back Homography, fill T) *pixbuf.Buffer[T] {
	out := pixbuf.New(b.Width(), b.Height(), fill)
	for y := 0; y < out.Height(); y++ {
		for x := 0; x < out.Width(); x++ {
			p := back.Apply(Point{X: float64(x), Y: float64(y)})
			if v, ok := b.Bilinear(p.X, p.Y); ok {
				out.Set(x, y, v)
			}
		}
	}
	return out
}

// Rotate turns b by angle degrees about its center (width/2, height/2 in
// integer pixels). Pixels that fall outside b are set to pad.
func Rotate[T pixbuf.Sample](b *pixbuf.Buffer[T], angle float64, pad T) *pixbuf.Buffer[T] {
	rad := angle * math.Pi / 180
	sin, cos := math.Sincos(rad)
	hc := float64(b.Width() / 2)
	vc := float64(b.Height() / 2)

	out := pixbuf.New(b.Width(), b.Height(), pad)
	for y := 0; y < out.Height(); y++ {
		dy := float64(y) - vc
		for x := 0; x < out.Width(); x++ {
			dx := float64(x) - hc
			sx := -sin*dy + cos*dx + hc
			sy := cos*dy + sin*dx + vc
			if v, ok := b.Bilinear(sx, sy); ok {
				out.Set(x, y, v)
			}
		}
	}
	return out
}
