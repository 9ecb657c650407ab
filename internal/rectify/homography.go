package rectify

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// ErrDegenerateQuad reports corner sets that admit no projective transform,
// such as repeated or collinear corners.
var ErrDegenerateQuad = errors.New("degenerate quadrilateral")

// Point is a position in pixel space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Quad holds four corners: top-left, top-right, bottom-right, bottom-left.
type Quad [4]Point

// RectQuad returns the axis-aligned quad with corners (0,0) and (w,h).
func RectQuad(w, h float64) Quad {
	return Quad{{0, 0}, {w, 0}, {w, h}, {0, h}}
}

// Homography holds the coefficients of a projective transform with the
// bottom-right matrix entry fixed at 1.
type Homography struct {
	A, B, C float64
	D, E, F float64
	G, H    float64
}

// Identity is the transform that leaves every point in place.
var Identity = Homography{A: 1, E: 1}

// Apply maps p through the transform. A point on the vanishing line maps to
// infinity or NaN, which bilinear sampling rejects.
func (h Homography) Apply(p Point) Point {
	w := h.G*p.X + h.H*p.Y + 1
	return Point{
		X: (h.A*p.X + h.B*p.Y + h.C) / w,
		Y: (h.D*p.X + h.E*p.Y + h.F) / w,
	}
}

func (h Homography) matrix() *mat.Dense {
	return mat.NewDense(3, 3, []float64{
		h.A, h.B, h.C,
		h.D, h.E, h.F,
		h.G, h.H, 1,
	})
}

// Inverse returns the transform mapping Apply's outputs back to its inputs.
// The inverted matrix is rescaled so its bottom-right entry is 1 again.
func (h Homography) Inverse() (Homography, error) {
	var inv mat.Dense
	if err := inv.Inverse(h.matrix()); err != nil {
		return Homography{}, fmt.Errorf("%w: invert homography: %v", ErrDegenerateQuad, err)
	}
	s := inv.At(2, 2)
	if math.Abs(s) < 1e-12 {
		return Homography{}, fmt.Errorf("%w: inverse has no affine normalization", ErrDegenerateQuad)
	}
	return Homography{
		A: inv.At(0, 0) / s, B: inv.At(0, 1) / s, C: inv.At(0, 2) / s,
		D: inv.At(1, 0) / s, E: inv.At(1, 1) / s, F: inv.At(1, 2) / s,
		G: inv.At(2, 0) / s, H: inv.At(2, 1) / s,
	}, nil
}

// SolveHomography returns the transform sending src[i] to dst[i] for all
// four corners.
//
// Each correspondence (x, y) → (X, Y) contributes the two rows
//
//	[x y 1 0 0 0 -x·X -y·X] · p = X
//	[0 0 0 x y 1 -x·Y -y·Y] · p = Y
//
// and the stacked 8×8 system is solved for p = (a, b, c, d, e, f, g, h).
// Errors wrap ErrDegenerateQuad when the system is singular.
func SolveHomography(src, dst Quad) (Homography, error) {
	A := mat.NewDense(8, 8, nil)
	B := mat.NewVecDense(8, nil)

	for i := 0; i < 4; i++ {
		x, y := src[i].X, src[i].Y
		X, Y := dst[i].X, dst[i].Y

		A.Set(i*2, 0, x)
		A.Set(i*2, 1, y)
		A.Set(i*2, 2, 1)
		A.Set(i*2, 6, -x*X)
		A.Set(i*2, 7, -y*X)
		B.SetVec(i*2, X)

		A.Set(i*2+1, 3, x)
		A.Set(i*2+1, 4, y)
		A.Set(i*2+1, 5, 1)
		A.Set(i*2+1, 6, -x*Y)
		A.Set(i*2+1, 7, -y*Y)
		B.SetVec(i*2+1, Y)
	}

	var p mat.VecDense
	if err := p.SolveVec(A, B); err != nil {
		return Homography{}, fmt.Errorf("%w: %v", ErrDegenerateQuad, err)
	}

	return Homography{
		A: p.AtVec(0), B: p.AtVec(1), C: p.AtVec(2),
		D: p.AtVec(3), E: p.AtVec(4), F: p.AtVec(5),
		G: p.AtVec(6), H: p.AtVec(7),
	}, nil
}
