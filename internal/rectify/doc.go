// Package rectify maps a skewed quadrilateral onto an axis-aligned rectangle.
//
// A Homography is the 8-parameter projective transform
//
//	X = (a·x + b·y + c) / (g·x + h·y + 1)
//	Y = (d·x + e·y + f) / (g·x + h·y + 1)
//
// SolveHomography finds the coefficients that send each source corner to its
// destination corner by solving the 8×8 direct linear system with gonum.
// Warp inverts that transform so it can iterate over destination pixels and
// fetch the matching source position, which leaves no holes. Each fetch is a
// bilinear blend of four source samples; a destination pixel whose
// neighbourhood leaves the source keeps the fill value.
//
// Quad corners are ordered top-left, top-right, bottom-right, bottom-left.
package rectify
