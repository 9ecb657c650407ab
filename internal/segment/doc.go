// Package segment splits a binarized digit zone into per-digit column
// intervals and re-centers each glyph the way MNIST samples are prepared.
//
// # Intervals
//
// FindIntervals scans a column-sum profile left to right. A rising edge opens
// an interval and the next falling edge closes it. An interval opened at
// column 0 is a crop boundary artifact and is dropped when it closes.
// Intervals still open at the right edge are dropped as well.
//
// # Centering
//
// CenterGlyph crops a glyph to its tight ink box, pads it to a centered
// square, downsamples to IntermediateSize, and pastes the result into an
// OutputSize canvas so that its intensity center of mass sits at the canvas
// center. The placement fraction on each axis is 1 - mass/IntermediateSize.
package segment
