// Package pipeline reads the digits written on a sheet of paper in a
// grayscale photo.
//
// # Stages
//
// The stages run strictly in order and each is a pure function of the
// previous output:
//
//  1. Locate (sign mode): binarize at the ISODATA level, label blobs, and
//     keep the first blob that is large, wide and well filled
//  2. Extract (sign mode): crop to the blob, estimate the sheet corners from
//     its projection profiles, warp them onto a rectangle, trim the border
//  3. Zone: frame the digits with the Sobel edge profile and invert the frame
//  4. Segment: binarize the frame and split its column profile into
//     per-digit intervals, dropping thin ones
//  5. Center: crop each interval to its ink and recenter it by mass
//  6. Classify: pad to the model input, stretch to its range, and ask the
//     Classifier for a score vector
//
// Stages 5 and 6 run concurrently across intervals, bounded by
// Options.Workers. Every interval works on its own copy of the band.
//
// # Failure Policy
//
// Degenerate geometry never aborts a read. A missing sign, an empty zone, an
// uncenterable glyph or an unrecognized glyph is recorded as a Diagnostic
// and the read continues with what remains. Reader.Read returns an error
// only when its context is done.
package pipeline
