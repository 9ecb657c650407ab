// Package pixbuf provides the owned sample grid every other stage of the
// digit pipeline works on.
//
// A Buffer holds width×height samples of a numeric type in row-major order.
// Index (x, y) maps to y*width+x. Every transform either mutates its receiver
// or returns a freshly allocated Buffer; no two buffers ever share storage, so
// a Buffer can be handed to another goroutine once the caller stops using it.
//
// # Coordinate System
//
// Coordinates are 0-based with the origin at the top-left corner:
//   - X increases rightward, valid range 0 to width-1
//   - Y increases downward, valid range 0 to height-1
//   - Regions use an inclusive start and an exclusive stop
//
// # Error Handling
//
// Single-sample accessors (At, Set) panic on out-of-range coordinates, the
// same way slice indexing does; callers bound their loops with Width and
// Height. Region and range operations return one of the package sentinel
// errors instead:
//   - ErrOutOfBounds: a region reaches outside the buffer
//   - ErrInvalidRegion: stop precedes start, or a target canvas is too small
//   - ErrFlatBuffer: the buffer holds a single value, so there is no dynamic
//     range to rescale
//   - ErrInvalidRange: a requested output range is empty or inverted
//
// Nothing in this package clamps silently. The only tolerant path is
// Bilinear, which reports whether all four neighbours were available and
// leaves the decision to the caller.
package pixbuf
