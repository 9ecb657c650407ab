// Package imaging loads photos for the digit pipeline and renders its
// intermediate buffers back into images.
//
// # Loading
//
// ImageCache decodes PNG, JPEG, GIF, BMP, TIFF and WebP files with
// disintegration/imaging, applying the EXIF orientation so phone photos come
// out upright. Each cached image also carries its luma buffer, computed once
// with the weights 0.2126 R + 0.7152 G + 0.0722 B on 8-bit channel values.
//
// # Coordinate System
//
// All pixel coordinates in this package are 0-based:
//   - X: horizontal position (0 = leftmost pixel)
//   - Y: vertical position (0 = topmost pixel)
//   - For regions, (x1,y1) is inclusive (top-left), (x2,y2) is exclusive (bottom-right)
//
// # Rendering
//
// EncodeBuffer stretches a buffer to [0, 255] and encodes it as a base64 PNG,
// so binary masks, signed model inputs and raw luma all come out visible.
// Annotate does the same and draws boxes, quadrilaterals and labels on top.
//
// # Thread Safety
//
// The ImageCache type is safe for concurrent use. Buffers returned by
// LoadLuma are shared between callers and must be cloned before mutation.
package imaging
