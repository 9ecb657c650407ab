// Package ocr classifies single digit glyphs with Tesseract.
//
// TesseractClassifier implements pipeline.Classifier on top of gosseract/v2.
// Each glyph is rendered as dark ink on a white page, upscaled and padded so
// Tesseract sees a character of a comfortable size, and recognized in single
// character mode with a digit whitelist.
//
// # Prerequisites
//
// Tesseract and its language data must be installed on the system:
//   - Ubuntu/Debian: apt-get install tesseract-ocr tesseract-ocr-eng
//   - macOS: brew install tesseract
//
// A non-default tessdata directory can be set with Options.TessdataPrefix.
//
// # Scores
//
// Tesseract reports a single symbol with a confidence in [0, 100]. The
// classifier turns it into a 10-element score vector holding confidence/100
// at the recognized digit and zero elsewhere. A glyph Tesseract cannot read,
// or reads as a non-digit, yields an all-zero vector.
//
// # Concurrency
//
// A gosseract client is not safe for concurrent use, so every Classify call
// creates and closes its own client. The classifier itself holds only
// immutable options and may be shared between goroutines.
package ocr
