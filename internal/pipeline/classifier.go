package pipeline

import (
	"context"

	"github.com/ironsheep/digit-sign-mcp/internal/pixbuf"
)

// Classifier scores a prepared glyph.
//
// The glyph is ModelInfo.InputSize square with samples in the model range.
// The returned vector holds one probability-like score per digit; its argmax
// is the predicted digit and its maximum the confidence. An all-zero vector
// means the classifier could not recognize the glyph.
type Classifier interface {
	Classify(ctx context.Context, glyph *pixbuf.Buffer[float32]) ([]float32, error)
}

// ClassifierFunc adapts a function to the Classifier interface.
type ClassifierFunc func(ctx context.Context, glyph *pixbuf.Buffer[float32]) ([]float32, error)

// Classify calls f.
func (f ClassifierFunc) Classify(ctx context.Context, glyph *pixbuf.Buffer[float32]) ([]float32, error) {
	return f(ctx, glyph)
}

// argmax returns the index and value of the largest score, or -1 for an
// empty vector.
func argmax(scores []float32) (int, float32) {
	best, bestScore := -1, float32(0)
	for i, s := range scores {
		if best < 0 || s > bestScore {
			best, bestScore = i, s
		}
	}
	return best, bestScore
}
