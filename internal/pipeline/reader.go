package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/ironsheep/digit-sign-mcp/internal/blob"
	"github.com/ironsheep/digit-sign-mcp/internal/logging"
	"github.com/ironsheep/digit-sign-mcp/internal/pixbuf"
	"github.com/ironsheep/digit-sign-mcp/internal/rectify"
	"github.com/ironsheep/digit-sign-mcp/internal/segment"
)

// Stage names used in diagnostics.
const (
	StageLocate   = "locate"
	StageExtract  = "extract"
	StageZone     = "zone"
	StageSegment  = "segment"
	StageCenter   = "center"
	StageClassify = "classify"
)

// Recognition is one classified digit.
type Recognition struct {
	// Position is the interval start column inside the digit zone.
	Position int `json:"position"`

	// Value is the predicted digit.
	Value int `json:"value"`

	// Confidence is 100 × the winning score.
	Confidence float32 `json:"confidence"`

	Interval segment.Interval `json:"interval"`
}

// Diagnostic records a unit of work the pipeline skipped.
type Diagnostic struct {
	Stage    string `json:"stage"`
	Position int    `json:"position"`
	Reason   string `json:"reason"`
}

// Result is the outcome of one Read call. A result without recognitions is
// a valid answer for an image with no readable digits.
type Result struct {
	RunID string `json:"run_id"`
	Mode  string `json:"mode"`

	// Sign and Quad are set in sign mode once a sign has been located and
	// rectified. Quad is in sign crop coordinates.
	Sign *blob.BoundingBox `json:"sign,omitempty"`
	Quad *rectify.Quad     `json:"quad,omitempty"`

	// ZoneWidth and ZoneHeight give the size of the digit zone.
	ZoneWidth  int `json:"zone_width"`
	ZoneHeight int `json:"zone_height"`

	Intervals    []segment.Interval `json:"intervals"`
	Recognitions []Recognition      `json:"recognitions"`
	Diagnostics  []Diagnostic       `json:"diagnostics"`
}

// String concatenates the recognized digits in position order.
func (r *Result) String() string {
	var sb strings.Builder
	for _, rec := range r.Recognitions {
		sb.WriteString(strconv.Itoa(rec.Value))
	}
	return sb.String()
}

func (r *Result) skip(stage string, position int, reason string) {
	r.Diagnostics = append(r.Diagnostics, Diagnostic{Stage: stage, Position: position, Reason: reason})
}

// Reader runs the digit pipeline with a fixed classifier and options.
// A Reader holds no per-call state and may be shared between goroutines.
type Reader struct {
	classifier Classifier
	opts       Options
	log        *logging.Logger
}

// NewReader validates opts and returns a Reader. A nil logger discards
// pipeline logs.
func NewReader(classifier Classifier, opts Options, log *logging.Logger) (*Reader, error) {
	if classifier == nil {
		return nil, errors.New("classifier is required")
	}
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid pipeline options: %w", err)
	}
	if log == nil {
		log = logging.Discard()
	}
	return &Reader{classifier: classifier, opts: opts, log: log}, nil
}

// Options returns the options the Reader was built with.
func (r *Reader) Options() Options {
	return r.opts
}

// Read runs the pipeline on a grayscale image with samples in [0, 255].
//
// Geometry failures never abort a read: a missing sign, an empty digit zone,
// an uncenterable glyph or an unrecognized glyph each add a Diagnostic and
// narrow the result. The returned error is non-nil only when ctx is done.
func (r *Reader) Read(ctx context.Context, img *pixbuf.Buffer[float32]) (*Result, error) {
	return r.ReadMode(ctx, img, r.opts.Mode)
}

// ReadMode is Read with an explicit mode.
func (r *Reader) ReadMode(ctx context.Context, img *pixbuf.Buffer[float32], mode Mode) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	res := &Result{
		RunID:        uuid.NewString(),
		Mode:         mode.String(),
		Intervals:    make([]segment.Interval, 0),
		Recognitions: make([]Recognition, 0),
		Diagnostics:  make([]Diagnostic, 0),
	}
	r.log.Debug("read started", "run", res.RunID, "mode", mode, "width", img.Width(), "height", img.Height())

	source := img
	if mode == ModeSign {
		warped, ok := r.extractSign(img, res)
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !ok {
			return res, nil
		}
		source = warped
	}

	digits, err := SegmentDigits(source, r.opts)
	if err != nil {
		r.log.Warn("digit zone not found", "run", res.RunID, "error", err)
		res.skip(StageZone, 0, err.Error())
		return res, nil
	}
	res.ZoneWidth = digits.Zone.Image.Width()
	res.ZoneHeight = digits.Zone.Image.Height()
	res.Intervals = digits.Intervals
	r.log.Debug("digits segmented", "run", res.RunID, "zone", fmt.Sprintf("%dx%d", res.ZoneWidth, res.ZoneHeight),
		"level", digits.Level, "intervals", len(digits.Intervals), "narrow", len(digits.Narrow))

	for _, iv := range digits.Narrow {
		res.skip(StageSegment, iv.Start, fmt.Sprintf("interval %v narrower than %d", iv, r.opts.MinDigitWidth))
	}

	if err := r.classifyAll(ctx, digits, res); err != nil {
		return nil, err
	}

	sort.SliceStable(res.Diagnostics, func(i, j int) bool {
		return res.Diagnostics[i].Position < res.Diagnostics[j].Position
	})
	r.log.Info("read finished", "run", res.RunID, "digits", res.String(), "skipped", len(res.Diagnostics))
	return res, nil
}

// extractSign locates and rectifies the sign. It records a diagnostic and
// returns false when either step fails.
func (r *Reader) extractSign(img *pixbuf.Buffer[float32], res *Result) (*pixbuf.Buffer[float32], bool) {
	loc := LocateSign(img, r.opts.Sign)
	sign, ok := loc.Sign()
	if !ok {
		r.log.Warn("no sign candidate", "run", res.RunID, "blobs", loc.Blobs, "level", loc.Level)
		res.skip(StageLocate, 0, fmt.Sprintf("%v among %d blobs", ErrNoSign, loc.Blobs))
		return nil, false
	}
	res.Sign = &sign
	r.log.Debug("sign located", "run", res.RunID, "blobs", loc.Blobs, "candidates", len(loc.Candidates),
		"box", fmt.Sprintf("(%d,%d)-(%d,%d)", sign.MinX, sign.MinY, sign.MaxX, sign.MaxY), "count", sign.Count)

	ext, err := ExtractSign(img, sign, r.opts.Sign)
	if err != nil {
		r.log.Warn("sign extraction failed", "run", res.RunID, "error", err)
		res.skip(StageExtract, sign.MinX, err.Error())
		return nil, false
	}
	res.Quad = &ext.Quad
	r.log.Debug("sign rectified", "run", res.RunID, "quad", fmt.Sprint(ext.Quad),
		"size", fmt.Sprintf("%dx%d", ext.Warped.Width(), ext.Warped.Height()))
	return ext.Warped, true
}

// glyphOutcome is the result of one interval, filled by its worker.
type glyphOutcome struct {
	rec  *Recognition
	diag *Diagnostic
}

// classifyAll centers and classifies every interval concurrently, then
// appends the outcomes in interval order.
func (r *Reader) classifyAll(ctx context.Context, digits *Digits, res *Result) error {
	outcomes := make([]glyphOutcome, len(digits.Intervals))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.Workers)
	for i, iv := range digits.Intervals {
		i, iv := i, iv
		g.Go(func() error {
			band, err := digits.Binary.Columns(iv.Start, iv.Stop)
			if err != nil {
				outcomes[i].diag = &Diagnostic{Stage: StageSegment, Position: iv.Start, Reason: err.Error()}
				return nil
			}
			rec, diag, err := r.readGlyph(gctx, band, iv)
			if err != nil {
				return err
			}
			outcomes[i] = glyphOutcome{rec: rec, diag: diag}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for _, o := range outcomes {
		if o.diag != nil {
			r.log.Warn("glyph skipped", "run", res.RunID, "stage", o.diag.Stage, "position", o.diag.Position, "reason", o.diag.Reason)
			res.Diagnostics = append(res.Diagnostics, *o.diag)
		}
		if o.rec != nil {
			res.Recognitions = append(res.Recognitions, *o.rec)
		}
	}
	return nil
}

// readGlyph turns one interval band into a recognition or a diagnostic.
// Only context errors are returned as errors.
func (r *Reader) readGlyph(ctx context.Context, band *pixbuf.Buffer[float32], iv segment.Interval) (*Recognition, *Diagnostic, error) {
	skip := func(stage string, err error) (*Recognition, *Diagnostic, error) {
		return nil, &Diagnostic{Stage: stage, Position: iv.Start, Reason: err.Error()}, nil
	}

	centered, err := segment.CenterGlyph(band, r.opts.Center)
	if err != nil {
		return skip(StageCenter, err)
	}
	r.log.Debug("glyph centered", "interval", iv, "mass_x", centered.MassX, "mass_y", centered.MassY)

	glyph, err := PrepareGlyph(centered.Glyph, r.opts.Model)
	if err != nil {
		return skip(StageCenter, err)
	}

	scores, err := r.classify(ctx, glyph)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, nil, ctxErr
		}
		return skip(StageClassify, err)
	}
	value, best := argmax(scores)
	if value < 0 || best <= 0 {
		return skip(StageClassify, errors.New("classifier returned no score"))
	}
	return &Recognition{
		Position:   iv.Start,
		Value:      value,
		Confidence: 100 * best,
		Interval:   iv,
	}, nil, nil
}

// classify scores the upright glyph and every configured rotation of it,
// keeping the vector with the highest maximum.
func (r *Reader) classify(ctx context.Context, glyph *pixbuf.Buffer[float32]) ([]float32, error) {
	best, err := r.classifier.Classify(ctx, glyph)
	if err != nil {
		return nil, err
	}
	_, bestScore := argmax(best)
	for _, angle := range r.opts.Rotations {
		rotated := rectify.Rotate(glyph, angle, r.opts.Model.MinRange)
		scores, err := r.classifier.Classify(ctx, rotated)
		if err != nil {
			return nil, err
		}
		if _, s := argmax(scores); s > bestScore {
			best, bestScore = scores, s
		}
	}
	return best, nil
}

// PrepareGlyph pads a centered [0, 1] glyph to the model input size and
// stretches it to the model range.
func PrepareGlyph(centered *pixbuf.Buffer[float32], model ModelInfo) (*pixbuf.Buffer[float32], error) {
	glyph, err := centered.CanvasResize(model.InputSize, model.InputSize, 0.5, 0.5)
	if err != nil {
		return nil, fmt.Errorf("pad glyph to %d: %w", model.InputSize, err)
	}
	if err := glyph.Normalize(model.MinRange, model.MaxRange); err != nil {
		return nil, fmt.Errorf("stretch glyph: %w", err)
	}
	return glyph, nil
}
