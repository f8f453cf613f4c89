package food

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/sleeqtechnologies/rechef/internal/media"
)

type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

const DefaultBatchSize = 5

// Detection is a vision verdict for a single frame.
type Detection struct {
	FoodRelevant bool       `json:"containsFood"`
	Description  string     `json:"description,omitempty"`
	Confidence   Confidence `json:"confidence"`
}

// Classifier decides whether an image shows food or food preparation.
type Classifier interface {
	Classify(ctx context.Context, frame media.Frame) (Detection, error)
}

// ClassifierFunc adapts a function to Classifier.
type ClassifierFunc func(ctx context.Context, frame media.Frame) (Detection, error)

func (f ClassifierFunc) Classify(ctx context.Context, frame media.Frame) (Detection, error) {
	return f(ctx, frame)
}

// Filter keeps food-relevant frames. Classifier failures on a single frame
// count as "not food" and never abort the run.
type Filter struct {
	Classifier Classifier
	BatchSize  int
	// OnClassified is called once per classified frame.
	OnClassified func(relevant bool)
}

func (f *Filter) batchSize() int {
	if f.BatchSize > 0 {
		return f.BatchSize
	}
	return DefaultBatchSize
}

// Detect classifies one frame. It never returns an error.
func (f *Filter) Detect(ctx context.Context, frame media.Frame) Detection {
	d, err := f.Classifier.Classify(ctx, frame)
	if err != nil {
		slog.Warn("Frame classification failed", "frame", frame.Index, "timestamp", frame.TimestampSeconds, "error", err)
		d = Detection{FoodRelevant: false, Confidence: ConfidenceLow}
	}
	if d.Confidence == "" {
		d.Confidence = ConfidenceMedium
	}
	if f.OnClassified != nil {
		f.OnClassified(d.FoodRelevant)
	}
	return d
}

// Keep classifies frame and returns it annotated when it is food-relevant,
// or nil when it should be discarded. It matches the media.StreamKept keep
// signature.
func (f *Filter) Keep(ctx context.Context, frame media.Frame) (*media.Frame, error) {
	d := f.Detect(ctx, frame)
	if !d.FoodRelevant {
		return nil, nil
	}
	frame.FoodRelevant = true
	if d.Description != "" {
		desc := d.Description
		frame.FoodDescription = &desc
	}
	return &frame, nil
}

// FilterBatch classifies frames in groups of BatchSize. Frames within a group
// are classified concurrently and groups run one after another. The relevant
// frames are returned in their original order.
func (f *Filter) FilterBatch(ctx context.Context, frames []media.Frame) ([]media.Frame, error) {
	size := f.batchSize()
	results := make([]*media.Frame, len(frames))

	for start := 0; start < len(frames); start += size {
		end := min(start+size, len(frames))

		g, gctx := errgroup.WithContext(ctx)
		for i := start; i < end; i++ {
			g.Go(func() error {
				kept, err := f.Keep(gctx, frames[i])
				if err != nil {
					return err
				}
				results[i] = kept
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}

	relevant := make([]media.Frame, 0, len(frames))
	for _, r := range results {
		if r != nil {
			relevant = append(relevant, *r)
		}
	}
	return relevant, nil
}
