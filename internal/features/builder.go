package features

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/OldStager01/dpf-rul/internal/logger"
	"github.com/OldStager01/dpf-rul/pkg/models"
)

// BuildResult is the feature table for a label set. Vectors keep the order
// of the labels they came from.
type BuildResult struct {
	Vectors   []models.FeatureVector
	Attempted int
	Skipped   int
	Failed    int
}

// SuccessRate is the share of labels that produced a feature vector.
func (r BuildResult) SuccessRate() float64 {
	if r.Attempted == 0 {
		return 0
	}
	return float64(len(r.Vectors)) / float64(r.Attempted)
}

type Builder struct {
	extractor *Extractor
	workers   int
}

func NewBuilder(extractor *Extractor, workers int) *Builder {
	if workers <= 0 {
		workers = 4
	}
	return &Builder{extractor: extractor, workers: workers}
}

type outcome struct {
	vector  models.FeatureVector
	ok      bool
	skipped bool
}

// Build extracts features for every label. A label that lacks readings or
// whose extraction fails is counted and left out; only cancellation aborts
// the build.
func (b *Builder) Build(ctx context.Context, labels []models.RULLabel, idx *SensorIndex) (BuildResult, error) {
	outcomes := make([]outcome, len(labels))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.workers)

	for i := range labels {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			outcomes[i] = b.extractOne(labels[i], idx)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return BuildResult{}, fmt.Errorf("feature extraction cancelled: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return BuildResult{}, fmt.Errorf("feature extraction cancelled: %w", err)
	}

	result := BuildResult{Attempted: len(labels)}
	for _, o := range outcomes {
		switch {
		case o.ok:
			result.Vectors = append(result.Vectors, o.vector)
		case o.skipped:
			result.Skipped++
		default:
			result.Failed++
		}
	}

	return result, nil
}

func (b *Builder) extractOne(label models.RULLabel, idx *SensorIndex) (o outcome) {
	defer func() {
		if r := recover(); r != nil {
			logger.WithVehicle(label.VIN).Errorf("feature extraction panicked for %s: %v",
				label.PredictionDate.Format("2006-01-02"), r)
			o = outcome{}
		}
	}()

	vector, err := b.extractor.Extract(label, idx)
	if errors.Is(err, ErrInsufficientReadings) {
		return outcome{skipped: true}
	}
	if err != nil {
		logger.WithVehicle(label.VIN).Warnf("feature extraction failed: %v", err)
		return outcome{}
	}
	return outcome{vector: vector, ok: true}
}
