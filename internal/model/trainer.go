// Package model selects explainable degradation features and fits a linear
// RUL model whose coefficients read as days of remaining life.
package model

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/OldStager01/dpf-rul/pkg/models"
)

var (
	ErrNoExplainableFeatures = errors.New("no explainable features available")
	ErrInsufficientData      = errors.New("insufficient data")
)

type Config struct {
	MaxFeatures  int
	TestFraction float64
	Seed         int64
	MaxRULDays   int
	MinSamples   int
}

type Trainer struct {
	config Config
}

func NewTrainer(cfg Config) *Trainer {
	if cfg.MaxFeatures == 0 {
		cfg.MaxFeatures = 5
	}
	if cfg.TestFraction == 0 {
		cfg.TestFraction = 0.3
	}
	if cfg.Seed == 0 {
		cfg.Seed = 42
	}
	if cfg.MaxRULDays == 0 {
		cfg.MaxRULDays = 365
	}
	if cfg.MinSamples == 0 {
		cfg.MinSamples = 10
	}
	return &Trainer{config: cfg}
}

// Model is a fitted linear RUL model over standardized features.
type Model struct {
	Features     []string
	Intercept    float64
	Coefficients []float64
	correlations []float64
	scaler       standardScaler
}

// Train selects the features most correlated with RUL, fits the model on a
// seeded split and reports fit quality on both halves.
func (t *Trainer) Train(vectors []models.FeatureVector) (*Model, *models.ModelReport, error) {
	columns := ExplainableColumns(vectors)
	if len(columns) == 0 {
		return nil, nil, ErrNoExplainableFeatures
	}

	ds := buildDataset(vectors, columns, t.config.MaxRULDays)
	if len(ds.rows) < t.config.MinSamples {
		return nil, nil, fmt.Errorf("%w: %d samples after filtering, need %d",
			ErrInsufficientData, len(ds.rows), t.config.MinSamples)
	}

	ranked := rankColumns(ds)
	if len(ranked) == 0 {
		return nil, nil, fmt.Errorf("%w: no feature varies with rul_days", ErrNoExplainableFeatures)
	}
	if len(ranked) > t.config.MaxFeatures {
		ranked = ranked[:t.config.MaxFeatures]
	}

	selected := make([]int, len(ranked))
	names := make([]string, len(ranked))
	correlations := make([]float64, len(ranked))
	for i, rc := range ranked {
		selected[i] = rc.index
		names[i] = rc.name
		correlations[i] = rc.correlation
	}

	x := ds.project(selected)
	trainIdx, testIdx := trainTestSplit(len(x), t.config.TestFraction, t.config.Seed)
	xTrain, yTrain := pick(x, trainIdx), pick(ds.target, trainIdx)
	xTest, yTest := pick(x, testIdx), pick(ds.target, testIdx)

	scaler := fitScaler(xTrain)
	xTrainScaled := scaler.transform(xTrain)
	xTestScaled := scaler.transform(xTest)

	intercept, coefs, err := fitOLS(xTrainScaled, yTrain)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fit model: %w", err)
	}

	m := &Model{
		Features:     names,
		Intercept:    intercept,
		Coefficients: coefs,
		correlations: correlations,
		scaler:       scaler,
	}

	trainMAE, trainR2 := evaluate(intercept, coefs, xTrainScaled, yTrain)
	testMAE, testR2 := evaluate(intercept, coefs, xTestScaled, yTest)

	report := &models.ModelReport{
		CandidateFeatures: len(columns),
		Samples:           len(ds.rows),
		DroppedOutliers:   ds.dropped,
		Intercept:         intercept,
		Train:             models.FitMetrics{Samples: len(xTrain), MAE: trainMAE, R2: trainR2},
		Test:              models.FitMetrics{Samples: len(xTest), MAE: testMAE, R2: testR2},
		Coefficients:      m.Explain(),
	}

	return m, report, nil
}

// Explain lists the coefficients ordered by absolute size.
func (m *Model) Explain() []models.FeatureCoefficient {
	out := make([]models.FeatureCoefficient, len(m.Features))
	for i, name := range m.Features {
		direction := "decreases"
		if m.Coefficients[i] > 0 {
			direction = "increases"
		}
		out[i] = models.FeatureCoefficient{
			Feature:     name,
			Coefficient: m.Coefficients[i],
			Correlation: m.correlations[i],
			Direction:   direction,
		}
	}

	sort.SliceStable(out, func(a, b int) bool {
		return math.Abs(out[a].Coefficient) > math.Abs(out[b].Coefficient)
	})
	return out
}

func (m *Model) row(values map[string]float64) []float64 {
	raw := make([]float64, len(m.Features))
	for j, name := range m.Features {
		raw[j] = values[name]
	}
	return m.scaler.transformRow(raw)
}

// Predict returns the estimated RUL in days for a feature map. Features the
// model does not use are ignored and missing ones count as zero.
func (m *Model) Predict(values map[string]float64) float64 {
	return predictRow(m.Intercept, m.Coefficients, m.row(values))
}

// Contributions returns each selected feature's additive share of a
// prediction, largest magnitude first.
func (m *Model) Contributions(values map[string]float64) []models.RiskDriver {
	scaled := m.row(values)

	drivers := make([]models.RiskDriver, len(m.Features))
	for j, name := range m.Features {
		drivers[j] = models.RiskDriver{
			Feature:      name,
			Value:        values[name],
			Contribution: m.Coefficients[j] * scaled[j],
		}
	}

	sort.SliceStable(drivers, func(a, b int) bool {
		return math.Abs(drivers[a].Contribution) > math.Abs(drivers[b].Contribution)
	})
	return drivers
}
