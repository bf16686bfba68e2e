// Package features turns sensor telemetry preceding a prediction date into
// per-sensor degradation features.
package features

import (
	"errors"
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/OldStager01/dpf-rul/pkg/models"
)

var ErrInsufficientReadings = errors.New("insufficient sensor readings in window")

type Config struct {
	WindowDays      int
	MinReadings     int
	MinSensorValues int
}

type Extractor struct {
	config Config
}

func NewExtractor(cfg Config) *Extractor {
	if cfg.WindowDays == 0 {
		cfg.WindowDays = 30
	}
	if cfg.MinReadings == 0 {
		cfg.MinReadings = 5
	}
	if cfg.MinSensorValues == 0 {
		cfg.MinSensorValues = 3
	}
	return &Extractor{config: cfg}
}

func (e *Extractor) WindowDays() int {
	return e.config.WindowDays
}

// Extract computes the feature vector for a label from readings strictly
// before its prediction date.
func (e *Extractor) Extract(label models.RULLabel, idx *SensorIndex) (models.FeatureVector, error) {
	features, points, err := e.ExtractAt(label.VIN, label.PredictionDate, idx)
	if err != nil {
		return models.FeatureVector{}, err
	}

	return models.FeatureVector{
		Label:      label,
		Features:   features,
		DataPoints: points,
		WindowDays: e.config.WindowDays,
	}, nil
}

// ExtractAt computes features for a VIN over [asOf-window, asOf).
func (e *Extractor) ExtractAt(vin string, asOf time.Time, idx *SensorIndex) (map[string]float64, int, error) {
	from := asOf.Add(-models.Days(e.config.WindowDays))
	window := idx.Window(vin, from, asOf)

	if len(window) < e.config.MinReadings {
		return nil, len(window), fmt.Errorf("%w: %d of %d required", ErrInsufficientReadings, len(window), e.config.MinReadings)
	}

	return e.compute(window), len(window), nil
}

func (e *Extractor) compute(window []models.SensorReading) map[string]float64 {
	features := make(map[string]float64)

	for _, sensor := range TrackedSensors {
		values := sensorValues(window, sensor)
		if len(values) < e.config.MinSensorValues {
			continue
		}
		sensorFeatures(features, sensor, values)
	}

	if len(features) == 0 {
		features[FeatureDataAvailability] = float64(len(window)) / float64(max(1, e.config.WindowDays))
		features[FeatureSensorCount] = float64(reportedSensors(window))
	}

	return features
}

func sensorFeatures(features map[string]float64, sensor string, values []float64) {
	n := len(values)
	index := make([]float64, n)
	for i := range index {
		index[i] = float64(i)
	}

	_, slope := stat.LinearRegression(index, values, nil, false)
	if !isFinite(slope) {
		slope = 0
	}
	features[sensor+SuffixTrendSlope] = slope

	if r := stat.Correlation(index, values, nil); isFinite(r) {
		features[sensor+SuffixTrendStrength] = r * r
	}

	mean, std := stat.MeanStdDev(values, nil)
	if mean != 0 && std > 0 && isFinite(std) {
		features[sensor+SuffixVolatility] = std / math.Abs(mean)
	}

	if t, ok := Thresholds[sensor]; ok {
		var above, below int
		for _, v := range values {
			if v > t.High {
				above++
			}
			if v < t.Low {
				below++
			}
		}
		features[sensor+SuffixPctTimeHigh] = float64(above) / float64(n) * 100
		features[sensor+SuffixPctTimeLow] = float64(below) / float64(n) * 100
	}

	split := max(1, int(float64(n)*0.75))
	if split < n {
		historical := stat.Mean(values[:split], nil)
		recent := stat.Mean(values[split:], nil)
		if historical != 0 && isFinite(historical) && isFinite(recent) {
			features[sensor+SuffixPatternChange] = (recent - historical) / math.Abs(historical) * 100
		}
	}
}

// sensorValues returns the finite values of a channel in time order.
func sensorValues(window []models.SensorReading, sensor string) []float64 {
	values := make([]float64, 0, len(window))
	for _, r := range window {
		if v, ok := r.Value(sensor); ok && isFinite(v) {
			values = append(values, v)
		}
	}
	return values
}

func reportedSensors(window []models.SensorReading) int {
	count := 0
	for _, sensor := range TrackedSensors {
		for _, r := range window {
			if v, ok := r.Value(sensor); ok && isFinite(v) {
				count++
				break
			}
		}
	}
	return count
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
