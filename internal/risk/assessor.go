// Package risk turns model predictions into per-vehicle alert levels.
package risk

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/OldStager01/dpf-rul/internal/features"
	"github.com/OldStager01/dpf-rul/internal/logger"
	"github.com/OldStager01/dpf-rul/pkg/models"
)

type Config struct {
	UrgentDays  float64
	WarningDays float64
	CautionDays float64
	TopDrivers  int
}

// Predictor is the part of a fitted model the assessor needs.
type Predictor interface {
	Predict(features map[string]float64) float64
	Contributions(features map[string]float64) []models.RiskDriver
}

// Vehicle identifies a unit to assess.
type Vehicle struct {
	VIN           string
	VehicleNumber string
}

type Result struct {
	Risks   []models.VehicleRisk
	Skipped int
}

// CountByLevel tallies assessed vehicles per alert level.
func (r Result) CountByLevel() map[models.AlertLevel]int {
	counts := make(map[models.AlertLevel]int)
	for _, risk := range r.Risks {
		counts[risk.Level]++
	}
	return counts
}

type Assessor struct {
	config    Config
	extractor *features.Extractor
}

func NewAssessor(cfg Config, extractor *features.Extractor) *Assessor {
	if cfg.UrgentDays == 0 {
		cfg.UrgentDays = 30
	}
	if cfg.WarningDays == 0 {
		cfg.WarningDays = 60
	}
	if cfg.CautionDays == 0 {
		cfg.CautionDays = 90
	}
	if cfg.TopDrivers == 0 {
		cfg.TopDrivers = 3
	}
	return &Assessor{config: cfg, extractor: extractor}
}

// Classify maps a predicted RUL in days to an alert level.
func (a *Assessor) Classify(rulDays float64) models.AlertLevel {
	switch {
	case rulDays <= a.config.UrgentDays:
		return models.AlertUrgent
	case rulDays <= a.config.WarningDays:
		return models.AlertWarning
	case rulDays <= a.config.CautionDays:
		return models.AlertCaution
	default:
		return models.AlertNormal
	}
}

// Assess predicts the RUL of each vehicle from the readings in the window
// ending at asOf. A zero asOf assesses each vehicle at its newest reading.
// Vehicles without enough recent telemetry are skipped.
func (a *Assessor) Assess(ctx context.Context, p Predictor, idx *features.SensorIndex, vehicles []Vehicle, asOf time.Time) (Result, error) {
	var result Result

	for _, v := range vehicles {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		risk, err := a.AssessOne(p, idx, v, asOf)
		if err != nil {
			if errors.Is(err, features.ErrInsufficientReadings) {
				result.Skipped++
				continue
			}
			return result, err
		}
		result.Risks = append(result.Risks, *risk)
	}

	sort.SliceStable(result.Risks, func(i, j int) bool {
		return result.Risks[i].PredictedRULDays < result.Risks[j].PredictedRULDays
	})

	return result, nil
}

// AssessOne scores a single vehicle.
func (a *Assessor) AssessOne(p Predictor, idx *features.SensorIndex, v Vehicle, asOf time.Time) (*models.VehicleRisk, error) {
	at := asOf
	if at.IsZero() {
		latest, ok := idx.Latest(v.VIN)
		if !ok {
			return nil, features.ErrInsufficientReadings
		}
		// the window is half-open, so step past the newest reading
		at = latest.Add(time.Second)
	}

	values, points, err := a.extractor.ExtractAt(v.VIN, at, idx)
	if err != nil {
		return nil, err
	}

	predicted := p.Predict(values)
	drivers := p.Contributions(values)
	if len(drivers) > a.config.TopDrivers {
		drivers = drivers[:a.config.TopDrivers]
	}

	risk := &models.VehicleRisk{
		VIN:              v.VIN,
		VehicleNumber:    v.VehicleNumber,
		AsOf:             at,
		PredictedRULDays: predicted,
		Level:            a.Classify(predicted),
		DataPoints:       points,
		Drivers:          drivers,
	}

	if risk.Level.Actionable() {
		logger.WithVehicle(v.VIN).Infof("DPF at risk: predicted RUL %.1f days (%s)", predicted, risk.Level)
	}

	return risk, nil
}

// VehiclesFromEvents lists the distinct vehicles of a maintenance log that
// carry a VIN, in first-seen order.
func VehiclesFromEvents(events []models.MaintenanceEvent) []Vehicle {
	seen := make(map[string]bool)
	var vehicles []Vehicle
	for _, e := range events {
		if e.VIN == "" || seen[e.VIN] {
			continue
		}
		seen[e.VIN] = true
		vehicles = append(vehicles, Vehicle{VIN: e.VIN, VehicleNumber: e.VehicleNumber})
	}
	return vehicles
}
