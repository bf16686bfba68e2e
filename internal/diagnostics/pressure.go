// Package diagnostics analyzes exhaust back-pressure ahead of maintenance.
package diagnostics

import (
	"math"
	"sort"
	"strings"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/OldStager01/dpf-rul/pkg/models"
)

type Config struct {
	Diagnostic     string
	WindowDays     int
	SigmaThreshold float64
}

type Analyzer struct {
	config Config
}

func NewAnalyzer(cfg Config) *Analyzer {
	if cfg.Diagnostic == "" {
		cfg.Diagnostic = "Exhaust Gas Pressure"
	}
	if cfg.WindowDays == 0 {
		cfg.WindowDays = 30
	}
	if cfg.SigmaThreshold == 0 {
		cfg.SigmaThreshold = 2
	}
	return &Analyzer{config: cfg}
}

// Analyze summarizes the configured diagnostic over the window preceding each
// maintenance event and flags events whose mean is an outlier across events.
func (a *Analyzer) Analyze(events []models.MaintenanceEvent, readings []models.DiagnosticReading) models.PressureReport {
	byAsset := make(map[string][]models.DiagnosticReading)
	for _, r := range readings {
		if !strings.EqualFold(r.Diagnostic, a.config.Diagnostic) {
			continue
		}
		byAsset[r.AssetName] = append(byAsset[r.AssetName], r)
	}
	for _, rs := range byAsset {
		sort.Slice(rs, func(i, j int) bool { return rs[i].Time.Before(rs[j].Time) })
	}

	var report models.PressureReport
	for _, e := range events {
		if !e.HasIdentity() {
			continue
		}
		values := windowValues(byAsset[e.VehicleNumber], e.Date.Add(-models.Days(a.config.WindowDays)), e.Date)
		if len(values) == 0 {
			continue
		}

		mean, std := stat.MeanStdDev(values, nil)
		if len(values) < 2 {
			std = 0
		}
		report.Summaries = append(report.Summaries, models.PressureSummary{
			VehicleNumber:   e.VehicleNumber,
			MaintenanceDate: e.Date,
			JobType:         e.JobDescription,
			Mean:            mean,
			Std:             std,
			Min:             floats.Min(values),
			Max:             floats.Max(values),
			Count:           len(values),
		})
	}

	if len(report.Summaries) == 0 {
		return report
	}

	means := make([]float64, len(report.Summaries))
	for i, s := range report.Summaries {
		means[i] = s.Mean
	}
	report.OverallMean, report.OverallStd = stat.MeanStdDev(means, nil)
	if len(means) < 2 || math.IsNaN(report.OverallStd) {
		report.OverallStd = 0
	}
	report.LowerBound = report.OverallMean - a.config.SigmaThreshold*report.OverallStd
	report.UpperBound = report.OverallMean + a.config.SigmaThreshold*report.OverallStd

	for i := range report.Summaries {
		s := &report.Summaries[i]
		if s.Mean < report.LowerBound || s.Mean > report.UpperBound {
			s.Anomalous = true
			report.Anomalies++
		}
	}

	report.ByJobType = byJobType(report.Summaries)
	return report
}

func windowValues(rs []models.DiagnosticReading, from, to time.Time) []float64 {
	start := sort.Search(len(rs), func(i int) bool { return !rs[i].Time.Before(from) })
	var values []float64
	for _, r := range rs[start:] {
		if !r.Time.Before(to) {
			break
		}
		if !math.IsNaN(r.Value) && !math.IsInf(r.Value, 0) {
			values = append(values, r.Value)
		}
	}
	return values
}

func byJobType(summaries []models.PressureSummary) []models.JobPressureStat {
	grouped := make(map[string][]models.PressureSummary)
	for _, s := range summaries {
		grouped[s.JobType] = append(grouped[s.JobType], s)
	}

	out := make([]models.JobPressureStat, 0, len(grouped))
	for job, group := range grouped {
		st := models.JobPressureStat{JobType: job, Events: len(group), MaxPressure: math.Inf(-1)}
		var sum float64
		for _, s := range group {
			sum += s.Mean
			st.MaxPressure = math.Max(st.MaxPressure, s.Max)
		}
		st.MeanOfMeans = sum / float64(len(group))
		out = append(out, st)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Events != out[j].Events {
			return out[i].Events > out[j].Events
		}
		return out[i].JobType < out[j].JobType
	})
	return out
}
