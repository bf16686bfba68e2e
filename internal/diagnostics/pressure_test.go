package diagnostics_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OldStager01/dpf-rul/internal/diagnostics"
	"github.com/OldStager01/dpf-rul/pkg/models"
)

var t0 = time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)

func pressure(asset string, daysBefore int, value float64, at time.Time) models.DiagnosticReading {
	return models.DiagnosticReading{
		AssetName:  asset,
		Time:       at.Add(-models.Days(daysBefore)),
		Diagnostic: "Exhaust Gas Pressure",
		Value:      value,
		Unit:       "kPa",
	}
}

func TestAnalyze_SummarizesPreMaintenanceWindow(t *testing.T) {
	event := models.MaintenanceEvent{VehicleNumber: "T-1", Date: t0, JobDescription: "EXHAUST SYSTEM"}
	readings := []models.DiagnosticReading{
		pressure("T-1", 5, 2, t0),
		pressure("T-1", 10, 4, t0),
		pressure("T-1", 40, 100, t0), // outside window
		pressure("T-1", 0, 100, t0),  // at the event, excluded
		pressure("T-2", 3, 100, t0),  // other asset
		{AssetName: "T-1", Time: t0.Add(-time.Hour), Diagnostic: "Coolant Level", Value: 100},
	}

	report := diagnostics.NewAnalyzer(diagnostics.Config{}).Analyze([]models.MaintenanceEvent{event}, readings)

	require.Len(t, report.Summaries, 1)
	s := report.Summaries[0]
	assert.Equal(t, 3.0, s.Mean)
	assert.Equal(t, 2.0, s.Min)
	assert.Equal(t, 4.0, s.Max)
	assert.Equal(t, 2, s.Count)
	assert.InDelta(t, 1.41421356, s.Std, 1e-6)
	assert.False(t, s.Anomalous)

	require.Len(t, report.ByJobType, 1)
	assert.Equal(t, "EXHAUST SYSTEM", report.ByJobType[0].JobType)
}

func TestAnalyze_FlagsOutlierEvents(t *testing.T) {
	var events []models.MaintenanceEvent
	var readings []models.DiagnosticReading
	for i := 0; i < 10; i++ {
		date := t0.Add(models.Days(i * 60))
		events = append(events, models.MaintenanceEvent{VehicleNumber: "T-1", Date: date, JobDescription: "FILTER - DIESEL PARTICULATE"})
		value := 3.0
		if i == 9 {
			value = 30
		}
		readings = append(readings, pressure("T-1", 2, value, date))
	}

	report := diagnostics.NewAnalyzer(diagnostics.Config{}).Analyze(events, readings)

	require.Len(t, report.Summaries, 10)
	assert.Equal(t, 1, report.Anomalies)
	assert.True(t, report.Summaries[9].Anomalous)
	assert.Greater(t, report.UpperBound, report.OverallMean)
}

func TestAnalyze_NoReadings(t *testing.T) {
	report := diagnostics.NewAnalyzer(diagnostics.Config{}).Analyze(
		[]models.MaintenanceEvent{{VehicleNumber: "T-1", Date: t0}}, nil)

	assert.Empty(t, report.Summaries)
	assert.Zero(t, report.Anomalies)
}
