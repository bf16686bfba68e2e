package report_test

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/OldStager01/dpf-rul/internal/ingest"
	"github.com/OldStager01/dpf-rul/internal/report"
	"github.com/OldStager01/dpf-rul/pkg/models"
)

func sampleReport() *report.Report {
	run := models.NewPipelineRun("simulated")
	run.Finish(models.RunStatusCompleted, "")

	return &report.Report{
		Run:              run,
		Data:             ingest.PrepareStats{MaintenanceTotal: 10, DPFEvents: 8, SensorTotal: 500, SensorKept: 480},
		LabelsByCategory: map[models.RULCategory]int{models.CategoryCritical: 8, models.CategoryMedium: 6},
		Extraction:       report.Extraction{Attempted: 14, Succeeded: 12, Skipped: 2, SuccessRate: 12.0 / 14},
		TopCorrelations:  []models.FeatureCorrelation{{Feature: "sootLevel_trend_slope", Correlation: -0.71}},
		Model: &models.ModelReport{
			Samples:   12,
			Intercept: 24.3,
			Coefficients: []models.FeatureCoefficient{
				{Feature: "sootLevel_trend_slope", Coefficient: -6.2, Correlation: -0.71, Direction: "decreases"},
			},
		},
		CategoryStats: []models.CategoryStat{{Category: models.CategoryCritical, Count: 8, MeanRUL: 7}},
		Pressure: &models.PressureReport{
			Summaries: []models.PressureSummary{{VehicleNumber: "T1001", Mean: 25}},
			ByJobType: []models.JobPressureStat{{JobType: "EXHAUST SYSTEM", Events: 1, MeanOfMeans: 25, MaxPressure: 31}},
		},
		Risks: []models.VehicleRisk{{
			VIN:              "1FUJHHDR12345",
			VehicleNumber:    "T1001",
			AsOf:             time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
			PredictedRULDays: 18,
			Level:            models.AlertUrgent,
			Drivers:          []models.RiskDriver{{Feature: "sootLevel_trend_slope", Contribution: -9.5}},
		}},
	}
}

func TestRender_Table(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, report.Render(&buf, sampleReport(), report.FormatTable))

	out := buf.String()
	for _, want := range []string{"Pipeline run", "RUL labels", "CRITICAL", "Explainable model", "sootLevel_trend_slope", "Fleet DPF risk", "URGENT", "EXHAUST SYSTEM"} {
		assert.Contains(t, out, want)
	}
}

func TestRender_Markdown(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, report.Render(&buf, sampleReport(), report.FormatMarkdown))
	assert.Contains(t, buf.String(), "| CRITICAL |")
}

func TestRender_JSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, report.Render(&buf, sampleReport(), report.FormatJSON))

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Contains(t, decoded, "model")
	assert.Contains(t, decoded, "risks")
	assert.Equal(t, float64(8), decoded["labels_by_category"].(map[string]interface{})["CRITICAL"])
}

func TestRender_YAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, report.Render(&buf, sampleReport(), report.FormatYAML))

	var decoded map[string]interface{}
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	assert.Contains(t, decoded, "extraction")
	assert.Contains(t, buf.String(), "dpf_events: 8")
}

func TestRender_UnknownFormat(t *testing.T) {
	err := report.Render(&bytes.Buffer{}, sampleReport(), "pdf")
	assert.ErrorIs(t, err, report.ErrUnknownFormat)
}

func TestRender_MinimalReport(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, report.Render(&buf, &report.Report{}, report.FormatTable))
	assert.Contains(t, buf.String(), "Pipeline run")
	assert.NotContains(t, buf.String(), "Explainable model")
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "application/json", report.ContentType(report.FormatJSON))
	assert.Equal(t, "application/yaml", report.ContentType(report.FormatYAML))
	assert.Equal(t, "text/plain", report.ContentType(report.FormatTable))
}
