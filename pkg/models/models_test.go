package models_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/OldStager01/dpf-rul/pkg/models"
)

func TestMaintenanceEvent_HasIdentity(t *testing.T) {
	date := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		event    models.MaintenanceEvent
		expected bool
	}{
		{"complete", models.MaintenanceEvent{VehicleNumber: "T-100", Date: date}, true},
		{"missing vehicle", models.MaintenanceEvent{Date: date}, false},
		{"missing date", models.MaintenanceEvent{VehicleNumber: "T-100"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.event.HasIdentity())
		})
	}
}

func TestAlertLevel_Actionable(t *testing.T) {
	tests := []struct {
		level    models.AlertLevel
		expected bool
	}{
		{models.AlertUrgent, true},
		{models.AlertWarning, true},
		{models.AlertCaution, false},
		{models.AlertNormal, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.level), func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.level.Actionable())
		})
	}
}

func TestPipelineRun_Finish(t *testing.T) {
	run := models.NewPipelineRun("simulated")

	assert.NotEmpty(t, run.ID)
	assert.Equal(t, models.RunStatusRunning, run.Status)
	assert.False(t, run.IsTerminal())

	run.Finish(models.RunStatusInsufficientData, "insufficient data")

	assert.True(t, run.IsTerminal())
	assert.NotNil(t, run.FinishedAt)
	assert.Equal(t, "insufficient data", run.Message)
	assert.GreaterOrEqual(t, run.Duration(), time.Duration(0))
}

func TestSensorReading_Value(t *testing.T) {
	r := models.SensorReading{Values: map[string]float64{"sootLevel": 12.5}}

	v, ok := r.Value("sootLevel")
	assert.True(t, ok)
	assert.Equal(t, 12.5, v)

	_, ok = r.Value("engineRpm")
	assert.False(t, ok)
}

func TestEvent_Builders(t *testing.T) {
	e := models.NewEvent(models.EventTypeAlert, "run-1", "filter at risk").
		WithSeverity(models.SeverityCritical).
		WithVIN("1FUJ000").
		WithTraceID("trace")

	assert.Equal(t, "run-1", e.RunID)
	assert.Equal(t, models.SeverityCritical, e.Severity)
	assert.Equal(t, "1FUJ000", e.VIN)
	assert.Equal(t, "trace", e.TraceID)
}

func TestDays(t *testing.T) {
	assert.Equal(t, 48*time.Hour, models.Days(2))
}
