package metrics_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OldStager01/dpf-rul/internal/metrics"
)

func TestMetrics_Exposition(t *testing.T) {
	m := metrics.New()

	m.IncRun("completed")
	m.IncRun("completed")
	m.AddLabels("CRITICAL", 3)
	m.AddExtractions(10, 2, 1)
	m.SetModelFit("test", 4.5, 0.62)
	m.SetVehiclesByLevel(map[string]int{"URGENT": 2, "NORMAL": 5})
	m.ObserveStage("features", 150*time.Millisecond)
	m.ObserveRequest(http.MethodGet, "/runs/:id", http.StatusNotFound, 5*time.Millisecond)
	m.ObserveRequest(http.MethodGet, "", http.StatusNotFound, time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, `dpf_rul_runs_total{status="completed"} 2`)
	assert.Contains(t, body, `dpf_rul_labels_generated_total{category="CRITICAL"} 3`)
	assert.Contains(t, body, `dpf_rul_feature_extractions_total{outcome="failed"} 1`)
	assert.Contains(t, body, `dpf_rul_model_r2{split="test"} 0.62`)
	assert.Contains(t, body, `dpf_rul_vehicles_by_alert_level{level="URGENT"} 2`)
	assert.Contains(t, body, "dpf_rul_stage_duration_seconds_bucket")
	assert.Contains(t, body, `dpf_rul_http_request_duration_seconds_count{class="4xx",method="GET",route="/runs/:id"} 1`)
	assert.Contains(t, body, `route="unmatched"`)
}

func TestMetrics_VehiclesByLevelResets(t *testing.T) {
	m := metrics.New()

	m.SetVehiclesByLevel(map[string]int{"URGENT": 2})
	m.SetVehiclesByLevel(map[string]int{"NORMAL": 1})

	families, err := m.Registry().Gather()
	require.NoError(t, err)

	for _, f := range families {
		if f.GetName() == "dpf_rul_vehicles_by_alert_level" {
			require.Len(t, f.GetMetric(), 1)
			assert.Equal(t, "NORMAL", f.GetMetric()[0].GetLabel()[0].GetValue())
			return
		}
	}
	t.Fatal("vehicles_by_alert_level not gathered")
}

func TestGet_Singleton(t *testing.T) {
	assert.Same(t, metrics.Get(), metrics.Get())
}
