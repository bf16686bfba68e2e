package api_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OldStager01/dpf-rul/api"
	"github.com/OldStager01/dpf-rul/internal/metrics"
	"github.com/OldStager01/dpf-rul/internal/pipeline"
	"github.com/OldStager01/dpf-rul/pkg/config"
	"github.com/OldStager01/dpf-rul/pkg/models"
)

type idleManager struct {
	events chan *models.Event
}

func (m *idleManager) Trigger(opts pipeline.RunOptions) (*models.PipelineRun, error) {
	return models.NewPipelineRun(opts.Source), nil
}

func (m *idleManager) ActiveRun() (*models.PipelineRun, bool) { return nil, false }

func (m *idleManager) LatestRisk(string) (*models.VehicleRisk, bool) { return nil, false }

func (m *idleManager) SubscribeAllEvents() <-chan *models.Event { return m.events }

func newServer(t *testing.T) *api.Server {
	t.Helper()
	srv := api.NewServer(config.APIConfig{
		JWTSecret: "server-test-secret",
		RateLimit: 1000,
	}, api.Options{
		Runs:       &idleManager{events: make(chan *models.Event)},
		Metrics:    metrics.New(),
		Prometheus: config.PrometheusConfig{Enabled: true},
	})
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	})
	return srv
}

func TestServer_Routes(t *testing.T) {
	srv := newServer(t)
	token, err := srv.AuthService().GenerateToken(1, "analyst")
	require.NoError(t, err)

	tests := []struct {
		name     string
		method   string
		path     string
		auth     bool
		wantCode int
	}{
		{name: "health", method: http.MethodGet, path: "/health", wantCode: http.StatusOK},
		{name: "liveness", method: http.MethodGet, path: "/health/live", wantCode: http.StatusOK},
		{name: "metrics", method: http.MethodGet, path: "/metrics", wantCode: http.StatusOK},
		{name: "swagger", method: http.MethodGet, path: "/swagger/doc.json", wantCode: http.StatusOK},
		{name: "login needs a database", method: http.MethodPost, path: "/auth/login", wantCode: http.StatusNotFound},
		{name: "runs without token", method: http.MethodGet, path: "/runs", wantCode: http.StatusUnauthorized},
		{name: "runs without database", method: http.MethodGet, path: "/runs", auth: true, wantCode: http.StatusServiceUnavailable},
		{name: "trigger", method: http.MethodPost, path: "/runs", auth: true, wantCode: http.StatusAccepted},
		{name: "vehicle never assessed", method: http.MethodGet, path: "/vehicles/1FUJHHDRABCDE0001/risk", auth: true, wantCode: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.auth {
				req.Header.Set("Authorization", "Bearer "+token)
			}
			w := httptest.NewRecorder()
			srv.Router().ServeHTTP(w, req)
			assert.Equal(t, tt.wantCode, w.Code)
		})
	}
}

func TestServer_SecurityHeadersAndTrace(t *testing.T) {
	srv := newServer(t)

	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, w.Header().Get("X-Trace-ID"))
}
