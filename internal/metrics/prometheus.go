// Package metrics exposes pipeline counters and gauges in the Prometheus
// exposition format.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/OldStager01/dpf-rul/internal/logger"
)

const namespace = "dpf_rul"

type Metrics struct {
	registry *prometheus.Registry

	runsTotal        *prometheus.CounterVec
	labelsGenerated  *prometheus.CounterVec
	eventsSkipped    prometheus.Counter
	extractions      *prometheus.CounterVec
	sourceLoads      *prometheus.CounterVec
	modelMAE         *prometheus.GaugeVec
	modelR2          *prometheus.GaugeVec
	selectedFeatures prometheus.Gauge
	vehiclesByLevel  *prometheus.GaugeVec
	circuitBreaker   *prometheus.GaugeVec
	stageDuration    *prometheus.HistogramVec
	runDuration      prometheus.Histogram
	wsConnections    prometheus.Gauge
	httpRequests     *prometheus.HistogramVec
}

var (
	instance *Metrics
	once     sync.Once
)

// Get returns the process-wide metrics set.
func Get() *Metrics {
	once.Do(func() {
		instance = New()
	})
	return instance
}

// New builds a metrics set on its own registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		runsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Pipeline runs by final status.",
		}, []string{"status"}),
		labelsGenerated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "labels_generated_total",
			Help:      "RUL labels generated by category.",
		}, []string{"category"}),
		eventsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "maintenance_events_skipped_total",
			Help:      "Maintenance events without vehicle or date.",
		}),
		extractions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feature_extractions_total",
			Help:      "Feature extraction attempts by outcome.",
		}, []string{"outcome"}),
		sourceLoads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_loads_total",
			Help:      "Dataset loads by outcome.",
		}, []string{"outcome"}),
		modelMAE: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "model_mae_days",
			Help:      "Mean absolute error of the latest model.",
		}, []string{"split"}),
		modelR2: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "model_r2",
			Help:      "Coefficient of determination of the latest model.",
		}, []string{"split"}),
		selectedFeatures: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "model_selected_features",
			Help:      "Number of features in the latest model.",
		}),
		vehiclesByLevel: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "vehicles_by_alert_level",
			Help:      "Vehicles per alert level in the latest assessment.",
		}, []string{"level"}),
		circuitBreaker: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "circuit_breaker_state",
			Help:      "0=closed, 1=open, 2=half-open.",
		}, []string{"name"}),
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of pipeline stages.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}, []string{"stage"}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of complete pipeline runs.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 10),
		}),
		wsConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "websocket_connections",
			Help:      "Open websocket connections.",
		}),
		httpRequests: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "API request latency by route and status class.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "class"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.runsTotal,
		m.labelsGenerated,
		m.eventsSkipped,
		m.extractions,
		m.sourceLoads,
		m.modelMAE,
		m.modelR2,
		m.selectedFeatures,
		m.vehiclesByLevel,
		m.circuitBreaker,
		m.stageDuration,
		m.runDuration,
		m.wsConnections,
		m.httpRequests,
	)

	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) IncRun(status string) {
	m.runsTotal.WithLabelValues(status).Inc()
}

func (m *Metrics) AddLabels(category string, n int) {
	m.labelsGenerated.WithLabelValues(category).Add(float64(n))
}

func (m *Metrics) AddSkippedEvents(n int) {
	m.eventsSkipped.Add(float64(n))
}

// AddExtractions records feature extraction outcomes.
func (m *Metrics) AddExtractions(succeeded, skipped, failed int) {
	m.extractions.WithLabelValues("succeeded").Add(float64(succeeded))
	m.extractions.WithLabelValues("skipped").Add(float64(skipped))
	m.extractions.WithLabelValues("failed").Add(float64(failed))
}

func (m *Metrics) IncSourceLoad(ok bool) {
	outcome := "success"
	if !ok {
		outcome = "failure"
	}
	m.sourceLoads.WithLabelValues(outcome).Inc()
}

func (m *Metrics) SetModelFit(split string, mae, r2 float64) {
	m.modelMAE.WithLabelValues(split).Set(mae)
	m.modelR2.WithLabelValues(split).Set(r2)
}

func (m *Metrics) SetSelectedFeatures(n int) {
	m.selectedFeatures.Set(float64(n))
}

// SetVehiclesByLevel replaces the per-level vehicle counts.
func (m *Metrics) SetVehiclesByLevel(counts map[string]int) {
	m.vehiclesByLevel.Reset()
	for level, n := range counts {
		m.vehiclesByLevel.WithLabelValues(level).Set(float64(n))
	}
}

func (m *Metrics) SetCircuitBreakerState(name string, state int) {
	m.circuitBreaker.WithLabelValues(name).Set(float64(state))
}

func (m *Metrics) ObserveStage(stage string, d time.Duration) {
	m.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (m *Metrics) ObserveRun(d time.Duration) {
	m.runDuration.Observe(d.Seconds())
}

func (m *Metrics) SetWebSocketConnections(n int) {
	m.wsConnections.Set(float64(n))
}

// ObserveRequest records one API request. Unmatched routes share the
// "unmatched" label.
func (m *Metrics) ObserveRequest(method, route string, status int, d time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	class := strconv.Itoa(status/100) + "xx"
	m.httpRequests.WithLabelValues(method, route, class).Observe(d.Seconds())
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// StartServer serves the metrics on a dedicated port.
func StartServer(port int) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Get().Handler())

	addr := ":" + strconv.Itoa(port)
	logger.Infof("Prometheus metrics server listening on %s", addr)

	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			logger.Errorf("Prometheus server error: %v", err)
		}
	}()
}
