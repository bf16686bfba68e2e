package ingest

import (
	"context"
	"time"

	"github.com/OldStager01/dpf-rul/internal/logger"
	"github.com/OldStager01/dpf-rul/internal/resilience"
	"github.com/OldStager01/dpf-rul/pkg/models"
)

type ResilientSource struct {
	source         Source
	circuitBreaker *resilience.CircuitBreaker
	retry          resilience.RetryPolicy
	timeout        time.Duration
}

type ResilientSourceConfig struct {
	Name          string
	Source        Source
	MaxFailures   int
	BreakerReset  time.Duration
	RetryAttempts int
	RetryDelay    time.Duration
	// Timeout bounds each individual load attempt.
	Timeout       time.Duration
	OnStateChange func(name string, from, to resilience.State)
}

func NewResilientSource(cfg ResilientSourceConfig) *ResilientSource {
	if cfg.RetryAttempts <= 0 {
		cfg.RetryAttempts = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 500 * time.Millisecond
	}
	if cfg.Name == "" {
		cfg.Name = "source"
	}

	cb := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
		Name:          cfg.Name,
		MaxFailures:   cfg.MaxFailures,
		Timeout:       cfg.BreakerReset,
		OnStateChange: cfg.OnStateChange,
	})

	return &ResilientSource{
		source:         cfg.Source,
		circuitBreaker: cb,
		timeout:        cfg.Timeout,
		retry: resilience.RetryPolicy{
			Attempts: cfg.RetryAttempts,
			Delay:    cfg.RetryDelay,
		},
	}
}

func guarded[T any](ctx context.Context, s *ResilientSource, what string, load func(context.Context) (T, error)) (T, error) {
	policy := s.retry
	policy.OnRetry = func(attempt int, err error) {
		logger.WithFields(map[string]interface{}{
			"dataset": what,
			"attempt": attempt,
		}).Warnf("Load failed, retrying: %v", err)
	}

	return resilience.Retry(ctx, policy, func(ctx context.Context) (T, error) {
		var out T
		err := s.circuitBreaker.ExecuteCtx(ctx, func(ctx context.Context) error {
			if s.timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, s.timeout)
				defer cancel()
			}
			var err error
			out, err = load(ctx)
			return err
		})
		return out, err
	})
}

func (s *ResilientSource) LoadMaintenance(ctx context.Context) ([]models.MaintenanceEvent, error) {
	return guarded(ctx, s, "maintenance", s.source.LoadMaintenance)
}

func (s *ResilientSource) LoadSensors(ctx context.Context) ([]models.SensorReading, error) {
	return guarded(ctx, s, "sensors", s.source.LoadSensors)
}

func (s *ResilientSource) LoadDiagnostics(ctx context.Context) ([]models.DiagnosticReading, error) {
	return guarded(ctx, s, "diagnostics", s.source.LoadDiagnostics)
}

func (s *ResilientSource) HealthCheck(ctx context.Context) error {
	return s.source.HealthCheck(ctx)
}

func (s *ResilientSource) Close() error {
	return s.source.Close()
}

func (s *ResilientSource) CircuitState() resilience.State {
	return s.circuitBreaker.State()
}

func (s *ResilientSource) ResetCircuit() {
	s.circuitBreaker.Reset()
}
