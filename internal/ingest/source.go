// Package ingest loads the maintenance log, telemetry and diagnostics a
// pipeline run works on and narrows them to DPF-relevant records.
package ingest

import (
	"context"
	"errors"

	"github.com/OldStager01/dpf-rul/pkg/models"
)

var (
	ErrSourceUnavailable = errors.New("data source unavailable")
	ErrUnknownSource     = errors.New("unknown data source type")
)

const (
	SourceDatabase  = "database"
	SourceSimulated = "simulated"
)

// Source defines where fleet data comes from
type Source interface {
	LoadMaintenance(ctx context.Context) ([]models.MaintenanceEvent, error)
	LoadSensors(ctx context.Context) ([]models.SensorReading, error)
	LoadDiagnostics(ctx context.Context) ([]models.DiagnosticReading, error)

	// HealthCheck verifies the source can reach its backing store
	HealthCheck(ctx context.Context) error

	// Close releases any resources held by the source
	Close() error
}

// StaticSource serves a dataset held in memory. Failures can be injected
// with SetShouldFail.
type StaticSource struct {
	dataset      models.Dataset
	shouldFail   bool
	failureError error
}

func NewStaticSource(ds models.Dataset) *StaticSource {
	return &StaticSource{dataset: ds}
}

func (s *StaticSource) SetShouldFail(shouldFail bool, err error) {
	s.shouldFail = shouldFail
	s.failureError = err
}

func (s *StaticSource) fail() error {
	if !s.shouldFail {
		return nil
	}
	if s.failureError != nil {
		return s.failureError
	}
	return ErrSourceUnavailable
}

func (s *StaticSource) LoadMaintenance(ctx context.Context) ([]models.MaintenanceEvent, error) {
	if err := s.fail(); err != nil {
		return nil, err
	}
	return s.dataset.Maintenance, nil
}

func (s *StaticSource) LoadSensors(ctx context.Context) ([]models.SensorReading, error) {
	if err := s.fail(); err != nil {
		return nil, err
	}
	return s.dataset.Sensors, nil
}

func (s *StaticSource) LoadDiagnostics(ctx context.Context) ([]models.DiagnosticReading, error) {
	if err := s.fail(); err != nil {
		return nil, err
	}
	return s.dataset.Diagnostics, nil
}

func (s *StaticSource) HealthCheck(ctx context.Context) error {
	return s.fail()
}

func (s *StaticSource) Close() error {
	return nil
}
