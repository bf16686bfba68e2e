package ingest

import (
	"context"
	"sync"

	"github.com/OldStager01/dpf-rul/internal/simulator"
	"github.com/OldStager01/dpf-rul/pkg/models"
)

// SimulatedSource serves a synthetic fleet, generated once on first use.
type SimulatedSource struct {
	sim     *simulator.Simulator
	once    sync.Once
	dataset models.Dataset
}

func NewSimulatedSource(sim *simulator.Simulator) *SimulatedSource {
	return &SimulatedSource{sim: sim}
}

func (s *SimulatedSource) data() models.Dataset {
	s.once.Do(func() {
		s.dataset = s.sim.Generate()
	})
	return s.dataset
}

func (s *SimulatedSource) LoadMaintenance(ctx context.Context) ([]models.MaintenanceEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.data().Maintenance, nil
}

func (s *SimulatedSource) LoadSensors(ctx context.Context) ([]models.SensorReading, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.data().Sensors, nil
}

func (s *SimulatedSource) LoadDiagnostics(ctx context.Context) ([]models.DiagnosticReading, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.data().Diagnostics, nil
}

func (s *SimulatedSource) HealthCheck(ctx context.Context) error {
	return nil
}

func (s *SimulatedSource) Close() error {
	return nil
}
