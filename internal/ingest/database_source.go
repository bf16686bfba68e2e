package ingest

import (
	"context"
	"fmt"

	"github.com/OldStager01/dpf-rul/pkg/database"
	"github.com/OldStager01/dpf-rul/pkg/database/queries"
	"github.com/OldStager01/dpf-rul/pkg/models"
)

// DatabaseSource reads the fleet tables of the SQL store.
type DatabaseSource struct {
	db    *database.DB
	fleet *queries.FleetRepository
}

func NewDatabaseSource(db *database.DB) *DatabaseSource {
	return &DatabaseSource{
		db:    db,
		fleet: queries.NewFleetRepository(db.DB),
	}
}

func (s *DatabaseSource) LoadMaintenance(ctx context.Context) ([]models.MaintenanceEvent, error) {
	events, err := s.fleet.LoadMaintenance(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	return events, nil
}

func (s *DatabaseSource) LoadSensors(ctx context.Context) ([]models.SensorReading, error) {
	readings, err := s.fleet.LoadSensors(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	return readings, nil
}

func (s *DatabaseSource) LoadDiagnostics(ctx context.Context) ([]models.DiagnosticReading, error) {
	readings, err := s.fleet.LoadDiagnostics(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	return readings, nil
}

func (s *DatabaseSource) HealthCheck(ctx context.Context) error {
	return s.db.HealthCheck(ctx)
}

// Close is a no-op; the connection pool belongs to the caller.
func (s *DatabaseSource) Close() error {
	return nil
}
