package ingest

import (
	"fmt"

	"github.com/OldStager01/dpf-rul/internal/resilience"
	"github.com/OldStager01/dpf-rul/internal/simulator"
	"github.com/OldStager01/dpf-rul/pkg/config"
	"github.com/OldStager01/dpf-rul/pkg/database"
)

// SimulatorConfig maps the simulator section of the configuration.
func SimulatorConfig(cfg config.SimulatorConfig) simulator.Config {
	return simulator.Config{
		Vehicles:          cfg.Vehicles,
		Days:              cfg.Days,
		ReadingsPerDay:    cfg.ReadingsPerDay,
		EventsPerVehicle:  cfg.EventsPerVehicle,
		Seed:              cfg.Seed,
		MissingRate:       cfg.MissingRate,
		NonDPFEventChance: cfg.NonDPFEventChance,
	}
}

// NewSource builds the configured source wrapped in retry and a circuit
// breaker. db may be nil for the simulated source.
func NewSource(cfg *config.Config, db *database.DB, onStateChange func(name string, from, to resilience.State)) (Source, error) {
	var src Source

	switch cfg.Source.Type {
	case SourceDatabase:
		if db == nil {
			return nil, fmt.Errorf("%w: database source needs a connection", ErrSourceUnavailable)
		}
		src = NewDatabaseSource(db)
	case SourceSimulated:
		src = NewSimulatedSource(simulator.New(SimulatorConfig(cfg.Simulator)))
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownSource, cfg.Source.Type)
	}

	return NewResilientSource(ResilientSourceConfig{
		Name:          "source-" + cfg.Source.Type,
		Source:        src,
		MaxFailures:   cfg.Source.CircuitBreaker.MaxFailures,
		BreakerReset:  cfg.Source.CircuitBreaker.Timeout,
		RetryAttempts: cfg.Source.RetryAttempts,
		RetryDelay:    cfg.Source.RetryDelay,
		Timeout:       cfg.Source.Timeout,
		OnStateChange: onStateChange,
	}), nil
}
