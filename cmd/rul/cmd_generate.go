package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/OldStager01/dpf-rul/internal/ingest"
	"github.com/OldStager01/dpf-rul/internal/logger"
	"github.com/OldStager01/dpf-rul/internal/simulator"
	"github.com/OldStager01/dpf-rul/pkg/database/queries"
)

var generateFlags struct {
	vehicles int
	days     int
	seed     int64
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Write a synthetic fleet into the database",
	RunE:  runGenerate,
}

func init() {
	f := generateCmd.Flags()
	f.IntVar(&generateFlags.vehicles, "vehicles", 0, "number of vehicles (default from config)")
	f.IntVar(&generateFlags.days, "days", 0, "days of telemetry per vehicle (default from config)")
	f.Int64Var(&generateFlags.seed, "seed", 0, "random seed (default from config)")
}

func runGenerate(cmd *cobra.Command, _ []string) error {
	simCfg := ingest.SimulatorConfig(cfg.Simulator)
	if generateFlags.vehicles > 0 {
		simCfg.Vehicles = generateFlags.vehicles
	}
	if generateFlags.days > 0 {
		simCfg.Days = generateFlags.days
	}
	if generateFlags.seed != 0 {
		simCfg.Seed = generateFlags.seed
	}

	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	ds := simulator.New(simCfg).Generate()
	fleet := queries.NewFleetRepository(db.DB)

	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Database.MigrationTimeout)
	defer cancel()

	if err := fleet.InsertMaintenance(ctx, ds.Maintenance); err != nil {
		return fmt.Errorf("failed to write maintenance log: %w", err)
	}
	if err := fleet.InsertSensors(ctx, ds.Sensors); err != nil {
		return fmt.Errorf("failed to write sensor readings: %w", err)
	}
	if err := fleet.InsertDiagnostics(ctx, ds.Diagnostics); err != nil {
		return fmt.Errorf("failed to write diagnostics: %w", err)
	}

	logger.WithFields(map[string]interface{}{
		"vehicles":    simCfg.Vehicles,
		"maintenance": len(ds.Maintenance),
		"sensors":     len(ds.Sensors),
		"diagnostics": len(ds.Diagnostics),
	}).Info("Synthetic fleet written")

	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d maintenance events, %d sensor readings and %d diagnostic readings for %d vehicles\n",
		len(ds.Maintenance), len(ds.Sensors), len(ds.Diagnostics), simCfg.Vehicles)
	return nil
}
