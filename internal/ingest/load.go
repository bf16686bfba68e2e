package ingest

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/OldStager01/dpf-rul/pkg/models"
)

// Load reads the three datasets of src concurrently. The first failure
// cancels the remaining loads.
func Load(ctx context.Context, src Source) (models.Dataset, error) {
	var ds models.Dataset
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		events, err := src.LoadMaintenance(gctx)
		if err != nil {
			return fmt.Errorf("load maintenance: %w", err)
		}
		ds.Maintenance = events
		return nil
	})
	g.Go(func() error {
		readings, err := src.LoadSensors(gctx)
		if err != nil {
			return fmt.Errorf("load sensors: %w", err)
		}
		ds.Sensors = readings
		return nil
	})
	g.Go(func() error {
		readings, err := src.LoadDiagnostics(gctx)
		if err != nil {
			return fmt.Errorf("load diagnostics: %w", err)
		}
		ds.Diagnostics = readings
		return nil
	})

	if err := g.Wait(); err != nil {
		return models.Dataset{}, err
	}
	return ds, nil
}
