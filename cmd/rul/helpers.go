package main

import (
	"context"
	"fmt"

	"github.com/OldStager01/dpf-rul/internal/alerting"
	"github.com/OldStager01/dpf-rul/internal/artifacts"
	"github.com/OldStager01/dpf-rul/internal/cache"
	"github.com/OldStager01/dpf-rul/internal/ingest"
	"github.com/OldStager01/dpf-rul/internal/logger"
	"github.com/OldStager01/dpf-rul/internal/pipeline"
	"github.com/OldStager01/dpf-rul/pkg/config"
	"github.com/OldStager01/dpf-rul/pkg/database"
)

func openDB() (*database.DB, error) {
	db, err := database.New(cfg.Database.ToDBConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	logger.Infof("Database connection established (%s)", db.Driver())
	return db, nil
}

// optionalDB opens the store for recording. Only the database source needs
// it, so other sources continue without one.
func optionalDB(sourceType string) (*database.DB, error) {
	db, err := openDB()
	if err == nil {
		return db, nil
	}
	if sourceType == ingest.SourceDatabase {
		return nil, err
	}
	logger.Warnf("Continuing without run history: %v", err)
	return nil, nil
}

// services holds the optional outputs of a run.
type services struct {
	deps  pipeline.Dependencies
	cache *cache.RiskCache
}

func (s *services) Close() {
	if s.cache != nil {
		if err := s.cache.Close(); err != nil {
			logger.Warnf("Failed to close risk cache: %v", err)
		}
	}
}

// buildServices connects the alert sink, risk cache and artifact store that
// are enabled in the configuration. Only a broken alert sink is an error.
func buildServices(ctx context.Context, cfg *config.Config) (*services, error) {
	sink, err := alerting.NewSink(cfg.Alerting)
	if err != nil {
		return nil, fmt.Errorf("failed to create alert sink: %w", err)
	}

	s := &services{deps: pipeline.Dependencies{Sink: sink}}

	if cfg.Cache.Enabled {
		rc, err := cache.New(ctx, cfg.Cache)
		if err != nil {
			logger.Warnf("Risk cache disabled: %v", err)
		} else {
			s.cache = rc
			s.deps.Cache = rc
		}
	}

	if cfg.Artifacts.Enabled {
		store, err := artifacts.New(cfg.Artifacts)
		if err == nil {
			err = store.EnsureBucket(ctx)
		}
		if err != nil {
			logger.Warnf("Artifact uploads disabled: %v", err)
		} else {
			s.deps.Artifacts = store
		}
	}

	return s, nil
}
