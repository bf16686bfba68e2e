package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/OldStager01/dpf-rul/api"
	"github.com/OldStager01/dpf-rul/api/handlers"
	"github.com/OldStager01/dpf-rul/internal/logger"
	"github.com/OldStager01/dpf-rul/internal/metrics"
	"github.com/OldStager01/dpf-rul/internal/pipeline"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API, live run events and metrics",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	logger.Infof("Starting %s in %s mode", cfg.App.Name, cfg.App.Mode)

	db, err := optionalDB(cfg.Source.Type)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
	}

	svc, err := buildServices(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	m := metrics.Get()
	svc.deps.Metrics = m

	orch := pipeline.NewOrchestrator(cfg, db, svc.deps)
	if err := orch.Start(); err != nil {
		return fmt.Errorf("failed to start orchestrator: %w", err)
	}

	opts := api.Options{
		DB:         db,
		Runs:       orch,
		Metrics:    m,
		WebSocket:  cfg.WebSocket,
		Prometheus: cfg.Prometheus,
		Checks:     map[string]handlers.HealthChecker{},
	}
	if svc.cache != nil {
		opts.Cache = svc.cache
	}
	server := api.NewServer(cfg.API, opts)

	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		logger.Infof("API server listening on port %d", cfg.API.Port)
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		orch.Stop()
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdownChan:
		logger.Infof("Received signal %v, shutting down", sig)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Shutdown error: %v", err)
	}
	orch.Stop()

	logger.Info("Server stopped gracefully")
	return nil
}
