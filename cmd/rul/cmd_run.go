package main

import (
	"context"
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/OldStager01/dpf-rul/internal/logger"
	"github.com/OldStager01/dpf-rul/internal/pipeline"
	"github.com/OldStager01/dpf-rul/internal/report"
	"github.com/OldStager01/dpf-rul/pkg/validation"
)

var runFlags struct {
	source string
	format string
	asOf   string
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full pipeline once and print the report",
	RunE:  runPipeline,
}

func init() {
	f := runCmd.Flags()
	f.StringVar(&runFlags.source, "source", "", "data source: database or simulated (default from config)")
	f.StringVarP(&runFlags.format, "format", "f", report.FormatTable, "report format: "+strings.Join(report.Formats(), ", "))
	f.StringVar(&runFlags.asOf, "as-of", "", "assess vehicles at this time (RFC 3339 or YYYY-MM-DD); default is each vehicle's latest reading")
}

func runPipeline(cmd *cobra.Command, _ []string) error {
	opts, err := runOptions(runFlags.source, runFlags.asOf)
	if err != nil {
		return err
	}
	if err := checkFormat(runFlags.format); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	result, err := executeRun(ctx, opts)
	if err != nil {
		return err
	}

	return report.Render(cmd.OutOrStdout(), result.Report, runFlags.format)
}

func runOptions(source, asOf string) (pipeline.RunOptions, error) {
	opts := pipeline.RunOptions{Source: source}
	if opts.Source == "" {
		opts.Source = cfg.Source.Type
	}
	if asOf != "" {
		t, err := validation.ParseAsOf(asOf)
		if err != nil {
			return opts, err
		}
		opts.AsOf = t
	}
	return opts, nil
}

func checkFormat(format string) error {
	for _, f := range report.Formats() {
		if f == format {
			return nil
		}
	}
	return fmt.Errorf("%w: %q", report.ErrUnknownFormat, format)
}

// executeRun wires an orchestrator for a single synchronous run.
func executeRun(ctx context.Context, opts pipeline.RunOptions) (*pipeline.Result, error) {
	db, err := optionalDB(opts.Source)
	if err != nil {
		return nil, err
	}
	if db != nil {
		defer db.Close()
	}

	svc, err := buildServices(ctx, cfg)
	if err != nil {
		return nil, err
	}
	defer svc.Close()

	orch := pipeline.NewOrchestrator(cfg, db, svc.deps)
	if err := orch.Start(); err != nil {
		return nil, fmt.Errorf("failed to start orchestrator: %w", err)
	}
	defer orch.Stop()

	result, err := orch.RunSync(ctx, opts)
	if err != nil {
		return nil, err
	}
	if !result.Completed() {
		logger.WithRun(result.Run.ID).Warnf("Run ended with status %s: %s", result.Run.Status, result.Run.Message)
	}
	return result, nil
}
