package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/OldStager01/dpf-rul/internal/pipeline"
	"github.com/OldStager01/dpf-rul/internal/report"
	"github.com/OldStager01/dpf-rul/internal/risk"
	"github.com/OldStager01/dpf-rul/pkg/models"
	"github.com/OldStager01/dpf-rul/pkg/validation"
)

var predictFlags struct {
	vin    string
	asOf   string
	source string
	format string
}

var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Train on the fleet and assess one vehicle",
	RunE:  runPredict,
}

func init() {
	f := predictCmd.Flags()
	f.StringVar(&predictFlags.vin, "vin", "", "vehicle identification number (required)")
	f.StringVar(&predictFlags.asOf, "as-of", "", "assess at this time (RFC 3339 or YYYY-MM-DD); default is the latest reading")
	f.StringVar(&predictFlags.source, "source", "", "data source: database or simulated (default from config)")
	f.StringVarP(&predictFlags.format, "format", "f", report.FormatTable, "output format")

	_ = predictCmd.MarkFlagRequired("vin")
}

func runPredict(cmd *cobra.Command, _ []string) error {
	vin := validation.NormalizeVIN(predictFlags.vin)
	if err := validation.ValidateVIN(vin); err != nil {
		return err
	}

	opts, err := runOptions(predictFlags.source, predictFlags.asOf)
	if err != nil {
		return err
	}
	if err := checkFormat(predictFlags.format); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	result, err := executeRun(ctx, opts)
	if err != nil {
		return err
	}
	if result.Model == nil {
		return fmt.Errorf("no model could be trained: %s", result.Run.Message)
	}

	vehicle := risk.Vehicle{VIN: vin}
	for _, e := range result.Dataset.Maintenance {
		if e.VIN == vin {
			vehicle.VehicleNumber = e.VehicleNumber
			break
		}
	}

	assessor := pipeline.FromConfig(cfg).Assessor
	vr, err := assessor.AssessOne(result.Model, result.Index, vehicle, opts.AsOf)
	if err != nil {
		return fmt.Errorf("cannot assess %s: %w", vin, err)
	}
	vr.RunID = result.Run.ID

	return report.Render(cmd.OutOrStdout(), &report.Report{
		Run:   result.Run,
		Model: result.Report.Model,
		Risks: []models.VehicleRisk{*vr},
	}, predictFlags.format)
}
