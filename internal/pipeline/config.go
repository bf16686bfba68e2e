package pipeline

import (
	"github.com/OldStager01/dpf-rul/internal/diagnostics"
	"github.com/OldStager01/dpf-rul/internal/features"
	"github.com/OldStager01/dpf-rul/internal/labels"
	"github.com/OldStager01/dpf-rul/internal/model"
	"github.com/OldStager01/dpf-rul/internal/risk"
	"github.com/OldStager01/dpf-rul/pkg/config"
)

// FromConfig builds the analysis stages from the application configuration.
// Source, publisher and sinks are left for the caller.
func FromConfig(cfg *config.Config) Config {
	extractor := features.NewExtractor(features.Config{
		WindowDays:      cfg.Features.WindowDays,
		MinReadings:     cfg.Features.MinReadings,
		MinSensorValues: cfg.Features.MinSensorValues,
	})

	return Config{
		SourceName:   cfg.Source.Type,
		DPFKeywords:  cfg.Source.DPFKeywords,
		Labels:       labels.NewGenerator(labels.Config{LookbackDays: cfg.Labels.LookbackDays}),
		Interference: cfg.Labels.Interference,
		Extractor:    extractor,
		Workers:      cfg.Features.Workers,
		Trainer: model.NewTrainer(model.Config{
			MaxFeatures:  cfg.Model.MaxFeatures,
			TestFraction: cfg.Model.TestFraction,
			Seed:         cfg.Model.Seed,
			MaxRULDays:   cfg.Model.MaxRULDays,
			MinSamples:   cfg.Model.MinSamples,
		}),
		MaxRULDays: cfg.Model.MaxRULDays,
		Assessor: risk.NewAssessor(risk.Config{
			UrgentDays:  cfg.Risk.UrgentDays,
			WarningDays: cfg.Risk.WarningDays,
			CautionDays: cfg.Risk.CautionDays,
			TopDrivers:  cfg.Risk.TopDrivers,
		}, extractor),
		Diagnostics: diagnostics.NewAnalyzer(diagnostics.Config{
			Diagnostic:     cfg.Diagnostics.Diagnostic,
			WindowDays:     cfg.Diagnostics.WindowDays,
			SigmaThreshold: cfg.Diagnostics.SigmaThreshold,
		}),
	}
}
