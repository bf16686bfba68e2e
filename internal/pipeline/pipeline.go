// Package pipeline runs the RUL analysis end to end: load, prepare, label,
// extract, train, profile, analyze diagnostics, assess and record.
package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/OldStager01/dpf-rul/internal/artifacts"
	"github.com/OldStager01/dpf-rul/internal/diagnostics"
	"github.com/OldStager01/dpf-rul/internal/events"
	"github.com/OldStager01/dpf-rul/internal/features"
	"github.com/OldStager01/dpf-rul/internal/ingest"
	"github.com/OldStager01/dpf-rul/internal/labels"
	"github.com/OldStager01/dpf-rul/internal/logger"
	"github.com/OldStager01/dpf-rul/internal/metrics"
	"github.com/OldStager01/dpf-rul/internal/model"
	"github.com/OldStager01/dpf-rul/internal/report"
	"github.com/OldStager01/dpf-rul/internal/risk"
	"github.com/OldStager01/dpf-rul/pkg/models"
)

const (
	StageLoad        = "load"
	StagePrepare     = "prepare"
	StageLabels      = "labels"
	StageFeatures    = "features"
	StageTrain       = "train"
	StageProfile     = "profile"
	StageDiagnostics = "diagnostics"
	StageAssess      = "assess"
	StageRecord      = "record"
)

var ErrNoSource = errors.New("pipeline has no data source")

// RiskStore keeps the latest assessment per vehicle.
type RiskStore interface {
	StoreRisks(ctx context.Context, risks []models.VehicleRisk) error
}

// ArtifactUploader stores rendered reports.
type ArtifactUploader interface {
	Upload(ctx context.Context, key string, body []byte, contentType string) (string, error)
}

type Config struct {
	Source      ingest.Source
	SourceName  string
	DPFKeywords []string

	Labels      *labels.Generator
	Extractor   *features.Extractor
	Workers     int
	Trainer     *model.Trainer
	MaxRULDays  int
	RankLimit   int
	Assessor    *risk.Assessor
	Diagnostics *diagnostics.Analyzer

	// Interference is labels.InterferenceAll to let non-DPF repairs break
	// clean windows. Anything else uses the DPF events only.
	Interference string

	// AsOf is the assessment time. Zero assesses each vehicle at its newest
	// reading.
	AsOf time.Time

	Publisher *events.Publisher
	Recorder  RunRecorder
	Cache     RiskStore
	Artifacts ArtifactUploader
	Metrics   *metrics.Metrics

	// OnProgress receives a copy of the run whenever its stage or counters
	// change. It is called from the goroutine executing the run.
	OnProgress func(run models.PipelineRun)
}

type Pipeline struct {
	config Config
}

func New(cfg Config) *Pipeline {
	if len(cfg.DPFKeywords) == 0 {
		cfg.DPFKeywords = ingest.DefaultDPFKeywords
	}
	if cfg.Labels == nil {
		cfg.Labels = labels.NewGenerator(labels.Config{})
	}
	if cfg.Extractor == nil {
		cfg.Extractor = features.NewExtractor(features.Config{})
	}
	if cfg.Trainer == nil {
		cfg.Trainer = model.NewTrainer(model.Config{})
	}
	if cfg.MaxRULDays == 0 {
		cfg.MaxRULDays = 365
	}
	if cfg.RankLimit == 0 {
		cfg.RankLimit = 15
	}
	if cfg.Assessor == nil {
		cfg.Assessor = risk.NewAssessor(risk.Config{}, cfg.Extractor)
	}
	if cfg.Diagnostics == nil {
		cfg.Diagnostics = diagnostics.NewAnalyzer(diagnostics.Config{})
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.Get()
	}
	return &Pipeline{config: cfg}
}

// Result is everything a run produced. Fields after Report are populated as
// far as the run progressed.
type Result struct {
	Run      *models.PipelineRun
	Report   *report.Report
	Dataset  models.Dataset
	Labels   []models.RULLabel
	Features []models.FeatureVector
	Model    *model.Model
	Index    *features.SensorIndex
}

// Completed reports whether the run produced a trained model and risks.
func (r *Result) Completed() bool {
	return r.Run.Status == models.RunStatusCompleted
}

// insufficient ends a run early without it being a failure.
type insufficient struct {
	reason string
}

func (e *insufficient) Error() string {
	return e.reason
}

// Run executes a new run against the configured source.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	return p.Execute(ctx, models.NewPipelineRun(p.config.SourceName))
}

// Execute drives run through every stage. Missing data ends the run with
// status insufficient_data and a nil error; a failed load, a cancelled
// context or a broken model fit returns an error and marks the run failed.
func (p *Pipeline) Execute(ctx context.Context, run *models.PipelineRun) (*Result, error) {
	if p.config.Source == nil {
		return nil, ErrNoSource
	}
	ctx = logger.WithRunID(ctx, run.ID)

	result := &Result{
		Run:    run,
		Report: &report.Report{Run: run},
	}

	log := logger.FromContext(ctx)
	log.Infof("Pipeline run started (source %s)", run.Source)
	p.config.Publisher.RunStarted(run)

	if p.config.Recorder != nil {
		if err := p.config.Recorder.Start(ctx, run); err != nil {
			log.Warnf("Failed to record run start: %v", err)
		}
	}

	err := p.execute(ctx, result)

	var short *insufficient
	switch {
	case err == nil:
		run.Finish(models.RunStatusCompleted, "")
	case errors.As(err, &short):
		run.Finish(models.RunStatusInsufficientData, short.reason)
		err = nil
	default:
		run.Finish(models.RunStatusFailed, err.Error())
	}

	p.record(context.WithoutCancel(ctx), result)
	run.Stage = ""
	p.progress(run)

	p.config.Metrics.IncRun(string(run.Status))
	p.config.Metrics.ObserveRun(run.Duration())

	if err != nil {
		log.Errorf("Pipeline run failed: %v", err)
		return result, err
	}

	log.WithField("duration", run.Duration().Round(time.Millisecond)).
		Infof("Pipeline run finished: %s", run.Status)
	p.config.Publisher.RunCompleted(run)
	return result, nil
}

func (p *Pipeline) execute(ctx context.Context, result *Result) error {
	run := result.Run
	rep := result.Report

	var raw models.Dataset
	err := p.stage(run, StageLoad, func() error {
		ds, err := ingest.Load(ctx, p.config.Source)
		p.config.Metrics.IncSourceLoad(err == nil)
		if err != nil {
			return err
		}
		raw = ds
		return nil
	})
	if err != nil {
		return err
	}

	var prepared models.Dataset
	err = p.stage(run, StagePrepare, func() error {
		var stats ingest.PrepareStats
		prepared, stats = ingest.Prepare(raw, p.config.DPFKeywords)
		result.Dataset = prepared
		rep.Data = stats
		run.MaintenanceEvents = stats.DPFEvents
		run.SensorReadings = stats.SensorKept
		p.config.Publisher.DataLoaded(run.ID, stats)

		if stats.DPFEvents == 0 {
			return &insufficient{reason: "no DPF maintenance events found in the maintenance log"}
		}
		if stats.OverlappingVINs == 0 {
			logger.WithRun(run.ID).Warn("No vehicle appears in both the maintenance log and the telemetry")
		}
		return nil
	})
	if err != nil {
		return err
	}

	err = p.stage(run, StageLabels, func() error {
		var history []models.MaintenanceEvent
		if p.config.Interference == labels.InterferenceAll {
			history = raw.Maintenance
		}
		lr := p.config.Labels.GenerateWithHistory(prepared.Maintenance, history)
		byCategory := labels.CountByCategory(lr.Labels)

		result.Labels = lr.Labels
		rep.LabelsByCategory = byCategory
		rep.SkippedEvents = lr.SkippedEvents
		rep.SuppressedLabels = lr.SuppressedLabels
		run.LabelsGenerated = len(lr.Labels)

		for category, n := range byCategory {
			p.config.Metrics.AddLabels(string(category), n)
		}
		p.config.Metrics.AddSkippedEvents(lr.SkippedEvents)
		p.config.Publisher.LabelsGenerated(run.ID, len(lr.Labels), lr.SkippedEvents, byCategory)

		if len(lr.Labels) == 0 {
			return &insufficient{reason: "no RUL labels could be generated from the DPF maintenance history"}
		}
		return nil
	})
	if err != nil {
		return err
	}

	err = p.stage(run, StageFeatures, func() error {
		result.Index = features.NewSensorIndex(prepared.Sensors)

		built, err := features.NewBuilder(p.config.Extractor, p.config.Workers).
			Build(ctx, result.Labels, result.Index)
		if err != nil {
			return err
		}

		result.Features = built.Vectors
		run.FeaturesExtracted = len(built.Vectors)
		rep.Extraction = report.Extraction{
			Attempted:   built.Attempted,
			Succeeded:   len(built.Vectors),
			Skipped:     built.Skipped,
			Failed:      built.Failed,
			SuccessRate: built.SuccessRate(),
		}
		p.config.Metrics.AddExtractions(len(built.Vectors), built.Skipped, built.Failed)
		p.config.Publisher.FeaturesExtracted(run.ID, len(built.Vectors), built.Attempted)

		if len(built.Vectors) == 0 {
			return &insufficient{reason: "no feature vectors: vehicles lack telemetry before their maintenance dates"}
		}
		return nil
	})
	if err != nil {
		return err
	}

	// A model that cannot be fitted still leaves profiles and diagnostics
	// worth reporting.
	var trainShort error
	err = p.stage(run, StageTrain, func() error {
		rep.TopCorrelations = model.RankFeatures(result.Features, p.config.MaxRULDays, p.config.RankLimit)

		m, mr, err := p.config.Trainer.Train(result.Features)
		if errors.Is(err, model.ErrInsufficientData) || errors.Is(err, model.ErrNoExplainableFeatures) {
			trainShort = &insufficient{reason: err.Error()}
			return nil
		}
		if err != nil {
			return err
		}

		result.Model = m
		rep.Model = mr
		run.Model = mr
		p.config.Metrics.SetModelFit("train", mr.Train.MAE, mr.Train.R2)
		p.config.Metrics.SetModelFit("test", mr.Test.MAE, mr.Test.R2)
		p.config.Metrics.SetSelectedFeatures(len(mr.Coefficients))
		p.config.Publisher.ModelTrained(run.ID, mr)
		return nil
	})
	if err != nil {
		return err
	}

	_ = p.stage(run, StageProfile, func() error {
		rep.CategoryStats = model.CategoryStats(result.Features)
		rep.Profiles = model.CategoryProfiles(result.Features)
		return nil
	})

	_ = p.stage(run, StageDiagnostics, func() error {
		pressure := p.config.Diagnostics.Analyze(prepared.Maintenance, prepared.Diagnostics)
		rep.Pressure = &pressure
		if pressure.Anomalies > 0 {
			logger.WithRun(run.ID).Warnf("%d maintenance events had anomalous exhaust pressure", pressure.Anomalies)
		}
		return nil
	})

	if trainShort != nil {
		return trainShort
	}

	return p.stage(run, StageAssess, func() error {
		vehicles := risk.VehiclesFromEvents(prepared.Maintenance)
		assessed, err := p.config.Assessor.Assess(ctx, result.Model, result.Index, vehicles, p.config.AsOf)
		if err != nil {
			return err
		}

		for i := range assessed.Risks {
			assessed.Risks[i].RunID = run.ID
		}
		rep.Risks = assessed.Risks
		run.VehiclesAssessed = len(assessed.Risks)

		byLevel := assessed.CountByLevel()
		levels := make(map[string]int, len(byLevel))
		for level, n := range byLevel {
			levels[string(level)] = n
		}
		p.config.Metrics.SetVehiclesByLevel(levels)
		p.config.Publisher.RiskAssessed(run.ID, len(assessed.Risks), byLevel)

		for i := range assessed.Risks {
			if assessed.Risks[i].Level.Actionable() {
				p.config.Publisher.VehicleAlert(&assessed.Risks[i])
			}
		}
		if assessed.Skipped > 0 {
			logger.WithRun(run.ID).Infof("%d vehicles skipped for lack of recent telemetry", assessed.Skipped)
		}
		return nil
	})
}

// stage times fn and reports failures under the stage name. Stopping a run
// for missing data is not a failure.
func (p *Pipeline) stage(run *models.PipelineRun, name string, fn func() error) error {
	runID := run.ID
	run.Stage = name
	p.progress(run)

	start := time.Now()
	err := fn()
	elapsed := time.Since(start)
	p.progress(run)
	p.config.Metrics.ObserveStage(name, elapsed)

	entry := logger.WithStage(runID, name).WithField("duration_ms", elapsed.Milliseconds())

	var short *insufficient
	switch {
	case err == nil:
		entry.Debug("Stage complete")
		return nil
	case errors.As(err, &short):
		entry.Warnf("Insufficient data: %s", short.reason)
		return err
	default:
		entry.Errorf("Stage failed: %v", err)
		p.config.Publisher.RunFailed(runID, name, err)
		return fmt.Errorf("%s: %w", name, err)
	}
}

func (p *Pipeline) progress(run *models.PipelineRun) {
	if p.config.OnProgress != nil {
		p.config.OnProgress(*run)
	}
}

// record persists the run, caches fresh risks and uploads the report. None
// of these change the outcome of the run.
func (p *Pipeline) record(ctx context.Context, result *Result) {
	run := result.Run

	_ = p.stage(run, StageRecord, func() error {
		if p.config.Recorder != nil {
			if err := p.config.Recorder.Finish(ctx, result); err != nil {
				logger.WithRun(run.ID).Errorf("Failed to record run: %v", err)
				p.config.Publisher.Error(run.ID, "Failed to record run", err)
			}
		}

		if p.config.Cache != nil && len(result.Report.Risks) > 0 {
			if err := p.config.Cache.StoreRisks(ctx, result.Report.Risks); err != nil {
				logger.WithRun(run.ID).Warnf("Failed to cache risks: %v", err)
			}
		}

		if p.config.Artifacts != nil {
			var buf bytes.Buffer
			if err := report.Render(&buf, result.Report, report.FormatJSON); err != nil {
				logger.WithRun(run.ID).Warnf("Failed to render report: %v", err)
				return nil
			}
			key := artifacts.ObjectKey(run.ID, run.StartedAt, "report.json")
			location, err := p.config.Artifacts.Upload(ctx, key, buf.Bytes(), report.ContentType(report.FormatJSON))
			if err != nil {
				logger.WithRun(run.ID).Warnf("Failed to upload report: %v", err)
				return nil
			}
			logger.WithRun(run.ID).Infof("Report uploaded to %s", location)
		}
		return nil
	})
}
