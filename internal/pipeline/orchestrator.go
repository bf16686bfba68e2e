package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/OldStager01/dpf-rul/internal/alerting"
	"github.com/OldStager01/dpf-rul/internal/events"
	"github.com/OldStager01/dpf-rul/internal/ingest"
	"github.com/OldStager01/dpf-rul/internal/logger"
	"github.com/OldStager01/dpf-rul/internal/metrics"
	"github.com/OldStager01/dpf-rul/internal/resilience"
	"github.com/OldStager01/dpf-rul/pkg/config"
	"github.com/OldStager01/dpf-rul/pkg/database"
	"github.com/OldStager01/dpf-rul/pkg/database/queries"
	"github.com/OldStager01/dpf-rul/pkg/models"
)

var (
	ErrRunInProgress = errors.New("a pipeline run is already in progress")
	ErrStopped       = errors.New("orchestrator is stopped")
)

// SourceFactory returns the data source for a source type.
type SourceFactory func(sourceType string) (ingest.Source, error)

type Dependencies struct {
	Sink      alerting.Sink
	Cache     RiskStore
	Artifacts ArtifactUploader
	Recorder  RunRecorder
	Sources   SourceFactory
	Metrics   *metrics.Metrics
}

type RunOptions struct {
	Source  string
	AsOf    time.Time
	TraceID string
}

// Orchestrator owns the event bus and its consumers and runs at most one
// pipeline at a time.
type Orchestrator struct {
	config      *config.Config
	eventBus    *events.EventBus
	eventLogger *events.EventLogger
	forwarder   *alerting.Forwarder
	deps        Dependencies

	sources map[string]ingest.Source
	active  *models.PipelineRun
	latest  *Result
	stopped bool
	mu      sync.RWMutex
	wg      sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc
}

func NewOrchestrator(cfg *config.Config, db *database.DB, deps Dependencies) *Orchestrator {
	ctx, cancel := context.WithCancel(context.Background())

	if deps.Metrics == nil {
		deps.Metrics = metrics.Get()
	}
	if deps.Sink == nil {
		deps.Sink = alerting.NopSink{}
	}
	if deps.Recorder == nil && db != nil {
		deps.Recorder = NewSQLRecorder(db)
	}

	eventBus := events.NewEventBus(cfg.Events.BufferSize)

	var store events.EventStore
	if db != nil && cfg.Events.Persist {
		store = queries.NewEventRepository(db.DB)
	}
	eventLogger := events.NewEventLogger(store, eventBus.SubscribeAll())
	forwarder := alerting.NewForwarder(deps.Sink, eventBus.Subscribe(models.EventTypeAlert))

	o := &Orchestrator{
		config:      cfg,
		eventBus:    eventBus,
		eventLogger: eventLogger,
		forwarder:   forwarder,
		deps:        deps,
		sources:     make(map[string]ingest.Source),
		ctx:         ctx,
		cancel:      cancel,
	}

	if o.deps.Sources == nil {
		o.deps.Sources = func(sourceType string) (ingest.Source, error) {
			c := *cfg
			c.Source.Type = sourceType
			return ingest.NewSource(&c, db, o.onBreakerChange)
		}
	}

	return o
}

func (o *Orchestrator) onBreakerChange(name string, from, to resilience.State) {
	logger.WithField("breaker", name).Warnf("Circuit breaker %s -> %s", from, to)
	o.deps.Metrics.SetCircuitBreakerState(name, int(to))
	o.Publisher().Alert("", models.SeverityWarning, fmt.Sprintf("Source circuit breaker %s is %s", name, to), nil)
}

func (o *Orchestrator) Start() error {
	logger.Info("Orchestrator starting")
	o.eventLogger.Start()
	o.forwarder.Start()
	return nil
}

// Stop cancels a running pipeline, waits for it and drains the event
// consumers.
func (o *Orchestrator) Stop() {
	logger.Info("Orchestrator stopping")

	o.mu.Lock()
	o.stopped = true
	o.mu.Unlock()

	o.cancel()
	o.wg.Wait()

	o.eventBus.Close()
	<-o.forwarder.Done()
	<-o.eventLogger.Done()

	sent, failed := o.forwarder.Stats()
	if err := o.deps.Sink.Close(); err != nil {
		logger.Warnf("Failed to close alert sink: %v", err)
	}

	o.mu.Lock()
	for name, src := range o.sources {
		if err := src.Close(); err != nil {
			logger.Warnf("Failed to close source %s: %v", name, err)
		}
	}
	o.sources = make(map[string]ingest.Source)
	o.mu.Unlock()

	logger.WithFields(map[string]interface{}{
		"alerts_sent":    sent,
		"alerts_failed":  failed,
		"events_dropped": o.eventBus.Dropped(),
	}).Info("Orchestrator stopped")
}

// Trigger starts a run in the background and returns it as soon as it is
// registered.
func (o *Orchestrator) Trigger(opts RunOptions) (*models.PipelineRun, error) {
	p, run, err := o.prepare(opts)
	if err != nil {
		return nil, err
	}

	ctx := o.ctx
	if opts.TraceID != "" {
		ctx = logger.WithTraceID(ctx, opts.TraceID)
	}

	accepted := *run

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		result, err := p.Execute(ctx, run)
		o.finish(result)
		if err != nil {
			logger.ErrorCtxf(ctx, "Triggered run %s failed: %v", run.ID, err)
		}
	}()

	return &accepted, nil
}

// RunSync runs a pipeline and waits for it.
func (o *Orchestrator) RunSync(ctx context.Context, opts RunOptions) (*Result, error) {
	p, run, err := o.prepare(opts)
	if err != nil {
		return nil, err
	}

	o.wg.Add(1)
	defer o.wg.Done()

	result, err := p.Execute(ctx, run)
	o.finish(result)
	return result, err
}

func (o *Orchestrator) prepare(opts RunOptions) (*Pipeline, *models.PipelineRun, error) {
	sourceType := opts.Source
	if sourceType == "" {
		sourceType = o.config.Source.Type
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	if o.stopped {
		return nil, nil, ErrStopped
	}
	if o.active != nil {
		return nil, nil, fmt.Errorf("%w: %s", ErrRunInProgress, o.active.ID)
	}

	src, ok := o.sources[sourceType]
	if !ok {
		var err error
		src, err = o.deps.Sources(sourceType)
		if err != nil {
			return nil, nil, err
		}
		o.sources[sourceType] = src
	}

	publisher := events.NewPublisher(o.eventBus)
	if opts.TraceID != "" {
		publisher = publisher.WithTraceID(opts.TraceID)
	}

	cfg := FromConfig(o.config)
	cfg.Source = src
	cfg.SourceName = sourceType
	cfg.AsOf = opts.AsOf
	cfg.Publisher = publisher
	cfg.Recorder = o.deps.Recorder
	cfg.Cache = o.deps.Cache
	cfg.Artifacts = o.deps.Artifacts
	cfg.Metrics = o.deps.Metrics
	cfg.OnProgress = o.track

	run := models.NewPipelineRun(sourceType)
	snapshot := *run
	o.active = &snapshot
	return New(cfg), run, nil
}

// track replaces the active snapshot with the latest copy of the run.
func (o *Orchestrator) track(run models.PipelineRun) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.active != nil && o.active.ID == run.ID {
		o.active = &run
	}
}

func (o *Orchestrator) finish(result *Result) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.active = nil
	if result != nil {
		o.latest = result
	}
}

// ActiveRun returns a copy of the run in progress, if any.
func (o *Orchestrator) ActiveRun() (*models.PipelineRun, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	if o.active == nil {
		return nil, false
	}
	run := *o.active
	return &run, true
}

// LatestResult returns the most recent finished run kept in memory.
func (o *Orchestrator) LatestResult() *Result {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.latest
}

// LatestRisk looks a vehicle up in the most recent in-memory run.
func (o *Orchestrator) LatestRisk(vin string) (*models.VehicleRisk, bool) {
	latest := o.LatestResult()
	if latest == nil {
		return nil, false
	}
	for i := range latest.Report.Risks {
		if latest.Report.Risks[i].VIN == vin {
			r := latest.Report.Risks[i]
			return &r, true
		}
	}
	return nil, false
}

func (o *Orchestrator) Publisher() *events.Publisher {
	return events.NewPublisher(o.eventBus)
}

func (o *Orchestrator) SubscribeEvents(eventType models.EventType) <-chan *models.Event {
	return o.eventBus.Subscribe(eventType)
}

func (o *Orchestrator) SubscribeAllEvents() <-chan *models.Event {
	return o.eventBus.SubscribeAll()
}
