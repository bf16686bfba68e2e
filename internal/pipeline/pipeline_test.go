package pipeline_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OldStager01/dpf-rul/internal/events"
	"github.com/OldStager01/dpf-rul/internal/ingest"
	"github.com/OldStager01/dpf-rul/internal/labels"
	"github.com/OldStager01/dpf-rul/internal/metrics"
	"github.com/OldStager01/dpf-rul/internal/model"
	"github.com/OldStager01/dpf-rul/internal/pipeline"
	"github.com/OldStager01/dpf-rul/internal/simulator"
	"github.com/OldStager01/dpf-rul/pkg/config"
	"github.com/OldStager01/dpf-rul/pkg/models"
)

type fakeRecorder struct {
	mu       sync.Mutex
	started  []string
	finished []*pipeline.Result
}

func (r *fakeRecorder) Start(_ context.Context, run *models.PipelineRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.started = append(r.started, run.ID)
	return nil
}

func (r *fakeRecorder) Finish(_ context.Context, result *pipeline.Result) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finished = append(r.finished, result)
	return nil
}

type fakeRiskStore struct {
	risks []models.VehicleRisk
}

func (s *fakeRiskStore) StoreRisks(_ context.Context, risks []models.VehicleRisk) error {
	s.risks = append(s.risks, risks...)
	return nil
}

type fakeUploader struct {
	keys   []string
	bodies [][]byte
}

func (u *fakeUploader) Upload(_ context.Context, key string, body []byte, _ string) (string, error) {
	u.keys = append(u.keys, key)
	u.bodies = append(u.bodies, body)
	return "bucket/" + key, nil
}

func fleet() models.Dataset {
	return simulator.New(simulator.Config{Vehicles: 6, Days: 200, Seed: 11}).Generate()
}

func collect(ch <-chan *models.Event) []*models.Event {
	var out []*models.Event
	for {
		select {
		case e := <-ch:
			out = append(out, e)
		default:
			return out
		}
	}
}

func eventTypes(evs []*models.Event) []models.EventType {
	out := make([]models.EventType, len(evs))
	for i, e := range evs {
		out[i] = e.Type
	}
	return out
}

func TestPipeline_CompletesOnSimulatedFleet(t *testing.T) {
	bus := events.NewEventBus(1000)
	all := bus.SubscribeAll()
	recorder := &fakeRecorder{}
	cache := &fakeRiskStore{}
	uploader := &fakeUploader{}

	p := pipeline.New(pipeline.Config{
		Source:     ingest.NewStaticSource(fleet()),
		SourceName: ingest.SourceSimulated,
		Publisher:  events.NewPublisher(bus),
		Recorder:   recorder,
		Cache:      cache,
		Artifacts:  uploader,
		Metrics:    metrics.New(),
	})

	result, err := p.Run(context.Background())
	require.NoError(t, err)
	require.NotNil(t, result)

	run := result.Run
	assert.Equal(t, models.RunStatusCompleted, run.Status)
	assert.Empty(t, run.Message)
	assert.NotNil(t, run.FinishedAt)
	assert.True(t, result.Completed())

	assert.Positive(t, run.MaintenanceEvents)
	assert.Positive(t, run.LabelsGenerated)
	assert.Positive(t, run.FeaturesExtracted)
	assert.Equal(t, len(result.Labels), run.LabelsGenerated)
	assert.Equal(t, len(result.Features), run.FeaturesExtracted)

	require.NotNil(t, result.Model)
	require.NotNil(t, result.Report.Model)
	assert.Same(t, result.Report.Model, run.Model)
	assert.NotEmpty(t, result.Report.TopCorrelations)
	assert.NotEmpty(t, result.Report.CategoryStats)
	assert.NotNil(t, result.Report.Pressure)

	require.NotEmpty(t, result.Report.Risks)
	assert.Equal(t, len(result.Report.Risks), run.VehiclesAssessed)
	for _, r := range result.Report.Risks {
		assert.Equal(t, run.ID, r.RunID)
	}

	for _, v := range result.Features {
		assert.NotEmpty(t, v.Label.Category)
		assert.True(t, v.Label.PredictionDate.Before(v.Label.MaintenanceDate))
	}

	assert.Equal(t, []string{run.ID}, recorder.started)
	require.Len(t, recorder.finished, 1)
	assert.Same(t, result, recorder.finished[0])

	assert.Len(t, cache.risks, len(result.Report.Risks))

	require.Len(t, uploader.keys, 1)
	assert.True(t, strings.HasPrefix(uploader.keys[0], "runs/"))
	assert.True(t, strings.HasSuffix(uploader.keys[0], run.ID+"/report.json"))
	var uploaded map[string]interface{}
	require.NoError(t, json.Unmarshal(uploader.bodies[0], &uploaded))
	assert.Contains(t, uploaded, "run")

	types := eventTypes(collect(all))
	require.NotEmpty(t, types)
	assert.Equal(t, models.EventTypeRunStarted, types[0])
	assert.Equal(t, models.EventTypeRunCompleted, types[len(types)-1])
	assert.Contains(t, types, models.EventTypeDataLoaded)
	assert.Contains(t, types, models.EventTypeLabelsGenerated)
	assert.Contains(t, types, models.EventTypeFeaturesExtracted)
	assert.Contains(t, types, models.EventTypeModelTrained)
	assert.Contains(t, types, models.EventTypeRiskAssessed)
	assert.NotContains(t, types, models.EventTypeRunFailed)
}

func TestPipeline_InsufficientData(t *testing.T) {
	noDPF := fleet()
	for i := range noDPF.Maintenance {
		noDPF.Maintenance[i].JobDescription = "BRAKES - ADJUST"
	}

	tests := []struct {
		name       string
		dataset    models.Dataset
		trainer    *model.Trainer
		message    string
		wantLabels bool
	}{
		{
			name:    "no dpf events",
			dataset: noDPF,
			message: "no DPF maintenance events",
		},
		{
			name:    "no telemetry",
			dataset: models.Dataset{Maintenance: fleet().Maintenance},
			message: "no feature vectors",

			wantLabels: true,
		},
		{
			name:       "too few samples for a model",
			dataset:    fleet(),
			trainer:    model.NewTrainer(model.Config{MinSamples: 100000}),
			message:    "insufficient",
			wantLabels: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := &fakeRecorder{}
			p := pipeline.New(pipeline.Config{
				Source:   ingest.NewStaticSource(tt.dataset),
				Trainer:  tt.trainer,
				Recorder: recorder,
				Metrics:  metrics.New(),
			})

			result, err := p.Run(context.Background())
			require.NoError(t, err)

			assert.Equal(t, models.RunStatusInsufficientData, result.Run.Status)
			assert.Contains(t, strings.ToLower(result.Run.Message), strings.ToLower(tt.message))
			assert.False(t, result.Completed())
			assert.Empty(t, result.Report.Risks)
			assert.Nil(t, result.Model)
			assert.Equal(t, tt.wantLabels, len(result.Labels) > 0)
			assert.Len(t, recorder.finished, 1)
		})
	}
}

func TestPipeline_InterferenceScope(t *testing.T) {
	at := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	maintenance := []models.MaintenanceEvent{
		{VehicleNumber: "T-1", VIN: "VIN-1", Date: at, JobDescription: "FILTER - DIESEL PARTICULATE"},
		{VehicleNumber: "T-1", VIN: "VIN-1", Date: at.AddDate(0, 0, -10), JobDescription: "BRAKES - ADJUST"},
	}

	tests := []struct {
		scope string
		want  int
	}{
		{scope: "", want: 5},
		{scope: labels.InterferenceDPF, want: 5},
		{scope: labels.InterferenceAll, want: 1},
	}

	for _, tt := range tests {
		t.Run("scope "+tt.scope, func(t *testing.T) {
			p := pipeline.New(pipeline.Config{
				Source:       ingest.NewStaticSource(models.Dataset{Maintenance: maintenance}),
				Metrics:      metrics.New(),
				Interference: tt.scope,
			})

			result, err := p.Run(context.Background())
			require.NoError(t, err)

			assert.Len(t, result.Labels, tt.want)
			assert.Equal(t, tt.want, result.Run.LabelsGenerated)
		})
	}
}

func TestPipeline_UntrainableModelStillProfiles(t *testing.T) {
	p := pipeline.New(pipeline.Config{
		Source:  ingest.NewStaticSource(fleet()),
		Trainer: model.NewTrainer(model.Config{MinSamples: 100000}),
		Metrics: metrics.New(),
	})

	result, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, models.RunStatusInsufficientData, result.Run.Status)
	assert.NotEmpty(t, result.Features)
	assert.NotEmpty(t, result.Report.TopCorrelations)
	assert.NotEmpty(t, result.Report.CategoryStats)
	assert.NotNil(t, result.Report.Pressure)
	assert.Nil(t, result.Report.Model)
}

func TestPipeline_SourceFailure(t *testing.T) {
	bus := events.NewEventBus(100)
	failed := bus.Subscribe(models.EventTypeRunFailed)

	src := ingest.NewStaticSource(fleet())
	src.SetShouldFail(true, errors.New("connection refused"))

	recorder := &fakeRecorder{}
	p := pipeline.New(pipeline.Config{
		Source:    src,
		Publisher: events.NewPublisher(bus),
		Recorder:  recorder,
		Metrics:   metrics.New(),
	})

	result, err := p.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), pipeline.StageLoad)

	assert.Equal(t, models.RunStatusFailed, result.Run.Status)
	assert.Contains(t, result.Run.Message, "connection refused")
	require.Len(t, recorder.finished, 1)

	evs := collect(failed)
	require.Len(t, evs, 1)
	data, ok := evs[0].Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, pipeline.StageLoad, data["stage"])
}

func TestPipeline_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := pipeline.New(pipeline.Config{
		Source:  ingest.NewStaticSource(fleet()),
		Metrics: metrics.New(),
	})

	result, err := p.Run(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, models.RunStatusFailed, result.Run.Status)
}

func TestPipeline_NoSource(t *testing.T) {
	_, err := pipeline.New(pipeline.Config{Metrics: metrics.New()}).Run(context.Background())
	assert.ErrorIs(t, err, pipeline.ErrNoSource)
}

func TestFromConfig(t *testing.T) {
	cfg := &config.Config{}
	cfg.Source.Type = ingest.SourceSimulated
	cfg.Source.DPFKeywords = []string{"EXHAUST SYSTEM"}
	cfg.Model.MaxRULDays = 200
	cfg.Features.Workers = 2
	cfg.Labels.Interference = labels.InterferenceAll

	pc := pipeline.FromConfig(cfg)
	assert.Equal(t, ingest.SourceSimulated, pc.SourceName)
	assert.Equal(t, []string{"EXHAUST SYSTEM"}, pc.DPFKeywords)
	assert.Equal(t, 200, pc.MaxRULDays)
	assert.Equal(t, 2, pc.Workers)
	assert.Equal(t, labels.InterferenceAll, pc.Interference)
	assert.NotNil(t, pc.Labels)
	assert.NotNil(t, pc.Extractor)
	assert.NotNil(t, pc.Trainer)
	assert.NotNil(t, pc.Assessor)
	assert.NotNil(t, pc.Diagnostics)
}

// blockingSource holds LoadMaintenance until release is closed.
type blockingSource struct {
	*ingest.StaticSource
	release chan struct{}
}

func (s *blockingSource) LoadMaintenance(ctx context.Context) ([]models.MaintenanceEvent, error) {
	select {
	case <-s.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return s.StaticSource.LoadMaintenance(ctx)
}

func TestOrchestrator_TriggerOneRunAtATime(t *testing.T) {
	cfg := &config.Config{}
	cfg.Source.Type = ingest.SourceSimulated

	src := &blockingSource{
		StaticSource: ingest.NewStaticSource(fleet()),
		release:      make(chan struct{}),
	}

	o := pipeline.NewOrchestrator(cfg, nil, pipeline.Dependencies{
		Metrics: metrics.New(),
		Sources: func(string) (ingest.Source, error) { return src, nil },
	})
	require.NoError(t, o.Start())
	completed := o.SubscribeEvents(models.EventTypeRunCompleted)

	run, err := o.Trigger(pipeline.RunOptions{TraceID: "trace-1"})
	require.NoError(t, err)
	assert.Equal(t, ingest.SourceSimulated, run.Source)

	active, ok := o.ActiveRun()
	require.True(t, ok)
	assert.Equal(t, run.ID, active.ID)

	_, err = o.Trigger(pipeline.RunOptions{})
	assert.ErrorIs(t, err, pipeline.ErrRunInProgress)

	close(src.release)

	select {
	case e := <-completed:
		assert.Equal(t, run.ID, e.RunID)
		assert.Equal(t, "trace-1", e.TraceID)
	case <-time.After(30 * time.Second):
		t.Fatal("run did not complete")
	}

	require.Eventually(t, func() bool {
		_, running := o.ActiveRun()
		return !running
	}, 5*time.Second, 10*time.Millisecond)

	latest := o.LatestResult()
	require.NotNil(t, latest)
	assert.Equal(t, run.ID, latest.Run.ID)

	if len(latest.Report.Risks) > 0 {
		vin := latest.Report.Risks[0].VIN
		r, found := o.LatestRisk(vin)
		require.True(t, found)
		assert.Equal(t, vin, r.VIN)
	}
	_, found := o.LatestRisk("UNKNOWN")
	assert.False(t, found)

	o.Stop()

	_, err = o.Trigger(pipeline.RunOptions{})
	assert.ErrorIs(t, err, pipeline.ErrStopped)
}

func TestOrchestrator_RunSyncUnknownSource(t *testing.T) {
	cfg := &config.Config{}
	cfg.Source.Type = "ftp"

	o := pipeline.NewOrchestrator(cfg, nil, pipeline.Dependencies{Metrics: metrics.New()})
	require.NoError(t, o.Start())
	defer o.Stop()

	_, err := o.RunSync(context.Background(), pipeline.RunOptions{})
	assert.ErrorIs(t, err, ingest.ErrUnknownSource)
}

func TestOrchestrator_ActiveRunIsACopy(t *testing.T) {
	cfg := &config.Config{}
	cfg.Source.Type = ingest.SourceSimulated

	src := &blockingSource{
		StaticSource: ingest.NewStaticSource(fleet()),
		release:      make(chan struct{}),
	}
	o := pipeline.NewOrchestrator(cfg, nil, pipeline.Dependencies{
		Metrics: metrics.New(),
		Sources: func(string) (ingest.Source, error) { return src, nil },
	})
	require.NoError(t, o.Start())
	defer o.Stop()

	run, err := o.Trigger(pipeline.RunOptions{})
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusRunning, run.Status)

	require.Eventually(t, func() bool {
		active, ok := o.ActiveRun()
		return ok && active.Stage == pipeline.StageLoad
	}, 5*time.Second, 5*time.Millisecond)

	active, _ := o.ActiveRun()
	active.Status = models.RunStatusFailed
	again, ok := o.ActiveRun()
	require.True(t, ok)
	assert.Equal(t, models.RunStatusRunning, again.Status)

	// readers serialise the active run while the pipeline advances it
	done := make(chan struct{})
	var readers sync.WaitGroup
	readers.Add(1)
	go func() {
		defer readers.Done()
		for {
			select {
			case <-done:
				return
			default:
			}
			if r, ok := o.ActiveRun(); ok {
				_, err := json.Marshal(r)
				assert.NoError(t, err)
			}
		}
	}()

	close(src.release)
	require.Eventually(t, func() bool {
		_, running := o.ActiveRun()
		return !running
	}, 30*time.Second, 10*time.Millisecond)
	close(done)
	readers.Wait()

	latest := o.LatestResult()
	require.NotNil(t, latest)
	assert.Equal(t, run.ID, latest.Run.ID)
	assert.Empty(t, latest.Run.Stage)
	assert.True(t, latest.Run.IsTerminal())
}
