package events_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OldStager01/dpf-rul/internal/events"
	"github.com/OldStager01/dpf-rul/pkg/models"
)

func TestEventBus_SubscribeByType(t *testing.T) {
	bus := events.NewEventBus(4)
	defer bus.Close()

	alerts := bus.Subscribe(models.EventTypeAlert)
	all := bus.SubscribeAll()

	pub := events.NewPublisher(bus).WithTraceID("trace-1")
	pub.RunStarted(models.NewPipelineRun("simulated"))
	pub.VehicleAlert(&models.VehicleRisk{RunID: "run-1", VIN: "VIN1", Level: models.AlertUrgent, PredictedRULDays: 12})

	first := <-all
	assert.Equal(t, models.EventTypeRunStarted, first.Type)
	assert.Equal(t, "trace-1", first.TraceID)

	second := <-all
	assert.Equal(t, models.EventTypeAlert, second.Type)

	alert := <-alerts
	assert.Equal(t, "VIN1", alert.VIN)
	assert.Equal(t, models.SeverityCritical, alert.Severity)
	assert.Contains(t, alert.Message, "URGENT")
}

func TestEventBus_DropsWhenFull(t *testing.T) {
	bus := events.NewEventBus(1)
	ch := bus.Subscribe(models.EventTypeError)

	pub := events.NewPublisher(bus)
	pub.Error("run", "first", errors.New("a"))
	pub.Error("run", "second", errors.New("b"))

	got := <-ch
	assert.Equal(t, "first", got.Message)
	select {
	case extra := <-ch:
		t.Fatalf("unexpected event %v", extra)
	default:
	}
	assert.Equal(t, int64(1), bus.Dropped())

	bus.Close()
	_, ok := <-ch
	assert.False(t, ok)

	// publishing after close is a no-op
	pub.Error("run", "late", errors.New("c"))

	_, ok = <-bus.SubscribeAll()
	assert.False(t, ok)
}

func TestEventBus_MultiTypeSubscription(t *testing.T) {
	bus := events.NewEventBus(8)
	defer bus.Close()

	terminal := bus.Subscribe(models.EventTypeRunCompleted, models.EventTypeRunFailed)
	pub := events.NewPublisher(bus)

	run := models.NewPipelineRun("simulated")
	pub.RunStarted(run)
	pub.RunFailed(run.ID, "load", errors.New("boom"))
	run.Finish(models.RunStatusCompleted, "")
	pub.RunCompleted(run)

	assert.Equal(t, models.EventTypeRunFailed, (<-terminal).Type)
	assert.Equal(t, models.EventTypeRunCompleted, (<-terminal).Type)
	assert.Empty(t, terminal)
}

func TestPublisher_Severities(t *testing.T) {
	bus := events.NewEventBus(16)
	defer bus.Close()
	all := bus.SubscribeAll()
	pub := events.NewPublisher(bus)

	run := models.NewPipelineRun("database")
	run.Finish(models.RunStatusInsufficientData, "not enough labels")

	pub.LabelsGenerated(run.ID, 0, 2, nil)
	pub.FeaturesExtracted(run.ID, 3, 5)
	pub.RunCompleted(run)
	pub.RunFailed(run.ID, "load", errors.New("boom"))

	tests := []struct {
		eventType models.EventType
		severity  models.EventSeverity
	}{
		{models.EventTypeLabelsGenerated, models.SeverityWarning},
		{models.EventTypeFeaturesExtracted, models.SeverityInfo},
		{models.EventTypeRunCompleted, models.SeverityWarning},
		{models.EventTypeRunFailed, models.SeverityCritical},
	}
	for _, tt := range tests {
		e := <-all
		assert.Equal(t, tt.eventType, e.Type)
		assert.Equal(t, tt.severity, e.Severity, string(tt.eventType))
		assert.Equal(t, run.ID, e.RunID)
	}
}

func TestPublisher_NilSafe(t *testing.T) {
	var pub *events.Publisher
	assert.NotPanics(t, func() { pub.Error("run", "ignored", errors.New("x")) })
}

type memoryStore struct {
	mu     sync.Mutex
	events []*models.Event
}

func (s *memoryStore) Insert(ctx context.Context, e *models.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
	return nil
}

func (s *memoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

func TestEventLogger_Persists(t *testing.T) {
	bus := events.NewEventBus(8)
	store := &memoryStore{}
	l := events.NewEventLogger(store, bus.SubscribeAll())
	l.Start()

	pub := events.NewPublisher(bus)
	pub.FeaturesExtracted("run-1", 1, 1)
	pub.Alert("run-1", models.SeverityWarning, "check fleet", nil)

	require.Eventually(t, func() bool { return store.Len() == 2 }, time.Second, 5*time.Millisecond)

	bus.Close()
	select {
	case <-l.Done():
	case <-time.After(time.Second):
		t.Fatal("logger did not stop after bus closed")
	}

	assert.Contains(t, l.LogToJSON(store.events[0]), `"run_id":"run-1"`)
}
