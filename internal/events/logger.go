package events

import (
	"context"
	"encoding/json"

	"github.com/OldStager01/dpf-rul/internal/logger"
	"github.com/OldStager01/dpf-rul/pkg/models"
)

// EventStore persists events for later inspection.
type EventStore interface {
	Insert(ctx context.Context, e *models.Event) error
}

// EventLogger writes every event to the structured log and, when a store is
// set, to the pipeline_events table.
type EventLogger struct {
	store     EventStore
	eventChan <-chan *models.Event
	ctx       context.Context
	cancel    context.CancelFunc
	done      chan struct{}
}

func NewEventLogger(store EventStore, eventChan <-chan *models.Event) *EventLogger {
	ctx, cancel := context.WithCancel(context.Background())
	return &EventLogger{
		store:     store,
		eventChan: eventChan,
		ctx:       ctx,
		cancel:    cancel,
		done:      make(chan struct{}),
	}
}

func (l *EventLogger) Start() {
	go l.run()
}

// Stop ends the logger. Events still buffered in the channel are dropped.
func (l *EventLogger) Stop() {
	l.cancel()
	<-l.done
}

// Done is closed once the logger has exited, either after Stop or because
// the bus closed its channel.
func (l *EventLogger) Done() <-chan struct{} {
	return l.done
}

func (l *EventLogger) run() {
	defer close(l.done)
	for {
		select {
		case <-l.ctx.Done():
			return
		case event, ok := <-l.eventChan:
			if !ok {
				return
			}
			l.processEvent(event)
		}
	}
}

func (l *EventLogger) processEvent(event *models.Event) {
	entry := logger.WithFields(map[string]interface{}{
		"event_type": event.Type,
		"run_id":     event.RunID,
		"severity":   event.Severity,
		"trace_id":   event.TraceID,
	})
	if event.VIN != "" {
		entry = entry.WithField("vin", event.VIN)
	}

	switch event.Severity {
	case models.SeverityCritical:
		entry.Error(event.Message)
	case models.SeverityWarning:
		entry.Warn(event.Message)
	default:
		entry.Info(event.Message)
	}

	if l.store == nil {
		return
	}
	if err := l.store.Insert(l.ctx, event); err != nil {
		logger.Errorf("Failed to persist event %s: %v", event.Type, err)
	}
}

func (l *EventLogger) LogToJSON(event *models.Event) string {
	data, _ := json.Marshal(event)
	return string(data)
}
