package models

import "time"

type EventType string

const (
	EventTypeRunStarted        EventType = "run_started"
	EventTypeDataLoaded        EventType = "data_loaded"
	EventTypeLabelsGenerated   EventType = "labels_generated"
	EventTypeFeaturesExtracted EventType = "features_extracted"
	EventTypeModelTrained      EventType = "model_trained"
	EventTypeRiskAssessed      EventType = "risk_assessed"
	EventTypeRunCompleted      EventType = "run_completed"
	EventTypeRunFailed         EventType = "run_failed"
	EventTypeAlert             EventType = "alert"
	EventTypeError             EventType = "error"
)

type EventSeverity string

const (
	SeverityInfo     EventSeverity = "info"
	SeverityWarning  EventSeverity = "warning"
	SeverityCritical EventSeverity = "critical"
)

// Event represents an internal pipeline event
type Event struct {
	ID        string        `json:"id"`
	Type      EventType     `json:"type"`
	Severity  EventSeverity `json:"severity"`
	RunID     string        `json:"run_id,omitempty"`
	VIN       string        `json:"vin,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
	Message   string        `json:"message"`
	Data      interface{}   `json:"data,omitempty"`
	TraceID   string        `json:"trace_id,omitempty"`
}

func NewEvent(eventType EventType, runID, message string) *Event {
	return &Event{
		ID:        NewUUID(),
		Type:      eventType,
		Severity:  SeverityInfo,
		RunID:     runID,
		Timestamp: time.Now(),
		Message:   message,
	}
}

func (e *Event) WithSeverity(severity EventSeverity) *Event {
	e.Severity = severity
	return e
}

func (e *Event) WithVIN(vin string) *Event {
	e.VIN = vin
	return e
}

func (e *Event) WithData(data interface{}) *Event {
	e.Data = data
	return e
}

func (e *Event) WithTraceID(traceID string) *Event {
	e.TraceID = traceID
	return e
}
