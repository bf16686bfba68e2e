package models

import "time"

type RunStatus string

const (
	RunStatusRunning          RunStatus = "running"
	RunStatusCompleted        RunStatus = "completed"
	RunStatusInsufficientData RunStatus = "insufficient_data"
	RunStatusFailed           RunStatus = "failed"
)

// PipelineRun records one execution of the RUL pipeline.
type PipelineRun struct {
	ID                string       `json:"id" yaml:"id"`
	Source            string       `json:"source" yaml:"source"`
	Status            RunStatus    `json:"status" yaml:"status"`
	Message           string       `json:"message,omitempty" yaml:"message,omitempty"`
	StartedAt         time.Time    `json:"started_at" yaml:"started_at"`
	FinishedAt        *time.Time   `json:"finished_at,omitempty" yaml:"finished_at,omitempty"`
	MaintenanceEvents int          `json:"maintenance_events" yaml:"maintenance_events"`
	SensorReadings    int          `json:"sensor_readings" yaml:"sensor_readings"`
	LabelsGenerated   int          `json:"labels_generated" yaml:"labels_generated"`
	FeaturesExtracted int          `json:"features_extracted" yaml:"features_extracted"`
	VehiclesAssessed  int          `json:"vehicles_assessed" yaml:"vehicles_assessed"`
	Model             *ModelReport `json:"model,omitempty" yaml:"model,omitempty"`
	// Stage is the step a running pipeline is in; empty once finished.
	Stage             string       `json:"stage,omitempty" yaml:"stage,omitempty"`
}

func NewPipelineRun(source string) *PipelineRun {
	return &PipelineRun{
		ID:        NewUUID(),
		Source:    source,
		Status:    RunStatusRunning,
		StartedAt: time.Now(),
	}
}

// Finish marks the run as done with the given status.
func (r *PipelineRun) Finish(status RunStatus, message string) {
	now := time.Now()
	r.Status = status
	r.Message = message
	r.FinishedAt = &now
	r.Stage = ""
}

func (r *PipelineRun) IsTerminal() bool {
	return r.Status != RunStatusRunning
}

// Duration returns how long the run took, or has taken so far.
func (r *PipelineRun) Duration() time.Duration {
	if r.FinishedAt == nil {
		return time.Since(r.StartedAt)
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
