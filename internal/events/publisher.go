package events

import (
	"fmt"

	"github.com/OldStager01/dpf-rul/pkg/models"
)

type Publisher struct {
	bus     *EventBus
	traceID string
}

func NewPublisher(bus *EventBus) *Publisher {
	return &Publisher{bus: bus}
}

func (p *Publisher) WithTraceID(traceID string) *Publisher {
	return &Publisher{
		bus:     p.bus,
		traceID: traceID,
	}
}

func (p *Publisher) publish(event *models.Event) {
	if p == nil || p.bus == nil {
		return
	}
	if p.traceID != "" {
		event.TraceID = p.traceID
	}
	p.bus.Publish(event)
}

func (p *Publisher) RunStarted(run *models.PipelineRun) {
	snapshot := *run
	event := models.NewEvent(models.EventTypeRunStarted, run.ID, "Pipeline run started: source "+run.Source).
		WithData(&snapshot)
	p.publish(event)
}

func (p *Publisher) DataLoaded(runID string, stats interface{}) {
	event := models.NewEvent(models.EventTypeDataLoaded, runID, "Fleet data loaded").
		WithData(stats)
	p.publish(event)
}

func (p *Publisher) LabelsGenerated(runID string, total, skipped int, byCategory map[models.RULCategory]int) {
	msg := fmt.Sprintf("Generated %d RUL labels", total)
	event := models.NewEvent(models.EventTypeLabelsGenerated, runID, msg).
		WithData(map[string]interface{}{
			"total":          total,
			"skipped_events": skipped,
			"by_category":    byCategory,
		})

	if total == 0 {
		event.WithSeverity(models.SeverityWarning)
	}

	p.publish(event)
}

func (p *Publisher) FeaturesExtracted(runID string, vectors, attempted int) {
	msg := fmt.Sprintf("Extracted %d of %d feature vectors", vectors, attempted)
	event := models.NewEvent(models.EventTypeFeaturesExtracted, runID, msg).
		WithData(map[string]interface{}{
			"vectors":   vectors,
			"attempted": attempted,
		})

	if vectors == 0 {
		event.WithSeverity(models.SeverityWarning)
	}

	p.publish(event)
}

func (p *Publisher) ModelTrained(runID string, report *models.ModelReport) {
	msg := fmt.Sprintf("Model trained on %d samples, test MAE %.1f days", report.Samples, report.Test.MAE)
	event := models.NewEvent(models.EventTypeModelTrained, runID, msg).
		WithData(report)
	p.publish(event)
}

func (p *Publisher) RiskAssessed(runID string, assessed int, byLevel map[models.AlertLevel]int) {
	msg := fmt.Sprintf("Assessed %d vehicles", assessed)
	event := models.NewEvent(models.EventTypeRiskAssessed, runID, msg).
		WithData(byLevel)

	if byLevel[models.AlertUrgent] > 0 {
		event.WithSeverity(models.SeverityWarning)
	}

	p.publish(event)
}

func (p *Publisher) RunCompleted(run *models.PipelineRun) {
	msg := "Pipeline run finished: " + string(run.Status)
	snapshot := *run
	event := models.NewEvent(models.EventTypeRunCompleted, run.ID, msg).
		WithData(&snapshot)

	if run.Status == models.RunStatusInsufficientData {
		event.WithSeverity(models.SeverityWarning)
	}

	p.publish(event)
}

func (p *Publisher) RunFailed(runID string, stage string, err error) {
	msg := "Pipeline run failed at " + stage
	event := models.NewEvent(models.EventTypeRunFailed, runID, msg).
		WithSeverity(models.SeverityCritical).
		WithData(map[string]interface{}{
			"stage": stage,
			"error": err.Error(),
		})
	p.publish(event)
}

// VehicleAlert announces a vehicle whose predicted remaining life crossed
// an alert threshold.
func (p *Publisher) VehicleAlert(risk *models.VehicleRisk) {
	severity := models.SeverityWarning
	if risk.Level == models.AlertUrgent {
		severity = models.SeverityCritical
	}

	msg := fmt.Sprintf("%s: predicted DPF service in %.0f days", risk.Level, risk.PredictedRULDays)
	event := models.NewEvent(models.EventTypeAlert, risk.RunID, msg).
		WithSeverity(severity).
		WithVIN(risk.VIN).
		WithData(risk)
	p.publish(event)
}

func (p *Publisher) Alert(runID string, severity models.EventSeverity, message string, data interface{}) {
	event := models.NewEvent(models.EventTypeAlert, runID, message).
		WithSeverity(severity).
		WithData(data)
	p.publish(event)
}

func (p *Publisher) Error(runID string, message string, err error) {
	event := models.NewEvent(models.EventTypeError, runID, message).
		WithSeverity(models.SeverityCritical).
		WithData(map[string]interface{}{
			"error": err.Error(),
		})
	p.publish(event)
}
