// Package alerting delivers vehicle risk alerts to external systems.
package alerting

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/OldStager01/dpf-rul/internal/logger"
	"github.com/OldStager01/dpf-rul/pkg/config"
	"github.com/OldStager01/dpf-rul/pkg/models"
)

const (
	TypeNone  = "none"
	TypeLog   = "log"
	TypeKafka = "kafka"
	TypeAMQP  = "amqp"
)

var ErrUnknownSink = errors.New("unknown alert sink type")

// Alert is the message published for a vehicle that needs DPF attention.
type Alert struct {
	RunID            string              `json:"run_id"`
	VIN              string              `json:"vin"`
	VehicleNumber    string              `json:"vehicle_number,omitempty"`
	Level            models.AlertLevel   `json:"level"`
	PredictedRULDays float64             `json:"predicted_rul_days"`
	AsOf             time.Time           `json:"as_of"`
	Drivers          []models.RiskDriver `json:"drivers,omitempty"`
	Message          string              `json:"message"`
	TraceID          string              `json:"trace_id,omitempty"`
}

// FromEvent extracts an alert from a vehicle alert event. ok is false for
// alert events that do not carry a vehicle risk.
func FromEvent(e *models.Event) (Alert, bool) {
	risk, ok := e.Data.(*models.VehicleRisk)
	if !ok || risk == nil {
		return Alert{}, false
	}
	return Alert{
		RunID:            e.RunID,
		VIN:              risk.VIN,
		VehicleNumber:    risk.VehicleNumber,
		Level:            risk.Level,
		PredictedRULDays: risk.PredictedRULDays,
		AsOf:             risk.AsOf,
		Drivers:          risk.Drivers,
		Message:          e.Message,
		TraceID:          e.TraceID,
	}, true
}

func (a Alert) encode() ([]byte, error) {
	body, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("failed to encode alert: %w", err)
	}
	return body, nil
}

type Sink interface {
	Send(ctx context.Context, alert Alert) error
	Close() error
}

// NewSink builds the sink named by cfg.Type.
func NewSink(cfg config.AlertingConfig) (Sink, error) {
	switch cfg.Type {
	case "", TypeNone:
		return NopSink{}, nil
	case TypeLog:
		return LogSink{}, nil
	case TypeKafka:
		return NewKafkaSink(cfg.Kafka)
	case TypeAMQP:
		return NewAMQPSink(cfg.AMQP)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownSink, cfg.Type)
	}
}

type NopSink struct{}

func (NopSink) Send(context.Context, Alert) error { return nil }
func (NopSink) Close() error                      { return nil }

// LogSink writes alerts to the structured log.
type LogSink struct{}

func (LogSink) Send(_ context.Context, a Alert) error {
	logger.WithVehicle(a.VIN).WithFields(map[string]interface{}{
		"run_id":             a.RunID,
		"level":              a.Level,
		"predicted_rul_days": a.PredictedRULDays,
	}).Warn(a.Message)
	return nil
}

func (LogSink) Close() error { return nil }
