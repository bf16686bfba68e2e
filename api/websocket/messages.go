package websocket

import (
	"encoding/json"
	"time"

	"github.com/OldStager01/dpf-rul/pkg/config"
	"github.com/OldStager01/dpf-rul/pkg/models"
)

type MessageType string

const (
	MessageTypeRunStarted   MessageType = "run_started"
	MessageTypeProgress     MessageType = "progress"
	MessageTypeModel        MessageType = "model"
	MessageTypeRiskSummary  MessageType = "risk_summary"
	MessageTypeAlert        MessageType = "alert"
	MessageTypeRunCompleted MessageType = "run_completed"
	MessageTypeRunFailed    MessageType = "run_failed"
	MessageTypeError        MessageType = "error"
	MessageTypeSubscription MessageType = "subscription_update"
)

// OutgoingMessage is the frame sent to websocket clients.
type OutgoingMessage struct {
	Type      MessageType `json:"type"`
	RunID     string      `json:"run_id,omitempty"`
	VIN       string      `json:"vin,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Severity  string      `json:"severity,omitempty"`
	Message   string      `json:"message,omitempty"`
	Data      interface{} `json:"data,omitempty"`
}

func (m *OutgoingMessage) JSON() ([]byte, error) {
	return json.Marshal(m)
}

// IncomingMessage is a client request to change its subscription.
type IncomingMessage struct {
	Type  string `json:"type"`
	RunID string `json:"run_id,omitempty"`
}

// messageType maps an event to the message clients see. Events without a
// mapping are not broadcast.
func messageType(t models.EventType) MessageType {
	switch t {
	case models.EventTypeRunStarted:
		return MessageTypeRunStarted
	case models.EventTypeDataLoaded, models.EventTypeLabelsGenerated, models.EventTypeFeaturesExtracted:
		return MessageTypeProgress
	case models.EventTypeModelTrained:
		return MessageTypeModel
	case models.EventTypeRiskAssessed:
		return MessageTypeRiskSummary
	case models.EventTypeAlert:
		return MessageTypeAlert
	case models.EventTypeRunCompleted:
		return MessageTypeRunCompleted
	case models.EventTypeRunFailed:
		return MessageTypeRunFailed
	case models.EventTypeError:
		return MessageTypeError
	default:
		return ""
	}
}

// FromEvent converts a pipeline event, or returns nil for events clients do
// not receive.
func FromEvent(e *models.Event) *OutgoingMessage {
	t := messageType(e.Type)
	if t == "" {
		return nil
	}
	return &OutgoingMessage{
		Type:      t,
		RunID:     e.RunID,
		VIN:       e.VIN,
		Timestamp: e.Timestamp,
		Severity:  string(e.Severity),
		Message:   e.Message,
		Data:      e.Data,
	}
}

// Settings are the connection limits and timings of the hub.
type Settings struct {
	MaxConnections  int
	PingInterval    time.Duration
	WriteTimeout    time.Duration
	PongTimeout     time.Duration
	MaxMessageSize  int64
	ReadBufferSize  int
	WriteBufferSize int
	BroadcastBuffer int
	ClientBuffer    int
}

func NewSettings(cfg *config.WebSocketConfig) Settings {
	s := Settings{
		MaxConnections:  100,
		PingInterval:    54 * time.Second,
		WriteTimeout:    10 * time.Second,
		PongTimeout:     60 * time.Second,
		MaxMessageSize:  512,
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		BroadcastBuffer: 256,
		ClientBuffer:    256,
	}
	if cfg == nil {
		return s
	}

	if cfg.MaxConnections > 0 {
		s.MaxConnections = cfg.MaxConnections
	}
	if cfg.PongTimeout > 0 {
		s.PongTimeout = cfg.PongTimeout
		s.PingInterval = cfg.PongTimeout * 9 / 10
	}
	if cfg.PingInterval > 0 && cfg.PingInterval < s.PongTimeout {
		s.PingInterval = cfg.PingInterval
	}
	if cfg.WriteTimeout > 0 {
		s.WriteTimeout = cfg.WriteTimeout
	}
	if cfg.MaxMessageSize > 0 {
		s.MaxMessageSize = cfg.MaxMessageSize
	}
	if cfg.ReadBufferSize > 0 {
		s.ReadBufferSize = cfg.ReadBufferSize
	}
	if cfg.WriteBufferSize > 0 {
		s.WriteBufferSize = cfg.WriteBufferSize
	}
	if cfg.BroadcastBuffer > 0 {
		s.BroadcastBuffer = cfg.BroadcastBuffer
	}
	if cfg.ClientBuffer > 0 {
		s.ClientBuffer = cfg.ClientBuffer
	}
	return s
}
