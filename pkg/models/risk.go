package models

import "time"

type AlertLevel string

const (
	AlertUrgent  AlertLevel = "URGENT"
	AlertWarning AlertLevel = "WARNING"
	AlertCaution AlertLevel = "CAUTION"
	AlertNormal  AlertLevel = "NORMAL"
)

// Actionable reports whether the level should be sent to the alert sink.
func (l AlertLevel) Actionable() bool {
	return l == AlertUrgent || l == AlertWarning
}

// RiskDriver is a feature's contribution to a single prediction.
type RiskDriver struct {
	Feature      string  `json:"feature" yaml:"feature"`
	Value        float64 `json:"value" yaml:"value"`
	Contribution float64 `json:"contribution" yaml:"contribution"`
}

// VehicleRisk is the assessed filter risk for a vehicle at a point in time.
type VehicleRisk struct {
	RunID            string       `json:"run_id,omitempty" yaml:"run_id,omitempty"`
	VIN              string       `json:"vin" yaml:"vin"`
	VehicleNumber    string       `json:"vehicle_number,omitempty" yaml:"vehicle_number,omitempty"`
	AsOf             time.Time    `json:"as_of" yaml:"as_of"`
	PredictedRULDays float64      `json:"predicted_rul_days" yaml:"predicted_rul_days"`
	Level            AlertLevel   `json:"level" yaml:"level"`
	DataPoints       int          `json:"data_points" yaml:"data_points"`
	Drivers          []RiskDriver `json:"drivers,omitempty" yaml:"drivers,omitempty"`
}
