package models

import "time"

// MaintenanceEvent is a single shop visit taken from the maintenance log.
type MaintenanceEvent struct {
	ID             string    `json:"id"`
	VehicleNumber  string    `json:"vehicle_number"`
	VIN            string    `json:"vin"`
	Date           time.Time `json:"date"`
	JobDescription string    `json:"job_description"`
	Cost           float64   `json:"cost"`
	DowntimeDays   float64   `json:"downtime_days"`
}

// HasIdentity reports whether the event carries enough information to be
// placed on a vehicle timeline.
func (e MaintenanceEvent) HasIdentity() bool {
	return e.VehicleNumber != "" && !e.Date.IsZero()
}

// SensorReading is one telemetry record for a vehicle. Channels that were not
// reported at that instant are absent from Values.
type SensorReading struct {
	VIN    string             `json:"vin"`
	Time   time.Time          `json:"time"`
	Values map[string]float64 `json:"values"`
}

// Value returns the reading for a channel and whether it was reported.
func (r SensorReading) Value(sensor string) (float64, bool) {
	v, ok := r.Values[sensor]
	return v, ok
}

// DiagnosticReading is a single diagnostic sample keyed by asset name.
type DiagnosticReading struct {
	AssetName  string    `json:"asset_name"`
	Time       time.Time `json:"time"`
	Diagnostic string    `json:"diagnostic"`
	Value      float64   `json:"value"`
	Unit       string    `json:"unit,omitempty"`
}

// Dataset groups the three inputs of a pipeline run.
type Dataset struct {
	Maintenance []MaintenanceEvent  `json:"maintenance"`
	Sensors     []SensorReading     `json:"sensors"`
	Diagnostics []DiagnosticReading `json:"diagnostics"`
}
