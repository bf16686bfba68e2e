package models

import "time"

// PressureSummary aggregates exhaust pressure readings ahead of one
// maintenance event.
type PressureSummary struct {
	VehicleNumber   string    `json:"vehicle_number" yaml:"vehicle_number"`
	MaintenanceDate time.Time `json:"maintenance_date" yaml:"maintenance_date"`
	JobType         string    `json:"job_type" yaml:"job_type"`
	Mean            float64   `json:"mean" yaml:"mean"`
	Std             float64   `json:"std" yaml:"std"`
	Min             float64   `json:"min" yaml:"min"`
	Max             float64   `json:"max" yaml:"max"`
	Count           int       `json:"count" yaml:"count"`
	Anomalous       bool      `json:"anomalous" yaml:"anomalous"`
}

// JobPressureStat aggregates pressure summaries sharing a job type.
type JobPressureStat struct {
	JobType     string  `json:"job_type" yaml:"job_type"`
	Events      int     `json:"events" yaml:"events"`
	MeanOfMeans float64 `json:"mean_of_means" yaml:"mean_of_means"`
	MaxPressure float64 `json:"max_pressure" yaml:"max_pressure"`
}

// PressureReport is the result of the pre-maintenance pressure analysis.
type PressureReport struct {
	Summaries   []PressureSummary `json:"summaries" yaml:"summaries"`
	ByJobType   []JobPressureStat `json:"by_job_type" yaml:"by_job_type"`
	OverallMean float64           `json:"overall_mean" yaml:"overall_mean"`
	OverallStd  float64           `json:"overall_std" yaml:"overall_std"`
	LowerBound  float64           `json:"lower_bound" yaml:"lower_bound"`
	UpperBound  float64           `json:"upper_bound" yaml:"upper_bound"`
	Anomalies   int               `json:"anomalies" yaml:"anomalies"`
}
