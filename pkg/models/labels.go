package models

import "time"

type RULCategory string

const (
	CategoryCritical RULCategory = "CRITICAL"
	CategoryHigh     RULCategory = "HIGH"
	CategoryMedium   RULCategory = "MEDIUM"
	CategoryLow      RULCategory = "LOW"
	CategoryNormal   RULCategory = "NORMAL"
)

// RULCategories lists the categories from most to least urgent.
var RULCategories = []RULCategory{
	CategoryCritical,
	CategoryHigh,
	CategoryMedium,
	CategoryLow,
	CategoryNormal,
}

// RULLabel is one training sample produced by backtracking from a
// maintenance event.
type RULLabel struct {
	VehicleNumber   string      `json:"vehicle_number"`
	VIN             string      `json:"vin"`
	PredictionDate  time.Time   `json:"prediction_date"`
	MaintenanceDate time.Time   `json:"maintenance_date"`
	RULDays         int         `json:"rul_days"`
	Category        RULCategory `json:"rul_category"`
	MaintenanceType string      `json:"maintenance_type"`
	MaintenanceCost float64     `json:"maintenance_cost"`
	DowntimeDays    float64     `json:"downtime_days"`
}

// FeatureVector is the set of window features computed for one label.
type FeatureVector struct {
	Label      RULLabel           `json:"label"`
	Features   map[string]float64 `json:"features"`
	DataPoints int                `json:"data_points"`
	WindowDays int                `json:"window_days"`
}

// Feature returns a feature value, treating missing features as zero.
func (f FeatureVector) Feature(name string) float64 {
	return f.Features[name]
}
