package ingest

import (
	"sort"
	"strings"

	"github.com/OldStager01/dpf-rul/pkg/models"
)

// PrepareStats describes what Prepare kept and dropped.
type PrepareStats struct {
	MaintenanceTotal  int `json:"maintenance_total" yaml:"maintenance_total"`
	DPFEvents         int `json:"dpf_events" yaml:"dpf_events"`
	SensorTotal       int `json:"sensor_total" yaml:"sensor_total"`
	SensorKept        int `json:"sensor_kept" yaml:"sensor_kept"`
	DuplicateSensors  int `json:"duplicate_sensors" yaml:"duplicate_sensors"`
	DiagnosticTotal   int `json:"diagnostic_total" yaml:"diagnostic_total"`
	DiagnosticKept    int `json:"diagnostic_kept" yaml:"diagnostic_kept"`
	MaintenanceVINs   int `json:"maintenance_vins" yaml:"maintenance_vins"`
	SensorVINs        int `json:"sensor_vins" yaml:"sensor_vins"`
	OverlappingVINs   int `json:"overlapping_vins" yaml:"overlapping_vins"`
	DPFVehicleNumbers int `json:"dpf_vehicle_numbers" yaml:"dpf_vehicle_numbers"`
}

// DefaultDPFKeywords are the maintenance job descriptions that denote a DPF
// service.
var DefaultDPFKeywords = []string{
	"FILTER - DIESEL PARTICULATE",
	"EXHAUST SYSTEM",
	"EXHAUST SYSTEM INSPECT DIAGNOSE",
}

// IsDPFJob reports whether a job description is one of keywords. Matching
// ignores case and surrounding whitespace.
func IsDPFJob(description string, keywords []string) bool {
	description = strings.TrimSpace(description)
	for _, k := range keywords {
		if strings.EqualFold(description, strings.TrimSpace(k)) {
			return true
		}
	}
	return false
}

// Prepare narrows a raw dataset to DPF maintenance events, the telemetry of
// the vehicles that had them and their diagnostics. Sensor records repeating
// a (vin, time) pair keep the first occurrence.
func Prepare(ds models.Dataset, keywords []string) (models.Dataset, PrepareStats) {
	stats := PrepareStats{
		MaintenanceTotal: len(ds.Maintenance),
		SensorTotal:      len(ds.Sensors),
		DiagnosticTotal:  len(ds.Diagnostics),
	}

	var out models.Dataset
	vins := make(map[string]bool)
	numbers := make(map[string]bool)

	for _, e := range ds.Maintenance {
		if !IsDPFJob(e.JobDescription, keywords) {
			continue
		}
		out.Maintenance = append(out.Maintenance, e)
		if e.VIN != "" {
			vins[e.VIN] = true
		}
		if e.VehicleNumber != "" {
			numbers[e.VehicleNumber] = true
		}
	}
	sort.SliceStable(out.Maintenance, func(i, j int) bool {
		return out.Maintenance[i].Date.Before(out.Maintenance[j].Date)
	})

	type key struct {
		vin  string
		unix int64
	}
	seen := make(map[key]bool)
	sensorVINs := make(map[string]bool)

	for _, r := range ds.Sensors {
		if r.VIN == "" {
			continue
		}
		sensorVINs[r.VIN] = true
		if !vins[r.VIN] {
			continue
		}
		k := key{vin: r.VIN, unix: r.Time.UnixNano()}
		if seen[k] {
			stats.DuplicateSensors++
			continue
		}
		seen[k] = true
		out.Sensors = append(out.Sensors, r)
	}

	for _, d := range ds.Diagnostics {
		if numbers[d.AssetName] {
			out.Diagnostics = append(out.Diagnostics, d)
		}
	}

	for vin := range vins {
		if sensorVINs[vin] {
			stats.OverlappingVINs++
		}
	}

	stats.DPFEvents = len(out.Maintenance)
	stats.SensorKept = len(out.Sensors)
	stats.DiagnosticKept = len(out.Diagnostics)
	stats.MaintenanceVINs = len(vins)
	stats.SensorVINs = len(sensorVINs)
	stats.DPFVehicleNumbers = len(numbers)

	return out, stats
}
