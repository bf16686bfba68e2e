// Package simulator generates a deterministic synthetic fleet: telemetry,
// maintenance history and diagnostics with DPF loading that builds up before
// each filter service.
package simulator

import (
	"fmt"
	"math/rand/v2"
	"sort"
	"time"

	"github.com/OldStager01/dpf-rul/internal/logger"
	"github.com/OldStager01/dpf-rul/pkg/models"
)

const (
	DiagnosticExhaustPressure = "Exhaust Gas Pressure"
	DiagnosticBatteryVoltage  = "Battery Voltage"
)

// DPFJobs are the job descriptions written for DPF services.
var DPFJobs = []string{
	"FILTER - DIESEL PARTICULATE",
	"EXHAUST SYSTEM",
	"EXHAUST SYSTEM INSPECT DIAGNOSE",
}

// OtherJobs are unrelated shop visits mixed into the maintenance log.
var OtherJobs = []string{
	"BRAKES - ADJUST",
	"TIRES - ROTATE",
	"PM SERVICE - A",
	"LIGHTING - REPLACE",
}

const vinAlphabet = "ABCDEFGHJKLMNPRSTUVWXYZ0123456789"

type Config struct {
	Vehicles          int
	Days              int
	ReadingsPerDay    int
	EventsPerVehicle  int
	Seed              int64
	MissingRate       float64
	NonDPFEventChance float64
	Start             time.Time
}

type Simulator struct {
	config Config
}

func New(cfg Config) *Simulator {
	if cfg.Vehicles == 0 {
		cfg.Vehicles = 12
	}
	if cfg.Days == 0 {
		cfg.Days = 240
	}
	if cfg.ReadingsPerDay == 0 {
		cfg.ReadingsPerDay = 4
	}
	if cfg.EventsPerVehicle == 0 {
		cfg.EventsPerVehicle = 3
	}
	if cfg.Start.IsZero() {
		cfg.Start = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	}

	return &Simulator{config: cfg}
}

func (s *Simulator) Config() Config {
	return s.config
}

// Generate builds the fleet. The same Config always yields the same dataset.
func (s *Simulator) Generate() models.Dataset {
	cfg := s.config
	rng := rand.New(rand.NewPCG(uint64(cfg.Seed), uint64(cfg.Seed)^0x5eed))

	var ds models.Dataset
	for i := 0; i < cfg.Vehicles; i++ {
		vehicle := newVehicleSim(s.vin(i, rng), fmt.Sprintf("T%04d", 1001+i), cfg.Start, rng)

		ds.Maintenance = append(ds.Maintenance, s.maintenance(vehicle, rng)...)
		ds.Sensors = append(ds.Sensors, s.telemetry(vehicle, rng)...)
		ds.Diagnostics = append(ds.Diagnostics, s.diagnostics(vehicle, rng)...)
	}

	logger.WithFields(map[string]interface{}{
		"vehicles":    cfg.Vehicles,
		"days":        cfg.Days,
		"maintenance": len(ds.Maintenance),
		"sensors":     len(ds.Sensors),
		"diagnostics": len(ds.Diagnostics),
	}).Debug("Synthetic fleet generated")

	return ds
}

func (s *Simulator) vin(i int, rng *rand.Rand) string {
	suffix := make([]byte, 5)
	for j := range suffix {
		suffix[j] = vinAlphabet[rng.IntN(len(vinAlphabet))]
	}
	return fmt.Sprintf("1FUJHHDR%s%04d", suffix, i+1)
}

// maintenance spreads DPF services evenly over the simulated period with
// some jitter, then sprinkles unrelated visits in between.
func (s *Simulator) maintenance(v *VehicleSim, rng *rand.Rand) []models.MaintenanceEvent {
	cfg := s.config
	segment := cfg.Days / (cfg.EventsPerVehicle + 1)
	jitter := segment / 4

	var events []models.MaintenanceEvent
	for i := 0; i < cfg.EventsPerVehicle; i++ {
		day := (i + 1) * segment
		if jitter > 0 {
			day += rng.IntN(2*jitter+1) - jitter
		}
		at := cfg.Start.Add(models.Days(day) + 8*time.Hour)
		v.addService(at)

		events = append(events, models.MaintenanceEvent{
			ID:             fmt.Sprintf("sim-%s-%02d", v.Number, i+1),
			VehicleNumber:  v.Number,
			VIN:            v.VIN,
			Date:           at,
			JobDescription: DPFJobs[rng.IntN(len(DPFJobs))],
			Cost:           round(400 + rng.Float64()*2100),
			DowntimeDays:   float64(1 + rng.IntN(4)),
		})

		if cfg.NonDPFEventChance > 0 && rng.Float64() < cfg.NonDPFEventChance && cfg.Days > 0 {
			other := cfg.Start.Add(models.Days(rng.IntN(cfg.Days)) + 10*time.Hour)
			events = append(events, models.MaintenanceEvent{
				ID:             fmt.Sprintf("sim-%s-%02d-x", v.Number, i+1),
				VehicleNumber:  v.Number,
				VIN:            v.VIN,
				Date:           other,
				JobDescription: OtherJobs[rng.IntN(len(OtherJobs))],
				Cost:           round(80 + rng.Float64()*600),
				DowntimeDays:   0,
			})
		}
	}

	sort.Slice(events, func(i, j int) bool { return events[i].Date.Before(events[j].Date) })
	return events
}

func (s *Simulator) telemetry(v *VehicleSim, rng *rand.Rand) []models.SensorReading {
	cfg := s.config
	step := models.Day / time.Duration(cfg.ReadingsPerDay)

	readings := make([]models.SensorReading, 0, cfg.Days*cfg.ReadingsPerDay)
	for day := 0; day < cfg.Days; day++ {
		for k := 0; k < cfg.ReadingsPerDay; k++ {
			at := cfg.Start.Add(models.Days(day) + time.Duration(k)*step + time.Duration(rng.IntN(30))*time.Minute)
			readings = append(readings, v.Reading(at, cfg.MissingRate, rng))
		}
	}
	return readings
}

func (s *Simulator) diagnostics(v *VehicleSim, rng *rand.Rand) []models.DiagnosticReading {
	cfg := s.config

	readings := make([]models.DiagnosticReading, 0, 2*cfg.Days)
	for day := 0; day < cfg.Days; day++ {
		at := cfg.Start.Add(models.Days(day) + 12*time.Hour)
		readings = append(readings,
			models.DiagnosticReading{
				AssetName:  v.Number,
				Time:       at,
				Diagnostic: DiagnosticExhaustPressure,
				Value:      v.ExhaustPressure(at, rng),
				Unit:       "kPa",
			},
			models.DiagnosticReading{
				AssetName:  v.Number,
				Time:       at,
				Diagnostic: DiagnosticBatteryVoltage,
				Value:      round(13.8 + 0.3*rng.NormFloat64()),
				Unit:       "V",
			},
		)
	}
	return readings
}
