package simulator

import (
	"math"
	"math/rand/v2"
	"sort"
	"time"

	"github.com/OldStager01/dpf-rul/internal/features"
	"github.com/OldStager01/dpf-rul/pkg/models"
)

type channel struct {
	base    float64
	noise   float64
	pattern Pattern
	min     float64
	max     float64
}

func wear(p Pattern, gain float64) Pattern {
	return &WearPattern{Base: p, Gain: gain}
}

// channels describes how each tracked sensor behaves on a healthy truck and
// how strongly it responds to DPF loading.
var channels = map[string]channel{
	features.EngineLoadPercent:              {45, 8, wear(PatternDaily, 0.2), 0, 100},
	features.EngineRPM:                      {1400, 150, wear(PatternDaily, 0.1), 0, 3000},
	features.ECUSpeedMph:                    {38, 10, wear(PatternDaily, -0.2), 0, 85},
	features.EngineOilPressureKPa:           {350, 25, wear(PatternSteady, -0.1), 0, 700},
	features.EngineCoolantTemperatureMilliC: {88000, 2500, wear(PatternSteady, 0.05), 40000, 120000},
	features.DEFLevelMilliPercent:           {75000, 6000, PatternSteady, 0, 100000},
	features.FuelPercents:                   {60, 15, PatternSteady, 0, 100},
	features.AmbientAirTemperatureMilliC:    {15000, 3000, PatternSeasonal, -30000, 50000},
	features.IntakeManifoldTemperatureMilli: {35000, 3000, wear(PatternSeasonal, 0.1), 0, 90000},
	features.BarometricPressurePa:           {101000, 600, PatternSteady, 95000, 105000},
	features.OBDEngineSeconds:               {14000, 2500, PatternSteady, 0, 86400},
	features.GPSDistanceMeters:              {180000, 40000, wear(PatternSteady, -0.1), 0, 600000},
	features.ExhaustTemperature:             {380, 25, wear(PatternDaily, 0.25), 150, 700},
	features.DPFPressureDifferential:        {6, 0.8, wear(PatternSteady, 1.8), 0, 40},
	features.SootLevel:                      {20, 3, wear(PatternSteady, 2.5), 0, 100},
	features.RegenCycles:                    {2, 0.6, wear(PatternSteady, 1.5), 0, 20},
	features.TurbochargerPressure:           {150, 12, wear(PatternDaily, -0.12), 50, 300},
	features.AirFlowMass:                    {320, 30, wear(PatternDaily, -0.1), 50, 600},
}

// VehicleSim is one simulated truck: its identity, service history and the
// per-channel calibration bias that makes it differ from its siblings.
type VehicleSim struct {
	VIN    string
	Number string

	start    time.Time
	services []time.Time
	bias     map[string]float64
	// wear already accumulated when the simulation starts
	initialWear float64
}

func newVehicleSim(vin, number string, start time.Time, rng *rand.Rand) *VehicleSim {
	v := &VehicleSim{
		VIN:         vin,
		Number:      number,
		start:       start,
		bias:        make(map[string]float64, len(channels)),
		initialWear: rng.Float64() * 0.3,
	}
	for _, name := range features.TrackedSensors {
		v.bias[name] = 1 + 0.05*rng.NormFloat64()
	}
	return v
}

func (v *VehicleSim) addService(at time.Time) {
	v.services = append(v.services, at)
	sort.Slice(v.services, func(i, j int) bool { return v.services[i].Before(v.services[j]) })
}

// Wear returns the fraction of the service interval elapsed at t.
func (v *VehicleSim) Wear(t time.Time) float64 {
	prev := v.start
	offset := v.initialWear
	var next time.Time

	for _, s := range v.services {
		if !s.After(t) {
			prev = s
			offset = 0
			continue
		}
		next = s
		break
	}

	interval := v.meanInterval()
	if !next.IsZero() {
		interval = next.Sub(prev)
		if offset > 0 {
			// stretch the first interval so wear reaches 1 at the first service
			interval = time.Duration(float64(interval) / (1 - offset))
		}
	}
	if interval <= 0 {
		return offset
	}

	return offset + float64(t.Sub(prev))/float64(interval)
}

func (v *VehicleSim) meanInterval() time.Duration {
	if len(v.services) < 2 {
		return 60 * models.Day
	}
	span := v.services[len(v.services)-1].Sub(v.services[0])
	return span / time.Duration(len(v.services)-1)
}

// Reading produces one telemetry record at t. Each channel is dropped with
// probability missingRate.
func (v *VehicleSim) Reading(t time.Time, missingRate float64, rng *rand.Rand) models.SensorReading {
	at := Moment{Time: t, Wear: v.Wear(t)}
	values := make(map[string]float64, len(channels))

	for _, name := range features.TrackedSensors {
		ch := channels[name]
		if missingRate > 0 && rng.Float64() < missingRate {
			continue
		}
		value := ch.pattern.Apply(ch.base*v.bias[name], at) + ch.noise*rng.NormFloat64()
		values[name] = round(clamp(value, ch.min, ch.max))
	}

	return models.SensorReading{VIN: v.VIN, Time: t, Values: values}
}

// ExhaustPressure is the diagnostic exhaust back pressure in kPa at t.
func (v *VehicleSim) ExhaustPressure(t time.Time, rng *rand.Rand) float64 {
	w := v.Wear(t)
	return round(math.Max(0, 12+18*w*w+1.5*rng.NormFloat64()))
}

func clamp(value, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, value))
}

func round(value float64) float64 {
	return math.Round(value*100) / 100
}
