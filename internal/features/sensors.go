package features

// Sensor channels tracked for every vehicle.
const (
	EngineLoadPercent              = "engineLoadPercent"
	EngineRPM                      = "engineRpm"
	ECUSpeedMph                    = "ecuSpeedMph"
	EngineOilPressureKPa           = "engineOilPressureKPa"
	EngineCoolantTemperatureMilliC = "engineCoolantTemperatureMilliC"
	DEFLevelMilliPercent           = "defLevelMilliPercent"
	FuelPercents                   = "fuelPercents"
	AmbientAirTemperatureMilliC    = "ambientAirTemperatureMilliC"
	IntakeManifoldTemperatureMilli = "intakeManifoldTemperatureMilliC"
	BarometricPressurePa           = "barometricPressurePa"
	OBDEngineSeconds               = "obdEngineSeconds"
	GPSDistanceMeters              = "gpsDistanceMeters"
	ExhaustTemperature             = "exhaustTemperature"
	DPFPressureDifferential        = "dpfPressureDifferential"
	SootLevel                      = "sootLevel"
	RegenCycles                    = "regenCycles"
	TurbochargerPressure           = "turbochargerPressure"
	AirFlowMass                    = "airFlowMass"
)

// TrackedSensors is the fixed channel catalog, in reporting order.
var TrackedSensors = []string{
	EngineLoadPercent,
	EngineRPM,
	ECUSpeedMph,
	EngineOilPressureKPa,
	EngineCoolantTemperatureMilliC,
	DEFLevelMilliPercent,
	FuelPercents,
	AmbientAirTemperatureMilliC,
	IntakeManifoldTemperatureMilli,
	BarometricPressurePa,
	OBDEngineSeconds,
	GPSDistanceMeters,
	ExhaustTemperature,
	DPFPressureDifferential,
	SootLevel,
	RegenCycles,
	TurbochargerPressure,
	AirFlowMass,
}

// Threshold is an operating band for a channel. Time spent strictly above
// High or strictly below Low is reported as a feature.
type Threshold struct {
	High float64
	Low  float64
}

// Thresholds holds the static operating bands. Channels without an entry get
// no dwell-time features.
var Thresholds = map[string]Threshold{
	EngineLoadPercent:              {High: 80, Low: 10},
	EngineRPM:                      {High: 2000, Low: 500},
	ECUSpeedMph:                    {High: 70, Low: 5},
	DEFLevelMilliPercent:           {High: 95000, Low: 50000},
	FuelPercents:                   {High: 95, Low: 25},
	EngineOilPressureKPa:           {High: 500, Low: 200},
	EngineCoolantTemperatureMilliC: {High: 95000, Low: 70000},
	AmbientAirTemperatureMilliC:    {High: 40000, Low: -10000},
	IntakeManifoldTemperatureMilli: {High: 60000, Low: 15000},
	BarometricPressurePa:           {High: 102000, Low: 98000},
	OBDEngineSeconds:               {High: 36000, Low: 3600},
}

// Feature name suffixes.
const (
	SuffixTrendSlope    = "_trend_slope"
	SuffixTrendStrength = "_trend_strength"
	SuffixVolatility    = "_volatility"
	SuffixPctTimeHigh   = "_pct_time_high"
	SuffixPctTimeLow    = "_pct_time_low"
	SuffixPatternChange = "_pattern_change_pct"
)

// Fallback features emitted when no sensor produced a statistic.
const (
	FeatureDataAvailability = "data_availability"
	FeatureSensorCount      = "sensor_count"
)

// ExplainableSuffixes are the feature kinds eligible for model selection.
var ExplainableSuffixes = []string{
	SuffixTrendSlope,
	SuffixVolatility,
	SuffixPctTimeHigh,
	SuffixPctTimeLow,
	SuffixPatternChange,
}
