package simulator

import (
	"math"
	"time"
)

// Moment is the point on a vehicle timeline a pattern is evaluated at.
type Moment struct {
	Time time.Time
	// Wear is the fraction of the current DPF service interval that has
	// elapsed. It starts at 0 after a service and may overshoot 1.
	Wear float64
}

type Pattern interface {
	Apply(base float64, at Moment) float64
	Name() string
}

var (
	PatternSteady   Pattern = &SteadyPattern{}
	PatternDaily    Pattern = &DailyPattern{}
	PatternSeasonal Pattern = &SeasonalPattern{PeriodDays: 365, Amplitude: 0.5}
)

func ParsePattern(name string) Pattern {
	switch name {
	case "daily":
		return PatternDaily
	case "seasonal":
		return PatternSeasonal
	default:
		return PatternSteady
	}
}

// SteadyPattern - constant level
type SteadyPattern struct{}

func (p *SteadyPattern) Apply(base float64, _ Moment) float64 {
	return base
}

func (p *SteadyPattern) Name() string {
	return "steady"
}

// DailyPattern - duty cycle of a vehicle in service (busy mornings and
// afternoons, idle overnight)
type DailyPattern struct{}

func (p *DailyPattern) Apply(base float64, at Moment) float64 {
	hour := at.Time.Hour()

	var modifier float64
	switch {
	case hour >= 9 && hour <= 11:
		modifier = 1.25
	case hour >= 14 && hour <= 16:
		modifier = 1.15
	case hour >= 0 && hour <= 6:
		modifier = 0.7
	default:
		modifier = 1.0
	}
	return base * modifier
}

func (p *DailyPattern) Name() string {
	return "daily"
}

// SeasonalPattern - yearly oscillation, Amplitude is relative to |base|
type SeasonalPattern struct {
	PeriodDays float64
	Amplitude  float64
}

func (p *SeasonalPattern) Apply(base float64, at Moment) float64 {
	period := p.PeriodDays
	if period == 0 {
		period = 365
	}
	phase := float64(at.Time.YearDay()) / period * 2 * math.Pi
	return base + math.Abs(base)*p.Amplitude*math.Sin(phase)
}

func (p *SeasonalPattern) Name() string {
	return "seasonal"
}

// WearPattern scales another pattern by soot accumulation: the level grows
// quadratically with wear and drops back after a DPF service.
type WearPattern struct {
	Base Pattern
	Gain float64
}

func (p *WearPattern) Apply(base float64, at Moment) float64 {
	inner := base
	if p.Base != nil {
		inner = p.Base.Apply(base, at)
	}
	return inner * (1 + p.Gain*at.Wear*at.Wear)
}

func (p *WearPattern) Name() string {
	if p.Base == nil {
		return "wear"
	}
	return p.Base.Name() + "+wear"
}
