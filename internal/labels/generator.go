// Package labels builds RUL training labels by backtracking from
// maintenance events.
package labels

import (
	"sort"
	"time"

	"github.com/OldStager01/dpf-rul/pkg/models"
)

var DefaultLookbackDays = []int{7, 15, 30, 45, 60}

// Interference scopes: which maintenance events can break a clean window.
const (
	InterferenceDPF = "dpf"
	InterferenceAll = "all"
)

type Config struct {
	LookbackDays []int
}

// Result holds the labels produced from a maintenance log together with the
// bookkeeping a caller needs to explain what was dropped.
type Result struct {
	Labels           []models.RULLabel
	EventsConsidered int
	SkippedEvents    int
	SuppressedLabels int
}

type Generator struct {
	lookbacks []int
}

func NewGenerator(cfg Config) *Generator {
	lookbacks := cfg.LookbackDays
	if len(lookbacks) == 0 {
		lookbacks = DefaultLookbackDays
	}
	return &Generator{lookbacks: append([]int(nil), lookbacks...)}
}

// CategoryFor maps a lookback distance in days to its urgency bucket.
func CategoryFor(days int) models.RULCategory {
	switch {
	case days <= 7:
		return models.CategoryCritical
	case days <= 15:
		return models.CategoryHigh
	case days <= 30:
		return models.CategoryMedium
	case days <= 45:
		return models.CategoryLow
	default:
		return models.CategoryNormal
	}
}

// Generate emits one label per (event, lookback) pair whose backtrack window
// contains no other maintenance event of the same vehicle. Events are
// visited in input order and offsets in configured order.
func (g *Generator) Generate(events []models.MaintenanceEvent) Result {
	return g.GenerateWithHistory(events, nil)
}

// GenerateWithHistory labels events like Generate, but any dated event in
// history also breaks a clean window. Only events are labelled and counted.
func (g *Generator) GenerateWithHistory(events, history []models.MaintenanceEvent) Result {
	var result Result

	timelines := make(map[string][]time.Time)
	for _, e := range events {
		if !e.HasIdentity() {
			result.SkippedEvents++
			continue
		}
		timelines[e.VehicleNumber] = append(timelines[e.VehicleNumber], e.Date)
	}
	for _, e := range history {
		if e.HasIdentity() {
			timelines[e.VehicleNumber] = append(timelines[e.VehicleNumber], e.Date)
		}
	}
	for _, dates := range timelines {
		sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	}

	for _, e := range events {
		if !e.HasIdentity() {
			continue
		}
		result.EventsConsidered++

		timeline := timelines[e.VehicleNumber]
		for _, d := range g.lookbacks {
			predictionDate := e.Date.Add(-models.Days(d))

			if hasEventBetween(timeline, predictionDate, e.Date) {
				result.SuppressedLabels++
				continue
			}

			result.Labels = append(result.Labels, models.RULLabel{
				VehicleNumber:   e.VehicleNumber,
				VIN:             e.VIN,
				PredictionDate:  predictionDate,
				MaintenanceDate: e.Date,
				RULDays:         d,
				Category:        CategoryFor(d),
				MaintenanceType: e.JobDescription,
				MaintenanceCost: e.Cost,
				DowntimeDays:    e.DowntimeDays,
			})
		}
	}

	return result
}

// hasEventBetween reports whether a sorted timeline has any date strictly
// inside (from, to).
func hasEventBetween(timeline []time.Time, from, to time.Time) bool {
	i := sort.Search(len(timeline), func(i int) bool { return timeline[i].After(from) })
	return i < len(timeline) && timeline[i].Before(to)
}

// CountByCategory tallies labels per RUL category.
func CountByCategory(labels []models.RULLabel) map[models.RULCategory]int {
	counts := make(map[models.RULCategory]int, len(models.RULCategories))
	for _, l := range labels {
		counts[l.Category]++
	}
	return counts
}
