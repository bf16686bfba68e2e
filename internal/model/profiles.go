package model

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/stat"

	"github.com/OldStager01/dpf-rul/internal/features"
	"github.com/OldStager01/dpf-rul/pkg/models"
)

const (
	profileTopFeatures     = 3
	significantDiffPercent = 10.0
)

// CategoryStats summarizes the RUL distribution of each category present.
func CategoryStats(vectors []models.FeatureVector) []models.CategoryStat {
	byCategory := make(map[models.RULCategory][]float64)
	for _, v := range vectors {
		byCategory[v.Label.Category] = append(byCategory[v.Label.Category], float64(v.Label.RULDays))
	}

	var out []models.CategoryStat
	for _, category := range models.RULCategories {
		values := byCategory[category]
		if len(values) == 0 {
			continue
		}
		mean, std := stat.MeanStdDev(values, nil)
		if len(values) < 2 || math.IsNaN(std) {
			std = 0
		}
		out = append(out, models.CategoryStat{Category: category, Count: len(values), MeanRUL: mean, StdRUL: std})
	}
	return out
}

// CategoryProfiles finds, for each category, the features whose category mean
// departs most from the fleet-wide mean.
func CategoryProfiles(vectors []models.FeatureVector) []models.CategoryProfile {
	if len(vectors) == 0 {
		return nil
	}

	names := allFeatureNames(vectors)
	overall := make(map[string]float64, len(names))
	for _, name := range names {
		overall[name] = meanPresent(vectors, name, "")
	}

	var profiles []models.CategoryProfile
	for _, category := range models.RULCategories {
		samples := 0
		for _, v := range vectors {
			if v.Label.Category == category {
				samples++
			}
		}
		if samples == 0 {
			continue
		}

		deviations := make([]models.CategoryDeviation, 0, len(names))
		for _, name := range names {
			catMean := meanPresent(vectors, name, category)
			if math.IsNaN(catMean) {
				continue
			}
			diff := (catMean - overall[name]) / overall[name] * 100
			if math.IsNaN(diff) || math.IsInf(diff, 0) {
				diff = 0
			}
			deviations = append(deviations, models.CategoryDeviation{
				Feature:      name,
				CategoryMean: catMean,
				OverallMean:  overall[name],
				DiffPercent:  diff,
				Significant:  math.Abs(diff) > significantDiffPercent,
			})
		}

		sort.SliceStable(deviations, func(a, b int) bool {
			da, db := math.Abs(deviations[a].DiffPercent), math.Abs(deviations[b].DiffPercent)
			if da != db {
				return da > db
			}
			return deviations[a].Feature < deviations[b].Feature
		})
		if len(deviations) > profileTopFeatures {
			deviations = deviations[:profileTopFeatures]
		}
		for i := range deviations {
			if deviations[i].Significant {
				deviations[i].Interpretation = Interpret(deviations[i].Feature, deviations[i].DiffPercent)
			}
		}

		profiles = append(profiles, models.CategoryProfile{
			Category:   category,
			Samples:    samples,
			Deviations: deviations,
		})
	}

	return profiles
}

// Interpret renders a category deviation as an analyst-facing sentence.
func Interpret(feature string, diffPercent float64) string {
	more, higher := "less", "lower"
	if diffPercent > 0 {
		more, higher = "more", "higher"
	}
	pct := math.Abs(diffPercent)

	switch {
	case strings.HasSuffix(feature, features.SuffixPctTimeHigh):
		sensor := strings.TrimSuffix(feature, features.SuffixPctTimeHigh)
		return fmt.Sprintf("spends %.0f%% %s time at high %s", pct, more, sensor)
	case strings.HasSuffix(feature, features.SuffixPctTimeLow):
		sensor := strings.TrimSuffix(feature, features.SuffixPctTimeLow)
		return fmt.Sprintf("spends %.0f%% %s time at low %s", pct, more, sensor)
	case strings.HasSuffix(feature, features.SuffixTrendSlope):
		sensor := strings.TrimSuffix(feature, features.SuffixTrendSlope)
		return fmt.Sprintf("%s trend slope is %.0f%% %s", sensor, pct, higher)
	case strings.HasSuffix(feature, features.SuffixVolatility):
		sensor := strings.TrimSuffix(feature, features.SuffixVolatility)
		return fmt.Sprintf("%s is %.0f%% %s variable", sensor, pct, more)
	case strings.HasSuffix(feature, features.SuffixPatternChange):
		sensor := strings.TrimSuffix(feature, features.SuffixPatternChange)
		return fmt.Sprintf("recent %s shift is %.0f%% %s", sensor, pct, higher)
	default:
		return fmt.Sprintf("%s is %.0f%% %s than the fleet average", feature, pct, higher)
	}
}

func allFeatureNames(vectors []models.FeatureVector) []string {
	seen := make(map[string]struct{})
	for _, v := range vectors {
		for name := range v.Features {
			seen[name] = struct{}{}
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// meanPresent averages a feature over the vectors that carry it, optionally
// restricted to one category. It returns NaN when no vector has the feature.
func meanPresent(vectors []models.FeatureVector, name string, category models.RULCategory) float64 {
	var sum float64
	var n int
	for _, v := range vectors {
		if category != "" && v.Label.Category != category {
			continue
		}
		if value, ok := v.Features[name]; ok {
			sum += value
			n++
		}
	}
	if n == 0 {
		return math.NaN()
	}
	return sum / float64(n)
}
