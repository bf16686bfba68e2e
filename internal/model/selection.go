package model

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/OldStager01/dpf-rul/pkg/models"
)

type rankedColumn struct {
	index       int
	name        string
	correlation float64
}

// rankColumns orders columns by absolute Pearson correlation with the target.
// Columns with an undefined correlation are left out.
func rankColumns(ds dataset) []rankedColumn {
	ranked := make([]rankedColumn, 0, len(ds.columns))
	for j, name := range ds.columns {
		r := stat.Correlation(ds.column(j), ds.target, nil)
		if math.IsNaN(r) || math.IsInf(r, 0) {
			continue
		}
		ranked = append(ranked, rankedColumn{index: j, name: name, correlation: r})
	}

	sort.SliceStable(ranked, func(a, b int) bool {
		ra, rb := math.Abs(ranked[a].correlation), math.Abs(ranked[b].correlation)
		if ra != rb {
			return ra > rb
		}
		return ranked[a].name < ranked[b].name
	})
	return ranked
}

// RankFeatures returns the signed correlation of each explainable feature
// with RUL days, strongest first. A limit of zero returns every feature.
func RankFeatures(vectors []models.FeatureVector, maxRULDays, limit int) []models.FeatureCorrelation {
	ds := buildDataset(vectors, ExplainableColumns(vectors), maxRULDays)
	if len(ds.rows) < 2 {
		return nil
	}

	ranked := rankColumns(ds)
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}

	out := make([]models.FeatureCorrelation, len(ranked))
	for i, rc := range ranked {
		out[i] = models.FeatureCorrelation{Feature: rc.name, Correlation: rc.correlation}
	}
	return out
}
