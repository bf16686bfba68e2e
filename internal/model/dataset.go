package model

import (
	"sort"
	"strings"

	"github.com/OldStager01/dpf-rul/internal/features"
	"github.com/OldStager01/dpf-rul/pkg/models"
)

// dataset is the dense design matrix built from feature vectors. Missing
// features are zero.
type dataset struct {
	columns []string
	rows    [][]float64
	target  []float64
	dropped int
}

// ExplainableColumns returns the sorted union of feature names whose kind is
// eligible for the model.
func ExplainableColumns(vectors []models.FeatureVector) []string {
	seen := make(map[string]struct{})
	for _, v := range vectors {
		for name := range v.Features {
			if isExplainable(name) {
				seen[name] = struct{}{}
			}
		}
	}

	columns := make([]string, 0, len(seen))
	for name := range seen {
		columns = append(columns, name)
	}
	sort.Strings(columns)
	return columns
}

func isExplainable(name string) bool {
	for _, suffix := range features.ExplainableSuffixes {
		if strings.HasSuffix(name, suffix) {
			return true
		}
	}
	return false
}

func buildDataset(vectors []models.FeatureVector, columns []string, maxRULDays int) dataset {
	ds := dataset{columns: columns}

	for _, v := range vectors {
		if maxRULDays > 0 && v.Label.RULDays > maxRULDays {
			ds.dropped++
			continue
		}
		row := make([]float64, len(columns))
		for j, name := range columns {
			row[j] = v.Feature(name)
		}
		ds.rows = append(ds.rows, row)
		ds.target = append(ds.target, float64(v.Label.RULDays))
	}

	return ds
}

func (ds dataset) column(j int) []float64 {
	col := make([]float64, len(ds.rows))
	for i, row := range ds.rows {
		col[i] = row[j]
	}
	return col
}

// project keeps only the given column indexes, in order.
func (ds dataset) project(indexes []int) [][]float64 {
	out := make([][]float64, len(ds.rows))
	for i, row := range ds.rows {
		projected := make([]float64, len(indexes))
		for k, j := range indexes {
			projected[k] = row[j]
		}
		out[i] = projected
	}
	return out
}
