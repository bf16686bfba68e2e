package model

import "math"

// standardScaler centers and scales columns with statistics from the
// training rows. Columns with zero spread are only centered.
type standardScaler struct {
	mean  []float64
	scale []float64
}

func fitScaler(rows [][]float64) standardScaler {
	if len(rows) == 0 {
		return standardScaler{}
	}
	k := len(rows[0])
	s := standardScaler{mean: make([]float64, k), scale: make([]float64, k)}

	n := float64(len(rows))
	for _, row := range rows {
		for j, v := range row {
			s.mean[j] += v
		}
	}
	for j := range s.mean {
		s.mean[j] /= n
	}

	for _, row := range rows {
		for j, v := range row {
			d := v - s.mean[j]
			s.scale[j] += d * d
		}
	}
	for j := range s.scale {
		s.scale[j] = math.Sqrt(s.scale[j] / n)
		if s.scale[j] == 0 {
			s.scale[j] = 1
		}
	}

	return s
}

func (s standardScaler) transformRow(row []float64) []float64 {
	out := make([]float64, len(row))
	for j, v := range row {
		out[j] = (v - s.mean[j]) / s.scale[j]
	}
	return out
}

func (s standardScaler) transform(rows [][]float64) [][]float64 {
	out := make([][]float64, len(rows))
	for i, row := range rows {
		out[i] = s.transformRow(row)
	}
	return out
}
