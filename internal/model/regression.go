package model

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

var errSingularDesign = errors.New("design matrix has no usable rank")

// fitOLS solves ordinary least squares with an intercept using the
// minimum-norm SVD solution, so collinear features do not fail the fit.
func fitOLS(rows [][]float64, target []float64) (intercept float64, coefs []float64, err error) {
	n, k := len(rows), len(rows[0])

	x := mat.NewDense(n, k+1, nil)
	for i, row := range rows {
		x.Set(i, 0, 1)
		for j, v := range row {
			x.Set(i, j+1, v)
		}
	}
	y := mat.NewVecDense(n, append([]float64(nil), target...))

	var svd mat.SVD
	if ok := svd.Factorize(x, mat.SVDThin); !ok {
		return 0, nil, errSingularDesign
	}

	rcond := math.Nextafter(1, 2) - 1
	rank := svd.Rank(rcond * float64(max(n, k+1)))
	if rank == 0 {
		return 0, nil, errSingularDesign
	}

	var beta mat.VecDense
	svd.SolveVecTo(&beta, y, rank)

	coefs = make([]float64, k)
	for j := range coefs {
		coefs[j] = beta.AtVec(j + 1)
	}
	return beta.AtVec(0), coefs, nil
}

func predictRow(intercept float64, coefs, row []float64) float64 {
	y := intercept
	for j, c := range coefs {
		y += c * row[j]
	}
	return y
}

func evaluate(intercept float64, coefs []float64, rows [][]float64, target []float64) (mae, r2 float64) {
	estimates := make([]float64, len(rows))
	var absErr float64
	for i, row := range rows {
		estimates[i] = predictRow(intercept, coefs, row)
		absErr += math.Abs(target[i] - estimates[i])
	}
	if len(rows) == 0 {
		return 0, 0
	}
	return absErr / float64(len(rows)), rSquared(estimates, target)
}

// rSquared is always finite. A constant target has no variance to explain,
// so it scores 1 for an exact fit and 0 otherwise.
func rSquared(estimates, target []float64) float64 {
	for _, y := range target[1:] {
		if y != target[0] {
			return stat.RSquaredFrom(estimates, target, nil)
		}
	}
	for i, y := range target {
		if estimates[i] != y {
			return 0
		}
	}
	return 1
}
