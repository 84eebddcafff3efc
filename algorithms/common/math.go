package common

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Basic statistical functions shared by the HRV algorithms, on top of gonum

// Mean calculates the arithmetic mean of a slice using gonum
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0.0
	}
	return stat.Mean(data, nil)
}

// Variance calculates the sample (n-1) variance of a slice using gonum.
// Fewer than two samples, or identical samples, have exactly zero variance.
func Variance(data []float64) float64 {
	if len(data) < 2 || floats.Max(data) == floats.Min(data) {
		return 0.0
	}
	return stat.Variance(data, nil)
}

// PopulationVariance calculates the n-normalized variance, the quantity a
// power spectral density integrates to.
func PopulationVariance(data []float64) float64 {
	if len(data) == 0 || floats.Max(data) == floats.Min(data) {
		return 0.0
	}
	_, v := stat.PopMeanVariance(data, nil)
	return v
}

// StandardDeviation calculates the sample standard deviation
func StandardDeviation(data []float64) float64 {
	return math.Sqrt(Variance(data))
}

// Diff returns the successive differences x[i+1] - x[i].
func Diff(data []float64) []float64 {
	if len(data) < 2 {
		return []float64{}
	}

	result := make([]float64, len(data)-1)
	for i := 1; i < len(data); i++ {
		result[i-1] = data[i] - data[i-1]
	}
	return result
}

// ExclusiveCumSum returns origin followed by the running sums of data,
// excluding the last element: out[0] = origin, out[k] = out[k-1] + data[k-1].
func ExclusiveCumSum(origin float64, data []float64) []float64 {
	out := make([]float64, len(data))
	acc := origin
	for i, v := range data {
		out[i] = acc
		acc += v
	}
	return out
}

// Profile integrates the de-meaned series into its cumulative-sum profile.
// A constant series has an identically zero profile.
func Profile(data []float64) []float64 {
	if len(data) == 0 {
		return []float64{}
	}
	if floats.Max(data) == floats.Min(data) {
		return make([]float64, len(data))
	}

	centered := make([]float64, len(data))
	copy(centered, data)
	floats.AddConst(-Mean(data), centered)

	profile := make([]float64, len(centered))
	floats.CumSum(profile, centered)
	return profile
}

// LinRegression performs simple linear regression and returns slope, intercept, r²
func LinRegression(x, y []float64) (slope, intercept, rSquared float64) {
	if len(x) != len(y) || len(x) < 2 {
		return math.NaN(), math.NaN(), 0
	}

	alpha, beta := stat.LinearRegression(x, y, nil, false)

	rSquared = stat.RSquared(x, y, nil, alpha, beta)
	if math.IsNaN(rSquared) || math.IsInf(rSquared, 0) {
		rSquared = 0.0
	}

	return beta, alpha, rSquared
}

// LinearResidualSS fits a first-order line to y over x = 0..len(y)-1 and
// returns the sum of squared residuals.
func LinearResidualSS(y []float64) float64 {
	n := float64(len(y))
	if len(y) < 3 {
		return 0
	}

	// closed form on the fixed abscissa 0..n-1 avoids allocating it
	xMean := (n - 1) / 2
	yMean := floats.Sum(y) / n

	var sxx, sxy float64
	for i, v := range y {
		dx := float64(i) - xMean
		sxx += dx * dx
		sxy += dx * (v - yMean)
	}
	slope := sxy / sxx

	ss := 0.0
	for i, v := range y {
		r := v - (yMean + slope*(float64(i)-xMean))
		ss += r * r
	}
	return ss
}
