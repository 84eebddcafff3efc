package common

import (
	"sort"

	"gonum.org/v1/gonum/interp"
)

// Interpolate performs linear interpolation of (x, y) at xi. x must be
// ascending; values outside the abscissa clamp to the end points.
func Interpolate(x, y []float64, xi float64) float64 {
	if len(x) != len(y) || len(x) == 0 {
		return 0.0
	}
	if len(x) == 1 || xi <= x[0] {
		return y[0]
	}
	if xi >= x[len(x)-1] {
		return y[len(y)-1]
	}

	// first index with x >= xi; the interval is [right-1, right]
	right := sort.SearchFloat64s(x, xi)
	if x[right] == xi {
		return y[right]
	}
	left := right - 1

	t := (xi - x[left]) / (x[right] - x[left])
	return y[left] + t*(y[right]-y[left])
}

// InterpolateOnto resamples the curve (x, y) onto axis by linear
// interpolation, clamping outside x like Interpolate.
func InterpolateOnto(x, y, axis []float64) []float64 {
	out := make([]float64, len(axis))

	var pl interp.PiecewiseLinear
	if err := pl.Fit(x, y); err != nil {
		// fewer than two points or a non-increasing abscissa
		for i, xi := range axis {
			out[i] = Interpolate(x, y, xi)
		}
		return out
	}
	for i, xi := range axis {
		out[i] = pl.Predict(xi)
	}
	return out
}
