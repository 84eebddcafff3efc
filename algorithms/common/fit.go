package common

import (
	"math"
)

// Range is an inclusive [Lo, Hi] interval on some axis (box size,
// frequency).
type Range struct {
	Lo float64 `json:"lo"`
	Hi float64 `json:"hi"`
}

// Contains reports whether v lies within the closed range.
func (r Range) Contains(v float64) bool {
	return v >= r.Lo && v <= r.Hi
}

// Valid reports whether the range is non-empty and non-negative.
func (r Range) Valid() bool {
	return r.Lo >= 0 && r.Lo < r.Hi && !math.IsInf(r.Hi, 0)
}

// ScalingFit is a straight line fitted in log10-log10 space over a range of
// the abscissa.
type ScalingFit struct {
	Slope      float64 `json:"slope"`
	Intercept  float64 `json:"intercept"`
	RSquared   float64 `json:"r_squared"`
	Points     int     `json:"points"`
	Range      Range   `json:"range"`
	Degenerate bool    `json:"degenerate"` // fewer than two usable points
}

// FitLogLog fits log10(y) against log10(x) for the points whose x lies in
// r. Points with non-positive or non-finite coordinates are skipped. A fit
// with fewer than two usable points is returned flagged Degenerate with a
// NaN slope.
func FitLogLog(x, y []float64, r Range) ScalingFit {
	var lx, ly []float64
	for i := range x {
		if i >= len(y) || !r.Contains(x[i]) {
			continue
		}
		if !(x[i] > 0) || !(y[i] > 0) || math.IsInf(x[i], 0) || math.IsInf(y[i], 0) {
			continue
		}
		lx = append(lx, math.Log10(x[i]))
		ly = append(ly, math.Log10(y[i]))
	}

	fit := ScalingFit{Points: len(lx), Range: r}
	if len(lx) < 2 || allEqual(lx) {
		fit.Slope = math.NaN()
		fit.Intercept = math.NaN()
		fit.Degenerate = true
		return fit
	}

	fit.Slope, fit.Intercept, fit.RSquared = LinRegression(lx, ly)
	return fit
}

func allEqual(data []float64) bool {
	for _, v := range data[1:] {
		if v != data[0] {
			return false
		}
	}
	return true
}
