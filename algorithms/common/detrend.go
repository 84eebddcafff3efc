package common

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// NoDetrend disables polynomial detrending.
const NoDetrend = -1

// MaxDetrendOrder bounds the polynomial order accepted by Detrend.
const MaxDetrendOrder = 5

// Detrend removes the least-squares polynomial of the given order in t from
// x and returns the residual as a new slice. Order NoDetrend returns a copy,
// order 0 removes the mean.
func Detrend(t, x []float64, order int) ([]float64, error) {
	if len(t) != len(x) {
		return nil, fmt.Errorf("%w: %d abscissae for %d samples", ErrInvalidParameter, len(t), len(x))
	}
	if order < NoDetrend || order > MaxDetrendOrder {
		return nil, fmt.Errorf("%w: detrend order %d outside [%d, %d]",
			ErrInvalidParameter, order, NoDetrend, MaxDetrendOrder)
	}

	out := make([]float64, len(x))
	copy(out, x)

	if order == NoDetrend || len(x) == 0 {
		return out, nil
	}

	n := len(x)
	if n <= order {
		return nil, fmt.Errorf("%w: order %d detrend needs more than %d samples, got %d",
			ErrInsufficientData, order, order, n)
	}

	switch {
	case floats.Max(x) == floats.Min(x):
		// any polynomial fit reproduces a constant exactly
		return make([]float64, n), nil
	case order == 0:
		floats.AddConst(-Mean(x), out)
		return out, nil
	}

	// centre and scale the abscissa so the Vandermonde matrix stays well
	// conditioned for long recordings
	center := Mean(t)
	scale := (floats.Max(t) - floats.Min(t)) / 2
	if scale == 0 {
		scale = 1
	}

	a := mat.NewDense(n, order+1, nil)
	for i, ti := range t {
		u := (ti - center) / scale
		p := 1.0
		for j := 0; j <= order; j++ {
			a.Set(i, j, p)
			p *= u
		}
	}

	var coef mat.VecDense
	if err := coef.SolveVec(a, mat.NewVecDense(n, out)); err != nil {
		return nil, fmt.Errorf("polynomial detrend failed: %w", err)
	}

	var trend mat.VecDense
	trend.MulVec(a, &coef)
	for i := range out {
		out[i] -= trend.AtVec(i)
	}
	return out, nil
}

// DetrendUniform detrends uniformly sampled data, using the sample index as
// abscissa.
func DetrendUniform(x []float64, order int) ([]float64, error) {
	t := make([]float64, len(x))
	if len(x) > 1 {
		floats.Span(t, 0, float64(len(x)-1))
	}
	return Detrend(t, x, order)
}
