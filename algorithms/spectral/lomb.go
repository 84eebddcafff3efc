package spectral

import (
	"fmt"
	"math"

	"github.com/RyanBlaney/latido/algorithms/common"
)

// LombScargle computes the Lomb-Scargle periodogram of y sampled at the
// nonuniform times t, scaled as a one-sided PSD whose integral equals the
// variance of y.
//
// The axis is k·Δf for k ≥ 1 with Δf = 1/(ofac·T), where T = span·N/(N-1)
// is the effective record length, up to MaxFrequency or the average
// Nyquist frequency N/(2T).
//
// References:
//   - Lomb, N.R. (1976). "Least-squares frequency analysis of unequally
//     spaced data"
//   - Scargle, J.D. (1982). "Studies in astronomical time series analysis.
//     II"
//   - Press, W.H. et al. Numerical Recipes, §13.8
func LombScargle(t, y []float64, config LombConfig) (*Estimate, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}
	if len(t) != len(y) {
		return nil, fmt.Errorf("%w: %d timestamps for %d samples", common.ErrInvalidParameter, len(t), len(y))
	}
	n := len(y)
	if n < 2 {
		return nil, fmt.Errorf("%w: lomb-scargle needs at least 2 samples, got %d", common.ErrInsufficientData, n)
	}

	span := t[n-1] - t[0]
	if !(span > 0) {
		return nil, fmt.Errorf("%w: timestamps span %v", common.ErrInvalidParameter, span)
	}
	T := span * float64(n) / float64(n-1)
	df := 1 / (config.Oversampling * T)

	fmax := config.MaxFrequency
	if fmax == 0 {
		fmax = float64(n) / (2 * T)
	}
	bins := int(math.Floor(fmax/df + 1e-9))
	if bins < 1 {
		return nil, fmt.Errorf("%w: max frequency %v below resolution %v", common.ErrInvalidParameter, fmax, df)
	}

	mean := common.Mean(y)
	centered := make([]float64, n)
	for i, v := range y {
		centered[i] = v - mean
	}
	variance := common.PopulationVariance(y)

	est := &Estimate{
		Method:              MethodLomb,
		Frequencies:         make([]float64, bins),
		Power:               make([]float64, bins),
		Resolution:          df,
		DetrendOrder:        common.NoDetrend,
		SegmentDetrendOrder: common.NoDetrend,
		SeriesLength:        n,
		Variance:            variance,
		Degenerate:          variance == 0,
	}

	scale := 2 * T / float64(n)
	for k := range bins {
		f := float64(k+1) * df
		est.Frequencies[k] = f
		if est.Degenerate {
			continue
		}
		est.Power[k] = scale * lombPower(t, centered, 2*math.Pi*f)
	}
	return est, nil
}

// lombPower evaluates the classical normalised periodogram
// ½[(Σy·c)²/Σc² + (Σy·s)²/Σs²] at angular frequency w, with the phase
// offset τ that makes it invariant to time shifts.
func lombPower(t, y []float64, w float64) float64 {
	var s2, c2 float64
	for _, ti := range t {
		s, c := math.Sincos(2 * w * ti)
		s2 += s
		c2 += c
	}
	tau := math.Atan2(s2, c2) / (2 * w)

	var yc, ys, cc, ss float64
	for i, ti := range t {
		s, c := math.Sincos(w * (ti - tau))
		yc += y[i] * c
		ys += y[i] * s
		cc += c * c
		ss += s * s
	}

	floor := 1e-12 * float64(len(t))
	p := 0.0
	if cc > floor {
		p += yc * yc / cc
	}
	if ss > floor {
		p += ys * ys / ss
	}
	return p / 2
}
