package spectral

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/RyanBlaney/latido/algorithms/common"
)

// ARModel is an all-pole model x[n] = Σ a_k·x[n-k] + e[n] fitted by the
// Yule-Walker equations.
type ARModel struct {
	Coefficients    []float64 `json:"coefficients"`     // a_1..a_p
	ReflectionCoeff []float64 `json:"reflection_coeff"` // k_1..k_p
	NoiseVariance   float64   `json:"noise_variance"`   // σ² of e[n]
	Order           int       `json:"order"`
}

// FitYuleWalker fits an AR model of the given order from the biased
// autocorrelation of the de-meaned series.
func FitYuleWalker(x []float64, order int) (*ARModel, error) {
	if order < 1 {
		return nil, fmt.Errorf("%w: AR order %d", common.ErrInvalidParameter, order)
	}
	if len(x) <= order {
		return nil, fmt.Errorf("%w: AR order %d needs more than %d samples, got %d",
			common.ErrInsufficientData, order, order, len(x))
	}

	r := autocorrelation(x, order)
	return levinsonDurbin(r, order), nil
}

// autocorrelation returns the biased estimates r[0..maxLag] of the
// de-meaned series.
func autocorrelation(x []float64, maxLag int) []float64 {
	r := make([]float64, maxLag+1)
	if common.PopulationVariance(x) == 0 {
		return r
	}

	n := len(x)
	mean := common.Mean(x)
	centered := make([]float64, n)
	for i, v := range x {
		centered[i] = v - mean
	}

	for lag := 0; lag <= maxLag; lag++ {
		sum := 0.0
		for i := lag; i < n; i++ {
			sum += centered[i] * centered[i-lag]
		}
		r[lag] = sum / float64(n)
	}
	return r
}

// levinsonDurbin solves the Toeplitz normal equations in O(p²). A zero
// energy input yields the all-zero model; the recursion stops early once
// the prediction error vanishes.
func levinsonDurbin(r []float64, order int) *ARModel {
	model := &ARModel{
		Coefficients:    make([]float64, order),
		ReflectionCoeff: make([]float64, order),
		Order:           order,
	}
	if r[0] == 0 {
		return model
	}

	a := make([]float64, order+1) // a[0] unused
	prev := make([]float64, order+1)
	energy := r[0]

	for i := 1; i <= order; i++ {
		acc := r[i]
		for j := 1; j < i; j++ {
			acc -= a[j] * r[i-j]
		}
		k := acc / energy

		copy(prev, a)
		a[i] = k
		for j := 1; j < i; j++ {
			a[j] = prev[j] - k*prev[i-j]
		}

		model.ReflectionCoeff[i-1] = k
		energy *= 1 - k*k
		if energy <= 0 {
			energy = 0
			break
		}
	}

	copy(model.Coefficients, a[1:])
	model.NoiseVariance = energy
	return model
}

// PSD evaluates the one-sided model spectrum 2σ²/(fs·|1 - Σ a_k e^{-i2πfk/fs}|²)
// at the given frequencies.
func (m *ARModel) PSD(freqs []float64, fs float64) []float64 {
	out := make([]float64, len(freqs))
	if m.NoiseVariance == 0 {
		return out
	}
	for i, f := range freqs {
		w := 2 * math.Pi * f / fs
		denom := complex(1, 0)
		for k, a := range m.Coefficients {
			denom -= complex(a, 0) * cmplx.Exp(complex(0, -w*float64(k+1)))
		}
		mag := cmplx.Abs(denom)
		out[i] = 2 * m.NoiseVariance / (fs * mag * mag)
	}
	return out
}

// YuleWalker estimates the PSD of the uniformly sampled series x through
// an AR model of config.Order, evaluated on FFTSize/2+1 points from 0 to
// fs/2.
//
// References:
//   - Kay, S.M., Marple, S.L. (1981). "Spectrum analysis: a modern
//     perspective"
//   - Boardman, A. et al. (2002). "A study on the optimum order of
//     autoregressive models for heart rate variability"
func YuleWalker(x []float64, fs float64, config ARConfig) (*Estimate, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}
	if !(fs > 0) {
		return nil, fmt.Errorf("%w: sample rate %v", common.ErrInvalidParameter, fs)
	}

	model, err := FitYuleWalker(x, config.Order)
	if err != nil {
		return nil, err
	}

	points := config.FFTSize/2 + 1
	df := fs / float64(config.FFTSize)
	freqs := make([]float64, points)
	for i := range freqs {
		freqs[i] = float64(i) * df
	}

	variance := common.PopulationVariance(x)
	return &Estimate{
		Method:              MethodAR,
		Frequencies:         freqs,
		Power:               model.PSD(freqs, fs),
		Resolution:          df,
		SampleRate:          fs,
		DetrendOrder:        common.NoDetrend,
		SegmentDetrendOrder: common.NoDetrend,
		SeriesLength:        len(x),
		Variance:            variance,
		Order:               config.Order,
		Degenerate:          variance == 0,
	}, nil
}
