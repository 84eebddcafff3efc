package nonlinear

import (
	"fmt"
	"math"

	"github.com/RyanBlaney/latido/algorithms/common"
)

// EntropyConfig holds sample entropy parameters
type EntropyConfig struct {
	M        int     `json:"m"`         // template length
	R        float64 `json:"r"`         // tolerance as a fraction of the series SD
	MaxScale int     `json:"max_scale"` // largest MSE coarse-graining factor
}

// DefaultEntropyConfig returns m = 2, r = 0.15·SD and scales 1..20.
func DefaultEntropyConfig() EntropyConfig {
	return EntropyConfig{
		M:        2,
		R:        0.15,
		MaxScale: 20,
	}
}

// Validate checks the configuration.
func (c EntropyConfig) Validate() error {
	if c.M < 0 {
		return fmt.Errorf("%w: template length m = %d", common.ErrInvalidParameter, c.M)
	}
	if c.R < 0 || math.IsNaN(c.R) || math.IsInf(c.R, 0) {
		return fmt.Errorf("%w: tolerance r = %v", common.ErrInvalidParameter, c.R)
	}
	if c.MaxScale < 1 {
		return fmt.Errorf("%w: max scale %d, must be at least 1", common.ErrInvalidParameter, c.MaxScale)
	}
	return nil
}

// SampleEntropyResult contains a single-scale sample entropy estimate
type SampleEntropyResult struct {
	// Value is -ln(A/B); +Inf when A = 0 < B and NaN when B = 0
	Value float64 `json:"value"`
	A     int64   `json:"a"` // matching template pairs of length m+1
	B     int64   `json:"b"` // matching template pairs of length m

	M         int     `json:"m"`
	Tolerance float64 `json:"tolerance"` // absolute r
	Length    int     `json:"length"`

	// Degenerate marks an undefined ratio (A or B zero)
	Degenerate bool `json:"degenerate"`
}

// ScaleEntropy is one point of a multiscale entropy profile
type ScaleEntropy struct {
	Scale   int                 `json:"scale"`
	Entropy SampleEntropyResult `json:"entropy"`
}

// EntropyProfile is the (scale, entropy) curve produced by MSE
type EntropyProfile struct {
	Scales    []ScaleEntropy `json:"scales"`
	M         int            `json:"m"`
	R         float64        `json:"r"`         // relative tolerance
	Tolerance float64        `json:"tolerance"` // absolute r, fixed across scales
	Length    int            `json:"length"`
}

// Values returns the entropy value at each scale.
func (p *EntropyProfile) Values() []float64 {
	out := make([]float64, len(p.Scales))
	for i, s := range p.Scales {
		out[i] = s.Entropy.Value
	}
	return out
}

// SampleEntropy computes sample entropy of x with the configured m and r.
//
// References:
//   - Richman, J.S., Moorman, J.R. (2000). "Physiological time-series
//     analysis using approximate entropy and sample entropy"
//   - Costa, M., Goldberger, A.L., Peng, C.-K. (2002). "Multiscale entropy
//     analysis of complex physiologic time series"
func SampleEntropy(x []float64, config EntropyConfig) (*SampleEntropyResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if len(x) < config.M+1 {
		return nil, fmt.Errorf("%w: sample entropy with m = %d needs at least %d points, got %d",
			common.ErrInsufficientData, config.M, config.M+1, len(x))
	}

	tolerance := config.R * common.StandardDeviation(x)
	res := sampleEntropyAbs(x, config.M, tolerance)
	return &res, nil
}

// MultiscaleEntropy computes sample entropy of x coarse-grained at scales
// 1..MaxScale. The absolute tolerance is derived once from the SD of the
// original series so that scales stay comparable. Scales whose
// coarse-grained series is too short are reported degenerate.
func MultiscaleEntropy(x []float64, config EntropyConfig) (*EntropyProfile, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if len(x) < config.M+1 {
		return nil, fmt.Errorf("%w: multiscale entropy with m = %d needs at least %d points, got %d",
			common.ErrInsufficientData, config.M, config.M+1, len(x))
	}

	tolerance := config.R * common.StandardDeviation(x)
	profile := &EntropyProfile{
		Scales:    make([]ScaleEntropy, 0, config.MaxScale),
		M:         config.M,
		R:         config.R,
		Tolerance: tolerance,
		Length:    len(x),
	}

	for scale := 1; scale <= config.MaxScale; scale++ {
		grained := CoarseGrain(x, scale)

		var res SampleEntropyResult
		if len(grained) < config.M+1 {
			res = SampleEntropyResult{
				Value:      math.NaN(),
				M:          config.M,
				Tolerance:  tolerance,
				Length:     len(grained),
				Degenerate: true,
			}
		} else {
			res = sampleEntropyAbs(grained, config.M, tolerance)
		}
		profile.Scales = append(profile.Scales, ScaleEntropy{Scale: scale, Entropy: res})
	}

	return profile, nil
}

// CoarseGrain averages consecutive non-overlapping blocks of length scale.
// A trailing partial block is dropped; scale 1 returns a copy.
func CoarseGrain(x []float64, scale int) []float64 {
	if scale < 1 {
		return []float64{}
	}

	out := make([]float64, len(x)/scale)
	for i := range out {
		sum := 0.0
		for _, v := range x[i*scale : (i+1)*scale] {
			sum += v
		}
		out[i] = sum / float64(scale)
	}
	return out
}

// sampleEntropyAbs counts template matches with absolute tolerance r.
// Both template lengths use the first N-m start positions so that A and B
// are drawn from the same pairs. Two templates match when their Chebyshev
// distance is strictly below r. Comparisons stream pair by pair and stop
// at the first coordinate that exceeds r, so memory stays O(1).
func sampleEntropyAbs(x []float64, m int, r float64) SampleEntropyResult {
	n := len(x)
	templates := n - m

	var a, b int64
	if m == 0 {
		// every pair of empty templates matches
		b = int64(n) * int64(n-1) / 2
	}

	for i := 0; i < templates; i++ {
		for j := i + 1; j < templates; j++ {
			k := 0
			for k < m && math.Abs(x[i+k]-x[j+k]) < r {
				k++
			}
			if k < m {
				continue
			}
			if m > 0 {
				b++
			}
			if math.Abs(x[i+m]-x[j+m]) < r {
				a++
			}
		}
	}

	res := SampleEntropyResult{
		A:         a,
		B:         b,
		M:         m,
		Tolerance: r,
		Length:    n,
	}

	switch {
	case b == 0:
		res.Value = math.NaN()
		res.Degenerate = true
	case a == 0:
		res.Value = math.Inf(1)
		res.Degenerate = true
	default:
		res.Value = -math.Log(float64(a) / float64(b))
	}
	return res
}
