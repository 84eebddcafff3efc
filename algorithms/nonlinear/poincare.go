// Package nonlinear implements the nonlinear-dynamics HRV measures:
// Poincaré geometry, detrended fluctuation analysis and sample entropy.
package nonlinear

import (
	"fmt"
	"math"

	"github.com/RyanBlaney/latido/algorithms/common"
)

// PoincareConfig controls ellipse geometry and outlier detection
type PoincareConfig struct {
	SD1Scale        float64 `json:"sd1_scale"`        // semi-minor axis = SD1 * SD1Scale
	SD2Scale        float64 `json:"sd2_scale"`        // semi-major axis = SD2 * SD2Scale
	DeviationFactor float64 `json:"deviation_factor"` // outlier beyond this many semi-axes
}

// DefaultPoincareConfig returns the conventional one-SD ellipse and a
// three-SD outlier boundary.
func DefaultPoincareConfig() PoincareConfig {
	return PoincareConfig{
		SD1Scale:        1.0,
		SD2Scale:        1.0,
		DeviationFactor: 3.0,
	}
}

// Validate checks the configuration.
func (c PoincareConfig) Validate() error {
	if !(c.SD1Scale > 0) || !(c.SD2Scale > 0) {
		return fmt.Errorf("%w: poincare axis scales must be positive (%v, %v)",
			common.ErrInvalidParameter, c.SD1Scale, c.SD2Scale)
	}
	if !(c.DeviationFactor > 0) {
		return fmt.Errorf("%w: poincare deviation factor must be positive, got %v",
			common.ErrInvalidParameter, c.DeviationFactor)
	}
	return nil
}

// Ellipse is the fitted Poincaré ellipse. The major axis lies on the line of
// identity, so Rotation is always π/4.
type Ellipse struct {
	CenterX   float64 `json:"center_x"`
	CenterY   float64 `json:"center_y"`
	Rotation  float64 `json:"rotation"`
	SemiMinor float64 `json:"semi_minor"`
	SemiMajor float64 `json:"semi_major"`
}

// PoincareResult contains Poincaré plot geometry. Point i is
// (x[i], x[i+1]).
type PoincareResult struct {
	SD1     float64 `json:"sd1"`
	SD2     float64 `json:"sd2"`
	Ratio   float64 `json:"sd1_sd2_ratio"` // NaN when SD2 is zero
	Area    float64 `json:"area"`          // π·SD1·SD2
	Ellipse Ellipse `json:"ellipse"`

	// Residuals holds each point's distance from the centre in units of
	// the ellipse semi-axes, so the axis scales widen or narrow the
	// outlier boundary.
	Residuals []float64 `json:"residuals"`
	Outliers  []int     `json:"outliers"`

	Length int            `json:"length"`
	Config PoincareConfig `json:"config"`
}

// PoincareAnalyzer computes SD1/SD2 dispersion of successive intervals
type PoincareAnalyzer struct {
	config PoincareConfig
}

// NewPoincareAnalyzer creates a Poincaré analyzer
func NewPoincareAnalyzer(config PoincareConfig) (*PoincareAnalyzer, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &PoincareAnalyzer{config: config}, nil
}

// Analyze computes SD1, SD2, the ellipse and the outlying points of x.
func (p *PoincareAnalyzer) Analyze(x []float64) (*PoincareResult, error) {
	if len(x) < 2 {
		return nil, fmt.Errorf("%w: poincare needs at least 2 intervals, got %d",
			common.ErrInsufficientData, len(x))
	}

	// SD1² = ½·Var(Δ), SD2² = 2·Var(x) − SD1²
	sd1sq := 0.5 * common.Variance(common.Diff(x))
	sd2sq := 2*common.Variance(x) - sd1sq
	if sd2sq < 0 {
		// rounding on near-constant input
		sd2sq = 0
	}
	sd1, sd2 := math.Sqrt(sd1sq), math.Sqrt(sd2sq)

	mean := common.Mean(x)
	result := &PoincareResult{
		SD1:   sd1,
		SD2:   sd2,
		Ratio: math.NaN(),
		Area:  math.Pi * sd1 * sd2,
		Ellipse: Ellipse{
			CenterX:   mean,
			CenterY:   mean,
			Rotation:  math.Pi / 4,
			SemiMinor: sd1 * p.config.SD1Scale,
			SemiMajor: sd2 * p.config.SD2Scale,
		},
		Residuals: make([]float64, len(x)-1),
		Outliers:  []int{},
		Length:    len(x),
		Config:    p.config,
	}
	if sd2 > 0 {
		result.Ratio = sd1 / sd2
	}

	for i := 0; i+1 < len(x); i++ {
		// rotate onto the (perpendicular, along) identity-line frame
		u := (x[i+1] - x[i]) / math.Sqrt2
		v := (x[i]+x[i+1])/math.Sqrt2 - math.Sqrt2*mean

		r := math.Hypot(normalized(u, result.Ellipse.SemiMinor), normalized(v, result.Ellipse.SemiMajor))
		result.Residuals[i] = r
		if r > p.config.DeviationFactor {
			result.Outliers = append(result.Outliers, i)
		}
	}

	return result, nil
}

// normalized expresses a coordinate in units of axis. A zero-length axis
// tolerates only a zero coordinate.
func normalized(coord, axis float64) float64 {
	if axis > 0 {
		return coord / axis
	}
	if math.Abs(coord) < 1e-12 {
		return 0
	}
	return math.Inf(1)
}

// OutlyingIntervals maps outlying Poincaré points back to intervals: an
// interval is returned when every point it belongs to is outlying. End
// intervals belong to a single point.
func (r *PoincareResult) OutlyingIntervals() []int {
	n := r.Length
	bad := make([]bool, n-1)
	for _, pt := range r.Outliers {
		bad[pt] = true
	}

	out := []int{}
	for k := range n {
		prevBad := k == 0 || bad[k-1]
		nextBad := k == n-1 || bad[k]
		if prevBad && nextBad {
			out = append(out, k)
		}
	}
	return out
}
