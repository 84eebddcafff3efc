package nonlinear

import (
	"fmt"
	"math"

	"github.com/RyanBlaney/latido/algorithms/common"
	"github.com/RyanBlaney/latido/rr"
)

// DFAConfig holds box sizes and the two scaling ranges. Alpha ranges are
// inclusive ranges of box size (in beats).
type DFAConfig struct {
	MinBox       int          `json:"min_box"`
	MaxBox       int          `json:"max_box"`
	BoxIncrement int          `json:"box_increment"`
	Alpha1       common.Range `json:"alpha1"` // short-term
	Alpha2       common.Range `json:"alpha2"` // long-term
}

// DefaultDFAConfig returns the customary 4–16 / 16–64 beat ranges.
func DefaultDFAConfig() DFAConfig {
	return DFAConfig{
		MinBox:       4,
		MaxBox:       64,
		BoxIncrement: 1,
		Alpha1:       common.Range{Lo: 4, Hi: 16},
		Alpha2:       common.Range{Lo: 16, Hi: 64},
	}
}

// Validate checks the configuration.
func (c DFAConfig) Validate() error {
	// a box of two points is always fitted exactly by a line
	if c.MinBox < 3 {
		return fmt.Errorf("%w: dfa min box %d, must be at least 3", common.ErrInvalidParameter, c.MinBox)
	}
	if c.MaxBox < c.MinBox {
		return fmt.Errorf("%w: dfa max box %d below min box %d", common.ErrInvalidParameter, c.MaxBox, c.MinBox)
	}
	if c.BoxIncrement < 1 {
		return fmt.Errorf("%w: dfa box increment %d", common.ErrInvalidParameter, c.BoxIncrement)
	}
	if !c.Alpha1.Valid() {
		return fmt.Errorf("%w: dfa alpha1 range [%v, %v]", common.ErrInvalidParameter, c.Alpha1.Lo, c.Alpha1.Hi)
	}
	if !c.Alpha2.Valid() {
		return fmt.Errorf("%w: dfa alpha2 range [%v, %v]", common.ErrInvalidParameter, c.Alpha2.Lo, c.Alpha2.Hi)
	}
	return nil
}

// FluctuationRow is one (n, F(n)) entry of the DFA table
type FluctuationRow struct {
	BoxSize     int     `json:"box_size"`
	Windows     int     `json:"windows"`
	Fluctuation float64 `json:"fluctuation"`
	// Included is false for boxes with fewer than two windows or zero
	// fluctuation; those rows never enter a fit.
	Included bool `json:"included"`
}

// DFAResult contains the fluctuation table and both scaling exponents
type DFAResult struct {
	Table  []FluctuationRow  `json:"table"`
	Alpha1 common.ScalingFit `json:"alpha1"`
	Alpha2 common.ScalingFit `json:"alpha2"`

	// Degenerate is set when no row has a usable fluctuation, as for a
	// constant series.
	Degenerate bool      `json:"degenerate"`
	Length     int       `json:"length"`
	Config     DFAConfig `json:"config"`
}

// DFA performs detrended fluctuation analysis.
//
// References:
//   - Peng, C.-K., et al. (1995). "Quantification of scaling exponents and
//     crossover phenomena in nonstationary heartbeat time series"
type DFA struct {
	config DFAConfig
}

// NewDFA creates a DFA analyzer
func NewDFA(config DFAConfig) (*DFA, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &DFA{config: config}, nil
}

// Analyze computes F(n) over the configured box sizes and fits α1 and α2.
func (d *DFA) Analyze(series rr.Series) (*DFAResult, error) {
	x := series.Intervals
	if len(x) < d.config.MinBox {
		return nil, fmt.Errorf("%w: dfa needs at least one box of %d intervals, got %d",
			common.ErrInsufficientData, d.config.MinBox, len(x))
	}

	profile := common.Profile(x)

	result := &DFAResult{
		Length: len(x),
		Config: d.config,
		Table:  []FluctuationRow{},
	}

	var ns, fs []float64
	for n := d.config.MinBox; n <= d.config.MaxBox && n <= len(x); n += d.config.BoxIncrement {
		row := FluctuationRow{
			BoxSize:     n,
			Windows:     len(x) / n,
			Fluctuation: Fluctuation(profile, n),
		}
		row.Included = row.Windows >= 2 && row.Fluctuation > 0
		result.Table = append(result.Table, row)

		if row.Included {
			ns = append(ns, float64(n))
			fs = append(fs, row.Fluctuation)
		}
	}

	result.Degenerate = len(ns) == 0
	result.Alpha1 = common.FitLogLog(ns, fs, d.config.Alpha1)
	result.Alpha2 = common.FitLogLog(ns, fs, d.config.Alpha2)

	return result, nil
}

// Fluctuation returns F(n): the root-mean-square residual of the profile
// after removing a least-squares line from each non-overlapping window of
// length n. Returns NaN when the profile holds no full window.
func Fluctuation(profile []float64, n int) float64 {
	if n < 1 || len(profile) < n {
		return math.NaN()
	}
	windows := len(profile) / n

	ss := 0.0
	for w := range windows {
		ss += common.LinearResidualSS(profile[w*n : (w+1)*n])
	}
	return math.Sqrt(ss / float64(windows*n))
}
