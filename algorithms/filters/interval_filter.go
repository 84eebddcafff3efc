package filters

import (
	"fmt"
	"math"

	"github.com/RyanBlaney/latido/algorithms/common"
	"github.com/RyanBlaney/latido/algorithms/nonlinear"
	"github.com/RyanBlaney/latido/rr"
)

// FilterConfig selects and tunes the artifact-rejection stages. Every stage
// can be toggled on its own.
type FilterConfig struct {
	EnableRange    bool `json:"enable_range"`
	EnableQuotient bool `json:"enable_quotient"`
	EnableLowPass  bool `json:"enable_lowpass"`
	EnablePoincare bool `json:"enable_poincare"`

	// Plausible interval bounds in seconds. Species dependent.
	MinInterval float64 `json:"min_interval"`
	MaxInterval float64 `json:"max_interval"`

	// MaxPercentChange is the quotient band: an interval may differ from
	// its accepted predecessor by at most this percentage.
	MaxPercentChange float64 `json:"max_percent_change"`
	// LevelChangeBeats is how many consecutive intervals must hold an
	// out-of-band level before it counts as a rate change rather than a
	// missed or extra beat.
	LevelChangeBeats int `json:"level_change_beats"`

	// The low-pass window is the larger of WindowSamples and WindowPercent
	// of the surviving intervals.
	WindowSamples int     `json:"window_samples"`
	WindowPercent float64 `json:"window_percent"`
	// LowPassPercent is the allowed deviation from the local mean.
	LowPassPercent float64 `json:"lowpass_percent"`

	Poincare nonlinear.PoincareConfig `json:"poincare"`
}

// DefaultFilterConfig returns human adult defaults with the Poincaré
// cross-check off.
func DefaultFilterConfig() FilterConfig {
	return FilterConfig{
		EnableRange:      true,
		EnableQuotient:   true,
		EnableLowPass:    true,
		EnablePoincare:   false,
		MinInterval:      0.3,
		MaxInterval:      2.0,
		MaxPercentChange: 20,
		LevelChangeBeats: 3,
		WindowSamples:    20,
		WindowPercent:    0,
		LowPassPercent:   20,
		Poincare:         nonlinear.DefaultPoincareConfig(),
	}
}

// Validate checks the configuration of the enabled stages.
func (c FilterConfig) Validate() error {
	if c.EnableRange {
		if c.MinInterval < 0 || !(c.MinInterval < c.MaxInterval) {
			return fmt.Errorf("%w: interval range [%v, %v]", common.ErrInvalidParameter, c.MinInterval, c.MaxInterval)
		}
	}
	if c.EnableQuotient {
		if !(c.MaxPercentChange > 0) || c.MaxPercentChange >= 100 {
			return fmt.Errorf("%w: quotient max percent change %v outside (0, 100)",
				common.ErrInvalidParameter, c.MaxPercentChange)
		}
		if c.LevelChangeBeats < 2 {
			return fmt.Errorf("%w: level change needs at least 2 beats, got %d",
				common.ErrInvalidParameter, c.LevelChangeBeats)
		}
	}
	if c.EnableLowPass {
		if c.WindowSamples < 0 || c.WindowPercent < 0 || c.WindowPercent > 100 {
			return fmt.Errorf("%w: low-pass window %d samples / %v%%",
				common.ErrInvalidParameter, c.WindowSamples, c.WindowPercent)
		}
		if c.WindowSamples < 2 && c.WindowPercent == 0 {
			return fmt.Errorf("%w: low-pass window needs at least 2 samples or a percentage",
				common.ErrInvalidParameter)
		}
		if !(c.LowPassPercent > 0) {
			return fmt.Errorf("%w: low-pass deviation %v%%", common.ErrInvalidParameter, c.LowPassPercent)
		}
	}
	if c.EnablePoincare {
		if err := c.Poincare.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// FilterResult is the cleaned (NN) series and the record of what was
// removed, expressed against the indices of the raw input.
type FilterResult struct {
	Series rr.Series   `json:"series"`
	Kept   []int       `json:"kept"`
	Mask   OutlierMask `json:"mask"`

	// LocalAverages holds the low-pass window evaluated for each interval
	// that reached that stage. Start indexes the raw series.
	LocalAverages []common.WindowStat `json:"local_averages"`

	// Poincare is the geometry used by the Poincaré stage, when it ran
	Poincare *nonlinear.PoincareResult `json:"poincare,omitempty"`

	InputLength int          `json:"input_length"`
	Config      FilterConfig `json:"config"`
}

// Removed returns the number of rejected intervals.
func (r *FilterResult) Removed() int {
	return r.InputLength - len(r.Kept)
}

// Sufficient returns ErrInsufficientData when fewer than min intervals (at
// least 2) survived filtering.
func (r *FilterResult) Sufficient(min int) error {
	if min < 2 {
		min = 2
	}
	if len(r.Kept) < min {
		return fmt.Errorf("%w: %d of %d intervals survived filtering, need %d",
			common.ErrInsufficientData, len(r.Kept), r.InputLength, min)
	}
	return nil
}

// IntervalFilter removes implausible and outlying RR intervals.
//
// Stages run in a fixed order and each one narrows the candidates seen by
// the next: range and quotient on raw indices, low-pass on their
// survivors, Poincaré on what low-pass kept. Timestamps are re-anchored
// once at the end.
type IntervalFilter struct {
	config   FilterConfig
	poincare *nonlinear.PoincareAnalyzer
}

// NewIntervalFilter creates an interval filter
func NewIntervalFilter(config FilterConfig) (*IntervalFilter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	f := &IntervalFilter{config: config}
	if config.EnablePoincare {
		p, err := nonlinear.NewPoincareAnalyzer(config.Poincare)
		if err != nil {
			return nil, err
		}
		f.poincare = p
	}
	return f, nil
}

// Filter runs the enabled stages over series and returns the NN series.
func (f *IntervalFilter) Filter(series rr.Series) (*FilterResult, error) {
	if err := series.Validate(); err != nil {
		return nil, err
	}

	x := series.Intervals
	mask := NewOutlierMask(len(x))
	result := &FilterResult{
		InputLength:   len(x),
		Config:        f.config,
		LocalAverages: []common.WindowStat{},
	}

	if f.config.EnableRange {
		for i, v := range x {
			if v < f.config.MinInterval || v > f.config.MaxInterval {
				mask.Flag(i, CriterionRange)
			}
		}
	}

	if f.config.EnableQuotient {
		f.quotient(x, mask)
	}

	if f.config.EnableLowPass {
		result.LocalAverages = f.lowPass(x, mask.Unflagged(), mask)
	}

	if f.config.EnablePoincare {
		res, err := f.poincareStage(x, mask.Unflagged(), mask)
		if err != nil {
			return nil, err
		}
		result.Poincare = res
	}

	result.Mask = mask
	result.Kept = mask.Unflagged()
	result.Series = series.Subset(result.Kept)
	return result, nil
}

// quotient flags abrupt excursions. Each interval is compared with the
// last accepted one. An out-of-band interval is kept as a new reference
// only when it opens a run of LevelChangeBeats intervals that agree with
// each other and all leave the band of the old reference. Split or merged
// beats (one extra beat, one or two missed beats) never last that long.
func (f *IntervalFilter) quotient(x []float64, mask OutlierMask) {
	q := f.config.MaxPercentChange / 100
	outside := func(v, ref float64) bool {
		ratio := v / ref
		return ratio < 1-q || ratio > 1+q
	}

	idx := mask.Unflagged()
	if len(idx) < 2 {
		return
	}

	persists := func(k int, ref float64) bool {
		if k+f.config.LevelChangeBeats > len(idx) {
			return false
		}
		level := x[idx[k]]
		for j := k + 1; j < k+f.config.LevelChangeBeats; j++ {
			next := x[idx[j]]
			if outside(next, level) || !outside(next, ref) {
				return false
			}
			level = next
		}
		return true
	}

	// the first interval has no predecessor: judge it against the pair
	// that follows
	start := 0
	ref := x[idx[0]]
	if len(idx) >= 3 && outside(x[idx[0]], x[idx[1]]) && !outside(x[idx[2]], x[idx[1]]) {
		mask.Flag(idx[0], CriterionQuotient)
		ref = x[idx[1]]
		start = 1
	}

	for k := start + 1; k < len(idx); k++ {
		v := x[idx[k]]
		if !outside(v, ref) || persists(k, ref) {
			ref = v
			continue
		}
		mask.Flag(idx[k], CriterionQuotient)
	}
}

// lowPass compares each surviving interval with the mean of its
// neighbourhood among the survivors and returns the windows it evaluated.
func (f *IntervalFilter) lowPass(x []float64, survivors []int, mask OutlierMask) []common.WindowStat {
	stats := make([]common.WindowStat, 0, len(survivors))
	if len(survivors) < 2 {
		return stats
	}

	values := make([]float64, len(survivors))
	for k, i := range survivors {
		values[k] = x[i]
	}

	w := common.WindowLength(f.config.WindowSamples, f.config.WindowPercent, len(values))
	if w < 2 {
		return stats
	}
	limit := f.config.LowPassPercent / 100

	for k, v := range values {
		st := common.CenteredMean(values, k, w)
		if !math.IsNaN(st.Value) && math.Abs(v-st.Value) > limit*st.Value {
			mask.Flag(survivors[k], CriterionLowPass)
		}
		st.Start = survivors[st.Start]
		stats = append(stats, st)
	}
	return stats
}

// poincareStage flags intervals lying outside the Poincaré deviation
// ellipse of the remaining series.
func (f *IntervalFilter) poincareStage(x []float64, survivors []int, mask OutlierMask) (*nonlinear.PoincareResult, error) {
	if len(survivors) < 3 {
		return nil, nil
	}

	values := make([]float64, len(survivors))
	for k, i := range survivors {
		values[k] = x[i]
	}

	res, err := f.poincare.Analyze(values)
	if err != nil {
		return nil, fmt.Errorf("poincare stage failed: %w", err)
	}
	for _, k := range res.OutlyingIntervals() {
		mask.Flag(survivors[k], CriterionPoincare)
	}
	return res, nil
}
