package spectral

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/interp"

	"github.com/RyanBlaney/latido/algorithms/common"
	"github.com/RyanBlaney/latido/rr"
)

// Uniform is a series resampled onto an evenly spaced time grid.
type Uniform struct {
	Times  []float64 `json:"times"`
	Values []float64 `json:"values"`
	Rate   float64   `json:"rate"`
}

// Resample interpolates the interval values of series onto a grid of
// config.Rate Hz starting at the first timestamp and ending at or before
// the last, so no sample is extrapolated.
func Resample(series rr.Series, config ResampleConfig) (*Uniform, error) {
	if err := config.validate(0); err != nil {
		return nil, err
	}
	if err := series.Validate(); err != nil {
		return nil, err
	}

	minPoints := 2
	if config.InterpolationOrder == 3 {
		minPoints = 4
	}
	if err := series.Require(minPoints); err != nil {
		return nil, fmt.Errorf("resampling with order %d: %w", config.InterpolationOrder, err)
	}

	predictor := newInterpolator(config.InterpolationOrder)
	if err := predictor.Fit(series.Times, series.Intervals); err != nil {
		return nil, fmt.Errorf("%w: interpolation fit failed: %v", common.ErrInvalidParameter, err)
	}

	t0 := series.Times[0]
	span := series.Times[series.Len()-1] - t0
	samples := int(math.Floor(span*config.Rate+1e-9)) + 1
	if samples < 2 {
		return nil, fmt.Errorf("%w: %v s at %v Hz yields %d samples",
			common.ErrInsufficientData, span, config.Rate, samples)
	}

	out := &Uniform{
		Times:  make([]float64, samples),
		Values: make([]float64, samples),
		Rate:   config.Rate,
	}
	step := 1 / config.Rate
	for i := range samples {
		ti := t0 + float64(i)*step
		out.Times[i] = ti
		out.Values[i] = predictor.Predict(ti)
	}
	return out, nil
}

func newInterpolator(order int) interp.FittablePredictor {
	switch order {
	case 0:
		return &interp.PiecewiseConstant{}
	case 3:
		return &interp.NaturalCubic{}
	default:
		return &interp.PiecewiseLinear{}
	}
}
