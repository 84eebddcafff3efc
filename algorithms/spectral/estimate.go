package spectral

import (
	"gonum.org/v1/gonum/integrate"

	"github.com/RyanBlaney/latido/algorithms/common"
)

// Estimate is a one-sided power spectral density in s²/Hz together with
// the parameters that produced it.
type Estimate struct {
	Method      Method    `json:"method"`
	Frequencies []float64 `json:"frequencies"` // Hz, ascending
	Power       []float64 `json:"power"`

	// Resolution is the native frequency spacing of the estimator, kept
	// when the estimate is moved onto another axis.
	Resolution float64 `json:"resolution"`
	SampleRate float64 `json:"sample_rate,omitempty"` // 0 for Lomb-Scargle

	// DetrendOrder is the polynomial removed from the whole series before
	// estimation. SegmentDetrendOrder is removed again from each Welch
	// segment; common.NoDetrend for the other methods.
	DetrendOrder        int `json:"detrend_order"`
	SegmentDetrendOrder int `json:"segment_detrend_order"`
	SeriesLength        int `json:"series_length"`

	// Variance is the population variance of the series the estimator
	// consumed; the full-axis integral of Power approximates it.
	Variance float64 `json:"variance"`

	Order        int  `json:"order,omitempty"`    // AR model order
	Segments     int  `json:"segments,omitempty"` // Welch segments averaged
	Interpolated bool `json:"interpolated"`       // moved onto the Lomb axis

	// Degenerate marks a zero-variance input, whose PSD is identically 0
	Degenerate bool `json:"degenerate"`
}

// Integral returns the trapezoidal integral of the PSD over its whole axis.
func (e *Estimate) Integral() float64 {
	if len(e.Frequencies) < 2 {
		return 0
	}
	return integrate.Trapezoidal(e.Frequencies, e.Power)
}

// Onto returns a copy of the estimate linearly interpolated onto axis.
func (e *Estimate) Onto(axis []float64) *Estimate {
	out := *e
	out.Frequencies = append([]float64(nil), axis...)
	out.Power = common.InterpolateOnto(e.Frequencies, e.Power, axis)
	out.Interpolated = true
	return &out
}
