package spectral

import (
	"fmt"
	"math"

	"github.com/RyanBlaney/latido/algorithms/common"
	"github.com/RyanBlaney/latido/algorithms/windowing"
)

// Method names a PSD estimator.
type Method string

const (
	MethodLomb  Method = "lomb"
	MethodAR    Method = "ar"
	MethodWelch Method = "welch"
)

func (m Method) valid() bool {
	switch m {
	case MethodLomb, MethodAR, MethodWelch:
		return true
	}
	return false
}

// Band is a named frequency band in Hz. Power is integrated over
// [Low, High).
type Band struct {
	Name string  `json:"name"`
	Low  float64 `json:"low"`
	High float64 `json:"high"`
}

// Validate checks that the band is non-empty and non-negative.
func (b Band) Validate() error {
	if b.Low < 0 || !(b.Low < b.High) || math.IsInf(b.High, 0) {
		return fmt.Errorf("%w: band %q [%v, %v)", common.ErrInvalidParameter, b.Name, b.Low, b.High)
	}
	return nil
}

func (b Band) asRange() common.Range {
	return common.Range{Lo: b.Low, Hi: b.High}
}

// Standard short-term HRV bands.
var (
	BandVLF = Band{Name: "VLF", Low: 0.0033, High: 0.04}
	BandLF  = Band{Name: "LF", Low: 0.04, High: 0.15}
	BandHF  = Band{Name: "HF", Low: 0.15, High: 0.4}
)

// LombConfig parameterises the Lomb-Scargle periodogram.
type LombConfig struct {
	// Oversampling is the number of frequencies per 1/T.
	Oversampling float64 `json:"oversampling"`
	// MaxFrequency bounds the axis; 0 means the average Nyquist frequency.
	MaxFrequency float64 `json:"max_frequency"`
}

// ResampleConfig controls the uniform grid used by AR and Welch.
type ResampleConfig struct {
	Rate float64 `json:"rate"` // Hz
	// InterpolationOrder is 0 (step), 1 (linear) or 3 (natural cubic).
	InterpolationOrder int `json:"interpolation_order"`
}

// ARConfig parameterises the Yule-Walker estimator.
type ARConfig struct {
	Order   int `json:"order"`
	FFTSize int `json:"fft_size"` // evaluates the PSD on FFTSize/2+1 points
}

// WelchConfig parameterises the averaged periodogram.
type WelchConfig struct {
	SegmentLength int            `json:"segment_length"` // samples
	Overlap       float64        `json:"overlap"`        // fraction in [0, 1)
	DetrendOrder  int            `json:"detrend_order"`  // per segment, -1 disables
	Window        windowing.Type `json:"window"`
}

// SpectralConfig selects the estimators and the post-processing shared by
// all of them.
type SpectralConfig struct {
	Methods []Method `json:"methods"`
	Bands   []Band   `json:"bands"`

	// DetrendOrder is the polynomial removed from the series before any
	// estimation; -1 disables it.
	DetrendOrder int `json:"detrend_order"`

	Lomb     LombConfig     `json:"lomb"`
	Resample ResampleConfig `json:"resample"`
	AR       ARConfig       `json:"ar"`
	Welch    WelchConfig    `json:"welch"`

	BetaBand   Band   `json:"beta_band"`
	BetaMethod Method `json:"beta_method"`
}

// DefaultSpectralConfig runs all three estimators with the standard bands.
func DefaultSpectralConfig() SpectralConfig {
	return SpectralConfig{
		Methods:      []Method{MethodLomb, MethodAR, MethodWelch},
		Bands:        []Band{BandVLF, BandLF, BandHF},
		DetrendOrder: 1,
		Lomb: LombConfig{
			Oversampling: 4,
			MaxFrequency: 0.5,
		},
		Resample: ResampleConfig{
			Rate:               4,
			InterpolationOrder: 3,
		},
		AR: ARConfig{
			Order:   16,
			FFTSize: 1024,
		},
		Welch: WelchConfig{
			SegmentLength: 256,
			Overlap:       0.5,
			DetrendOrder:  1,
			Window:        windowing.TypeHann,
		},
		BetaBand:   Band{Name: "beta", Low: 0.0033, High: 0.04},
		BetaMethod: MethodLomb,
	}
}

// Has reports whether method m is selected.
func (c SpectralConfig) Has(m Method) bool {
	for _, sel := range c.Methods {
		if sel == m {
			return true
		}
	}
	return false
}

func (c SpectralConfig) needsResampling() bool {
	return c.Has(MethodAR) || c.Has(MethodWelch)
}

// Validate checks every parameter of the selected estimators.
func (c SpectralConfig) Validate() error {
	if len(c.Methods) == 0 {
		return fmt.Errorf("%w: no spectral method selected", common.ErrInvalidParameter)
	}
	seen := make(map[Method]bool, len(c.Methods))
	for _, m := range c.Methods {
		if !m.valid() {
			return fmt.Errorf("%w: unknown spectral method %q", common.ErrInvalidParameter, m)
		}
		if seen[m] {
			return fmt.Errorf("%w: spectral method %q selected twice", common.ErrInvalidParameter, m)
		}
		seen[m] = true
	}

	names := make(map[string]bool, len(c.Bands))
	maxBand := 0.0
	for _, b := range c.Bands {
		if err := b.Validate(); err != nil {
			return err
		}
		if names[b.Name] {
			return fmt.Errorf("%w: duplicate band name %q", common.ErrInvalidParameter, b.Name)
		}
		names[b.Name] = true
		maxBand = math.Max(maxBand, b.High)
	}

	if c.DetrendOrder < common.NoDetrend || c.DetrendOrder > common.MaxDetrendOrder {
		return fmt.Errorf("%w: detrend order %d", common.ErrInvalidParameter, c.DetrendOrder)
	}

	if err := c.BetaBand.Validate(); err != nil {
		return err
	}
	if !c.Has(c.BetaMethod) {
		return fmt.Errorf("%w: beta method %q is not among the selected methods",
			common.ErrInvalidParameter, c.BetaMethod)
	}

	if c.Has(MethodLomb) {
		if err := c.Lomb.validate(); err != nil {
			return err
		}
	}
	if c.needsResampling() {
		maxBand = math.Max(maxBand, c.BetaBand.High)
		if err := c.Resample.validate(maxBand); err != nil {
			return err
		}
	}
	if c.Has(MethodAR) {
		if err := c.AR.validate(); err != nil {
			return err
		}
	}
	if c.Has(MethodWelch) {
		if err := c.Welch.validate(); err != nil {
			return err
		}
	}
	return nil
}

func (c LombConfig) validate() error {
	if !(c.Oversampling >= 1) {
		return fmt.Errorf("%w: lomb oversampling %v, must be at least 1", common.ErrInvalidParameter, c.Oversampling)
	}
	if c.MaxFrequency < 0 || math.IsInf(c.MaxFrequency, 0) || math.IsNaN(c.MaxFrequency) {
		return fmt.Errorf("%w: lomb max frequency %v", common.ErrInvalidParameter, c.MaxFrequency)
	}
	return nil
}

func (c ResampleConfig) validate(maxBand float64) error {
	if !(c.Rate > 0) || math.IsInf(c.Rate, 0) {
		return fmt.Errorf("%w: resampling rate %v", common.ErrInvalidParameter, c.Rate)
	}
	if c.Rate < 2*maxBand {
		return fmt.Errorf("%w: resampling rate %v Hz below twice the highest band edge %v Hz",
			common.ErrInvalidParameter, c.Rate, maxBand)
	}
	switch c.InterpolationOrder {
	case 0, 1, 3:
	default:
		return fmt.Errorf("%w: interpolation order %d, must be 0, 1 or 3",
			common.ErrInvalidParameter, c.InterpolationOrder)
	}
	return nil
}

func (c ARConfig) validate() error {
	if c.Order < 1 {
		return fmt.Errorf("%w: AR order %d", common.ErrInvalidParameter, c.Order)
	}
	if c.FFTSize < 2 {
		return fmt.Errorf("%w: AR evaluation size %d", common.ErrInvalidParameter, c.FFTSize)
	}
	return nil
}

func (c WelchConfig) validate() error {
	if c.SegmentLength < 4 {
		return fmt.Errorf("%w: welch segment length %d", common.ErrInvalidParameter, c.SegmentLength)
	}
	if c.Overlap < 0 || c.Overlap >= 1 || math.IsNaN(c.Overlap) {
		return fmt.Errorf("%w: welch overlap %v outside [0, 1)", common.ErrInvalidParameter, c.Overlap)
	}
	if c.DetrendOrder < common.NoDetrend || c.DetrendOrder > common.MaxDetrendOrder {
		return fmt.Errorf("%w: welch detrend order %d", common.ErrInvalidParameter, c.DetrendOrder)
	}
	if _, err := windowing.New(c.Window, c.SegmentLength); err != nil {
		return err
	}
	return nil
}
