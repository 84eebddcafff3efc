package spectral

import (
	"errors"
	"fmt"
	"math"

	"github.com/RyanBlaney/latido/algorithms/common"
	"github.com/RyanBlaney/latido/rr"
)

// MethodResult is one estimator's PSD and its band powers.
type MethodResult struct {
	Estimate *Estimate  `json:"estimate"`
	Bands    BandPowers `json:"bands"`
}

// SkippedMethod records a selected method that had too little data.
type SkippedMethod struct {
	Method Method `json:"method"`
	Reason string `json:"reason"`
}

// SpectralResult collects every estimate that could be computed, in the
// configured method order.
type SpectralResult struct {
	Methods []MethodResult  `json:"methods"`
	Skipped []SkippedMethod `json:"skipped"`
	Beta    BetaFit         `json:"beta"`

	// CommonAxis is set when AR and Welch were moved onto the Lomb axis
	CommonAxis bool `json:"common_axis"`

	// Resampled is the uniform series AR and Welch consumed, after
	// detrending.
	Resampled *Uniform `json:"-"`

	SeriesLength int            `json:"series_length"`
	Config       SpectralConfig `json:"config"`
}

// Get returns the result of method m, or nil when it was not selected or
// was skipped.
func (r *SpectralResult) Get(m Method) *MethodResult {
	for i := range r.Methods {
		if r.Methods[i].Estimate.Method == m {
			return &r.Methods[i]
		}
	}
	return nil
}

// Estimator computes the PSD of an interval series with every selected
// method, then band powers and the β exponent.
type Estimator struct {
	config SpectralConfig
}

// NewEstimator creates a spectral estimator
func NewEstimator(config SpectralConfig) (*Estimator, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Estimator{config: config}, nil
}

// Estimate runs the configured estimators over series. Lomb-Scargle reads
// the native timestamps; AR and Welch share one resampled copy. A method
// without enough data is listed in Skipped and the others still run;
// ErrInsufficientData is returned only when no method produced an
// estimate.
func (e *Estimator) Estimate(series rr.Series) (*SpectralResult, error) {
	if err := series.Validate(); err != nil {
		return nil, err
	}
	if err := series.Require(2); err != nil {
		return nil, fmt.Errorf("spectral estimation: %w", err)
	}

	cfg := e.config
	estimates := make(map[Method]*Estimate, len(cfg.Methods))
	result := &SpectralResult{
		Methods:      make([]MethodResult, 0, len(cfg.Methods)),
		Skipped:      []SkippedMethod{},
		SeriesLength: series.Len(),
		Config:       cfg,
	}

	var lastErr error
	skip := func(m Method, err error) error {
		if !errors.Is(err, common.ErrInsufficientData) {
			return err
		}
		result.Skipped = append(result.Skipped, SkippedMethod{Method: m, Reason: err.Error()})
		lastErr = err
		return nil
	}

	if cfg.Has(MethodLomb) {
		est, err := e.lomb(series)
		if err != nil {
			if err := skip(MethodLomb, err); err != nil {
				return nil, err
			}
		} else {
			estimates[MethodLomb] = est
		}
	}

	if cfg.needsResampling() {
		uniform, err := e.resample(series)
		if err != nil {
			for _, m := range []Method{MethodAR, MethodWelch} {
				if !cfg.Has(m) {
					continue
				}
				if err := skip(m, err); err != nil {
					return nil, err
				}
			}
		}
		result.Resampled = uniform

		if uniform != nil && cfg.Has(MethodAR) {
			est, err := YuleWalker(uniform.Values, uniform.Rate, cfg.AR)
			if err != nil {
				if err := skip(MethodAR, err); err != nil {
					return nil, err
				}
			} else {
				est.DetrendOrder = cfg.DetrendOrder
				estimates[MethodAR] = est
			}
		}

		if uniform != nil && cfg.Has(MethodWelch) {
			est, err := Welch(uniform.Values, uniform.Rate, cfg.Welch)
			if err != nil {
				if err := skip(MethodWelch, err); err != nil {
					return nil, err
				}
			} else {
				est.DetrendOrder = cfg.DetrendOrder
				estimates[MethodWelch] = est
			}
		}
	}

	if len(estimates) == 0 {
		return nil, fmt.Errorf("spectral estimation: %w", lastErr)
	}

	if lomb, ok := estimates[MethodLomb]; ok && len(estimates) > 1 {
		for m, est := range estimates {
			if m != MethodLomb {
				estimates[m] = est.Onto(lomb.Frequencies)
			}
		}
		result.CommonAxis = true
	}

	for _, m := range cfg.Methods {
		est, ok := estimates[m]
		if !ok {
			continue
		}
		result.Methods = append(result.Methods, MethodResult{
			Estimate: est,
			Bands:    IntegrateBands(est, cfg.Bands),
		})
	}

	if est, ok := estimates[cfg.BetaMethod]; ok {
		result.Beta = FitBeta(est, cfg.BetaBand)
	} else {
		result.Beta = BetaFit{
			Method: cfg.BetaMethod,
			Band:   cfg.BetaBand,
			Beta:   math.NaN(),
			Fit:    common.ScalingFit{Slope: math.NaN(), Intercept: math.NaN(), RSquared: math.NaN(), Degenerate: true},
		}
	}
	return result, nil
}

func (e *Estimator) lomb(series rr.Series) (*Estimate, error) {
	y, err := common.Detrend(series.Times, series.Intervals, e.config.DetrendOrder)
	if err != nil {
		return nil, fmt.Errorf("lomb-scargle detrend: %w", err)
	}
	est, err := LombScargle(series.Times, y, e.config.Lomb)
	if err != nil {
		return nil, err
	}
	est.DetrendOrder = e.config.DetrendOrder
	return est, nil
}

// resample builds the detrended uniform series shared by AR and Welch.
func (e *Estimator) resample(series rr.Series) (*Uniform, error) {
	u, err := Resample(series, e.config.Resample)
	if err != nil {
		return nil, err
	}
	values, err := common.Detrend(u.Times, u.Values, e.config.DetrendOrder)
	if err != nil {
		return nil, fmt.Errorf("resampled series detrend: %w", err)
	}
	u.Values = values
	return u, nil
}
