package analysis

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/RyanBlaney/latido/algorithms/common"
	"github.com/RyanBlaney/latido/algorithms/filters"
	"github.com/RyanBlaney/latido/algorithms/nonlinear"
	"github.com/RyanBlaney/latido/algorithms/spectral"
	"github.com/RyanBlaney/latido/algorithms/timedomain"
	"github.com/RyanBlaney/latido/logging"
	"github.com/RyanBlaney/latido/rr"
)

// Stage names a step of the pipeline.
type Stage string

const (
	StageFilter     Stage = "filter"
	StageTimeDomain Stage = "time_domain"
	StagePoincare   Stage = "poincare"
	StageDFA        Stage = "dfa"
	StageEntropy    Stage = "sample_entropy"
	StageMultiscale Stage = "multiscale_entropy"
	StageSpectral   Stage = "spectral"
)

// Warning records a stage that was skipped for lack of data or produced
// a degenerate result.
type Warning struct {
	Stage   Stage  `json:"stage"`
	Message string `json:"message"`
}

// Report holds the output of every stage that ran. A stage that was
// disabled or skipped leaves its field nil.
type Report struct {
	Filter     *filters.FilterResult          `json:"filter"`
	TimeDomain *timedomain.Result             `json:"time_domain,omitempty"`
	Poincare   *nonlinear.PoincareResult      `json:"poincare,omitempty"`
	DFA        *nonlinear.DFAResult           `json:"dfa,omitempty"`
	Entropy    *nonlinear.SampleEntropyResult `json:"sample_entropy,omitempty"`
	Multiscale *nonlinear.EntropyProfile      `json:"multiscale_entropy,omitempty"`
	Spectral   *spectral.SpectralResult       `json:"spectral,omitempty"`

	Warnings []Warning `json:"warnings"`
}

// Skipped reports whether stage produced a warning.
func (r *Report) Skipped(stage Stage) bool {
	for _, w := range r.Warnings {
		if w.Stage == stage {
			return true
		}
	}
	return false
}

// Analyzer runs the HRV pipeline: interval filtering, then the feature
// stages on the NN series. The stages of one series run concurrently;
// none shares mutable state with another.
type Analyzer struct {
	config   Config
	filter   *filters.IntervalFilter
	poincare *nonlinear.PoincareAnalyzer
	dfa      *nonlinear.DFA
	spectral *spectral.Estimator
	logger   logging.Logger
}

// NewAnalyzer validates config and builds every enabled stage. A nil
// logger falls back to logging.Default.
func NewAnalyzer(config Config, logger logging.Logger) (*Analyzer, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	a := &Analyzer{
		config: config,
		logger: logging.OrDefault(logger).WithFields(logging.Fields{
			"component": "hrv_analyzer",
		}),
	}

	var err error
	if a.filter, err = filters.NewIntervalFilter(config.Filter); err != nil {
		return nil, err
	}
	if config.EnablePoincare {
		if a.poincare, err = nonlinear.NewPoincareAnalyzer(config.Poincare); err != nil {
			return nil, err
		}
	}
	if config.EnableDFA {
		if a.dfa, err = nonlinear.NewDFA(config.DFA); err != nil {
			return nil, err
		}
	}
	if config.EnableSpectral {
		if a.spectral, err = spectral.NewEstimator(config.Spectral); err != nil {
			return nil, err
		}
	}
	return a, nil
}

// Config returns the configuration the analyzer was built with.
func (a *Analyzer) Config() Config {
	return a.config
}

// Analyze filters series and runs the enabled feature stages on the NN
// series. A stage without enough data is recorded in Report.Warnings and
// the others still run; any other stage error aborts the analysis.
func (a *Analyzer) Analyze(ctx context.Context, series rr.Series) (*Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	logger := a.logger.WithContext(ctx).WithFields(logging.Fields{
		"function":  "Analyze",
		"intervals": series.Len(),
	})
	logger.Debug("Starting HRV analysis")

	filtered, err := a.filter.Filter(series)
	if err != nil {
		logger.Error(err, "Interval filtering failed")
		return nil, fmt.Errorf("%s: %w", StageFilter, err)
	}

	report := &Report{Filter: filtered, Warnings: []Warning{}}
	logger.Debug("Interval filtering completed", logging.Fields{
		"kept":     len(filtered.Kept),
		"range":    filtered.Mask.Count(filters.CriterionRange),
		"quotient": filtered.Mask.Count(filters.CriterionQuotient),
		"lowpass":  filtered.Mask.Count(filters.CriterionLowPass),
		"poincare": filtered.Mask.Count(filters.CriterionPoincare),
	})

	if err := filtered.Sufficient(a.config.MinIntervals); err != nil {
		report.warn(StageFilter, err)
		logger.Warn("Too few intervals survived filtering, skipping feature stages", logging.Fields{
			"kept":     len(filtered.Kept),
			"required": a.config.MinIntervals,
		})
		return report, nil
	}

	nn := filtered.Series
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)

	run := func(stage Stage, enabled bool, fn func() error) {
		if !enabled {
			return
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			err := fn()
			if err == nil {
				return nil
			}
			if errors.Is(err, common.ErrInsufficientData) {
				mu.Lock()
				report.warn(stage, err)
				mu.Unlock()
				logger.Warn("Stage skipped", logging.Fields{"stage": stage, "reason": err.Error()})
				return nil
			}
			return fmt.Errorf("%s: %w", stage, err)
		})
	}

	run(StageTimeDomain, a.config.EnableTimeDomain, func() (err error) {
		report.TimeDomain, err = timedomain.Compute(nn, filtered.InputLength, a.config.TimeDomain)
		return err
	})
	run(StagePoincare, a.config.EnablePoincare, func() (err error) {
		report.Poincare, err = a.poincare.Analyze(nn.Intervals)
		return err
	})
	run(StageDFA, a.config.EnableDFA, func() (err error) {
		report.DFA, err = a.dfa.Analyze(nn)
		return err
	})
	run(StageEntropy, a.config.EnableEntropy, func() (err error) {
		report.Entropy, err = nonlinear.SampleEntropy(nn.Intervals, a.config.Entropy)
		return err
	})
	run(StageMultiscale, a.config.EnableMultiscale, func() (err error) {
		report.Multiscale, err = nonlinear.MultiscaleEntropy(nn.Intervals, a.config.Entropy)
		return err
	})
	run(StageSpectral, a.config.EnableSpectral, func() (err error) {
		report.Spectral, err = a.spectral.Estimate(nn)
		return err
	})

	if err := g.Wait(); err != nil {
		logger.Error(err, "HRV analysis failed")
		return nil, err
	}

	a.flagDegenerate(report, logger)
	logger.Debug("HRV analysis completed", logging.Fields{
		"nn_intervals": nn.Len(),
		"warnings":     len(report.Warnings),
	})
	return report, nil
}

func (r *Report) warn(stage Stage, err error) {
	r.Warnings = append(r.Warnings, Warning{Stage: stage, Message: err.Error()})
}

// flagDegenerate turns numerically undefined results into warnings. They
// stay in the report with their flags set.
func (a *Analyzer) flagDegenerate(report *Report, logger logging.Logger) {
	note := func(stage Stage, msg string, fields logging.Fields) {
		report.Warnings = append(report.Warnings, Warning{Stage: stage, Message: msg})
		fields["stage"] = stage
		logger.Warn(msg, fields)
	}

	if p := report.Poincare; p != nil && (p.SD1 == 0 || p.SD2 == 0) {
		note(StagePoincare, "degenerate Poincaré ellipse", logging.Fields{"sd1": p.SD1, "sd2": p.SD2})
	}

	if d := report.DFA; d != nil {
		if d.Degenerate {
			note(StageDFA, "no usable fluctuation", logging.Fields{"length": d.Length})
		} else {
			for i, fit := range []common.ScalingFit{d.Alpha1, d.Alpha2} {
				if fit.Degenerate {
					note(StageDFA, fmt.Sprintf("degenerate alpha%d fit", i+1), logging.Fields{"points": fit.Points})
				}
			}
		}
	}

	if e := report.Entropy; e != nil && e.Degenerate {
		note(StageEntropy, "undefined sample entropy", logging.Fields{"a": e.A, "b": e.B})
	}

	if m := report.Multiscale; m != nil {
		count := 0
		for _, s := range m.Scales {
			if s.Entropy.Degenerate {
				count++
			}
		}
		if count > 0 {
			note(StageMultiscale, "undefined entropy at some scales", logging.Fields{
				"degenerate_scales": count,
				"scales":            len(m.Scales),
			})
		}
	}

	if s := report.Spectral; s != nil {
		for _, sk := range s.Skipped {
			note(StageSpectral, "spectral method skipped", logging.Fields{"method": sk.Method, "reason": sk.Reason})
		}
		for _, mr := range s.Methods {
			if mr.Estimate.Degenerate {
				note(StageSpectral, "zero-variance spectrum", logging.Fields{"method": mr.Estimate.Method})
			}
		}
		if s.Beta.Fit.Degenerate || math.IsNaN(s.Beta.Beta) {
			note(StageSpectral, "degenerate beta fit", logging.Fields{
				"method": s.Beta.Method,
				"points": s.Beta.Fit.Points,
			})
		}
	}
}
