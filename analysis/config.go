// Package analysis wires the interval filter and the HRV feature
// extractors into one pipeline over RR series.
package analysis

import (
	"fmt"
	"runtime"

	"github.com/RyanBlaney/latido/algorithms/common"
	"github.com/RyanBlaney/latido/algorithms/filters"
	"github.com/RyanBlaney/latido/algorithms/nonlinear"
	"github.com/RyanBlaney/latido/algorithms/spectral"
	"github.com/RyanBlaney/latido/algorithms/timedomain"
)

// Config aggregates the configuration of every stage. Nothing is read from
// package state: a zero Config is invalid, start from DefaultConfig.
type Config struct {
	Filter filters.FilterConfig `json:"filter"`

	// MinIntervals is the number of NN intervals that must survive
	// filtering for the feature stages to run.
	MinIntervals int `json:"min_intervals"`

	EnableTimeDomain bool `json:"enable_time_domain"`
	EnablePoincare   bool `json:"enable_poincare"`
	EnableDFA        bool `json:"enable_dfa"`
	EnableEntropy    bool `json:"enable_entropy"`
	EnableMultiscale bool `json:"enable_multiscale"`
	EnableSpectral   bool `json:"enable_spectral"`

	TimeDomain timedomain.Config        `json:"time_domain"`
	Poincare   nonlinear.PoincareConfig `json:"poincare"`
	DFA        nonlinear.DFAConfig      `json:"dfa"`
	Entropy    nonlinear.EntropyConfig  `json:"entropy"`
	Spectral   spectral.SpectralConfig  `json:"spectral"`

	// Workers bounds the number of series AnalyzeAll processes at once
	Workers int `json:"workers"`
}

// DefaultConfig enables every stage with its default parameters.
func DefaultConfig() Config {
	return Config{
		Filter:           filters.DefaultFilterConfig(),
		MinIntervals:     2,
		EnableTimeDomain: true,
		EnablePoincare:   true,
		EnableDFA:        true,
		EnableEntropy:    true,
		EnableMultiscale: true,
		EnableSpectral:   true,
		TimeDomain:       timedomain.DefaultConfig(),
		Poincare:         nonlinear.DefaultPoincareConfig(),
		DFA:              nonlinear.DefaultDFAConfig(),
		Entropy:          nonlinear.DefaultEntropyConfig(),
		Spectral:         spectral.DefaultSpectralConfig(),
		Workers:          runtime.NumCPU(),
	}
}

// Validate checks the filter and every enabled stage.
func (c Config) Validate() error {
	if err := c.Filter.Validate(); err != nil {
		return fmt.Errorf("filter: %w", err)
	}
	if c.MinIntervals < 2 {
		return fmt.Errorf("%w: min intervals %d, must be at least 2", common.ErrInvalidParameter, c.MinIntervals)
	}
	if c.Workers < 1 {
		return fmt.Errorf("%w: workers %d", common.ErrInvalidParameter, c.Workers)
	}

	checks := []struct {
		enabled bool
		stage   Stage
		check   func() error
	}{
		{c.EnableTimeDomain, StageTimeDomain, c.TimeDomain.Validate},
		{c.EnablePoincare, StagePoincare, c.Poincare.Validate},
		{c.EnableDFA, StageDFA, c.DFA.Validate},
		{c.EnableEntropy || c.EnableMultiscale, StageEntropy, c.Entropy.Validate},
		{c.EnableSpectral, StageSpectral, c.Spectral.Validate},
	}
	for _, chk := range checks {
		if !chk.enabled {
			continue
		}
		if err := chk.check(); err != nil {
			return fmt.Errorf("%s: %w", chk.stage, err)
		}
	}
	return nil
}
