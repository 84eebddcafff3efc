// Package rr holds the beat-to-beat interval series every analysis stage
// consumes.
package rr

import (
	"fmt"
	"math"

	"github.com/RyanBlaney/latido/algorithms/common"
)

// Series is an ordered sequence of (timestamp, duration) pairs, one per
// detected beat-to-beat interval. Times are in seconds and strictly
// increasing; Intervals are positive durations in seconds.
//
// A Series is treated as immutable: stages produce new series.
type Series struct {
	Times     []float64 `json:"times"`
	Intervals []float64 `json:"intervals"`
}

// NewSeries builds a series from durations alone, anchoring the first
// interval at t = 0 and each following one at the running sum of its
// predecessors.
func NewSeries(intervals []float64) (Series, error) {
	return Anchored(0, intervals)
}

// Anchored builds a series whose first interval starts at origin.
func Anchored(origin float64, intervals []float64) (Series, error) {
	for i, v := range intervals {
		if !(v > 0) || math.IsInf(v, 0) {
			return Series{}, fmt.Errorf("%w: interval %d is %v, must be positive",
				common.ErrInvalidParameter, i, v)
		}
	}

	ivs := make([]float64, len(intervals))
	copy(ivs, intervals)

	return Series{
		Times:     common.ExclusiveCumSum(origin, ivs),
		Intervals: ivs,
	}, nil
}

// FromTimes builds a series from explicit timestamps and durations.
func FromTimes(times, intervals []float64) (Series, error) {
	s := Series{
		Times:     append([]float64(nil), times...),
		Intervals: append([]float64(nil), intervals...),
	}
	if err := s.Validate(); err != nil {
		return Series{}, err
	}
	return s, nil
}

// Validate checks the structural invariants of the series.
func (s Series) Validate() error {
	if len(s.Times) != len(s.Intervals) {
		return fmt.Errorf("%w: %d timestamps for %d intervals",
			common.ErrInvalidParameter, len(s.Times), len(s.Intervals))
	}
	for i, v := range s.Intervals {
		if !(v > 0) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: interval %d is %v, must be positive",
				common.ErrInvalidParameter, i, v)
		}
		if i > 0 && !(s.Times[i] > s.Times[i-1]) {
			return fmt.Errorf("%w: timestamps not strictly increasing at %d",
				common.ErrInvalidParameter, i)
		}
	}
	return nil
}

// Len returns the number of intervals.
func (s Series) Len() int {
	return len(s.Intervals)
}

// Duration returns the time covered by the series, from the start of the
// first interval to the end of the last one.
func (s Series) Duration() float64 {
	if s.Len() == 0 {
		return 0
	}
	last := s.Len() - 1
	return s.Times[last] + s.Intervals[last] - s.Times[0]
}

// Require returns ErrInsufficientData when the series holds fewer than
// min intervals.
func (s Series) Require(min int) error {
	if s.Len() < min {
		return fmt.Errorf("%w: need at least %d intervals, got %d",
			common.ErrInsufficientData, min, s.Len())
	}
	return nil
}

// Subset returns a new series holding the intervals at the given indices,
// with timestamps re-anchored from the original first timestamp by
// cumulative summation of the kept durations.
func (s Series) Subset(indices []int) Series {
	kept := make([]float64, len(indices))
	for k, idx := range indices {
		kept[k] = s.Intervals[idx]
	}

	origin := 0.0
	if s.Len() > 0 {
		origin = s.Times[0]
	}

	return Series{
		Times:     common.ExclusiveCumSum(origin, kept),
		Intervals: kept,
	}
}
