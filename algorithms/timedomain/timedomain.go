// Package timedomain computes the statistical HRV measures of an NN series.
package timedomain

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/RyanBlaney/latido/algorithms/common"
	"github.com/RyanBlaney/latido/rr"
)

// Config holds time-domain parameters
type Config struct {
	// PNNThreshold is the successive-difference threshold of pNNx in
	// seconds.
	PNNThreshold float64 `json:"pnn_threshold"`
	// SegmentDuration is the length of the consecutive segments SDANN and
	// SDNN index are computed over, in seconds.
	SegmentDuration float64 `json:"segment_duration"`
}

// DefaultConfig returns pNN50 and 5-minute segments.
func DefaultConfig() Config {
	return Config{
		PNNThreshold:    0.05,
		SegmentDuration: 300,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if !(c.PNNThreshold > 0) {
		return fmt.Errorf("%w: pNN threshold %v", common.ErrInvalidParameter, c.PNNThreshold)
	}
	if !(c.SegmentDuration > 0) {
		return fmt.Errorf("%w: segment duration %v", common.ErrInvalidParameter, c.SegmentDuration)
	}
	return nil
}

// Result contains time-domain measures, all in seconds except the ratios.
type Result struct {
	AVNN  float64 `json:"avnn"`  // mean NN interval
	SDNN  float64 `json:"sdnn"`  // sample SD of NN intervals
	RMSSD float64 `json:"rmssd"` // root mean square of successive differences

	NNx  int     `json:"nnx"`  // successive differences above the threshold
	PNNx float64 `json:"pnnx"` // NNx as a fraction of all differences

	Median float64 `json:"median"`
	IQR    float64 `json:"iqr"`

	// SDANN and SDNNIndex summarise consecutive segments of
	// SegmentDuration; both are NaN when fewer than two segments are
	// complete.
	SDANN     float64 `json:"sdann"`
	SDNNIndex float64 `json:"sdnn_index"`
	Segments  int     `json:"segments"`

	// NNRRRatio is the fraction of raw intervals that survived filtering
	NNRRRatio float64 `json:"nn_rr_ratio"`

	Length    int    `json:"length"`
	RawLength int    `json:"raw_length"`
	Config    Config `json:"config"`
}

// Compute derives the time-domain measures of nn. rawLength is the length
// of the series before filtering.
func Compute(nn rr.Series, rawLength int, config Config) (*Result, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if rawLength < nn.Len() {
		return nil, fmt.Errorf("%w: raw length %d shorter than NN length %d",
			common.ErrInvalidParameter, rawLength, nn.Len())
	}
	if err := nn.Require(2); err != nil {
		return nil, fmt.Errorf("time-domain measures: %w", err)
	}

	x := nn.Intervals
	diffs := common.Diff(x)

	res := &Result{
		AVNN:      common.Mean(x),
		SDNN:      common.StandardDeviation(x),
		RMSSD:     rms(diffs),
		NNRRRatio: float64(nn.Len()) / float64(rawLength),
		Length:    nn.Len(),
		RawLength: rawLength,
		Config:    config,
	}

	for _, d := range diffs {
		if math.Abs(d) > config.PNNThreshold {
			res.NNx++
		}
	}
	res.PNNx = float64(res.NNx) / float64(len(diffs))

	sorted := append([]float64(nil), x...)
	sort.Float64s(sorted)
	res.Median = stat.Quantile(0.5, stat.LinInterp, sorted, nil)
	res.IQR = stat.Quantile(0.75, stat.LinInterp, sorted, nil) - stat.Quantile(0.25, stat.LinInterp, sorted, nil)

	res.SDANN, res.SDNNIndex, res.Segments = segmentStats(nn, config.SegmentDuration)
	return res, nil
}

func rms(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range x {
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(x)))
}

// segmentStats splits nn into consecutive segments of the given duration by
// timestamp; a trailing partial segment is discarded.
func segmentStats(nn rr.Series, duration float64) (sdann, index float64, segments int) {
	var means, sds []float64

	origin := nn.Times[0]
	end := nn.Times[nn.Len()-1] + nn.Intervals[nn.Len()-1]
	for seg := 0; origin+float64(seg+1)*duration <= end; seg++ {
		lo := origin + float64(seg)*duration
		hi := lo + duration

		var values []float64
		for i, t := range nn.Times {
			if t >= lo && t < hi {
				values = append(values, nn.Intervals[i])
			}
		}
		if len(values) == 0 {
			continue
		}
		means = append(means, common.Mean(values))
		sds = append(sds, common.StandardDeviation(values))
	}

	if len(means) < 2 {
		return math.NaN(), math.NaN(), len(means)
	}
	return common.StandardDeviation(means), common.Mean(sds), len(means)
}
