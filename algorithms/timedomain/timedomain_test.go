package timedomain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RyanBlaney/latido/algorithms/common"
	"github.com/RyanBlaney/latido/rr"
)

func TestCompute_KnownValues(t *testing.T) {
	t.Parallel()

	nn, err := rr.NewSeries([]float64{0.8, 0.9, 0.8, 0.83, 0.8})
	require.NoError(t, err)

	res, err := Compute(nn, 8, DefaultConfig())
	require.NoError(t, err)

	assert.InDelta(t, 0.826, res.AVNN, 1e-12)
	assert.InDelta(t, math.Sqrt(0.00752/4), res.SDNN, 1e-12)
	assert.InDelta(t, math.Sqrt(0.00545), res.RMSSD, 1e-12)
	assert.Equal(t, 2, res.NNx)
	assert.InDelta(t, 0.5, res.PNNx, 1e-12)
	assert.InDelta(t, 5.0/8, res.NNRRRatio, 1e-12)
	assert.Equal(t, 5, res.Length)
	assert.Equal(t, 8, res.RawLength)

	assert.GreaterOrEqual(t, res.Median, 0.8)
	assert.LessOrEqual(t, res.Median, 0.9)
	assert.GreaterOrEqual(t, res.IQR, 0.0)

	// 4.13 s of data holds no complete 5-minute segment
	assert.Equal(t, 0, res.Segments)
	assert.True(t, math.IsNaN(res.SDANN))
	assert.True(t, math.IsNaN(res.SDNNIndex))
}

func TestCompute_Segments(t *testing.T) {
	t.Parallel()

	x := make([]float64, 700)
	for i := range x {
		x[i] = 0.9
		if i%2 == 1 {
			x[i] = 1.1
		}
	}
	nn, err := rr.NewSeries(x)
	require.NoError(t, err)

	// boundaries fall between beats so each segment holds 150 pairs
	res, err := Compute(nn, len(x), Config{PNNThreshold: 0.05, SegmentDuration: 299.5})
	require.NoError(t, err)

	assert.Equal(t, 2, res.Segments)
	assert.InDelta(t, 0.0, res.SDANN, 1e-9)
	assert.InDelta(t, 0.1*math.Sqrt(300.0/299.0), res.SDNNIndex, 1e-9)
	assert.InDelta(t, 1.0, res.NNRRRatio, 0)
	assert.InDelta(t, 1.0, res.PNNx, 0)
}

func TestCompute_ConstantSeries(t *testing.T) {
	t.Parallel()

	x := make([]float64, 100)
	for i := range x {
		x[i] = 0.8
	}
	nn, err := rr.NewSeries(x)
	require.NoError(t, err)

	res, err := Compute(nn, 100, DefaultConfig())
	require.NoError(t, err)
	assert.InDelta(t, 0.8, res.AVNN, 1e-12)
	assert.Zero(t, res.SDNN)
	assert.Zero(t, res.RMSSD)
	assert.Zero(t, res.IQR)
}

func TestCompute_Errors(t *testing.T) {
	t.Parallel()

	one, err := rr.NewSeries([]float64{0.8})
	require.NoError(t, err)
	_, err = Compute(one, 1, DefaultConfig())
	assert.ErrorIs(t, err, common.ErrInsufficientData)

	two, err := rr.NewSeries([]float64{0.8, 0.9})
	require.NoError(t, err)
	_, err = Compute(two, 1, DefaultConfig())
	assert.ErrorIs(t, err, common.ErrInvalidParameter)

	_, err = Compute(two, 2, Config{PNNThreshold: 0, SegmentDuration: 300})
	assert.ErrorIs(t, err, common.ErrInvalidParameter)

	_, err = Compute(two, 2, Config{PNNThreshold: 0.05, SegmentDuration: -1})
	assert.ErrorIs(t, err, common.ErrInvalidParameter)
}
