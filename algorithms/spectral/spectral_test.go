package spectral

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RyanBlaney/latido/algorithms/common"
	"github.com/RyanBlaney/latido/algorithms/windowing"
	"github.com/RyanBlaney/latido/rr"
)

// oscillatingRR builds an RR series whose durations carry an LF (0.1 Hz)
// and an HF (0.25 Hz) oscillation, sampled at its own beat times.
func oscillatingRR(t *testing.T, n int, seed uint64) rr.Series {
	t.Helper()
	rng := rand.New(rand.NewPCG(seed, seed+1))

	x := make([]float64, n)
	now := 0.0
	for i := range x {
		x[i] = 0.8 +
			0.04*math.Sin(2*math.Pi*0.1*now) +
			0.03*math.Sin(2*math.Pi*0.25*now) +
			0.005*rng.NormFloat64()
		now += x[i]
	}

	s, err := rr.NewSeries(x)
	require.NoError(t, err)
	return s
}

func whiteNoise(n int, seed uint64) []float64 {
	rng := rand.New(rand.NewPCG(seed, seed+1))
	x := make([]float64, n)
	for i := range x {
		x[i] = rng.NormFloat64()
	}
	return x
}

func argmax(x []float64) int {
	best := 0
	for i, v := range x {
		if v > x[best] {
			best = i
		}
	}
	return best
}

func TestLombScargle_Parseval(t *testing.T) {
	t.Parallel()

	s := oscillatingRR(t, 400, 3)
	est, err := LombScargle(s.Times, s.Intervals, LombConfig{Oversampling: 4})
	require.NoError(t, err)

	assert.Equal(t, MethodLomb, est.Method)
	assert.Equal(t, 400, est.SeriesLength)
	assert.InEpsilon(t, common.PopulationVariance(s.Intervals), est.Integral(), 0.1)

	// the axis starts one step above zero and reaches the average Nyquist
	T := (s.Times[399] - s.Times[0]) * 400 / 399
	assert.InDelta(t, 1/(4*T), est.Frequencies[0], 1e-12)
	assert.InDelta(t, 1/(4*T), est.Resolution, 1e-12)
	assert.LessOrEqual(t, est.Frequencies[len(est.Frequencies)-1], 400/(2*T)+1e-9)

	peak := est.Frequencies[argmax(est.Power)]
	assert.InDelta(t, 0.1, peak, 3*est.Resolution)
}

func TestLombScargle_WhiteNoiseLevel(t *testing.T) {
	t.Parallel()

	// uniform unit spacing: PSD of unit-variance noise averages 2 s²/Hz
	n := 4000
	times := make([]float64, n)
	for i := range times {
		times[i] = float64(i)
	}
	y := whiteNoise(n, 11)

	est, err := LombScargle(times, y, LombConfig{Oversampling: 1})
	require.NoError(t, err)
	assert.InEpsilon(t, 2*common.PopulationVariance(y), common.Mean(est.Power), 0.1)
	assert.InEpsilon(t, common.PopulationVariance(y), est.Integral(), 0.1)
}

func TestLombScargle_Errors(t *testing.T) {
	t.Parallel()

	_, err := LombScargle([]float64{0}, []float64{1}, LombConfig{Oversampling: 4})
	assert.ErrorIs(t, err, common.ErrInsufficientData)

	_, err = LombScargle([]float64{0, 1}, []float64{1}, LombConfig{Oversampling: 4})
	assert.ErrorIs(t, err, common.ErrInvalidParameter)

	_, err = LombScargle([]float64{0, 1}, []float64{1, 2}, LombConfig{Oversampling: 0.5})
	assert.ErrorIs(t, err, common.ErrInvalidParameter)

	est, err := LombScargle([]float64{0, 1, 2, 3}, []float64{5, 5, 5, 5}, LombConfig{Oversampling: 4})
	require.NoError(t, err)
	assert.True(t, est.Degenerate)
	assert.Zero(t, est.Integral())
}

func TestResample_LinearSignal(t *testing.T) {
	t.Parallel()

	s, err := rr.FromTimes([]float64{0, 1, 2.5, 4}, []float64{1, 2, 3.5, 5})
	require.NoError(t, err)

	for _, order := range []int{1, 3} {
		u, err := Resample(s, ResampleConfig{Rate: 2, InterpolationOrder: order})
		require.NoError(t, err)

		require.Len(t, u.Times, 9)
		assert.InDelta(t, 4.0, u.Times[8], 1e-12)
		for i, ti := range u.Times {
			assert.InDelta(t, ti+1, u.Values[i], 1e-9, "order %d at %v", order, ti)
		}
	}
}

func TestResample_StepKeepsObservedValues(t *testing.T) {
	t.Parallel()

	s, err := rr.FromTimes([]float64{0, 1, 2.5, 4}, []float64{1, 2, 3.5, 5})
	require.NoError(t, err)

	u, err := Resample(s, ResampleConfig{Rate: 4, InterpolationOrder: 0})
	require.NoError(t, err)
	require.Len(t, u.Values, 17)
	for _, v := range u.Values {
		assert.Contains(t, s.Intervals, v)
	}
}

func TestResample_Errors(t *testing.T) {
	t.Parallel()

	s, err := rr.FromTimes([]float64{0, 1, 2}, []float64{1, 1, 1})
	require.NoError(t, err)

	_, err = Resample(s, ResampleConfig{Rate: 4, InterpolationOrder: 3})
	assert.ErrorIs(t, err, common.ErrInsufficientData)

	_, err = Resample(s, ResampleConfig{Rate: 4, InterpolationOrder: 2})
	assert.ErrorIs(t, err, common.ErrInvalidParameter)

	_, err = Resample(s, ResampleConfig{Rate: 0.1, InterpolationOrder: 1})
	assert.ErrorIs(t, err, common.ErrInsufficientData)
}

func TestFitYuleWalker_RecoversAR1(t *testing.T) {
	t.Parallel()

	e := whiteNoise(8000, 5)
	x := make([]float64, len(e))
	for i := 1; i < len(x); i++ {
		x[i] = 0.7*x[i-1] + e[i]
	}

	model, err := FitYuleWalker(x, 1)
	require.NoError(t, err)
	assert.InDelta(t, 0.7, model.Coefficients[0], 0.03)
	assert.InDelta(t, 1.0, model.NoiseVariance, 0.06)
	assert.InDelta(t, model.Coefficients[0], model.ReflectionCoeff[0], 1e-12)
}

func TestYuleWalker_Parseval(t *testing.T) {
	t.Parallel()

	e := whiteNoise(4000, 9)
	x := make([]float64, len(e))
	for i := 1; i < len(x); i++ {
		x[i] = 0.5*x[i-1] + e[i]
	}

	est, err := YuleWalker(x, 4, ARConfig{Order: 16, FFTSize: 1024})
	require.NoError(t, err)

	require.Len(t, est.Frequencies, 513)
	assert.InDelta(t, 2.0, est.Frequencies[512], 1e-12)
	assert.Equal(t, 16, est.Order)
	assert.InEpsilon(t, common.PopulationVariance(x), est.Integral(), 0.02)
}

func TestYuleWalker_Errors(t *testing.T) {
	t.Parallel()

	_, err := YuleWalker(make([]float64, 10), 4, ARConfig{Order: 16, FFTSize: 1024})
	assert.ErrorIs(t, err, common.ErrInsufficientData)

	_, err = YuleWalker(make([]float64, 100), 4, ARConfig{Order: 0, FFTSize: 1024})
	assert.ErrorIs(t, err, common.ErrInvalidParameter)

	est, err := YuleWalker(make([]float64, 100), 4, ARConfig{Order: 4, FFTSize: 64})
	require.NoError(t, err)
	assert.True(t, est.Degenerate)
	assert.Zero(t, est.Integral())
}

func TestWelch_Parseval(t *testing.T) {
	t.Parallel()

	x := whiteNoise(8192, 21)
	cfg := WelchConfig{SegmentLength: 256, Overlap: 0.5, DetrendOrder: 1, Window: windowing.TypeHann}

	est, err := Welch(x, 4, cfg)
	require.NoError(t, err)

	assert.Equal(t, 63, est.Segments)
	assert.Len(t, est.Frequencies, 129)
	assert.InDelta(t, 4.0/256, est.Resolution, 1e-12)
	assert.InEpsilon(t, common.PopulationVariance(x), est.Integral(), 0.1)
}

func TestWelch_SinePeak(t *testing.T) {
	t.Parallel()

	fs := 4.0
	x := make([]float64, 2048)
	for i := range x {
		x[i] = 0.05 * math.Sin(2*math.Pi*0.25*float64(i)/fs)
	}

	est, err := Welch(x, fs, WelchConfig{SegmentLength: 256, Overlap: 0.5, DetrendOrder: 1, Window: windowing.TypeHann})
	require.NoError(t, err)

	assert.InDelta(t, 0.25, est.Frequencies[argmax(est.Power)], 1e-12)
	assert.InEpsilon(t, 0.05*0.05/2, est.Integral(), 0.05)
}

func TestWelch_ShortSeriesUsesOneSegment(t *testing.T) {
	t.Parallel()

	est, err := Welch(whiteNoise(100, 2), 4, WelchConfig{SegmentLength: 256, Overlap: 0.5, DetrendOrder: 1})
	require.NoError(t, err)
	assert.Equal(t, 1, est.Segments)
	assert.InDelta(t, 0.04, est.Resolution, 1e-12)
	assert.Len(t, est.Frequencies, 51)

	_, err = Welch([]float64{1, 2, 3}, 4, WelchConfig{SegmentLength: 256, Overlap: 0.5, DetrendOrder: 1})
	assert.ErrorIs(t, err, common.ErrInsufficientData)
}

func flatEstimate(level float64) *Estimate {
	freqs := make([]float64, 101)
	power := make([]float64, 101)
	for i := range freqs {
		freqs[i] = float64(i) * 0.01
		power[i] = level
	}
	return &Estimate{Method: MethodWelch, Frequencies: freqs, Power: power}
}

func TestIntegrateBands_FlatSpectrum(t *testing.T) {
	t.Parallel()

	bp := IntegrateBands(flatEstimate(2), []Band{BandVLF, BandLF, BandHF, {Name: "out", Low: 1.5, High: 2}})

	assert.InDelta(t, 2.0, bp.Total, 1e-12)

	vlf, ok := bp.Get("VLF")
	require.True(t, ok)
	assert.InDelta(t, 2*(0.04-0.0033), vlf.Power, 1e-12)

	lf, _ := bp.Get("LF")
	hf, _ := bp.Get("HF")
	assert.InDelta(t, 0.22, lf.Power, 1e-12)
	assert.InDelta(t, 0.5, hf.Power, 1e-12)
	assert.InDelta(t, 0.25, hf.Relative, 1e-12)
	assert.InDelta(t, 0.44, bp.LFHF, 1e-12)

	out, _ := bp.Get("out")
	assert.Zero(t, out.Power)

	_, ok = bp.Get("ULF")
	assert.False(t, ok)
}

func TestIntegrateBands_NoHF(t *testing.T) {
	t.Parallel()

	bp := IntegrateBands(flatEstimate(1), []Band{BandLF})
	assert.True(t, math.IsNaN(bp.LFHF))

	zero := IntegrateBands(flatEstimate(0), []Band{BandLF, BandHF})
	assert.True(t, math.IsNaN(zero.LFHF))
	assert.True(t, math.IsNaN(zero.Bands[0].Relative))
}

func TestFitBeta_PowerLaw(t *testing.T) {
	t.Parallel()

	freqs := make([]float64, 500)
	power := make([]float64, 500)
	for i := range freqs {
		freqs[i] = float64(i+1) * 0.001
		power[i] = 3 * math.Pow(freqs[i], -1.5)
	}
	est := &Estimate{Method: MethodLomb, Frequencies: freqs, Power: power}

	fit := FitBeta(est, Band{Name: "beta", Low: 0.0033, High: 0.0405})
	assert.False(t, fit.Fit.Degenerate)
	assert.InDelta(t, 1.5, fit.Beta, 1e-9)
	assert.Equal(t, MethodLomb, fit.Method)
	assert.Equal(t, 37, fit.Fit.Points)

	empty := FitBeta(est, Band{Name: "beta", Low: 0.6, High: 0.7})
	assert.True(t, empty.Fit.Degenerate)
	assert.True(t, math.IsNaN(empty.Beta))
}

func TestSpectralConfig_Validate(t *testing.T) {
	t.Parallel()

	require.NoError(t, DefaultSpectralConfig().Validate())

	tests := []struct {
		name   string
		mutate func(*SpectralConfig)
	}{
		{"no methods", func(c *SpectralConfig) { c.Methods = nil }},
		{"unknown method", func(c *SpectralConfig) { c.Methods = []Method{"burg"} }},
		{"duplicate method", func(c *SpectralConfig) { c.Methods = []Method{MethodAR, MethodAR} }},
		{"inverted band", func(c *SpectralConfig) { c.Bands = []Band{{Name: "LF", Low: 0.15, High: 0.04}} }},
		{"negative band", func(c *SpectralConfig) { c.Bands = []Band{{Name: "LF", Low: -0.1, High: 0.04}} }},
		{"duplicate band", func(c *SpectralConfig) { c.Bands = []Band{BandLF, BandLF} }},
		{"rate below band", func(c *SpectralConfig) { c.Resample.Rate = 0.5 }},
		{"interpolation order", func(c *SpectralConfig) { c.Resample.InterpolationOrder = 2 }},
		{"ar order", func(c *SpectralConfig) { c.AR.Order = 0 }},
		{"overlap", func(c *SpectralConfig) { c.Welch.Overlap = 1 }},
		{"welch detrend", func(c *SpectralConfig) { c.Welch.DetrendOrder = 7 }},
		{"window", func(c *SpectralConfig) { c.Welch.Window = "gauss" }},
		{"detrend", func(c *SpectralConfig) { c.DetrendOrder = -2 }},
		{"oversampling", func(c *SpectralConfig) { c.Lomb.Oversampling = 0 }},
		{"beta method", func(c *SpectralConfig) { c.Methods = []Method{MethodAR} }},
		{"beta band", func(c *SpectralConfig) { c.BetaBand.High = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := DefaultSpectralConfig()
			tt.mutate(&cfg)
			_, err := NewEstimator(cfg)
			assert.ErrorIs(t, err, common.ErrInvalidParameter)
		})
	}
}

func TestEstimator_AllMethodsOnCommonAxis(t *testing.T) {
	t.Parallel()

	e, err := NewEstimator(DefaultSpectralConfig())
	require.NoError(t, err)

	res, err := e.Estimate(oscillatingRR(t, 400, 17))
	require.NoError(t, err)

	require.Len(t, res.Methods, 3)
	assert.True(t, res.CommonAxis)
	assert.NotNil(t, res.Resampled)

	lomb := res.Get(MethodLomb)
	require.NotNil(t, lomb)
	assert.False(t, lomb.Estimate.Interpolated)
	assert.LessOrEqual(t, lomb.Estimate.Frequencies[len(lomb.Estimate.Frequencies)-1], 0.5+1e-9)

	for _, m := range []Method{MethodAR, MethodWelch} {
		mr := res.Get(m)
		require.NotNil(t, mr, m)
		assert.True(t, mr.Estimate.Interpolated, m)
		assert.Equal(t, lomb.Estimate.Frequencies, mr.Estimate.Frequencies, m)
	}

	for _, mr := range res.Methods {
		lf, ok := mr.Bands.Get("LF")
		require.True(t, ok)
		hf, _ := mr.Bands.Get("HF")
		assert.Positive(t, lf.Power, mr.Estimate.Method)
		assert.Positive(t, hf.Power, mr.Estimate.Method)
		// the LF oscillation carries more power than the HF one
		assert.Greater(t, mr.Bands.LFHF, 1.0, mr.Estimate.Method)
	}

	assert.Equal(t, MethodLomb, res.Beta.Method)
	assert.False(t, res.Beta.Fit.Degenerate)
	assert.False(t, math.IsNaN(res.Beta.Beta))
	assert.Nil(t, res.Get("burg"))
}

func TestEstimator_NativeAxisWithoutLomb(t *testing.T) {
	t.Parallel()

	cfg := DefaultSpectralConfig()
	cfg.Methods = []Method{MethodAR}
	cfg.BetaMethod = MethodAR

	e, err := NewEstimator(cfg)
	require.NoError(t, err)

	res, err := e.Estimate(oscillatingRR(t, 300, 23))
	require.NoError(t, err)

	assert.False(t, res.CommonAxis)
	ar := res.Get(MethodAR)
	require.NotNil(t, ar)
	assert.Len(t, ar.Estimate.Frequencies, cfg.AR.FFTSize/2+1)
	assert.Equal(t, 1, ar.Estimate.DetrendOrder)
	assert.Positive(t, ar.Estimate.Variance)
}

func TestEstimator_ConstantSeries(t *testing.T) {
	t.Parallel()

	x := make([]float64, 100)
	for i := range x {
		x[i] = 0.8
	}
	s, err := rr.NewSeries(x)
	require.NoError(t, err)

	e, err := NewEstimator(DefaultSpectralConfig())
	require.NoError(t, err)
	res, err := e.Estimate(s)
	require.NoError(t, err)

	for _, mr := range res.Methods {
		assert.True(t, mr.Estimate.Degenerate, mr.Estimate.Method)
		assert.Zero(t, mr.Bands.Total, mr.Estimate.Method)
		assert.True(t, math.IsNaN(mr.Bands.LFHF))
	}
	assert.True(t, res.Beta.Fit.Degenerate)
}

func TestEstimator_InsufficientData(t *testing.T) {
	t.Parallel()

	e, err := NewEstimator(DefaultSpectralConfig())
	require.NoError(t, err)

	s, err := rr.NewSeries([]float64{0.8})
	require.NoError(t, err)
	_, err = e.Estimate(s)
	assert.ErrorIs(t, err, common.ErrInsufficientData)
}

func TestEstimator_ShortSeriesKeepsLomb(t *testing.T) {
	t.Parallel()

	e, err := NewEstimator(DefaultSpectralConfig())
	require.NoError(t, err)

	s, err := rr.NewSeries([]float64{0.8, 0.82, 0.81})
	require.NoError(t, err)
	res, err := e.Estimate(s)
	require.NoError(t, err)

	// three intervals are too few for the cubic resampling AR and Welch share
	require.Len(t, res.Methods, 1)
	require.NotNil(t, res.Get(MethodLomb))
	assert.Nil(t, res.Get(MethodAR))
	assert.Nil(t, res.Get(MethodWelch))
	assert.Nil(t, res.Resampled)
	assert.False(t, res.CommonAxis)

	require.Len(t, res.Skipped, 2)
	assert.Equal(t, MethodAR, res.Skipped[0].Method)
	assert.Equal(t, MethodWelch, res.Skipped[1].Method)
	assert.NotEmpty(t, res.Skipped[0].Reason)
	assert.Equal(t, MethodLomb, res.Beta.Method)
}

func TestEstimator_ARSkippedWelchKept(t *testing.T) {
	t.Parallel()

	cfg := DefaultSpectralConfig()
	cfg.BetaMethod = MethodAR
	e, err := NewEstimator(cfg)
	require.NoError(t, err)

	// 2.43 s at 4 Hz gives 10 samples: enough for Welch, not for order 16
	s, err := rr.NewSeries([]float64{0.8, 0.82, 0.81, 0.79})
	require.NoError(t, err)
	res, err := e.Estimate(s)
	require.NoError(t, err)

	assert.NotNil(t, res.Get(MethodLomb))
	assert.NotNil(t, res.Get(MethodWelch))
	assert.Nil(t, res.Get(MethodAR))
	require.Len(t, res.Skipped, 1)
	assert.Equal(t, MethodAR, res.Skipped[0].Method)
	assert.True(t, res.CommonAxis)

	assert.Equal(t, MethodAR, res.Beta.Method)
	assert.True(t, res.Beta.Fit.Degenerate)
	assert.True(t, math.IsNaN(res.Beta.Beta))
}

func TestEstimator_OnlyMethodTooShort(t *testing.T) {
	t.Parallel()

	cfg := DefaultSpectralConfig()
	cfg.Methods = []Method{MethodAR}
	cfg.BetaMethod = MethodAR
	e, err := NewEstimator(cfg)
	require.NoError(t, err)

	s, err := rr.NewSeries([]float64{0.8, 0.82, 0.81, 0.79})
	require.NoError(t, err)
	_, err = e.Estimate(s)
	assert.ErrorIs(t, err, common.ErrInsufficientData)
}

func TestEstimator_DetrendProvenance(t *testing.T) {
	t.Parallel()

	cfg := DefaultSpectralConfig()
	cfg.DetrendOrder = 2
	cfg.Welch.DetrendOrder = 0
	e, err := NewEstimator(cfg)
	require.NoError(t, err)

	res, err := e.Estimate(oscillatingRR(t, 300, 23))
	require.NoError(t, err)

	for _, m := range []Method{MethodLomb, MethodAR} {
		mr := res.Get(m)
		require.NotNil(t, mr, m)
		assert.Equal(t, 2, mr.Estimate.DetrendOrder, m)
		assert.Equal(t, common.NoDetrend, mr.Estimate.SegmentDetrendOrder, m)
	}

	welch := res.Get(MethodWelch)
	require.NotNil(t, welch)
	assert.Equal(t, 2, welch.Estimate.DetrendOrder)
	assert.Equal(t, 0, welch.Estimate.SegmentDetrendOrder)

	// called directly, Welch detrends segments only
	est, err := Welch(whiteNoise(512, 3), 4, WelchConfig{SegmentLength: 128, Overlap: 0.5, DetrendOrder: 1})
	require.NoError(t, err)
	assert.Equal(t, common.NoDetrend, est.DetrendOrder)
	assert.Equal(t, 1, est.SegmentDetrendOrder)
}
