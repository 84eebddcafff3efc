package spectral

import (
	"fmt"
	"math"

	"github.com/RyanBlaney/latido/algorithms/common"
	"github.com/RyanBlaney/latido/algorithms/windowing"
)

// Welch estimates the PSD of the uniformly sampled series x by averaging
// modified periodograms of overlapping, individually detrended and tapered
// segments. A series shorter than one segment is analysed as a single
// segment of its own length.
//
// References:
//   - Welch, P.D. (1967). "The use of fast Fourier transform for the
//     estimation of power spectra"
func Welch(x []float64, fs float64, config WelchConfig) (*Estimate, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}
	if !(fs > 0) {
		return nil, fmt.Errorf("%w: sample rate %v", common.ErrInvalidParameter, fs)
	}

	n := len(x)
	length := min(config.SegmentLength, n)
	if length < 4 || length <= config.DetrendOrder {
		return nil, fmt.Errorf("%w: welch needs at least 4 samples, got %d", common.ErrInsufficientData, n)
	}

	window, err := windowing.New(config.Window, length)
	if err != nil {
		return nil, err
	}
	norm := fs * window.Energy()

	step := length - int(math.Round(config.Overlap*float64(length)))
	if step < 1 {
		step = 1
	}

	bins := length/2 + 1
	avg := make([]float64, bins)
	segments := 0
	for start := 0; start+length <= n; start += step {
		segment, err := common.DetrendUniform(x[start:start+length], config.DetrendOrder)
		if err != nil {
			return nil, err
		}

		power := OneSidedPower(window.Apply(segment))
		for k, p := range power {
			avg[k] += p
		}
		segments++
	}

	df := fs / float64(length)
	freqs := make([]float64, bins)
	for k := range avg {
		freqs[k] = float64(k) * df
		avg[k] /= float64(segments) * norm
		// fold negative frequencies; DC and an even-length Nyquist bin
		// have no mirror
		if k > 0 && !(length%2 == 0 && k == bins-1) {
			avg[k] *= 2
		}
	}

	variance := common.PopulationVariance(x)
	return &Estimate{
		Method:              MethodWelch,
		Frequencies:         freqs,
		Power:               avg,
		Resolution:          df,
		SampleRate:          fs,
		DetrendOrder:        common.NoDetrend,
		SegmentDetrendOrder: config.DetrendOrder,
		SeriesLength:        n,
		Variance:            variance,
		Segments:            segments,
		Degenerate:          variance == 0,
	}, nil
}
