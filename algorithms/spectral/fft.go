package spectral

import (
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

// OneSidedPower returns |X_k|² for k = 0..len(x)/2 of the real input x,
// using mjibson/go-dsp, which handles non-power-of-two lengths.
func OneSidedPower(x []float64) []float64 {
	if len(x) == 0 {
		return []float64{}
	}

	spectrum := fft.FFTReal(x)
	power := make([]float64, len(x)/2+1)
	for k := range power {
		mag := cmplx.Abs(spectrum[k])
		power[k] = mag * mag
	}
	return power
}
