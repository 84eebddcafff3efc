package spectral

import (
	"math"

	"gonum.org/v1/gonum/integrate"

	"github.com/RyanBlaney/latido/algorithms/common"
)

// BandPower is the integrated power of one band.
type BandPower struct {
	Band     Band    `json:"band"`
	Power    float64 `json:"power"`    // s²
	Relative float64 `json:"relative"` // fraction of Total, NaN when Total is 0
}

// BandPowers holds the band integrals of one estimate.
type BandPowers struct {
	Bands []BandPower `json:"bands"`
	Total float64     `json:"total"` // integral over the whole axis
	// LFHF is the LF/HF ratio when bands named LF and HF exist, NaN
	// otherwise or when HF power is zero.
	LFHF float64 `json:"lf_hf"`
}

// Get returns the power of the band with the given name.
func (b *BandPowers) Get(name string) (BandPower, bool) {
	for _, bp := range b.Bands {
		if bp.Band.Name == name {
			return bp, true
		}
	}
	return BandPower{}, false
}

// IntegrateBands integrates est over each band by the trapezoidal rule.
// Band edges falling between axis points are interpolated so adjacent
// bands partition the power exactly; parts of a band outside the axis
// contribute nothing.
func IntegrateBands(est *Estimate, bands []Band) BandPowers {
	out := BandPowers{
		Bands: make([]BandPower, 0, len(bands)),
		Total: est.Integral(),
		LFHF:  math.NaN(),
	}

	for _, b := range bands {
		p := integrateRange(est.Frequencies, est.Power, b.Low, b.High)
		rel := math.NaN()
		if out.Total > 0 {
			rel = p / out.Total
		}
		out.Bands = append(out.Bands, BandPower{Band: b, Power: p, Relative: rel})
	}

	lf, okLF := out.Get(BandLF.Name)
	hf, okHF := out.Get(BandHF.Name)
	if okLF && okHF && hf.Power > 0 {
		out.LFHF = lf.Power / hf.Power
	}
	return out
}

func integrateRange(freqs, power []float64, lo, hi float64) float64 {
	if len(freqs) < 2 {
		return 0
	}
	lo = math.Max(lo, freqs[0])
	hi = math.Min(hi, freqs[len(freqs)-1])
	if !(lo < hi) {
		return 0
	}

	x := []float64{lo}
	y := []float64{common.Interpolate(freqs, power, lo)}
	for i, f := range freqs {
		if f > lo && f < hi {
			x = append(x, f)
			y = append(y, power[i])
		}
	}
	x = append(x, hi)
	y = append(y, common.Interpolate(freqs, power, hi))

	return integrate.Trapezoidal(x, y)
}

// BetaFit is the power-law exponent of a PSD over a band.
type BetaFit struct {
	Method Method            `json:"method"`
	Band   Band              `json:"band"`
	Beta   float64           `json:"beta"` // -slope, NaN when degenerate
	Fit    common.ScalingFit `json:"fit"`
}

// FitBeta fits log10 power against log10 frequency over band and returns
// β = -slope.
func FitBeta(est *Estimate, band Band) BetaFit {
	fit := common.FitLogLog(est.Frequencies, est.Power, band.asRange())
	return BetaFit{
		Method: est.Method,
		Band:   band,
		Beta:   -fit.Slope,
		Fit:    fit,
	}
}
