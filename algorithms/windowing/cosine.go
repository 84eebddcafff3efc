package windowing

import (
	"math"
)

// Hann represents a Hann window function
type Hann struct {
	taper
}

// NewHann creates a new Hann window
func NewHann(size int, symmetric bool) *Hann {
	return &Hann{taper{
		kind:         TypeHann,
		coefficients: cosineSum(size, symmetric, 0.5, 0.5, 0),
	}}
}

// Hamming represents a Hamming window function
type Hamming struct {
	taper
}

// NewHamming creates a new Hamming window
func NewHamming(size int, symmetric bool) *Hamming {
	return &Hamming{taper{
		kind:         TypeHamming,
		coefficients: cosineSum(size, symmetric, 0.54, 0.46, 0),
	}}
}

// Blackman represents a Blackman window function
type Blackman struct {
	taper
}

// NewBlackman creates a new Blackman window
func NewBlackman(size int, symmetric bool) *Blackman {
	return &Blackman{taper{
		kind:         TypeBlackman,
		coefficients: cosineSum(size, symmetric, 0.42, 0.5, 0.08),
	}}
}

// Rectangular represents a rectangular (boxcar) window, i.e. no taper
type Rectangular struct {
	taper
}

// NewRectangular creates a new rectangular window
func NewRectangular(size int) *Rectangular {
	coeffs := make([]float64, size)
	for i := range coeffs {
		coeffs[i] = 1.0
	}
	return &Rectangular{taper{kind: TypeRectangular, coefficients: coeffs}}
}

// cosineSum generates w[i] = a0 - a1 cos(2πi/D) + a2 cos(4πi/D)
func cosineSum(size int, symmetric bool, a0, a1, a2 float64) []float64 {
	coeffs := make([]float64, size)
	if size == 1 {
		coeffs[0] = 1
		return coeffs
	}

	d := denominator(size, symmetric)
	for i := range size {
		arg := 2 * math.Pi * float64(i) / d
		coeffs[i] = a0 - a1*math.Cos(arg) + a2*math.Cos(2*arg)
	}
	return coeffs
}
