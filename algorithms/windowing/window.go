package windowing

import (
	"fmt"

	"github.com/RyanBlaney/latido/algorithms/common"
)

// Type names a taper window.
type Type string

const (
	TypeHann        Type = "hann"
	TypeHamming     Type = "hamming"
	TypeBlackman    Type = "blackman"
	TypeRectangular Type = "rectangular"
)

// Window is a fixed-size taper applied to spectral segments
type Window interface {
	// Apply returns a windowed copy of segment, or nil on size mismatch
	Apply(segment []float64) []float64
	// Coefficients returns a copy of the window coefficients
	Coefficients() []float64
	// Energy returns the sum of squared coefficients
	Energy() float64
	Size() int
	Type() Type
}

// New creates a periodic window of the given type, the variant suited to
// averaged periodograms.
func New(kind Type, size int) (Window, error) {
	if size < 1 {
		return nil, fmt.Errorf("%w: window size %d", common.ErrInvalidParameter, size)
	}

	switch kind {
	case TypeHann, "":
		return NewHann(size, false), nil
	case TypeHamming:
		return NewHamming(size, false), nil
	case TypeBlackman:
		return NewBlackman(size, false), nil
	case TypeRectangular:
		return NewRectangular(size), nil
	default:
		return nil, fmt.Errorf("%w: unknown window type %q", common.ErrInvalidParameter, kind)
	}
}

// taper holds coefficients shared by every window implementation
type taper struct {
	kind         Type
	coefficients []float64
}

func (t *taper) Apply(segment []float64) []float64 {
	if len(segment) != len(t.coefficients) {
		return nil
	}

	windowed := make([]float64, len(segment))
	for i, c := range t.coefficients {
		windowed[i] = segment[i] * c
	}
	return windowed
}

func (t *taper) Coefficients() []float64 {
	coeffs := make([]float64, len(t.coefficients))
	copy(coeffs, t.coefficients)
	return coeffs
}

func (t *taper) Energy() float64 {
	energy := 0.0
	for _, c := range t.coefficients {
		energy += c * c
	}
	return energy
}

func (t *taper) Size() int {
	return len(t.coefficients)
}

func (t *taper) Type() Type {
	return t.kind
}

// denominator returns the cosine period of a generalized cosine window
func denominator(size int, symmetric bool) float64 {
	if symmetric && size > 1 {
		return float64(size - 1)
	}
	return float64(size)
}
