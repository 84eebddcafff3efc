package windowing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RyanBlaney/latido/algorithms/common"
)

func TestNew_KnownTypes(t *testing.T) {
	t.Parallel()

	for _, kind := range []Type{TypeHann, TypeHamming, TypeBlackman, TypeRectangular} {
		w, err := New(kind, 16)
		require.NoError(t, err)
		assert.Equal(t, kind, w.Type())
		assert.Equal(t, 16, w.Size())
	}

	w, err := New("", 8)
	require.NoError(t, err)
	assert.Equal(t, TypeHann, w.Type())
}

func TestNew_Rejects(t *testing.T) {
	t.Parallel()

	_, err := New("kaiser", 16)
	require.ErrorIs(t, err, common.ErrInvalidParameter)

	_, err = New(TypeHann, 0)
	require.ErrorIs(t, err, common.ErrInvalidParameter)
}

func TestHann_PeriodicShape(t *testing.T) {
	t.Parallel()

	c := NewHann(4, false).Coefficients()
	assert.InDeltaSlice(t, []float64{0, 0.5, 1, 0.5}, c, 1e-12)

	// periodic Hann of size N has energy 3N/8
	assert.InDelta(t, 3.0*64/8, NewHann(64, false).Energy(), 1e-9)
}

func TestHann_Symmetric(t *testing.T) {
	t.Parallel()

	c := NewHann(5, true).Coefficients()
	assert.InDelta(t, 0.0, c[0], 1e-12)
	assert.InDelta(t, 1.0, c[2], 1e-12)
	assert.InDelta(t, 0.0, c[4], 1e-12)
}

func TestApply(t *testing.T) {
	t.Parallel()

	w := NewRectangular(3)
	in := []float64{1, 2, 3}
	out := w.Apply(in)
	assert.Equal(t, in, out)
	assert.Nil(t, w.Apply([]float64{1}))
	assert.InDelta(t, 3.0, w.Energy(), 0)
}
