package filters

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDCRemoval(t *testing.T) {
	frame := []float64{1, 2, 3, 6}
	mean := NewDCRemoval().ProcessFrameInPlace(frame)

	assert.InDelta(t, 3.0, mean, 1e-12)
	assert.InDeltaSlice(t, []float64{-2, -1, 0, 3}, frame, 1e-12)
	assert.Equal(t, 0.0, NewDCRemoval().ProcessFrameInPlace(nil))
}

func TestPreEmphasis(t *testing.T) {
	pe, err := NewPreEmphasis(0.5)
	require.NoError(t, err)

	frame := []float64{2, 4, 6}
	pe.ProcessFrameInPlace(frame)

	// y0 = 2 - 0.5*2, y1 = 4 - 0.5*2, y2 = 6 - 0.5*4
	assert.InDeltaSlice(t, []float64{1, 3, 4}, frame, 1e-12)
}

func TestPreEmphasisZeroIsIdentity(t *testing.T) {
	pe, err := NewPreEmphasis(0)
	require.NoError(t, err)

	frame := []float64{1, -1, 3}
	pe.ProcessFrameInPlace(frame)
	assert.Equal(t, []float64{1, -1, 3}, frame)
}

func TestPreEmphasisRejectsOutOfRange(t *testing.T) {
	_, err := NewPreEmphasis(1.5)
	assert.Error(t, err)
	_, err = NewPreEmphasis(-0.1)
	assert.Error(t, err)
}

func TestDitherReproducible(t *testing.T) {
	a := make([]float64, 32)
	b := make([]float64, 32)

	NewDither(1.0, 42).ProcessFrameInPlace(a)
	NewDither(1.0, 42).ProcessFrameInPlace(b)
	assert.Equal(t, a, b)
	assert.NotEqual(t, make([]float64, 32), a)

	c := make([]float64, 4)
	NewDither(0, 42).ProcessFrameInPlace(c)
	assert.Equal(t, make([]float64, 4), c)
}
