package features

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func sampleMatrices() (*mat.Dense, *mat.Dense) {
	a := mat.NewDense(3, 4, []float64{
		-2, 0, 1.5, 3,
		-10, 4, 0.25, -1,
		7, -3, 2, 0,
	})
	b := mat.NewDense(3, 4, []float64{
		1, -1, 0, 2,
		-5, 5, -0.5, 3,
		0, 0, -20, 6,
	})
	return a, b
}

func TestMixZeroScaleIsIdentity(t *testing.T) {
	a, b := sampleMatrices()

	out, err := Mix(a, b, 0)
	require.NoError(t, err)
	assert.True(t, mat.Equal(a, out))

	// result does not alias the input
	out.Set(0, 0, 100)
	assert.Equal(t, -2.0, a.At(0, 0))
}

func TestMixMatchesDefinition(t *testing.T) {
	a, b := sampleMatrices()
	r, c := a.Dims()

	for _, k := range []float64{0, 0.5, 1, 2} {
		out, err := Mix(a, b, k)
		require.NoError(t, err)

		for i := range r {
			for j := range c {
				want := math.Log(math.Exp(a.At(i, j)) + k*math.Exp(b.At(i, j)))
				assert.InDelta(t, want, out.At(i, j), 1e-12, "k=%g (%d,%d)", k, i, j)
			}
		}
	}
}

func TestMixLargeValuesDoNotOverflow(t *testing.T) {
	a := mat.NewDense(1, 2, []float64{800, 900})
	b := mat.NewDense(1, 2, []float64{800, 0})

	out, err := Mix(a, b, 1)
	require.NoError(t, err)
	assert.InDelta(t, 800+math.Log(2), out.At(0, 0), 1e-9)
	assert.InDelta(t, 900, out.At(0, 1), 1e-9)
}

func TestMixShapeMismatch(t *testing.T) {
	a := mat.NewDense(10, 23, nil)
	b := mat.NewDense(11, 23, nil)

	_, err := Mix(a, b, 1)
	require.ErrorIs(t, err, ErrShapeMismatch)

	var shapeErr *ShapeError
	require.ErrorAs(t, err, &shapeErr)
	assert.Equal(t, 10, shapeErr.RowsA)
	assert.Equal(t, 11, shapeErr.RowsB)
	assert.Contains(t, err.Error(), "(10, 23) vs (11, 23)")
}

func TestMixRejectsBadScale(t *testing.T) {
	a, b := sampleMatrices()
	for _, k := range []float64{-1, math.NaN(), math.Inf(1)} {
		_, err := Mix(a, b, k)
		assert.ErrorIs(t, err, ErrInvalidScale, "k=%g", k)
	}
}

func TestMixEmpty(t *testing.T) {
	out, err := Mix(&mat.Dense{}, &mat.Dense{}, 1)
	require.NoError(t, err)
	assert.True(t, out.IsEmpty())
}

func TestComputeEnergy(t *testing.T) {
	zeros := mat.NewDense(7, 5, nil)
	assert.InDelta(t, 35.0, ComputeEnergy(zeros), 1e-12)

	a, _ := sampleMatrices()
	want := 0.0
	for _, v := range a.RawMatrix().Data {
		want += math.Exp(v)
	}
	assert.InDelta(t, want, ComputeEnergy(a), 1e-9)

	assert.Equal(t, 0.0, ComputeEnergy(&mat.Dense{}))
}

func TestEnergyScalingFactor(t *testing.T) {
	k, err := EnergyScalingFactor(100, 10, 10)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, k, 1e-12)

	k, err = EnergyScalingFactor(100, 100, 0)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, k, 1e-12)

	_, err = EnergyScalingFactor(100, 0, 10)
	assert.ErrorIs(t, err, ErrInvalidScale)
}

func TestMixAtSNR(t *testing.T) {
	ext, err := NewSpectrogram(DefaultSpectrogramConfig())
	require.NoError(t, err)

	a := mat.NewDense(2, 2, nil)                   // energy 4
	b := mat.NewDense(2, 2, []float64{1, 1, 1, 1}) // energy 4e

	out, err := MixAtSNR(ext, a, b, 0)
	require.NoError(t, err)

	// at 0 dB the added power equals the reference power
	assert.InDelta(t, 8.0, ComputeEnergy(out), 1e-9)

	_, err = MixAtSNR(nil, a, b, 0)
	assert.Error(t, err)
}
