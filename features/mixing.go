package features

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Mix combines two log-power matrices as if their underlying signals had
// been added, with b's power scaled by k:
//
//	out = log(exp(a) + k*exp(b))
//
// The sum is evaluated as a log-sum-exp over {a, b + log k}, so large log
// powers do not overflow. k == 0 returns a copy of a.
func Mix(a, b mat.Matrix, k float64) (*mat.Dense, error) {
	ra, ca := a.Dims()
	rb, cb := b.Dims()
	if ra != rb || ca != cb {
		return nil, &ShapeError{Op: "mix", RowsA: ra, ColsA: ca, RowsB: rb, ColsB: cb}
	}
	if math.IsNaN(k) || math.IsInf(k, 0) || k < 0 {
		return nil, fmt.Errorf("%w: %g", ErrInvalidScale, k)
	}
	if ra == 0 || ca == 0 {
		return &mat.Dense{}, nil
	}

	out := mat.DenseCopyOf(a)
	if k == 0 {
		return out, nil
	}

	logK := math.Log(k)
	pair := make([]float64, 2)
	out.Apply(func(i, j int, v float64) float64 {
		pair[0], pair[1] = v, b.At(i, j)+logK
		return floats.LogSumExp(pair)
	}, out)

	return out, nil
}

// ComputeEnergy returns sum(exp(v)) over every element of a log-power matrix.
func ComputeEnergy(features mat.Matrix) float64 {
	r, c := features.Dims()
	if r == 0 || c == 0 {
		return 0
	}

	var power mat.Dense
	power.Apply(func(_, _ int, v float64) float64 {
		return math.Exp(v)
	}, features)
	return mat.Sum(&power)
}

// EnergyScalingFactor returns the factor to pass to Mix so that the added
// signal sits snrDB decibels below the reference signal.
func EnergyScalingFactor(referenceEnergy, addedEnergy, snrDB float64) (float64, error) {
	if addedEnergy <= 0 || math.IsNaN(addedEnergy) {
		return 0, fmt.Errorf("%w: added signal energy must be positive, got %g", ErrInvalidScale, addedEnergy)
	}
	if referenceEnergy < 0 || math.IsNaN(referenceEnergy) {
		return 0, fmt.Errorf("%w: reference energy must be non-negative, got %g", ErrInvalidScale, referenceEnergy)
	}

	targetEnergy := referenceEnergy / math.Pow(10, snrDB/10)
	return targetEnergy / addedEnergy, nil
}

// MixAtSNR mixes b into a at the given signal-to-noise ratio, measuring
// both energies with ext.
func MixAtSNR(ext Extractor, a, b mat.Matrix, snrDB float64) (*mat.Dense, error) {
	if ext == nil {
		return nil, errors.New("mix at snr: nil extractor")
	}

	k, err := EnergyScalingFactor(ext.ComputeEnergy(a), ext.ComputeEnergy(b), snrDB)
	if err != nil {
		return nil, err
	}
	return ext.Mix(a, b, k)
}
