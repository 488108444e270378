package kaldi

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/RyanBlaney/sonido-features/algorithms/spectral"
)

// Fbank computes log mel filterbank energies with one row per frame.
// With UseEnergy the frame log energy is prepended as column 0.
func Fbank(waveform []float64, sampleRate int, opts FbankOptions) (*mat.Dense, error) {
	f, err := newFramer(len(waveform), sampleRate, opts.FrameOptions)
	if err != nil {
		return nil, err
	}

	banks, err := spectral.NewMelScale().FilterBank(opts.NumMelBins, f.paddedSize, sampleRate, opts.LowFreq, opts.HighFreq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidOptions, err)
	}
	if float64(len(waveform)) < opts.MinDuration*float64(sampleRate) {
		return &mat.Dense{}, nil
	}

	offset := 0
	if opts.UseEnergy {
		offset = 1
	}

	fft := spectral.NewFFT()
	ps := spectral.NewPowerSpectrum()
	half := f.paddedSize / 2

	return f.run(waveform, opts.NumMelBins+offset, func(frame []float64, logEnergy float64, row []float64) {
		power := ps.Compute(fft.Compute(frame))[:half]

		var energies mat.VecDense
		energies.MulVec(banks, mat.NewVecDense(half, power))
		for b := range opts.NumMelBins {
			row[offset+b] = math.Log(math.Max(energies.AtVec(b), Epsilon))
		}
		if opts.UseEnergy {
			row[0] = logEnergy
		}
	}), nil
}
