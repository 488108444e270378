package kaldi

import (
	"gonum.org/v1/gonum/mat"

	"github.com/RyanBlaney/sonido-features/algorithms/spectral"
)

// Spectrogram computes a log-power spectrogram with one row per frame.
//
// Every padded FFT bin is kept (the two-sided spectrum), so the matrix has
// PaddedWindowSize columns. Column 0 holds the frame log energy instead of
// the DC power, as in Kaldi. A waveform shorter than MinDuration yields an
// empty matrix.
func Spectrogram(waveform []float64, sampleRate int, opts SpectrogramOptions) (*mat.Dense, error) {
	f, err := newFramer(len(waveform), sampleRate, opts.FrameOptions)
	if err != nil {
		return nil, err
	}
	if float64(len(waveform)) < opts.MinDuration*float64(sampleRate) {
		return &mat.Dense{}, nil
	}

	fft := spectral.NewFFT()
	ps := spectral.NewPowerSpectrum()

	return f.run(waveform, f.paddedSize, func(frame []float64, logEnergy float64, row []float64) {
		copy(row, ps.ComputeLog(fft.Compute(frame), Epsilon))
		row[0] = logEnergy
	}), nil
}
