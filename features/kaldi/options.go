// Package kaldi computes Kaldi-compatible spectrogram and filterbank
// features. It is the default primitive behind the extractors in package
// features, which only see it through a function value.
package kaldi

import (
	"errors"
	"fmt"
	"math"

	"github.com/RyanBlaney/sonido-features/algorithms/spectral"
	"github.com/RyanBlaney/sonido-features/algorithms/windowing"
)

var (
	// ErrInvalidOptions is returned for options no extraction can run with.
	ErrInvalidOptions = errors.New("kaldi: invalid options")
	// ErrWaveformTooShort is returned when the waveform cannot hold one window.
	ErrWaveformTooShort = errors.New("kaldi: waveform shorter than one window")
)

// Epsilon is the power floor applied before taking logarithms. It equals the
// float32 machine epsilon, which is what Kaldi-compatible implementations use.
const Epsilon = 1.1920928955078125e-07

// FrameOptions are shared by every feature type. Durations are in
// milliseconds except MinDuration, which is in seconds as in Kaldi.
type FrameOptions struct {
	FrameLengthMs          float64
	FrameShiftMs           float64
	Dither                 float64
	DitherSeed             uint64
	WindowType             string
	RemoveDCOffset         bool
	RoundToPowerOfTwo      bool
	EnergyFloor            float64
	PreemphasisCoefficient float64
	RawEnergy              bool
	MinDuration            float64
	SnipEdges              bool
}

// SpectrogramOptions configures Spectrogram.
type SpectrogramOptions struct {
	FrameOptions
}

// FbankOptions configures Fbank.
type FbankOptions struct {
	FrameOptions
	LowFreq    float64
	HighFreq   float64
	NumMelBins int
	UseEnergy  bool
}

// WindowSize returns the number of samples covered by seconds at sampleRate.
// The product is floored, except that values within 1e-9 (relative) of an
// integer snap to it, so 0.025s at 16kHz is 400 samples regardless of how
// the duration was converted between seconds and milliseconds.
func WindowSize(sampleRate int, seconds float64) int {
	exact := float64(sampleRate) * seconds
	if r := math.Round(exact); math.Abs(exact-r) <= 1e-9*math.Max(1, math.Abs(exact)) {
		return int(r)
	}
	return int(math.Floor(exact))
}

// PaddedWindowSize returns the FFT length used for a window of windowSize samples.
func PaddedWindowSize(windowSize int, roundToPowerOfTwo bool) int {
	if !roundToPowerOfTwo {
		return windowSize
	}
	return spectral.NextPowerOfTwo(windowSize)
}

func (o FrameOptions) validate(sampleRate int) (windowing.Type, error) {
	if sampleRate <= 0 {
		return "", fmt.Errorf("%w: sample rate must be positive: %d", ErrInvalidOptions, sampleRate)
	}
	if o.FrameShiftMs <= 0 {
		return "", fmt.Errorf("%w: frame shift must be positive: %gms", ErrInvalidOptions, o.FrameShiftMs)
	}
	if o.Dither < 0 {
		return "", fmt.Errorf("%w: dither must be >= 0: %g", ErrInvalidOptions, o.Dither)
	}
	if o.EnergyFloor < 0 {
		return "", fmt.Errorf("%w: energy floor must be >= 0: %g", ErrInvalidOptions, o.EnergyFloor)
	}
	if o.PreemphasisCoefficient < 0 || o.PreemphasisCoefficient > 1 {
		return "", fmt.Errorf("%w: preemphasis coefficient must be in [0,1]: %g", ErrInvalidOptions, o.PreemphasisCoefficient)
	}
	typ, err := windowing.ParseType(o.WindowType)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidOptions, err)
	}
	return typ, nil
}
