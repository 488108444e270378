// Package features extracts log-domain time-frequency features from raw
// audio and combines already-extracted features of mixed signals.
//
// Extractors are looked up by name in a Registry and built from the flat
// mapping form of their configuration, so pipelines can be driven entirely
// by recipe files. The DSP itself is delegated to a primitive function
// (package kaldi by default) that can be replaced through options.
package features

import (
	"gonum.org/v1/gonum/mat"

	"github.com/RyanBlaney/sonido-features/features/kaldi"
	"github.com/RyanBlaney/sonido-features/logging"
)

// Extractor turns audio into a feature matrix with one row per frame.
// Implementations are immutable and safe for concurrent use.
type Extractor interface {
	// Name is the registry key of the extractor kind.
	Name() string

	// FrameShift is the hop between consecutive rows, in seconds.
	FrameShift() float64

	// FeatureDim is the number of columns Extract returns at sampleRate,
	// computed without running extraction.
	FeatureDim(sampleRate int) int

	// Extract computes features for mono samples.
	Extract(samples []float64, sampleRate int) (*mat.Dense, error)

	// Mix approximates the features of audio_a + k*audio_b from the
	// features of each signal.
	Mix(a, b mat.Matrix, energyScalingFactorB float64) (*mat.Dense, error)

	// ComputeEnergy returns the total signal energy a feature matrix represents.
	ComputeEnergy(features mat.Matrix) float64

	// Params returns the configuration in flat mapping form.
	Params() map[string]any
}

// SpectrogramFunc computes a log-power spectrogram. kaldi.Spectrogram is the default.
type SpectrogramFunc func(waveform []float64, sampleRate int, opts kaldi.SpectrogramOptions) (*mat.Dense, error)

// FbankFunc computes log mel filterbank energies. kaldi.Fbank is the default.
type FbankFunc func(waveform []float64, sampleRate int, opts kaldi.FbankOptions) (*mat.Dense, error)

type options struct {
	spectrogramFn SpectrogramFunc
	fbankFn       FbankFunc
	logger        logging.Logger
	ditherSeed    uint64
}

// Option customizes an extractor at construction.
type Option func(*options)

// WithSpectrogramFunc replaces the spectrogram primitive.
func WithSpectrogramFunc(fn SpectrogramFunc) Option {
	return func(o *options) {
		o.spectrogramFn = fn
	}
}

// WithFbankFunc replaces the filterbank primitive.
func WithFbankFunc(fn FbankFunc) Option {
	return func(o *options) {
		o.fbankFn = fn
	}
}

// WithLogger sets the logger used for debug output.
func WithLogger(logger logging.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithDitherSeed fixes the seed of the dither noise. Extraction with the
// same seed is deterministic.
func WithDitherSeed(seed uint64) Option {
	return func(o *options) {
		o.ditherSeed = seed
	}
}

func buildOptions(name string, opts []Option) options {
	o := options{
		spectrogramFn: kaldi.Spectrogram,
		fbankFn:       kaldi.Fbank,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = logging.WithFields(logging.Fields{"component": "feature_extractor"})
	}
	o.logger = o.logger.WithFields(logging.Fields{"extractor": name})
	return o
}

func frameOptions(c FrameConfig, seed uint64) kaldi.FrameOptions {
	return kaldi.FrameOptions{
		FrameLengthMs:          c.FrameLength * 1000,
		FrameShiftMs:           c.FrameShift * 1000,
		Dither:                 c.Dither,
		DitherSeed:             seed,
		WindowType:             c.WindowType,
		RemoveDCOffset:         c.RemoveDCOffset,
		RoundToPowerOfTwo:      c.RoundToPowerOfTwo,
		EnergyFloor:            c.EnergyFloor,
		PreemphasisCoefficient: c.PreemphasisCoefficient,
		RawEnergy:              c.RawEnergy,
		MinDuration:            c.MinDuration,
		// frames are centered on multiples of the shift so that
		// num_frames = round(duration / frame_shift)
		SnipEdges: false,
	}
}

// logPowerAlgebra implements Mix and ComputeEnergy for features stored as
// natural-log power.
type logPowerAlgebra struct{}

func (logPowerAlgebra) Mix(a, b mat.Matrix, energyScalingFactorB float64) (*mat.Dense, error) {
	return Mix(a, b, energyScalingFactorB)
}

func (logPowerAlgebra) ComputeEnergy(features mat.Matrix) float64 {
	return ComputeEnergy(features)
}
