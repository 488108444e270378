package features

import (
	"gonum.org/v1/gonum/mat"

	"github.com/RyanBlaney/sonido-features/features/kaldi"
	"github.com/RyanBlaney/sonido-features/logging"
)

// FbankName is the registry key of the filterbank extractor.
const FbankName = "fbank"

// Fbank extracts log mel filterbank energies. Values are natural-log power
// like the spectrogram, so the same mixing algebra applies.
type Fbank struct {
	logPowerAlgebra

	config  FbankConfig
	compute FbankFunc
	logger  logging.Logger
	seed    uint64
}

// NewFbank validates cfg and creates the extractor.
func NewFbank(cfg FbankConfig, opts ...Option) (*Fbank, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.canonicalize()

	o := buildOptions(FbankName, opts)
	return &Fbank{
		config:  cfg,
		compute: o.fbankFn,
		logger:  o.logger,
		seed:    o.ditherSeed,
	}, nil
}

func (f *Fbank) Name() string {
	return FbankName
}

func (f *Fbank) Config() FbankConfig {
	return f.config
}

func (f *Fbank) FrameShift() float64 {
	return f.config.FrameShift
}

// FeatureDim does not depend on the sampling rate. It is the width Extract
// produces whenever extraction succeeds. Mel banks need an even FFT length,
// so with RoundToPowerOfTwo off a sampling rate that gives an odd window
// (22050 Hz at 25 ms is 551 samples) makes Extract fail with
// kaldi.ErrInvalidOptions instead.
func (f *Fbank) FeatureDim(int) int {
	if f.config.UseEnergy {
		return f.config.NumMelBins + 1
	}
	return f.config.NumMelBins
}

func (f *Fbank) Extract(samples []float64, sampleRate int) (*mat.Dense, error) {
	f.logger.Debug("Extracting fbank", logging.Fields{
		"num_samples": len(samples),
		"sample_rate": sampleRate,
	})

	opts := kaldi.FbankOptions{
		FrameOptions: frameOptions(f.config.FrameConfig, f.seed),
		LowFreq:      f.config.LowFreq,
		HighFreq:     f.config.HighFreq,
		NumMelBins:   f.config.NumMelBins,
		UseEnergy:    f.config.UseEnergy,
	}
	features, err := f.compute(samples, sampleRate, opts)
	if err != nil {
		f.logger.Debug("Fbank primitive failed", logging.Fields{"error": err.Error()})
		return nil, err
	}
	return features, nil
}

func (f *Fbank) Params() map[string]any {
	return f.config.ToMap()
}

func newFbankFromParams(params map[string]any, opts ...Option) (Extractor, error) {
	cfg, err := FbankConfigFromMap(params)
	if err != nil {
		return nil, err
	}
	return NewFbank(cfg, opts...)
}
