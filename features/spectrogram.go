package features

import (
	"gonum.org/v1/gonum/mat"

	"github.com/RyanBlaney/sonido-features/features/kaldi"
	"github.com/RyanBlaney/sonido-features/logging"
)

// SpectrogramName is the registry key of the spectrogram extractor.
const SpectrogramName = "spectrogram"

// Spectrogram extracts Kaldi-compatible log-power spectrograms.
type Spectrogram struct {
	logPowerAlgebra

	config  SpectrogramConfig
	compute SpectrogramFunc
	logger  logging.Logger
	seed    uint64
}

// NewSpectrogram validates cfg and creates the extractor.
func NewSpectrogram(cfg SpectrogramConfig, opts ...Option) (*Spectrogram, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.canonicalize()

	o := buildOptions(SpectrogramName, opts)
	return &Spectrogram{
		config:  cfg,
		compute: o.spectrogramFn,
		logger:  o.logger,
		seed:    o.ditherSeed,
	}, nil
}

func (s *Spectrogram) Name() string {
	return SpectrogramName
}

// Config returns a copy of the configuration.
func (s *Spectrogram) Config() SpectrogramConfig {
	return s.config
}

func (s *Spectrogram) FrameShift() float64 {
	return s.config.FrameShift
}

// FeatureDim is the padded window size: the frame length in samples,
// rounded up to a power of two when RoundToPowerOfTwo is set. It has to
// agree with the column count produced by kaldi.Spectrogram.
func (s *Spectrogram) FeatureDim(sampleRate int) int {
	windowSize := kaldi.WindowSize(sampleRate, s.config.FrameLength)
	return kaldi.PaddedWindowSize(windowSize, s.config.RoundToPowerOfTwo)
}

// Extract runs the spectrogram primitive. Primitive errors are returned as is.
func (s *Spectrogram) Extract(samples []float64, sampleRate int) (*mat.Dense, error) {
	s.logger.Debug("Extracting spectrogram", logging.Fields{
		"num_samples": len(samples),
		"sample_rate": sampleRate,
	})

	opts := kaldi.SpectrogramOptions{FrameOptions: frameOptions(s.config.FrameConfig, s.seed)}
	features, err := s.compute(samples, sampleRate, opts)
	if err != nil {
		s.logger.Debug("Spectrogram primitive failed", logging.Fields{"error": err.Error()})
		return nil, err
	}
	return features, nil
}

func (s *Spectrogram) Params() map[string]any {
	return s.config.ToMap()
}

func newSpectrogramFromParams(params map[string]any, opts ...Option) (Extractor, error) {
	cfg, err := SpectrogramConfigFromMap(params)
	if err != nil {
		return nil, err
	}
	return NewSpectrogram(cfg, opts...)
}
