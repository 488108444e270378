package features

import (
	"bytes"
	"fmt"
	"maps"
	"math"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/RyanBlaney/sonido-features/algorithms/windowing"
)

// FrameConfig holds the frame analysis parameters shared by all Kaldi-style
// extractors. Durations are in seconds.
type FrameConfig struct {
	Dither                 float64 `yaml:"dither" json:"dither"`
	WindowType             string  `yaml:"window_type" json:"window_type"`
	FrameLength            float64 `yaml:"frame_length" json:"frame_length"`
	FrameShift             float64 `yaml:"frame_shift" json:"frame_shift"`
	RemoveDCOffset         bool    `yaml:"remove_dc_offset" json:"remove_dc_offset"`
	RoundToPowerOfTwo      bool    `yaml:"round_to_power_of_two" json:"round_to_power_of_two"`
	EnergyFloor            float64 `yaml:"energy_floor" json:"energy_floor"`
	MinDuration            float64 `yaml:"min_duration" json:"min_duration"`
	PreemphasisCoefficient float64 `yaml:"preemphasis_coefficient" json:"preemphasis_coefficient"`
	RawEnergy              bool    `yaml:"raw_energy" json:"raw_energy"`
}

// DefaultFrameConfig returns 25 ms / 10 ms Povey-windowed analysis.
func DefaultFrameConfig() FrameConfig {
	return FrameConfig{
		Dither:                 0.0,
		WindowType:             string(windowing.Povey),
		FrameLength:            0.025,
		FrameShift:             0.01,
		RemoveDCOffset:         true,
		RoundToPowerOfTwo:      true,
		EnergyFloor:            1e-10,
		MinDuration:            0.0,
		PreemphasisCoefficient: 0.97,
		RawEnergy:              true,
	}
}

// Validate checks field ranges. frame_shift <= frame_length is not checked.
func (c FrameConfig) Validate() error {
	for _, f := range []struct {
		name  string
		value float64
	}{
		{"dither", c.Dither},
		{"frame_length", c.FrameLength},
		{"frame_shift", c.FrameShift},
		{"energy_floor", c.EnergyFloor},
		{"min_duration", c.MinDuration},
	} {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) || f.value < 0 {
			return invalidConfig(f.name, "must be a finite non-negative number, got %g", f.value)
		}
	}

	if p := c.PreemphasisCoefficient; math.IsNaN(p) || p < 0 || p > 1 {
		return invalidConfig("preemphasis_coefficient", "must be in [0, 1], got %g", p)
	}

	if _, err := windowing.ParseType(c.WindowType); err != nil {
		return invalidConfig("window_type", "%v", err)
	}

	return nil
}

// canonicalize stores WindowType in its canonical lowercase spelling so
// equivalent configurations compare and serialize equal. Unknown names are
// left for Validate to report.
func (c *FrameConfig) canonicalize() {
	if t, err := windowing.ParseType(c.WindowType); err == nil {
		c.WindowType = string(t)
	}
}

func (c FrameConfig) toMap(m map[string]any) {
	m["dither"] = c.Dither
	m["window_type"] = c.WindowType
	m["frame_length"] = c.FrameLength
	m["frame_shift"] = c.FrameShift
	m["remove_dc_offset"] = c.RemoveDCOffset
	m["round_to_power_of_two"] = c.RoundToPowerOfTwo
	m["energy_floor"] = c.EnergyFloor
	m["min_duration"] = c.MinDuration
	m["preemphasis_coefficient"] = c.PreemphasisCoefficient
	m["raw_energy"] = c.RawEnergy
}

// SpectrogramConfig configures the log-power spectrogram extractor.
type SpectrogramConfig struct {
	FrameConfig `yaml:",inline"`
}

// DefaultSpectrogramConfig returns the speech-recognition standard settings.
func DefaultSpectrogramConfig() SpectrogramConfig {
	return SpectrogramConfig{FrameConfig: DefaultFrameConfig()}
}

// ToMap returns the flat mapping form of the configuration.
func (c SpectrogramConfig) ToMap() map[string]any {
	m := make(map[string]any, 10)
	c.toMap(m)
	return m
}

// SpectrogramConfigFromMap builds a configuration from its mapping form.
// Missing keys keep their defaults; unknown keys are rejected.
func SpectrogramConfigFromMap(m map[string]any) (SpectrogramConfig, error) {
	cfg := DefaultSpectrogramConfig()
	if err := decodeMap(m, &cfg); err != nil {
		return SpectrogramConfig{}, err
	}
	cfg.canonicalize()
	if err := cfg.Validate(); err != nil {
		return SpectrogramConfig{}, err
	}
	return cfg, nil
}

// FbankConfig configures the log mel filterbank extractor.
type FbankConfig struct {
	FrameConfig `yaml:",inline"`
	LowFreq     float64 `yaml:"low_freq" json:"low_freq"`
	HighFreq    float64 `yaml:"high_freq" json:"high_freq"`
	NumMelBins  int     `yaml:"num_mel_bins" json:"num_mel_bins"`
	UseEnergy   bool    `yaml:"use_energy" json:"use_energy"`
}

// DefaultFbankConfig returns 40 mel bins between 20 Hz and Nyquist - 400 Hz.
func DefaultFbankConfig() FbankConfig {
	return FbankConfig{
		FrameConfig: DefaultFrameConfig(),
		LowFreq:     20.0,
		HighFreq:    -400.0,
		NumMelBins:  40,
		UseEnergy:   false,
	}
}

// Validate checks field ranges. The mel range against Nyquist depends on
// the sampling rate and is checked at extraction time.
func (c FbankConfig) Validate() error {
	if err := c.FrameConfig.Validate(); err != nil {
		return err
	}
	if c.NumMelBins < 3 {
		return invalidConfig("num_mel_bins", "must be at least 3, got %d", c.NumMelBins)
	}
	if math.IsNaN(c.LowFreq) || c.LowFreq < 0 {
		return invalidConfig("low_freq", "must be non-negative, got %g", c.LowFreq)
	}
	if math.IsNaN(c.HighFreq) || math.IsInf(c.HighFreq, 0) {
		return invalidConfig("high_freq", "must be finite, got %g", c.HighFreq)
	}
	if c.HighFreq > 0 && c.HighFreq <= c.LowFreq {
		return invalidConfig("high_freq", "must exceed low_freq %g, got %g", c.LowFreq, c.HighFreq)
	}
	return nil
}

// ToMap returns the flat mapping form of the configuration.
func (c FbankConfig) ToMap() map[string]any {
	m := make(map[string]any, 14)
	c.toMap(m)
	m["low_freq"] = c.LowFreq
	m["high_freq"] = c.HighFreq
	m["num_mel_bins"] = c.NumMelBins
	m["use_energy"] = c.UseEnergy
	return m
}

// FbankConfigFromMap builds a configuration from its mapping form.
func FbankConfigFromMap(m map[string]any) (FbankConfig, error) {
	cfg := DefaultFbankConfig()
	if err := decodeMap(m, &cfg); err != nil {
		return FbankConfig{}, err
	}
	cfg.canonicalize()
	if err := cfg.Validate(); err != nil {
		return FbankConfig{}, err
	}
	return cfg, nil
}

// decodeMap overlays m onto out through a YAML round trip, which gives
// numeric widening (ints into float fields) and strict key checking.
// A nil value would decode as "keep the default", so it is rejected.
func decodeMap(m map[string]any, out any) error {
	if len(m) == 0 {
		return nil
	}
	for _, key := range slices.Sorted(maps.Keys(m)) {
		if m[key] == nil {
			return invalidConfig(key, "must not be null")
		}
	}

	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}
