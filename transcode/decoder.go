// Package transcode decodes audio files into mono float64 samples by
// shelling out to ffprobe and ffmpeg.
package transcode

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/RyanBlaney/sonido-features/logging"
)

var (
	// ErrNoAudioStream is returned when the input has no audio stream.
	ErrNoAudioStream = errors.New("no audio stream found")
	// ErrNoSamples is returned when ffmpeg produced no samples.
	ErrNoSamples = errors.New("no audio samples decoded")
)

// Audio is decoded mono PCM.
type Audio struct {
	Samples    []float64     `json:"-"`
	SampleRate int           `json:"sample_rate"`
	Duration   time.Duration `json:"duration"`
	Source     *Metadata     `json:"source,omitempty"`
}

// Metadata holds the properties ffprobe reports for the first audio stream.
type Metadata struct {
	SampleRate int     `json:"sample_rate"`
	Channels   int     `json:"channels"`
	Codec      string  `json:"codec"`
	Duration   float64 `json:"duration"`
	Bitrate    int     `json:"bitrate"`
	Format     string  `json:"format"`
}

// Config holds decoder configuration
type Config struct {
	// TargetSampleRate is the output rate; 0 keeps the native rate.
	TargetSampleRate int           `json:"target_sample_rate" yaml:"target_sample_rate"`
	Offset           time.Duration `json:"offset" yaml:"offset"`
	MaxDuration      time.Duration `json:"max_duration" yaml:"max_duration"`
	ResampleQuality  string        `json:"resample_quality" yaml:"resample_quality"` // "fast", "medium", "high"
	FFmpegPath       string        `json:"ffmpeg_path" yaml:"ffmpeg_path"`
	FFprobePath      string        `json:"ffprobe_path" yaml:"ffprobe_path"`
	Timeout          time.Duration `json:"timeout" yaml:"timeout"`
}

// DefaultConfig returns 16kHz mono decoding, the usual rate for speech features.
func DefaultConfig() *Config {
	return &Config{
		TargetSampleRate: 16000,
		ResampleQuality:  "high",
		FFmpegPath:       "ffmpeg",
		FFprobePath:      "ffprobe",
		Timeout:          2 * time.Minute,
	}
}

// Validate checks the configuration without touching the binaries.
func (c *Config) Validate() error {
	if c.TargetSampleRate < 0 {
		return fmt.Errorf("target sample rate must be non-negative: %d", c.TargetSampleRate)
	}
	if c.Offset < 0 || c.MaxDuration < 0 || c.Timeout < 0 {
		return errors.New("offset, max duration and timeout must be non-negative")
	}
	switch c.ResampleQuality {
	case "", "fast", "medium", "high":
	default:
		return fmt.Errorf("unknown resample quality %q", c.ResampleQuality)
	}
	if c.FFmpegPath == "" || c.FFprobePath == "" {
		return errors.New("ffmpeg and ffprobe paths must be set")
	}
	return nil
}

// Decoder handles audio decoding using FFmpeg
type Decoder struct {
	config *Config
	logger logging.Logger
}

// NewDecoder creates a decoder. A nil config means DefaultConfig.
func NewDecoder(config *Config) *Decoder {
	if config == nil {
		config = DefaultConfig()
	}
	return &Decoder{
		config: config,
		logger: logging.WithFields(logging.Fields{"component": "audio_decoder"}),
	}
}

// Config returns a copy of the decoder configuration.
func (d *Decoder) Config() Config {
	return *d.config
}

// CheckAvailability runs "-version" on both binaries.
func (d *Decoder) CheckAvailability(ctx context.Context) error {
	for _, bin := range []string{d.config.FFmpegPath, d.config.FFprobePath} {
		if err := exec.CommandContext(ctx, bin, "-version").Run(); err != nil {
			return fmt.Errorf("%s not available: %w", bin, err)
		}
	}
	return nil
}

// Probe reads the metadata of the first audio stream of filename.
func (d *Decoder) Probe(ctx context.Context, filename string) (*Metadata, error) {
	output, err := d.run(ctx, d.config.FFprobePath, probeArgs(filename), nil)
	if err != nil {
		return nil, fmt.Errorf("ffprobe %s: %w", filename, err)
	}
	return parseFFprobeOutput(output)
}

// DecodeFile decodes filename to mono samples at the target rate.
func (d *Decoder) DecodeFile(ctx context.Context, filename string) (*Audio, error) {
	logger := d.logger.WithContext(ctx).WithFields(logging.Fields{
		"function": "DecodeFile",
		"filename": filename,
	})

	logger.Debug("Starting audio file decode")

	metadata, err := d.Probe(ctx, filename)
	if err != nil {
		logger.Error(err, "Failed to probe audio file")
		return nil, err
	}

	logger.Debug("Audio metadata detected", logging.Fields{
		"input_sample_rate": metadata.SampleRate,
		"input_channels":    metadata.Channels,
		"input_codec":       metadata.Codec,
		"input_duration":    metadata.Duration,
	})

	return d.decode(ctx, filename, nil, metadata, logger)
}

// DecodeReader decodes audio read from r. The whole input is buffered
// because ffprobe and ffmpeg each need to read it.
func (d *Decoder) DecodeReader(ctx context.Context, r io.Reader) (*Audio, error) {
	logger := d.logger.WithContext(ctx).WithFields(logging.Fields{"function": "DecodeReader"})

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read audio: %w", err)
	}
	if len(data) == 0 {
		return nil, errors.New("empty audio data")
	}

	output, err := d.run(ctx, d.config.FFprobePath, probeArgs("pipe:0"), data)
	if err != nil {
		return nil, fmt.Errorf("ffprobe: %w", err)
	}
	metadata, err := parseFFprobeOutput(output)
	if err != nil {
		return nil, err
	}

	return d.decode(ctx, "pipe:0", data, metadata, logger)
}

func (d *Decoder) decode(ctx context.Context, input string, stdin []byte, metadata *Metadata, logger logging.Logger) (*Audio, error) {
	sampleRate := d.outputSampleRate(metadata)
	if sampleRate <= 0 {
		return nil, errors.New("cannot determine output sample rate: target is native and ffprobe reported none")
	}

	args := d.buildFFmpegArgs(input, sampleRate, metadata)
	logger.Debug("Running ffmpeg command", logging.Fields{
		"args": strings.Join(args, " "),
	})

	start := time.Now()
	output, err := d.run(ctx, d.config.FFmpegPath, args, stdin)
	if err != nil {
		logger.Error(err, "FFmpeg decode failed")
		return nil, fmt.Errorf("ffmpeg decode: %w", err)
	}

	samples := bytesToFloat64(output)
	if len(samples) == 0 {
		return nil, ErrNoSamples
	}

	duration := time.Duration(len(samples)) * time.Second / time.Duration(sampleRate)
	logger.Debug("FFmpeg decode completed", logging.Fields{
		"output_samples":     len(samples),
		"output_sample_rate": sampleRate,
		"output_duration":    duration.Seconds(),
		"decode_time":        time.Since(start).Seconds(),
	})

	return &Audio{
		Samples:    samples,
		SampleRate: sampleRate,
		Duration:   duration,
		Source:     metadata,
	}, nil
}

func (d *Decoder) outputSampleRate(metadata *Metadata) int {
	if d.config.TargetSampleRate > 0 {
		return d.config.TargetSampleRate
	}
	return metadata.SampleRate
}

// run executes a binary under the configured timeout and returns its stdout.
// ffmpeg's stderr is attached to the error.
func (d *Decoder) run(ctx context.Context, bin string, args []string, stdin []byte) ([]byte, error) {
	if d.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.config.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, bin, args...)
	if stdin != nil {
		cmd.Stdin = bytes.NewReader(stdin)
	}

	output, err := cmd.Output()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && len(exitErr.Stderr) > 0 {
			return nil, fmt.Errorf("%w, stderr: %s", err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return nil, err
	}
	return output, nil
}

func probeArgs(input string) []string {
	return []string{
		"-v", "quiet",
		"-print_format", "json",
		"-show_streams",
		"-select_streams", "a:0",
		input,
	}
}

// buildFFmpegArgs builds a full ffmpeg command line writing mono f64le to stdout.
func (d *Decoder) buildFFmpegArgs(input string, sampleRate int, metadata *Metadata) []string {
	args := []string{"-v", "error"}

	if d.config.Offset > 0 {
		args = append(args, "-ss", fmt.Sprintf("%.3f", d.config.Offset.Seconds()))
	}
	args = append(args, "-i", input)

	if d.config.MaxDuration > 0 {
		args = append(args, "-t", fmt.Sprintf("%.3f", d.config.MaxDuration.Seconds()))
	}

	args = append(args,
		"-map", "0:a:0",
		"-vn",
		"-f", "f64le",
		"-ac", "1",
		"-ar", strconv.Itoa(sampleRate),
	)

	if metadata != nil && metadata.SampleRate != sampleRate {
		switch d.config.ResampleQuality {
		case "fast":
			args = append(args, "-af", "aresample=resampler=soxr:precision=16")
		case "medium":
			args = append(args, "-af", "aresample=resampler=soxr:precision=20")
		case "high":
			args = append(args, "-af", "aresample=resampler=soxr:precision=28")
		}
	}

	return append(args, "pipe:1")
}

// parseFFprobeOutput parses ffprobe JSON to extract audio metadata
func parseFFprobeOutput(jsonData []byte) (*Metadata, error) {
	var probe struct {
		Streams []struct {
			CodecType     string `json:"codec_type"`
			CodecName     string `json:"codec_name"`
			SampleRate    string `json:"sample_rate"`
			Channels      int    `json:"channels"`
			Duration      string `json:"duration"`
			BitRate       string `json:"bit_rate"`
			CodecLongName string `json:"codec_long_name"`
		} `json:"streams"`
	}

	if err := json.Unmarshal(jsonData, &probe); err != nil {
		return nil, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}

	if len(probe.Streams) == 0 {
		return nil, ErrNoAudioStream
	}

	stream := probe.Streams[0]
	if stream.CodecType != "audio" {
		return nil, fmt.Errorf("%w: first stream is %s", ErrNoAudioStream, stream.CodecType)
	}

	if stream.Channels <= 0 {
		return nil, fmt.Errorf("invalid channel count: %d", stream.Channels)
	}

	// missing values are left at zero
	sampleRate, _ := strconv.Atoi(stream.SampleRate)
	duration, _ := strconv.ParseFloat(stream.Duration, 64)
	bitrate, _ := strconv.Atoi(stream.BitRate)

	return &Metadata{
		SampleRate: sampleRate,
		Channels:   stream.Channels,
		Codec:      stream.CodecName,
		Duration:   duration,
		Bitrate:    bitrate,
		Format:     stream.CodecLongName,
	}, nil
}

// bytesToFloat64 converts raw little-endian float64 bytes. A trailing
// partial sample is dropped.
func bytesToFloat64(data []byte) []float64 {
	sampleCount := len(data) / 8
	if sampleCount == 0 {
		return nil
	}

	samples := make([]float64, sampleCount)
	for i := range sampleCount {
		samples[i] = math.Float64frombits(binary.LittleEndian.Uint64(data[i*8:]))
	}
	return samples
}
