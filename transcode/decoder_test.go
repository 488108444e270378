package transcode

import (
	"bytes"
	"context"
	"encoding/binary"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const ffprobeWAV = `{
  "streams": [
    {
      "index": 0,
      "codec_name": "pcm_s16le",
      "codec_long_name": "PCM signed 16-bit little-endian",
      "codec_type": "audio",
      "sample_rate": "44100",
      "channels": 2,
      "duration": "3.500000",
      "bit_rate": "1411200"
    }
  ]
}`

func TestParseFFprobeOutput(t *testing.T) {
	meta, err := parseFFprobeOutput([]byte(ffprobeWAV))
	require.NoError(t, err)

	assert.Equal(t, 44100, meta.SampleRate)
	assert.Equal(t, 2, meta.Channels)
	assert.Equal(t, "pcm_s16le", meta.Codec)
	assert.InDelta(t, 3.5, meta.Duration, 1e-9)
	assert.Equal(t, 1411200, meta.Bitrate)
	assert.Equal(t, "PCM signed 16-bit little-endian", meta.Format)
}

func TestParseFFprobeOutputErrors(t *testing.T) {
	_, err := parseFFprobeOutput([]byte(`{"streams": []}`))
	assert.ErrorIs(t, err, ErrNoAudioStream)

	_, err = parseFFprobeOutput([]byte(`{"streams": [{"codec_type": "video", "channels": 0}]}`))
	assert.ErrorIs(t, err, ErrNoAudioStream)

	_, err = parseFFprobeOutput([]byte(`{"streams": [{"codec_type": "audio", "channels": 0}]}`))
	assert.Error(t, err)

	_, err = parseFFprobeOutput([]byte(`not json`))
	assert.Error(t, err)

	meta, err := parseFFprobeOutput([]byte(`{"streams": [{"codec_type": "audio", "channels": 1, "sample_rate": "N/A"}]}`))
	require.NoError(t, err)
	assert.Zero(t, meta.SampleRate)
}

func TestBytesToFloat64(t *testing.T) {
	want := []float64{0, 1, -0.5, math.Pi}

	var buf bytes.Buffer
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, want))
	buf.Write([]byte{1, 2, 3}) // partial sample

	assert.Equal(t, want, bytesToFloat64(buf.Bytes()))
	assert.Nil(t, bytesToFloat64([]byte{1, 2}))
}

func TestBuildFFmpegArgs(t *testing.T) {
	d := NewDecoder(nil)
	meta := &Metadata{SampleRate: 44100, Channels: 2}

	args := d.buildFFmpegArgs("in.wav", 16000, meta)
	assert.Equal(t, []string{
		"-v", "error",
		"-i", "in.wav",
		"-map", "0:a:0",
		"-vn",
		"-f", "f64le",
		"-ac", "1",
		"-ar", "16000",
		"-af", "aresample=resampler=soxr:precision=28",
		"pipe:1",
	}, args)

	// no resampler when the rate is unchanged
	args = d.buildFFmpegArgs("in.wav", 44100, meta)
	assert.NotContains(t, args, "-af")
}

func TestBuildFFmpegArgsOffsetAndDuration(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Offset = 1500 * time.Millisecond
	cfg.MaxDuration = 2 * time.Second
	cfg.ResampleQuality = ""
	d := NewDecoder(cfg)

	args := d.buildFFmpegArgs("pipe:0", 8000, &Metadata{SampleRate: 16000})
	assert.Equal(t, []string{
		"-v", "error",
		"-ss", "1.500",
		"-i", "pipe:0",
		"-t", "2.000",
		"-map", "0:a:0",
		"-vn",
		"-f", "f64le",
		"-ac", "1",
		"-ar", "8000",
		"pipe:1",
	}, args)
}

func TestOutputSampleRate(t *testing.T) {
	meta := &Metadata{SampleRate: 22050}

	assert.Equal(t, 16000, NewDecoder(nil).outputSampleRate(meta))

	cfg := DefaultConfig()
	cfg.TargetSampleRate = 0
	assert.Equal(t, 22050, NewDecoder(cfg).outputSampleRate(meta))
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())

	tests := []func(*Config){
		func(c *Config) { c.TargetSampleRate = -1 },
		func(c *Config) { c.Offset = -time.Second },
		func(c *Config) { c.ResampleQuality = "best" },
		func(c *Config) { c.FFmpegPath = "" },
	}
	for _, mutate := range tests {
		cfg := DefaultConfig()
		mutate(cfg)
		assert.Error(t, cfg.Validate())
	}
}

func TestDecodeMissingBinary(t *testing.T) {
	cfg := DefaultConfig()
	cfg.FFprobePath = filepath.Join(t.TempDir(), "no-ffprobe")
	d := NewDecoder(cfg)

	_, err := d.DecodeFile(context.Background(), "in.wav")
	assert.Error(t, err)

	assert.Error(t, d.CheckAvailability(context.Background()))

	_, err = d.DecodeReader(context.Background(), bytes.NewReader(nil))
	assert.Error(t, err)
}

// writeWAV writes 16-bit mono PCM.
func writeWAV(t *testing.T, path string, samples []float64, sampleRate int) {
	t.Helper()

	var data bytes.Buffer
	for _, s := range samples {
		require.NoError(t, binary.Write(&data, binary.LittleEndian, int16(s*math.MaxInt16)))
	}

	var buf bytes.Buffer
	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(36+data.Len()))
	buf.WriteString("WAVEfmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(&buf, binary.LittleEndian, uint16(1)) // mono
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate))
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate*2))
	binary.Write(&buf, binary.LittleEndian, uint16(2))
	binary.Write(&buf, binary.LittleEndian, uint16(16))
	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(data.Len()))
	buf.Write(data.Bytes())

	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

func TestDecodeFileWithFFmpeg(t *testing.T) {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		t.Skip("ffmpeg not installed")
	}
	if _, err := exec.LookPath("ffprobe"); err != nil {
		t.Skip("ffprobe not installed")
	}

	samples := make([]float64, 8000)
	for i := range samples {
		samples[i] = 0.5 * math.Sin(2*math.Pi*440*float64(i)/8000)
	}
	path := filepath.Join(t.TempDir(), "tone.wav")
	writeWAV(t, path, samples, 8000)

	cfg := DefaultConfig()
	cfg.TargetSampleRate = 0
	audio, err := NewDecoder(cfg).DecodeFile(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, 8000, audio.SampleRate)
	assert.Len(t, audio.Samples, 8000)
	assert.Equal(t, time.Second, audio.Duration)
	assert.Equal(t, 1, audio.Source.Channels)
	assert.InDelta(t, samples[100], audio.Samples[100], 1e-3)

	resampled, err := NewDecoder(nil).DecodeFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 16000, resampled.SampleRate)
	assert.InDelta(t, 16000, len(resampled.Samples), 50)
}
