package storage

import (
	"bytes"
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/RyanBlaney/sonido-features/features"
	"github.com/RyanBlaney/sonido-features/logging"
)

func TestEncodeDecodeMatrix(t *testing.T) {
	m := mat.NewDense(2, 3, []float64{1, -2.5, 3, math.Log(1e-7), 0, 1e300})

	var buf bytes.Buffer
	require.NoError(t, EncodeMatrix(&buf, m))

	got, err := DecodeMatrix(&buf)
	require.NoError(t, err)
	assert.True(t, mat.Equal(m, got))
}

func TestEncodeEmptyMatrix(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, EncodeMatrix(&buf, &mat.Dense{}))

	got, err := DecodeMatrix(&buf)
	require.NoError(t, err)
	assert.True(t, got.IsEmpty())
}

func TestDecodeCorrupt(t *testing.T) {
	_, err := DecodeMatrix(bytes.NewReader([]byte{0xc1}))
	assert.ErrorIs(t, err, ErrCorrupt)

	var buf bytes.Buffer
	require.NoError(t, EncodeMatrix(&buf, mat.NewDense(2, 2, []float64{1, 2, 3, 4})))
	truncated := buf.Bytes()[:buf.Len()-8]
	_, err = DecodeMatrix(bytes.NewReader(truncated))
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestFilesWriterReader(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "feats")

	w, err := NewFilesWriter(dir)
	require.NoError(t, err)
	r := NewFilesReader(dir)

	m := mat.NewDense(3, 2, []float64{1, 2, 3, 4, 5, 6})

	key, err := w.Write(ctx, "utt1", m)
	require.NoError(t, err)
	assert.Equal(t, "utt1", key)
	assert.FileExists(t, filepath.Join(dir, "utt1"+Extension))

	got, err := r.Read(ctx, key)
	require.NoError(t, err)
	assert.True(t, mat.Equal(m, got))

	generated, err := w.Write(ctx, "", m)
	require.NoError(t, err)
	_, err = uuid.Parse(generated)
	assert.NoError(t, err)
}

func TestFilesRejectBadKeys(t *testing.T) {
	ctx := context.Background()
	w, err := NewFilesWriter(t.TempDir())
	require.NoError(t, err)

	for _, key := range []string{"..", "a/b", `a\b`} {
		_, err := w.Write(ctx, key, mat.NewDense(1, 1, nil))
		assert.ErrorIs(t, err, ErrInvalidKey, key)
	}

	_, err = NewFilesReader(w.Dir()).Read(ctx, "")
	assert.ErrorIs(t, err, ErrInvalidKey)

	_, err = NewFilesReader(w.Dir()).Read(ctx, "missing")
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestFilesHonorContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	w, err := NewFilesWriter(t.TempDir())
	require.NoError(t, err)

	_, err = w.Write(ctx, "x", mat.NewDense(1, 1, nil))
	assert.ErrorIs(t, err, context.Canceled)

	_, err = NewFilesReader(w.Dir()).Read(ctx, "x")
	assert.ErrorIs(t, err, context.Canceled)
}

type memoryStore struct {
	matrices map[string]*mat.Dense
}

func (s *memoryStore) Write(_ context.Context, key string, m *mat.Dense) (string, error) {
	if key == "" {
		key = "generated"
	}
	s.matrices[key] = m
	return key, nil
}

func (s *memoryStore) Read(_ context.Context, key string) (*mat.Dense, error) {
	m, ok := s.matrices[key]
	if !ok {
		return nil, errors.New("not found")
	}
	return m, nil
}

func TestExtractAndStore(t *testing.T) {
	ctx := context.Background()

	ext, err := features.NewFbank(features.DefaultFbankConfig(), features.WithLogger(&logging.NoOpLogger{}))
	require.NoError(t, err)

	samples := make([]float64, 16000)
	for i := range samples {
		samples[i] = math.Sin(2 * math.Pi * 440 * float64(i) / 16000)
	}

	store := &memoryStore{matrices: map[string]*mat.Dense{}}
	rec, err := ExtractAndStore(ctx, ext, store, samples, 16000)
	require.NoError(t, err)

	assert.Equal(t, features.FbankName, rec.Type)
	assert.Equal(t, ext.Params(), rec.Params)
	assert.Equal(t, 100, rec.NumFrames)
	assert.Equal(t, 40, rec.NumFeatures)
	assert.Equal(t, 0.01, rec.FrameShift)
	assert.Equal(t, 16000, rec.SamplingRate)
	assert.InDelta(t, 1.0, rec.Duration, 1e-12)
	assert.Equal(t, "generated", rec.StorageKey)

	m, err := rec.Load(ctx, store)
	require.NoError(t, err)
	rows, cols := m.Dims()
	assert.Equal(t, 100, rows)
	assert.Equal(t, 40, cols)

	rec.NumFeatures = 41
	_, err = rec.Load(ctx, store)
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestExtractAndStoreErrors(t *testing.T) {
	ctx := context.Background()
	ext, err := features.NewSpectrogram(features.DefaultSpectrogramConfig(), features.WithLogger(&logging.NoOpLogger{}))
	require.NoError(t, err)
	store := &memoryStore{matrices: map[string]*mat.Dense{}}

	_, err = ExtractAndStore(ctx, ext, store, make([]float64, 10), 16000)
	assert.Error(t, err)
	assert.Empty(t, store.matrices)

	_, err = ExtractAndStore(ctx, ext, store, make([]float64, 1000), 0)
	assert.Error(t, err)

	_, err = ExtractAndStore(ctx, nil, store, nil, 16000)
	assert.Error(t, err)
}

func TestExtractAndStoreToFiles(t *testing.T) {
	ctx := context.Background()
	ext, err := features.NewSpectrogram(features.DefaultSpectrogramConfig(), features.WithLogger(&logging.NoOpLogger{}))
	require.NoError(t, err)

	dir := t.TempDir()
	w, err := NewFilesWriter(dir)
	require.NoError(t, err)

	rec, err := ExtractAndStoreKey(ctx, ext, w, "clip", make([]float64, 8000), 16000)
	require.NoError(t, err)
	assert.Equal(t, "clip", rec.StorageKey)

	m, err := rec.Load(ctx, NewFilesReader(dir))
	require.NoError(t, err)
	rows, cols := m.Dims()
	assert.Equal(t, 50, rows)
	assert.Equal(t, 512, cols)
}
