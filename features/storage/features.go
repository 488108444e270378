package storage

import (
	"context"
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/RyanBlaney/sonido-features/features"
	"github.com/RyanBlaney/sonido-features/logging"
)

// Features describes one stored feature matrix: how it was computed, its
// shape and where to find it.
type Features struct {
	Type         string         `msgpack:"type" json:"type" yaml:"type"`
	Params       map[string]any `msgpack:"params" json:"params" yaml:"params"`
	NumFrames    int            `msgpack:"num_frames" json:"num_frames" yaml:"num_frames"`
	NumFeatures  int            `msgpack:"num_features" json:"num_features" yaml:"num_features"`
	FrameShift   float64        `msgpack:"frame_shift" json:"frame_shift" yaml:"frame_shift"`
	SamplingRate int            `msgpack:"sampling_rate" json:"sampling_rate" yaml:"sampling_rate"`
	Duration     float64        `msgpack:"duration" json:"duration" yaml:"duration"`
	StorageKey   string         `msgpack:"storage_key" json:"storage_key" yaml:"storage_key"`
}

// Load reads the matrix this record points at.
func (f Features) Load(ctx context.Context, r Reader) (*mat.Dense, error) {
	m, err := r.Read(ctx, f.StorageKey)
	if err != nil {
		return nil, err
	}

	rows, cols := m.Dims()
	if rows != f.NumFrames || cols != f.NumFeatures {
		return nil, fmt.Errorf("%w: record says %dx%d, stored matrix is %dx%d",
			ErrCorrupt, f.NumFrames, f.NumFeatures, rows, cols)
	}
	return m, nil
}

// ExtractAndStore runs ext on samples, writes the result under a new key and
// returns the record describing it.
func ExtractAndStore(ctx context.Context, ext features.Extractor, w Writer, samples []float64, sampleRate int) (Features, error) {
	return ExtractAndStoreKey(ctx, ext, w, "", samples, sampleRate)
}

// ExtractAndStoreKey is ExtractAndStore with a caller-chosen key.
func ExtractAndStoreKey(ctx context.Context, ext features.Extractor, w Writer, key string, samples []float64, sampleRate int) (Features, error) {
	if ext == nil || w == nil {
		return Features{}, errors.New("extract and store: nil extractor or writer")
	}
	if sampleRate <= 0 {
		return Features{}, fmt.Errorf("extract and store: sample rate must be positive: %d", sampleRate)
	}

	logger := logging.WithContext(ctx).WithFields(logging.Fields{
		"component": "feature_storage",
		"extractor": ext.Name(),
	})

	m, err := ext.Extract(samples, sampleRate)
	if err != nil {
		return Features{}, fmt.Errorf("extract %s features: %w", ext.Name(), err)
	}

	storageKey, err := w.Write(ctx, key, m)
	if err != nil {
		return Features{}, fmt.Errorf("store %s features: %w", ext.Name(), err)
	}

	rows, cols := m.Dims()
	logger.Debug("Stored features", logging.Fields{
		"storage_key": storageKey,
		"num_frames":  rows,
		"num_cols":    cols,
	})

	return Features{
		Type:         ext.Name(),
		Params:       ext.Params(),
		NumFrames:    rows,
		NumFeatures:  cols,
		FrameShift:   ext.FrameShift(),
		SamplingRate: sampleRate,
		Duration:     float64(len(samples)) / float64(sampleRate),
		StorageKey:   storageKey,
	}, nil
}
