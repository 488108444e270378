package filters

import (
	"gonum.org/v1/gonum/floats"
)

// DCRemoval removes the DC component of an analysis frame by subtracting
// the frame mean. This is the frame-wise offset removal used by Kaldi
// feature extraction, as opposed to a running high-pass filter.
type DCRemoval struct{}

// NewDCRemoval creates a frame DC remover
func NewDCRemoval() *DCRemoval {
	return &DCRemoval{}
}

// ProcessFrameInPlace subtracts the mean from frame and returns the removed offset.
func (dc *DCRemoval) ProcessFrameInPlace(frame []float64) float64 {
	if len(frame) == 0 {
		return 0
	}

	mean := floats.Sum(frame) / float64(len(frame))
	floats.AddConst(-mean, frame)
	return mean
}
