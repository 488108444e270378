package filters

import (
	"fmt"
)

// PreEmphasis implements a first-order pre-emphasis filter applied per frame.
//
// The filter implements the difference equation:
// y[n] = x[n] - α*x[n-1]
//
// Each frame is filtered independently. The sample before the frame start is
// taken to be x[0] itself (replicate padding), so y[0] = (1-α)*x[0]. This
// matches Kaldi's ProcessWindow and keeps frames independent of each other.
//
// References:
//   - L.R. Rabiner, R.W. Schafer, "Digital Processing of Speech Signals",
//     Prentice-Hall, 1978, Chapter 4
type PreEmphasis struct {
	coefficient float64
}

// NewPreEmphasis creates a pre-emphasis filter. The coefficient must be in [0, 1].
func NewPreEmphasis(coefficient float64) (*PreEmphasis, error) {
	if coefficient < 0 || coefficient > 1 {
		return nil, fmt.Errorf("pre-emphasis coefficient must be in [0,1]: %f", coefficient)
	}
	return &PreEmphasis{coefficient: coefficient}, nil
}

// Coefficient returns α
func (pe *PreEmphasis) Coefficient() float64 {
	return pe.coefficient
}

// ProcessFrameInPlace filters one frame in place.
func (pe *PreEmphasis) ProcessFrameInPlace(frame []float64) {
	if pe.coefficient == 0 || len(frame) == 0 {
		return
	}

	// walk backwards so x[n-1] is still unfiltered when it is read
	for i := len(frame) - 1; i > 0; i-- {
		frame[i] -= pe.coefficient * frame[i-1]
	}
	frame[0] -= pe.coefficient * frame[0]
}
