package windowing

import (
	"fmt"
	"strings"

	"github.com/mjibson/go-dsp/window"
)

// Type names a window function. Values match the Kaldi window names so they
// can be used directly in extractor configurations.
type Type string

const (
	Povey       Type = "povey"
	Hanning     Type = "hanning"
	Hamming     Type = "hamming"
	Rectangular Type = "rectangular"
	Blackman    Type = "blackman"
)

// Types lists every supported window type.
func Types() []Type {
	return []Type{Povey, Hanning, Hamming, Rectangular, Blackman}
}

// ParseType resolves a window name, case-insensitively.
func ParseType(name string) (Type, error) {
	t := Type(strings.ToLower(strings.TrimSpace(name)))
	for _, known := range Types() {
		if t == known {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown window type %q", name)
}

// Window holds precomputed symmetric window coefficients.
type Window struct {
	typ          Type
	coefficients []float64
}

// New creates a window of the given type and size.
func New(typ Type, size int) (*Window, error) {
	if size <= 0 {
		return nil, fmt.Errorf("window size must be > 0: %d", size)
	}

	var coeffs []float64
	switch typ {
	case Povey:
		coeffs = povey(size)
	case Hanning:
		coeffs = generate(size, window.Hann)
	case Hamming:
		coeffs = generate(size, window.Hamming)
	case Rectangular:
		coeffs = generate(size, window.Rectangular)
	case Blackman:
		coeffs = generate(size, window.Blackman)
	default:
		return nil, fmt.Errorf("unknown window type %q", typ)
	}

	return &Window{typ: typ, coefficients: coeffs}, nil
}

// Apply applies the window to a signal (creates new array)
func (w *Window) Apply(signal []float64) []float64 {
	if len(signal) != len(w.coefficients) {
		return nil
	}

	windowed := make([]float64, len(signal))
	for i, c := range w.coefficients {
		windowed[i] = signal[i] * c
	}
	return windowed
}

// ApplyInPlace applies the window to a signal in-place
func (w *Window) ApplyInPlace(signal []float64) error {
	if len(signal) != len(w.coefficients) {
		return fmt.Errorf("signal length (%d) doesn't match window size (%d)", len(signal), len(w.coefficients))
	}

	for i, c := range w.coefficients {
		signal[i] *= c
	}
	return nil
}

// GetCoefficients returns a copy of the window coefficients
func (w *Window) GetCoefficients() []float64 {
	coeffs := make([]float64, len(w.coefficients))
	copy(coeffs, w.coefficients)
	return coeffs
}

// GetSize returns the window size
func (w *Window) GetSize() int {
	return len(w.coefficients)
}

// GetType returns the window type
func (w *Window) GetType() Type {
	return w.typ
}
