package windowing

import (
	"math"

	"github.com/mjibson/go-dsp/window"
)

// go-dsp generates symmetric windows (denominator N-1), which is what Kaldi
// uses for frame analysis. Its formulas divide by N-1, so a single-sample
// window is special-cased to all ones.
func generate(size int, fn func(int) []float64) []float64 {
	if size == 1 {
		return []float64{1}
	}
	return fn(size)
}

// povey is a Hann window raised to 0.85; it is zero at both ends like Hann
// but has a flatter top, similar to Hamming.
func povey(size int) []float64 {
	coeffs := generate(size, window.Hann)
	for i, c := range coeffs {
		coeffs[i] = math.Pow(c, 0.85)
	}
	return coeffs
}
