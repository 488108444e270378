package spectral

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// MelScale implements the Kaldi/HTK natural-log mel scale:
// mel(f) = 1127 * ln(1 + f/700).
type MelScale struct{}

// NewMelScale creates a new mel scale converter
func NewMelScale() *MelScale {
	return &MelScale{}
}

// HzToMel converts frequency in Hz to mel scale
func (ms *MelScale) HzToMel(hz float64) float64 {
	return 1127.0 * math.Log(1.0+hz/700.0)
}

// MelToHz converts mel scale to frequency in Hz
func (ms *MelScale) MelToHz(mel float64) float64 {
	return 700.0 * (math.Exp(mel/1127.0) - 1.0)
}

// FilterBank builds triangular mel filters the way Kaldi does: triangles are
// evaluated in the mel domain, one row per filter and one column per FFT bin
// below Nyquist (paddedWindowSize/2 columns).
//
// A highFreq <= 0 is interpreted as an offset from Nyquist.
func (ms *MelScale) FilterBank(numBins, paddedWindowSize, sampleRate int, lowFreq, highFreq float64) (*mat.Dense, error) {
	if numBins < 3 {
		return nil, fmt.Errorf("must have at least 3 mel bins: %d", numBins)
	}
	if paddedWindowSize < 2 || paddedWindowSize%2 != 0 {
		return nil, fmt.Errorf("padded window size must be even and >= 2: %d", paddedWindowSize)
	}

	numFFTBins := paddedWindowSize / 2
	nyquist := 0.5 * float64(sampleRate)
	if highFreq <= 0 {
		highFreq += nyquist
	}
	if lowFreq < 0 || lowFreq >= nyquist || highFreq <= 0 || highFreq > nyquist || lowFreq >= highFreq {
		return nil, fmt.Errorf("bad mel frequency range [%g, %g] for nyquist %g", lowFreq, highFreq, nyquist)
	}

	binWidth := float64(sampleRate) / float64(paddedWindowSize)
	melLow := ms.HzToMel(lowFreq)
	melHigh := ms.HzToMel(highFreq)
	melDelta := (melHigh - melLow) / float64(numBins+1)

	banks := mat.NewDense(numBins, numFFTBins, nil)
	for b := range numBins {
		left := melLow + float64(b)*melDelta
		center := left + melDelta
		right := center + melDelta

		for k := range numFFTBins {
			mel := ms.HzToMel(binWidth * float64(k))
			up := (mel - left) / (center - left)
			down := (right - mel) / (right - center)
			if w := math.Min(up, down); w > 0 {
				banks.Set(b, k, w)
			}
		}
	}

	return banks, nil
}
