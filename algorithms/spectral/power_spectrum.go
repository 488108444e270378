package spectral

import (
	"math"
)

// PowerSpectrum converts DFT output into (log) power values.
type PowerSpectrum struct{}

// NewPowerSpectrum creates a new power spectrum calculator
func NewPowerSpectrum() *PowerSpectrum {
	return &PowerSpectrum{}
}

// Compute returns |X[k]|^2 for every bin of spectrum.
func (ps *PowerSpectrum) Compute(spectrum []complex128) []float64 {
	power := make([]float64, len(spectrum))
	for i, c := range spectrum {
		r, im := real(c), imag(c)
		power[i] = r*r + im*im
	}
	return power
}

// ComputeLog returns ln(max(|X[k]|^2, floor)) for every bin of spectrum.
// floor must be positive.
func (ps *PowerSpectrum) ComputeLog(spectrum []complex128, floor float64) []float64 {
	logPower := ps.Compute(spectrum)
	for i, p := range logPower {
		logPower[i] = math.Log(math.Max(p, floor))
	}
	return logPower
}
