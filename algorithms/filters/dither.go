package filters

import (
	"math/rand/v2"
)

// Dither adds scaled Gaussian noise to frames. The generator is seeded
// explicitly, so two Dither values built with the same seed produce the
// same noise sequence and extraction stays reproducible.
//
// A Dither is not safe for concurrent use; create one per extraction call.
type Dither struct {
	amount float64
	rng    *rand.Rand
}

// NewDither creates a dither source with the given noise scale and seed.
func NewDither(amount float64, seed uint64) *Dither {
	return &Dither{
		amount: amount,
		rng:    rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

// ProcessFrameInPlace adds amount * N(0,1) to every sample.
func (d *Dither) ProcessFrameInPlace(frame []float64) {
	if d.amount == 0 {
		return
	}
	for i := range frame {
		frame[i] += d.amount * d.rng.NormFloat64()
	}
}
