package kaldi

import (
	"fmt"
	"math"
	"runtime"
	"sync"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/RyanBlaney/sonido-features/algorithms/filters"
	"github.com/RyanBlaney/sonido-features/algorithms/windowing"
)

// framer cuts a waveform into conditioned, windowed, zero-padded frames.
// It is read-only once built and shared by all frame workers.
type framer struct {
	opts           FrameOptions
	windowSize     int
	windowShift    int
	paddedSize     int
	window         *windowing.Window
	preemphasis    *filters.PreEmphasis
	dcRemoval      *filters.DCRemoval
	logEnergyFloor float64
}

func newFramer(numSamples, sampleRate int, opts FrameOptions) (*framer, error) {
	typ, err := opts.validate(sampleRate)
	if err != nil {
		return nil, err
	}

	windowSize := WindowSize(sampleRate, opts.FrameLengthMs/1000)
	windowShift := WindowSize(sampleRate, opts.FrameShiftMs/1000)
	if windowSize < 2 {
		return nil, fmt.Errorf("%w: frame length %gms gives %d samples at %dHz, need at least 2",
			ErrInvalidOptions, opts.FrameLengthMs, windowSize, sampleRate)
	}
	if windowShift <= 0 {
		return nil, fmt.Errorf("%w: frame shift %gms is under one sample at %dHz",
			ErrInvalidOptions, opts.FrameShiftMs, sampleRate)
	}
	if windowSize > numSamples {
		return nil, fmt.Errorf("%w: window is %d samples, waveform has %d", ErrWaveformTooShort, windowSize, numSamples)
	}

	paddedSize := PaddedWindowSize(windowSize, opts.RoundToPowerOfTwo)

	window, err := windowing.New(typ, windowSize)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidOptions, err)
	}
	preemphasis, err := filters.NewPreEmphasis(opts.PreemphasisCoefficient)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidOptions, err)
	}

	logEnergyFloor := math.Inf(-1)
	if opts.EnergyFloor > 0 {
		logEnergyFloor = math.Log(opts.EnergyFloor)
	}

	return &framer{
		opts:           opts,
		windowSize:     windowSize,
		windowShift:    windowShift,
		paddedSize:     paddedSize,
		window:         window,
		preemphasis:    preemphasis,
		dcRemoval:      filters.NewDCRemoval(),
		logEnergyFloor: logEnergyFloor,
	}, nil
}

// numFrames follows Kaldi's NumFrames.
func (f *framer) numFrames(numSamples int) int {
	if f.opts.SnipEdges {
		if numSamples < f.windowSize {
			return 0
		}
		return 1 + (numSamples-f.windowSize)/f.windowShift
	}
	return (numSamples + f.windowShift/2) / f.windowShift
}

// frameOffset is the position of the first sample of frame 0 relative to
// the waveform start. Without edge snipping frames are centered on
// multiples of the shift and the waveform is reflected at both ends.
func (f *framer) frameOffset() int {
	if f.opts.SnipEdges {
		return 0
	}
	return f.windowShift/2 - f.windowSize/2
}

func reflect(s, n int) int {
	for s < 0 || s >= n {
		if s < 0 {
			s = -s - 1
		} else {
			s = 2*n - 1 - s
		}
	}
	return s
}

// extract fills buf (len paddedSize) with frame m and returns its log energy.
func (f *framer) extract(waveform []float64, m int, buf []float64) float64 {
	n := len(waveform)
	start := m*f.windowShift + f.frameOffset()
	frame := buf[:f.windowSize]
	for j := range frame {
		frame[j] = waveform[reflect(start+j, n)]
	}
	clear(buf[f.windowSize:])

	if f.opts.Dither != 0 {
		filters.NewDither(f.opts.Dither, f.opts.DitherSeed+uint64(m)).ProcessFrameInPlace(frame)
	}
	if f.opts.RemoveDCOffset {
		f.dcRemoval.ProcessFrameInPlace(frame)
	}

	var logEnergy float64
	if f.opts.RawEnergy {
		logEnergy = f.logEnergy(frame)
	}

	f.preemphasis.ProcessFrameInPlace(frame)
	// lengths always match
	_ = f.window.ApplyInPlace(frame)

	if !f.opts.RawEnergy {
		logEnergy = f.logEnergy(frame)
	}
	return logEnergy
}

func (f *framer) logEnergy(frame []float64) float64 {
	energy := math.Log(math.Max(floats.Dot(frame, frame), Epsilon))
	return math.Max(energy, f.logEnergyFloor)
}

// run extracts every frame and lets fill write one output row per frame.
// Frames are independent, so they are spread over a worker pool; each
// worker owns its frame buffer and writes only its own rows.
func (f *framer) run(waveform []float64, cols int, fill func(frame []float64, logEnergy float64, row []float64)) *mat.Dense {
	numFrames := f.numFrames(len(waveform))
	if numFrames <= 0 || cols <= 0 {
		return &mat.Dense{}
	}

	out := mat.NewDense(numFrames, cols, nil)
	jobs := make(chan int, numFrames)
	for m := range numFrames {
		jobs <- m
	}
	close(jobs)

	var wg sync.WaitGroup
	for range workerCount(numFrames) {
		wg.Add(1)
		go func() {
			defer wg.Done()

			buf := make([]float64, f.paddedSize)
			for m := range jobs {
				logEnergy := f.extract(waveform, m, buf)
				fill(buf, logEnergy, out.RawRowView(m))
			}
		}()
	}
	wg.Wait()

	return out
}

// workerCount scales with the workload so short clips stay single-threaded.
func workerCount(numFrames int) int {
	numCPU := runtime.NumCPU()

	switch {
	case numFrames < 100:
		return 1
	case numFrames < 1000:
		return max(1, min(numCPU, 8))
	default:
		return max(1, numCPU)
	}
}
