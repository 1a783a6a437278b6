package audio

import (
	"math"
	"math/cmplx"
	"sync"

	"github.com/mjibson/go-dsp/fft"
)

const (
	FFTSize            = 2048
	FrequencyBinCount  = FFTSize / 2
	DefaultMinDecibels = -100.0
	DefaultMaxDecibels = -30.0
	DefaultSmoothing   = 0.8
)

// Analyser keeps the last FFTSize mono samples of a stream and summarizes them
// as byte frequency data: Blackman window, FFT, magnitude smoothing over time,
// then decibels mapped from [MinDecibels, MaxDecibels] onto 0..255.
type Analyser struct {
	MinDecibels float64
	MaxDecibels float64
	Smoothing   float64

	mu       sync.Mutex
	ring     []float64
	head     int
	written  int64
	window   []float64
	smoothed []float64
}

func NewAnalyser() *Analyser {
	window := make([]float64, FFTSize)
	for n := range window {
		x := 2 * math.Pi * float64(n) / FFTSize
		window[n] = 0.42 - 0.5*math.Cos(x) + 0.08*math.Cos(2*x)
	}
	return &Analyser{
		MinDecibels: DefaultMinDecibels,
		MaxDecibels: DefaultMaxDecibels,
		Smoothing:   DefaultSmoothing,
		ring:        make([]float64, FFTSize),
		window:      window,
		smoothed:    make([]float64, FrequencyBinCount),
	}
}

// Write appends stereo samples, downmixed to mono. Safe for concurrent use.
func (a *Analyser) Write(samples [][2]float64) {
	a.mu.Lock()
	for _, s := range samples {
		a.ring[a.head] = (s[0] + s[1]) / 2
		a.head = (a.head + 1) % FFTSize
	}
	a.written += int64(len(samples))
	a.mu.Unlock()
}

// Written is the total number of samples fed to the analyser.
func (a *Analyser) Written() int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.written
}

// ByteFrequencyData fills dst (grown to FrequencyBinCount) with the current
// spectrum. Each call advances the smoothing state.
func (a *Analyser) ByteFrequencyData(dst []uint8) []uint8 {
	if cap(dst) < FrequencyBinCount {
		dst = make([]uint8, FrequencyBinCount)
	}
	dst = dst[:FrequencyBinCount]

	a.mu.Lock()
	frame := make([]float64, FFTSize)
	for i := range frame {
		frame[i] = a.ring[(a.head+i)%FFTSize] * a.window[i]
	}
	a.mu.Unlock()

	spectrum := fft.FFTReal(frame)

	a.mu.Lock()
	defer a.mu.Unlock()
	scale := 255 / (a.MaxDecibels - a.MinDecibels)
	for k := range dst {
		mag := cmplx.Abs(spectrum[k]) / FFTSize
		a.smoothed[k] = a.Smoothing*a.smoothed[k] + (1-a.Smoothing)*mag
		db := math.Inf(-1)
		if a.smoothed[k] > 0 {
			db = 20 * math.Log10(a.smoothed[k])
		}
		v := math.Floor(scale * (db - a.MinDecibels))
		switch {
		case v < 0 || math.IsNaN(v):
			dst[k] = 0
		case v > 255:
			dst[k] = 255
		default:
			dst[k] = uint8(v)
		}
	}
	return dst
}

// AverageFrequency is the mean of the byte frequency data, 0..255.
func (a *Analyser) AverageFrequency() float32 {
	data := a.ByteFrequencyData(nil)
	var sum int
	for _, v := range data {
		sum += int(v)
	}
	return float32(sum) / float32(len(data))
}
