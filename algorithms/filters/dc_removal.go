package filters

import (
	"math"
)

// DefaultDCCutoff is the -3 dB point used when no cutoff is given. It sits
// well below the lowest pitch the estimators search.
const DefaultDCCutoff = 20.0

// DCRemoval is a one-pole DC blocking (high-pass) filter:
//
//	y[n] = x[n] - x[n-1] + R * y[n-1]
//
// References:
//   - Julius O. Smith III, "Introduction to Digital Filters with Audio Applications"
//     https://ccrma.stanford.edu/~jos/filters/DC_Blocker.html
//
// A DC offset from cheap microphones or sound cards biases RMS silence
// gating and the energy terms of the YIN difference function.
type DCRemoval struct {
	poleLocation float64 // R, 0 < R < 1

	x1 float64 // x[n-1]
	y1 float64 // y[n-1]
}

// NewDCRemoval creates a DC blocker with a -3 dB cutoff of cutoffFreq Hz.
// A non-positive cutoff selects DefaultDCCutoff.
func NewDCRemoval(sampleRate int, cutoffFreq float64) *DCRemoval {
	if cutoffFreq <= 0 {
		cutoffFreq = DefaultDCCutoff
	}

	// R = 1 - 2*pi*fc/fs, valid for fc << fs/2
	r := 0.995
	if sampleRate > 0 {
		r = 1.0 - 2.0*math.Pi*cutoffFreq/float64(sampleRate)
	}
	r = math.Max(0.001, math.Min(0.999, r))

	return &DCRemoval{poleLocation: r}
}

// process filters a single sample
func (dc *DCRemoval) process(input float64) float64 {
	output := input - dc.x1 + dc.poleLocation*dc.y1
	dc.x1 = input
	dc.y1 = output
	return output
}

// ProcessBuffer filters a whole signal. The filter state carries over
// between calls.
func (dc *DCRemoval) ProcessBuffer(input []float64) []float64 {
	output := make([]float64, len(input))
	for i, sample := range input {
		output[i] = dc.process(sample)
	}
	return output
}

// magnitude returns the linear gain at frequency:
// |H(e^jw)| = |1 - e^-jw| / |1 - R*e^-jw|
func (dc *DCRemoval) magnitude(frequency float64, sampleRate int) float64 {
	w := 2.0 * math.Pi * frequency / float64(sampleRate)
	num := math.Hypot(1.0-math.Cos(w), math.Sin(w))
	den := math.Hypot(1.0-dc.poleLocation*math.Cos(w), dc.poleLocation*math.Sin(w))
	return num / den
}

// RemoveDC filters a signal with a fresh DC blocker
func RemoveDC(signal []float64, sampleRate int, cutoffFreq float64) []float64 {
	return NewDCRemoval(sampleRate, cutoffFreq).ProcessBuffer(signal)
}
