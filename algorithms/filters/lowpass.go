package filters

import (
	"math"
)

const (
	// AntiAliasRatio places the anti-alias cutoff as a fraction of the
	// target sample rate, just under its Nyquist frequency.
	AntiAliasRatio = 0.45

	// AntiAliasOrder is the Butterworth order used before decimation.
	// Each pair of poles is one biquad section.
	AntiAliasOrder = 12
)

// biquad is a second order section using the cookbook formulas from
// Robert Bristow-Johnson's "Cookbook formulae for audio EQ biquad filter coefficients"
// Reference: https://webaudio.github.io/Audio-EQ-Cookbook/audio-eq-cookbook.html
type biquad struct {
	// Coefficients, normalized so a0 = 1
	b0, b1, b2 float64
	a1, a2     float64

	// Direct form II delay line
	w1, w2 float64
}

// newLowpassBiquad computes the cookbook LPF section for cutoff and Q
func newLowpassBiquad(sampleRate int, cutoffFreq, q float64) *biquad {
	// w0 = 2*pi*f0/Fs
	w0 := 2.0 * math.Pi * cutoffFreq / float64(sampleRate)
	if w0 >= math.Pi {
		w0 = math.Pi * 0.99
	}

	cosW0 := math.Cos(w0)
	alpha := math.Sin(w0) / (2.0 * q)
	a0 := 1.0 + alpha

	return &biquad{
		b0: (1.0 - cosW0) / 2.0 / a0,
		b1: (1.0 - cosW0) / a0,
		b2: (1.0 - cosW0) / 2.0 / a0,
		a1: -2.0 * cosW0 / a0,
		a2: (1.0 - alpha) / a0,
	}
}

// process runs one sample through the section:
// w[n] = x[n] - a1*w[n-1] - a2*w[n-2]
// y[n] = b0*w[n] + b1*w[n-1] + b2*w[n-2]
func (bq *biquad) process(input float64) float64 {
	w := input - bq.a1*bq.w1 - bq.a2*bq.w2
	output := bq.b0*w + bq.b1*bq.w1 + bq.b2*bq.w2
	bq.w2 = bq.w1
	bq.w1 = w
	return output
}

// magnitude returns |H(e^jw)| at frequency
func (bq *biquad) magnitude(frequency float64, sampleRate int) float64 {
	w := 2.0 * math.Pi * frequency / float64(sampleRate)
	cosW, sinW := math.Cos(w), math.Sin(w)
	cos2W, sin2W := math.Cos(2*w), math.Sin(2*w)

	num := math.Hypot(bq.b0+bq.b1*cosW+bq.b2*cos2W, -bq.b1*sinW-bq.b2*sin2W)
	den := math.Hypot(1.0+bq.a1*cosW+bq.a2*cos2W, -bq.a1*sinW-bq.a2*sin2W)
	return num / den
}

// LowpassFilter is a Butterworth low-pass built from cascaded biquads
type LowpassFilter struct {
	sampleRate int
	sections   []*biquad
}

// NewLowpassFilter creates a Butterworth low-pass of the given order.
// Odd orders are rounded up; orders below 2 become 2.
//
// Section k of an order n filter uses Q = 1 / (2*sin((2k-1)*pi/(2n))).
func NewLowpassFilter(sampleRate int, cutoffFreq float64, order int) *LowpassFilter {
	pairs := max(1, (order+1)/2)
	n := float64(2 * pairs)

	lp := &LowpassFilter{
		sampleRate: sampleRate,
		sections:   make([]*biquad, pairs),
	}
	for k := range lp.sections {
		q := 1.0 / (2.0 * math.Sin(float64(2*k+1)*math.Pi/(2.0*n)))
		lp.sections[k] = newLowpassBiquad(sampleRate, cutoffFreq, q)
	}
	return lp
}

// process filters a single sample through every section
func (lp *LowpassFilter) process(input float64) float64 {
	out := input
	for _, s := range lp.sections {
		out = s.process(out)
	}
	return out
}

// ProcessBuffer filters a whole signal. State carries over between calls.
func (lp *LowpassFilter) ProcessBuffer(input []float64) []float64 {
	output := make([]float64, len(input))
	for i, sample := range input {
		output[i] = lp.process(sample)
	}
	return output
}

// magnitude returns the cascade's linear gain at frequency
func (lp *LowpassFilter) magnitude(frequency float64) float64 {
	gain := 1.0
	for _, s := range lp.sections {
		gain *= s.magnitude(frequency, lp.sampleRate)
	}
	return gain
}

// AntiAlias band-limits a signal sampled at sampleRate so it can be
// decimated to targetRate. The signal is returned unchanged when no
// decimation happens.
func AntiAlias(signal []float64, sampleRate, targetRate int) []float64 {
	if len(signal) == 0 || targetRate <= 0 || sampleRate <= targetRate {
		return signal
	}
	return NewLowpassFilter(sampleRate, AntiAliasRatio*float64(targetRate), AntiAliasOrder).ProcessBuffer(signal)
}
