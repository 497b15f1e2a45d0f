package temporal

import (
	"github.com/RyanBlaney/sonido-nota/algorithms/common"
)

// Envelope provides amplitude envelope extraction
type Envelope struct {
	// No state needed - stateless calculation
}

// NewEnvelope creates a new envelope extractor
func NewEnvelope() *Envelope {
	return &Envelope{}
}

// ComputeRMS computes RMS envelope with given frame and hop sizes
func (e *Envelope) ComputeRMS(signal []float64, frameSize, hopSize int) []float64 {
	if len(signal) < frameSize || frameSize <= 0 || hopSize <= 0 {
		return []float64{}
	}

	numFrames := (len(signal)-frameSize)/hopSize + 1
	envelope := make([]float64, numFrames)

	for i := 0; i < numFrames; i++ {
		startIdx := i * hopSize
		envelope[i] = common.RMS(signal[startIdx : startIdx+frameSize])
	}

	return envelope
}

// OnsetStrength returns the half-wave rectified first difference of an
// envelope: only rising energy counts. The result is one shorter than env.
func (e *Envelope) OnsetStrength(env []float64) []float64 {
	if len(env) < 2 {
		return []float64{}
	}

	strength := make([]float64, len(env)-1)
	for i := range strength {
		if diff := env[i+1] - env[i]; diff > 0 {
			strength[i] = diff
		}
	}
	return strength
}
