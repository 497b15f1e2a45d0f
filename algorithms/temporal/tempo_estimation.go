package temporal

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/floats"
)

// ErrSignalTooShort is returned when a signal holds too few analysis frames
// to measure a beat period.
var ErrSignalTooShort = errors.New("signal too short for tempo estimation")

// TempoParams configures the beat-period search
type TempoParams struct {
	FrameSeconds float64 `json:"frame_seconds"` // envelope frame length
	HopFraction  float64 `json:"hop_fraction"`  // hop as a fraction of the frame
	MinBPM       float64 `json:"min_bpm"`
	MaxBPM       float64 `json:"max_bpm"`
	DefaultBPM   float64 `json:"default_bpm"` // reported when no periodicity is found
}

// DefaultTempoParams returns a 100 ms envelope with 75% overlap searched
// over 60-180 BPM
func DefaultTempoParams() TempoParams {
	return TempoParams{
		FrameSeconds: 0.1,
		HopFraction:  0.25,
		MinBPM:       60,
		MaxBPM:       180,
		DefaultBPM:   120,
	}
}

// TempoEstimation estimates a single global tempo from onset periodicity
type TempoEstimation struct {
	params            TempoParams
	envelopeExtractor *Envelope
}

// NewTempoEstimation creates a new tempo estimator
func NewTempoEstimation(params TempoParams) *TempoEstimation {
	return &TempoEstimation{
		params:            params,
		envelopeExtractor: NewEnvelope(),
	}
}

// EstimateTempo estimates tempo in BPM from the autocorrelation of the
// onset strength envelope
func (te *TempoEstimation) EstimateTempo(signal []float64, sampleRate int) (float64, error) {
	if sampleRate <= 0 {
		return 0, errors.New("sample rate must be positive")
	}

	frameSize := int(te.params.FrameSeconds * float64(sampleRate))
	hopSize := max(1, int(float64(frameSize)*te.params.HopFraction))

	envelope := te.envelopeExtractor.ComputeRMS(signal, frameSize, hopSize)
	onsets := te.envelopeExtractor.OnsetStrength(envelope)
	if len(onsets) < 10 {
		return 0, ErrSignalTooShort
	}

	maxLag := len(onsets) / 2
	autocorr := te.calculateAutocorrelation(onsets, maxLag)

	return te.findTempoFromAutocorrelation(autocorr, hopSize, sampleRate), nil
}

// calculateAutocorrelation calculates the biased autocorrelation, normalised
// so lag 0 equals 1
func (te *TempoEstimation) calculateAutocorrelation(signal []float64, maxLag int) []float64 {
	if maxLag > len(signal) {
		maxLag = len(signal)
	}

	autocorr := make([]float64, maxLag)
	for lag := 0; lag < maxLag; lag++ {
		autocorr[lag] = floats.Dot(signal[:len(signal)-lag], signal[lag:])
	}

	if len(autocorr) > 0 && autocorr[0] > 0 {
		floats.Scale(1/autocorr[0], autocorr)
	}

	return autocorr
}

// findTempoFromAutocorrelation picks the strongest local maximum inside the
// BPM search range
func (te *TempoEstimation) findTempoFromAutocorrelation(autocorr []float64, hopSize int, sampleRate int) float64 {
	timePerFrame := float64(hopSize) / float64(sampleRate)

	minLag := max(1, int(60.0/te.params.MaxBPM/timePerFrame))
	maxLag := min(len(autocorr)-2, int(math.Ceil(60.0/te.params.MinBPM/timePerFrame)))

	maxVal := 0.0
	bestLag := 0
	for lag := minLag; lag <= maxLag; lag++ {
		if autocorr[lag] > autocorr[lag-1] &&
			autocorr[lag] >= autocorr[lag+1] &&
			autocorr[lag] > maxVal {
			maxVal = autocorr[lag]
			bestLag = lag
		}
	}

	if bestLag == 0 {
		return te.params.DefaultBPM
	}

	return 60.0 / (float64(bestLag) * timePerFrame)
}
