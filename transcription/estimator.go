package transcription

import (
	"context"
	"errors"
	"fmt"

	"github.com/RyanBlaney/sonido-nota/algorithms/temporal"
	"github.com/RyanBlaney/sonido-nota/algorithms/tonal"
	"github.com/RyanBlaney/sonido-nota/transcode"
	"github.com/RyanBlaney/sonido-nota/transcription/config"
)

// PitchEstimator produces a frame pitch track from decoded audio. The
// pipeline only sees the track, so any estimator (autocorrelation, neural
// model, external service) can be plugged in.
type PitchEstimator interface {
	Estimate(ctx context.Context, audio *transcode.AudioData) (*FramePitchTrack, error)
}

// TempoEstimator returns a single global tempo in BPM for decoded audio
type TempoEstimator interface {
	EstimateTempo(ctx context.Context, audio *transcode.AudioData) (float64, error)
}

// YinEstimator adapts the YIN frame tracker to PitchEstimator
type YinEstimator struct {
	tracker *tonal.PitchTracker
}

// NewYinEstimator builds a YIN estimator from estimator configuration
func NewYinEstimator(cfg config.EstimatorConfig) (*YinEstimator, error) {
	params := tonal.DefaultPitchTrackerParams()
	params.SampleRate = cfg.SampleRate
	params.FrameLength = cfg.FrameLength
	params.HopLength = cfg.HopLength
	params.MinFreq = cfg.MinFreq
	params.MaxFreq = cfg.MaxFreq
	if cfg.YinThreshold > 0 {
		params.YinThreshold = cfg.YinThreshold
	}

	tracker, err := tonal.NewPitchTracker(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create pitch tracker: %w", err)
	}
	return &YinEstimator{tracker: tracker}, nil
}

// Estimate runs the tracker over the audio. The audio must already be at
// the tracker's sample rate.
func (y *YinEstimator) Estimate(ctx context.Context, audio *transcode.AudioData) (*FramePitchTrack, error) {
	if audio == nil {
		return nil, errors.New("audio data cannot be nil")
	}

	params := y.tracker.Params()
	if audio.SampleRate != params.SampleRate {
		return nil, fmt.Errorf("audio sample rate %d does not match estimator rate %d", audio.SampleRate, params.SampleRate)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pt := y.tracker.Track(audio.PCM)

	return &FramePitchTrack{
		SampleRate:  pt.SampleRate,
		HopLength:   pt.HopLength,
		Frequencies: pt.Frequencies,
		Voiced:      pt.Voiced,
		Confidence:  pt.Confidence,
		NumSamples:  len(audio.PCM),
	}, nil
}

// EnvelopeTempoEstimator adapts onset-envelope tempo estimation to
// TempoEstimator
type EnvelopeTempoEstimator struct {
	estimator *temporal.TempoEstimation
}

// NewEnvelopeTempoEstimator builds a tempo estimator searching the
// configured BPM range
func NewEnvelopeTempoEstimator(cfg config.TempoConfig, defaultTempo float64) *EnvelopeTempoEstimator {
	params := temporal.DefaultTempoParams()
	if cfg.MinBPM > 0 {
		params.MinBPM = cfg.MinBPM
	}
	if cfg.MaxBPM > params.MinBPM {
		params.MaxBPM = cfg.MaxBPM
	}
	if defaultTempo > 0 {
		params.DefaultBPM = defaultTempo
	}
	return &EnvelopeTempoEstimator{estimator: temporal.NewTempoEstimation(params)}
}

// EstimateTempo estimates the tempo of the audio
func (e *EnvelopeTempoEstimator) EstimateTempo(ctx context.Context, audio *transcode.AudioData) (float64, error) {
	if audio == nil {
		return 0, errors.New("audio data cannot be nil")
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return e.estimator.EstimateTempo(audio.PCM, audio.SampleRate)
}
