package transcription

import (
	"fmt"
	"math"

	"github.com/RyanBlaney/sonido-nota/algorithms/common"
	"github.com/RyanBlaney/sonido-nota/algorithms/tonal"
	"github.com/RyanBlaney/sonido-nota/logging"
	"github.com/RyanBlaney/sonido-nota/transcription/config"
)

// Pipeline turns a frame pitch track into note events. It holds no mutable
// state and may be shared between goroutines.
type Pipeline struct {
	config config.PipelineConfig
	logger logging.Logger
}

// fallbackTempo replaces an unusable DefaultTempo
const fallbackTempo = 120.0

// NewPipeline creates a pipeline. A DefaultTempo that is not a positive
// finite bpm is replaced with 120.
func NewPipeline(cfg config.PipelineConfig) *Pipeline {
	logger := logging.WithFields(logging.Fields{
		"component": "transcription_pipeline",
	})

	if !validTempo(cfg.DefaultTempo) {
		logger.Warn("Invalid default tempo, using fallback", logging.Fields{
			"default_tempo": cfg.DefaultTempo,
			"fallback":      fallbackTempo,
		})
		cfg.DefaultTempo = fallbackTempo
	}

	return &Pipeline{
		config: cfg,
		logger: logger,
	}
}

// Config returns the pipeline configuration
func (p *Pipeline) Config() config.PipelineConfig {
	return p.config
}

// WithQuantize returns a copy of the pipeline with duration quantization
// switched on or off
func (p *Pipeline) WithQuantize(quantize bool) *Pipeline {
	cp := *p
	cp.config.QuantizeDurations = quantize
	return &cp
}

// Transcribe runs segmentation, pitch resolution, duration filtering,
// naming and (optionally) rhythm quantization over track, in that order.
// tempoHint may be nil. An empty track yields no notes and no tempo.
func (p *Pipeline) Transcribe(track *FramePitchTrack, tempoHint *float64) (*TranscriptionResult, error) {
	if track == nil {
		track = &FramePitchTrack{}
	}
	if err := track.Validate(); err != nil {
		return nil, err
	}
	if tempoHint != nil && !validTempo(*tempoHint) {
		return nil, fmt.Errorf("%w: %g", ErrInvalidTempo, *tempoHint)
	}

	result := &TranscriptionResult{Notes: []NoteEvent{}}
	if track.Len() == 0 {
		return result, nil
	}

	if tempoHint != nil {
		tempo := *tempoHint
		result.Tempo = &tempo
	} else if p.config.QuantizeDurations {
		tempo := p.config.DefaultTempo
		result.Tempo = &tempo
	}

	frequencies, voiced := p.prepare(track)
	segments := SegmentVoicing(voiced)

	resolved := make([]NoteEvent, 0, len(segments))
	for _, seg := range segments {
		note, ok := ResolveSegment(track, frequencies, seg)
		if !ok {
			continue
		}
		resolved = append(resolved, note)
	}

	notes := FilterByDuration(resolved, p.config.MinNoteDuration)

	for i := range notes {
		notes[i].Pitch = tonal.NoteNameFromHz(notes[i].Frequency)

		if p.config.QuantizeDurations {
			class, err := QuantizeDuration(notes[i].Seconds(), *result.Tempo)
			if err != nil {
				return nil, err
			}
			notes[i].Duration = class
		}
	}

	p.logger.Debug("Pitch track transcribed", logging.Fields{
		"frames":        track.Len(),
		"segments":      len(segments),
		"without_pitch": len(segments) - len(resolved),
		"too_short":     len(resolved) - len(notes),
		"notes":         len(notes),
		"quantized":     p.config.QuantizeDurations,
	})

	result.Notes = notes
	return result, nil
}

// prepare applies confidence gating and median smoothing. The track itself
// is never modified.
func (p *Pipeline) prepare(track *FramePitchTrack) ([]float64, []bool) {
	frequencies := track.Frequencies
	voiced := track.VoicedFlags()

	if p.config.ConfidenceThreshold > 0 && track.Confidence != nil {
		gatedFreq := make([]float64, len(frequencies))
		gatedVoiced := make([]bool, len(voiced))
		for i := range frequencies {
			if track.Confidence[i] >= p.config.ConfidenceThreshold {
				gatedFreq[i] = frequencies[i]
				gatedVoiced[i] = voiced[i]
			} else {
				gatedFreq[i] = math.NaN()
			}
		}
		frequencies, voiced = gatedFreq, gatedVoiced
	}

	if p.config.SmoothingWidth > 1 {
		frequencies = common.MedianFilterValid(frequencies, p.config.SmoothingWidth)
	}

	return frequencies, voiced
}

func validTempo(bpm float64) bool {
	return !math.IsNaN(bpm) && !math.IsInf(bpm, 0) && bpm > 0
}
