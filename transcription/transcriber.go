package transcription

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/RyanBlaney/sonido-nota/logging"
	"github.com/RyanBlaney/sonido-nota/transcode"
	"github.com/RyanBlaney/sonido-nota/transcription/config"
)

// Options adjusts a single transcription request
type Options struct {
	// Quantize overrides the pipeline's QuantizeDurations when non-nil
	Quantize *bool

	// TempoHint skips tempo estimation when non-nil
	TempoHint *float64
}

// Transcriber decodes audio, estimates pitch and tempo, and runs the
// pipeline. It is safe for concurrent use.
type Transcriber struct {
	decoder   *transcode.Decoder
	estimator PitchEstimator
	tempo     TempoEstimator // nil disables tempo estimation
	pipeline  *Pipeline
	logger    logging.Logger
}

// NewTranscriber wires the given collaborators together. tempo may be nil.
func NewTranscriber(decoder *transcode.Decoder, estimator PitchEstimator, tempo TempoEstimator, pipeline *Pipeline) *Transcriber {
	return &Transcriber{
		decoder:   decoder,
		estimator: estimator,
		tempo:     tempo,
		pipeline:  pipeline,
		logger: logging.WithFields(logging.Fields{
			"component": "transcriber",
		}),
	}
}

// NewTranscriberFromConfig builds the YIN-based transcriber described by cfg
func NewTranscriberFromConfig(cfg *config.Config) (*Transcriber, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	decoderConfig := transcode.DefaultDecoderConfig()
	decoderConfig.TargetSampleRate = cfg.Estimator.SampleRate
	decoderConfig.MaxDuration = cfg.Audio.MaxDuration()
	decoderConfig.RemoveDC = cfg.Audio.RemoveDC
	decoderConfig.PeakNormalize = cfg.Audio.PeakNormalize
	decoderConfig.Timeout = cfg.Audio.Timeout()
	if cfg.Audio.FFmpegPath != "" {
		decoderConfig.FFmpegPath = cfg.Audio.FFmpegPath
	}

	estimator, err := NewYinEstimator(cfg.Estimator)
	if err != nil {
		return nil, err
	}

	var tempo TempoEstimator
	if cfg.Tempo.Enabled {
		tempo = NewEnvelopeTempoEstimator(cfg.Tempo, cfg.Pipeline.DefaultTempo)
	}

	return NewTranscriber(transcode.NewDecoder(decoderConfig), estimator, tempo, NewPipeline(cfg.Pipeline)), nil
}

// TranscribeFile decodes and transcribes an audio file
func (t *Transcriber) TranscribeFile(ctx context.Context, path string, opts Options) (*TranscriptionResult, error) {
	audio, err := t.decoder.DecodeFile(ctx, path)
	if err != nil {
		return nil, err
	}
	return t.TranscribeAudio(ctx, audio, opts)
}

// TranscribeBytes decodes and transcribes in-memory audio
func (t *Transcriber) TranscribeBytes(ctx context.Context, data []byte, source string, opts Options) (*TranscriptionResult, error) {
	audio, err := t.decoder.DecodeBytes(ctx, data, source)
	if err != nil {
		return nil, err
	}
	return t.TranscribeAudio(ctx, audio, opts)
}

// TranscribeReader decodes and transcribes audio read from r
func (t *Transcriber) TranscribeReader(ctx context.Context, r io.Reader, source string, opts Options) (*TranscriptionResult, error) {
	audio, err := t.decoder.DecodeReader(ctx, r, source)
	if err != nil {
		return nil, err
	}
	return t.TranscribeAudio(ctx, audio, opts)
}

// TranscribeAudio transcribes already decoded audio
func (t *Transcriber) TranscribeAudio(ctx context.Context, audio *transcode.AudioData, opts Options) (*TranscriptionResult, error) {
	logger := t.logger.WithContext(ctx)
	startTime := time.Now()

	track, err := t.estimator.Estimate(ctx, audio)
	if err != nil {
		return nil, fmt.Errorf("pitch estimation failed: %w", err)
	}

	tempoHint := opts.TempoHint
	if tempoHint == nil && t.tempo != nil {
		bpm, err := t.tempo.EstimateTempo(ctx, audio)
		if err != nil {
			logger.Warn("Tempo estimation failed, continuing without tempo", logging.Fields{
				"error": err.Error(),
			})
		} else {
			tempoHint = &bpm
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pipeline := t.pipeline
	if opts.Quantize != nil {
		pipeline = pipeline.WithQuantize(*opts.Quantize)
	}

	result, err := pipeline.Transcribe(track, tempoHint)
	if err != nil {
		return nil, err
	}

	logger.Info("Transcription completed", logging.Fields{
		"source":       audio.Source,
		"duration":     audio.Duration.Seconds(),
		"frames":       track.Len(),
		"notes":        len(result.Notes),
		"process_time": time.Since(startTime).Seconds(),
	})

	return result, nil
}
