package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

// Preset names a historical parameter set for the transcription pipeline
type Preset string

const (
	// PresetClassical matches the autocorrelation (pYIN-style) variant:
	// 8 kHz audio, 16 ms hop, voice range 150-500 Hz
	PresetClassical Preset = "classical"

	// PresetNeural matches the neural-estimator variant: 16 kHz audio,
	// 10 ms hop, confidence-gated voicing
	PresetNeural Preset = "neural"
)

// PipelineConfig configures segmentation, filtering and quantization
type PipelineConfig struct {
	MinNoteDuration   float64 `json:"min_note_duration"` // seconds
	QuantizeDurations bool    `json:"quantize_durations"`
	DefaultTempo      float64 `json:"default_tempo"` // bpm used when quantizing without a tempo

	// Pre-segmentation cleanup of the pitch track
	SmoothingWidth      int     `json:"smoothing_width"`      // median window in frames, <= 1 disables
	ConfidenceThreshold float64 `json:"confidence_threshold"` // frames below are unvoiced, 0 disables
}

// EstimatorConfig configures the frame pitch estimator
type EstimatorConfig struct {
	SampleRate   int     `json:"sample_rate"`
	FrameLength  int     `json:"frame_length"`
	HopLength    int     `json:"hop_length"`
	MinFreq      float64 `json:"min_freq"`
	MaxFreq      float64 `json:"max_freq"`
	YinThreshold float64 `json:"yin_threshold"`
}

// TempoConfig configures global tempo estimation
type TempoConfig struct {
	Enabled bool    `json:"enabled"`
	MinBPM  float64 `json:"min_bpm"`
	MaxBPM  float64 `json:"max_bpm"`
}

// AudioConfig configures decoding
type AudioConfig struct {
	MaxDurationSeconds float64 `json:"max_duration_seconds"` // 0 means no limit
	FFmpegPath         string  `json:"ffmpeg_path"`
	TimeoutSeconds     float64 `json:"timeout_seconds"`
	RemoveDC           bool    `json:"remove_dc"`
	PeakNormalize      bool    `json:"peak_normalize"`
}

// ServerConfig configures the HTTP surface
type ServerConfig struct {
	Addr           string   `json:"addr"`
	MaxUploadBytes int64    `json:"max_upload_bytes"`
	AllowedOrigins []string `json:"allowed_origins"`
}

// Config bundles everything the CLI and server need
type Config struct {
	Preset    Preset          `json:"preset"`
	LogLevel  string          `json:"log_level"`
	Pipeline  PipelineConfig  `json:"pipeline"`
	Estimator EstimatorConfig `json:"estimator"`
	Tempo     TempoConfig     `json:"tempo"`
	Audio     AudioConfig     `json:"audio"`
	Server    ServerConfig    `json:"server"`
}

// DefaultPipelineConfig returns the pipeline defaults
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		MinNoteDuration:     0.08,
		QuantizeDurations:   false,
		DefaultTempo:        120.0,
		SmoothingWidth:      0,
		ConfidenceThreshold: 0,
	}
}

// DefaultConfig returns the neural preset, which is also the default
func DefaultConfig() *Config {
	cfg, _ := ForPreset(PresetNeural)
	return cfg
}

// ForPreset returns a full configuration for the named preset
func ForPreset(preset Preset) (*Config, error) {
	cfg := &Config{
		Preset:   preset,
		LogLevel: "info",
		Pipeline: DefaultPipelineConfig(),
		Tempo: TempoConfig{
			Enabled: true,
			MinBPM:  60,
			MaxBPM:  180,
		},
		Audio: AudioConfig{
			MaxDurationSeconds: 20,
			FFmpegPath:         "ffmpeg",
			TimeoutSeconds:     30,
			RemoveDC:           true,
			PeakNormalize:      true,
		},
		Server: ServerConfig{
			Addr:           ":8080",
			MaxUploadBytes: 32 << 20,
			AllowedOrigins: []string{"*"},
		},
	}

	switch preset {
	case PresetClassical:
		cfg.Estimator = EstimatorConfig{
			SampleRate:   8000,
			FrameLength:  2048,
			HopLength:    128,
			MinFreq:      150.0,
			MaxFreq:      500.0,
			YinThreshold: 0.15,
		}
		cfg.Pipeline.MinNoteDuration = 0.10
		cfg.Pipeline.SmoothingWidth = 5

	case PresetNeural:
		cfg.Estimator = EstimatorConfig{
			SampleRate:   16000,
			FrameLength:  1024,
			HopLength:    160,
			MinFreq:      65.0,
			MaxFreq:      1000.0,
			YinThreshold: 0.15,
		}
		cfg.Pipeline.MinNoteDuration = 0.08
		cfg.Pipeline.ConfidenceThreshold = 0.3

	default:
		return nil, fmt.Errorf("unknown preset %q", preset)
	}

	return cfg, nil
}

// Load reads a JSON config file. Fields absent from the file keep the
// values of the preset named in the file, or of the default preset.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var header struct {
		Preset Preset `json:"preset"`
	}
	if err := json.Unmarshal(data, &header); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	cfg := DefaultConfig()
	if header.Preset != "" {
		if cfg, err = ForPreset(header.Preset); err != nil {
			return nil, err
		}
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate reports every impossible value in the configuration
func (c *Config) Validate() error {
	var errs []string

	if c.Pipeline.MinNoteDuration < 0 {
		errs = append(errs, "pipeline.min_note_duration must be >= 0")
	}
	if c.Pipeline.DefaultTempo <= 0 {
		errs = append(errs, "pipeline.default_tempo must be > 0")
	}
	if c.Pipeline.ConfidenceThreshold < 0 || c.Pipeline.ConfidenceThreshold > 1 {
		errs = append(errs, "pipeline.confidence_threshold must be within [0, 1]")
	}
	if c.Estimator.SampleRate <= 0 || c.Estimator.HopLength <= 0 {
		errs = append(errs, "estimator.sample_rate and estimator.hop_length must be > 0")
	}
	if c.Estimator.FrameLength < c.Estimator.HopLength {
		errs = append(errs, "estimator.frame_length must be >= hop_length")
	}
	if c.Estimator.MinFreq <= 0 || c.Estimator.MaxFreq <= c.Estimator.MinFreq {
		errs = append(errs, "estimator frequency range must satisfy 0 < min_freq < max_freq")
	}
	if c.Tempo.Enabled && (c.Tempo.MinBPM <= 0 || c.Tempo.MaxBPM <= c.Tempo.MinBPM) {
		errs = append(errs, "tempo range must satisfy 0 < min_bpm < max_bpm")
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

// FrameInterval returns the estimator hop in seconds
func (c *Config) FrameInterval() float64 {
	return float64(c.Estimator.HopLength) / float64(c.Estimator.SampleRate)
}

// MaxDuration returns the audio duration cap
func (a AudioConfig) MaxDuration() time.Duration {
	return time.Duration(a.MaxDurationSeconds * float64(time.Second))
}

// Timeout returns the decoder timeout
func (a AudioConfig) Timeout() time.Duration {
	return time.Duration(a.TimeoutSeconds * float64(time.Second))
}
