package transcode

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/RyanBlaney/sonido-nota/algorithms/common"
	"github.com/RyanBlaney/sonido-nota/algorithms/filters"
	"github.com/RyanBlaney/sonido-nota/logging"
	"github.com/mjibson/go-dsp/wav"
)

// ErrEmptyAudio is returned when there is nothing to decode
var ErrEmptyAudio = errors.New("empty audio data")

// AudioData represents decoded mono audio ready for pitch analysis
type AudioData struct {
	PCM        []float64     `json:"-"` // mono samples in [-1, 1]
	SampleRate int           `json:"sample_rate"`
	Duration   time.Duration `json:"duration"`
	Source     string        `json:"source,omitempty"`
	Decoder    string        `json:"decoder"` // "wav" or "ffmpeg"
}

// DecoderConfig holds decoder configuration
type DecoderConfig struct {
	TargetSampleRate int           `json:"target_sample_rate"`
	MaxDuration      time.Duration `json:"max_duration"`   // 0 means no limit
	RemoveDC         bool          `json:"remove_dc"`      // high-pass below filters.DefaultDCCutoff
	PeakNormalize    bool          `json:"peak_normalize"` // scale to a peak of 1.0
	FFmpegPath       string        `json:"ffmpeg_path"`    // Path to ffmpeg binary
	Timeout          time.Duration `json:"timeout"`        // Timeout for ffmpeg operations
	PreferNativeWAV  bool          `json:"prefer_native_wav"`
}

// DefaultDecoderConfig returns default decoder configuration
func DefaultDecoderConfig() *DecoderConfig {
	return &DecoderConfig{
		TargetSampleRate: 16000,
		MaxDuration:      20 * time.Second,
		RemoveDC:         true,
		PeakNormalize:    true,
		FFmpegPath:       "ffmpeg", // Assume in PATH
		Timeout:          30 * time.Second,
		PreferNativeWAV:  true,
	}
}

// Decoder turns audio files into mono PCM at a fixed sample rate.
// PCM WAV input is decoded in-process; anything else goes through FFmpeg.
type Decoder struct {
	config *DecoderConfig
}

// NewDecoder creates a new audio decoder
func NewDecoder(config *DecoderConfig) *Decoder {
	if config == nil {
		config = DefaultDecoderConfig()
	}
	return &Decoder{config: config}
}

// Config returns the decoder configuration
func (d *Decoder) Config() DecoderConfig {
	return *d.config
}

// DecodeFile decodes an audio file and returns mono PCM data
func (d *Decoder) DecodeFile(ctx context.Context, filename string) (*AudioData, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read audio file: %w", err)
	}
	return d.DecodeBytes(ctx, data, filename)
}

// DecodeReader decodes audio from an io.Reader
func (d *Decoder) DecodeReader(ctx context.Context, reader io.Reader, source string) (*AudioData, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read audio: %w", err)
	}
	return d.DecodeBytes(ctx, data, source)
}

// DecodeBytes decodes audio from a byte slice
func (d *Decoder) DecodeBytes(ctx context.Context, data []byte, source string) (*AudioData, error) {
	logger := logging.WithContext(ctx).WithFields(logging.Fields{
		"component": "audio_decoder",
		"function":  "DecodeBytes",
		"source":    source,
		"data_size": len(data),
	})

	if len(data) == 0 {
		return nil, ErrEmptyAudio
	}

	var (
		samples    []float64
		sampleRate int
		decoder    string
		err        error
	)

	if d.config.PreferNativeWAV && IsWAV(data) {
		decoder = "wav"
		samples, sampleRate, err = decodeWAV(data)
		if err != nil {
			logger.Warn("Native WAV decode failed, falling back to FFmpeg", logging.Fields{"error": err.Error()})
		}
	}

	if samples == nil {
		decoder = "ffmpeg"
		samples, err = d.decodeWithFFmpeg(ctx, data, logger)
		sampleRate = d.config.TargetSampleRate
		if err != nil {
			return nil, err
		}
	}

	audio := d.finish(samples, sampleRate, source, decoder)

	logger.Debug("Audio decoded", logging.Fields{
		"decoder":     decoder,
		"samples":     len(audio.PCM),
		"sample_rate": audio.SampleRate,
		"duration":    audio.Duration.Seconds(),
	})

	return audio, nil
}

// finish truncates, removes DC, band-limits, resamples and normalizes
// mono samples. Normalization never raises the level of content the
// anti-alias filter removed: the gain comes from the larger of the
// filtered peak and the peak before filtering.
func (d *Decoder) finish(samples []float64, sampleRate int, source, decoder string) *AudioData {
	target := d.config.TargetSampleRate
	if target <= 0 {
		target = sampleRate
	}

	samples = common.Truncate(samples, sampleRate, d.config.MaxDuration.Seconds())
	if d.config.RemoveDC {
		samples = filters.RemoveDC(samples, sampleRate, filters.DefaultDCCutoff)
	}
	sourcePeak := common.Peak(samples)

	samples = filters.AntiAlias(samples, sampleRate, target)
	samples = common.Resample(samples, sampleRate, target)
	if d.config.PeakNormalize {
		samples = common.ScaleToPeak(samples, math.Max(sourcePeak, common.Peak(samples)))
	}

	return &AudioData{
		PCM:        samples,
		SampleRate: target,
		Duration:   time.Duration(float64(len(samples)) / float64(target) * float64(time.Second)),
		Source:     source,
		Decoder:    decoder,
	}
}

// IsWAV reports whether data starts with a RIFF/WAVE header
func IsWAV(data []byte) bool {
	return len(data) >= 12 && string(data[0:4]) == "RIFF" && string(data[8:12]) == "WAVE"
}

// decodeWAV reads PCM WAV data and downmixes it to mono
func decodeWAV(data []byte) ([]float64, int, error) {
	w, err := wav.New(bytes.NewReader(data))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to parse wav header: %w", err)
	}
	if w.NumChannels == 0 || w.SampleRate == 0 {
		return nil, 0, fmt.Errorf("invalid wav format: %d channels at %d Hz", w.NumChannels, w.SampleRate)
	}

	raw, err := w.ReadFloats(w.Samples)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, 0, fmt.Errorf("failed to read wav samples: %w", err)
	}
	if len(raw) == 0 {
		return nil, 0, ErrEmptyAudio
	}

	interleaved := make([]float64, len(raw))
	for i, v := range raw {
		interleaved[i] = float64(v)
	}

	return common.Downmix(interleaved, int(w.NumChannels)), int(w.SampleRate), nil
}

// buildFFmpegArgs builds the argument list for decoding stdin to mono f64le
func (d *Decoder) buildFFmpegArgs() []string {
	args := []string{
		"-v", "error", // Suppress verbose output
		"-i", "pipe:0",
	}

	if d.config.MaxDuration > 0 {
		args = append(args, "-t", fmt.Sprintf("%.3f", d.config.MaxDuration.Seconds()))
	}

	args = append(args,
		"-map", "0:a:0?",
		"-vn",         // No video
		"-f", "f64le", // Output raw float64 little-endian
		"-ac", "1",
		"-ar", strconv.Itoa(d.config.TargetSampleRate),
		"pipe:1",
	)

	return args
}

func (d *Decoder) decodeWithFFmpeg(ctx context.Context, data []byte, logger logging.Logger) ([]float64, error) {
	if d.config.TargetSampleRate <= 0 {
		return nil, fmt.Errorf("ffmpeg decode needs a target sample rate")
	}

	if d.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.config.Timeout)
		defer cancel()
	}

	args := d.buildFFmpegArgs()
	cmd := exec.CommandContext(ctx, d.config.FFmpegPath, args...)
	cmd.Stdin = bytes.NewReader(data)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	logger.Debug("Running FFmpeg command", logging.Fields{
		"command": fmt.Sprintf("%s %s", d.config.FFmpegPath, strings.Join(args, " ")),
	})

	startTime := time.Now()
	output, err := cmd.Output()
	if err != nil {
		logger.Error(err, "FFmpeg decode failed", logging.Fields{"stderr": stderr.String()})
		return nil, fmt.Errorf("ffmpeg decode failed: %w, stderr: %s", err, stderr.String())
	}

	logger.Debug("FFmpeg decode completed", logging.Fields{
		"output_bytes": len(output),
		"decode_time":  time.Since(startTime).Seconds(),
	})

	samples := bytesToFloat64(output)
	if len(samples) == 0 {
		return nil, fmt.Errorf("no audio samples decoded: %w", ErrEmptyAudio)
	}
	return samples, nil
}

// bytesToFloat64 converts raw little-endian float64 bytes to []float64
func bytesToFloat64(data []byte) []float64 {
	// Trim to multiple of 8 bytes
	data = data[:len(data)-(len(data)%8)]
	if len(data) == 0 {
		return nil
	}

	samples := make([]float64, len(data)/8)
	for i := range samples {
		bits := binary.LittleEndian.Uint64(data[i*8 : i*8+8])
		samples[i] = math.Float64frombits(bits)
	}

	return samples
}
