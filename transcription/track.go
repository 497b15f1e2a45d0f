package transcription

import (
	"fmt"
	"math"

	"github.com/RyanBlaney/sonido-nota/algorithms/common"
)

// FramePitchTrack is a fixed-hop pitch contour for a whole recording.
// Frame i covers time i*HopLength/SampleRate.
type FramePitchTrack struct {
	SampleRate int `json:"sample_rate"`
	HopLength  int `json:"hop_length"`

	// Frequencies holds one f0 estimate per frame in Hz, NaN when unvoiced
	Frequencies []float64 `json:"frequencies"`

	// Voiced is the estimator's explicit voicing decision. When nil, a frame
	// is voiced iff its frequency is finite and positive.
	Voiced []bool `json:"voiced,omitempty"`

	// Times optionally carries the estimator's frame timestamps. They are
	// only checked against the hop grid.
	Times []float64 `json:"times,omitempty"`

	// Confidence optionally carries a per-frame voicing confidence in [0, 1]
	Confidence []float64 `json:"confidence,omitempty"`

	// NumSamples is the length of the analysed audio; when set, note ends
	// are clamped to the end of the audio.
	NumSamples int `json:"num_samples,omitempty"`
}

// Len returns the number of frames
func (t *FramePitchTrack) Len() int {
	return len(t.Frequencies)
}

// FrameInterval returns the hop in seconds
func (t *FramePitchTrack) FrameInterval() float64 {
	return float64(t.HopLength) / float64(t.SampleRate)
}

// FrameTime converts a frame index (or an exclusive end index) to seconds
func (t *FramePitchTrack) FrameTime(index int) float64 {
	return float64(index) * float64(t.HopLength) / float64(t.SampleRate)
}

// AudioEnd returns the end of the analysed audio in seconds, or +Inf when
// the sample count is unknown
func (t *FramePitchTrack) AudioEnd() float64 {
	if t.NumSamples <= 0 {
		return math.Inf(1)
	}
	return float64(t.NumSamples) / float64(t.SampleRate)
}

// Validate checks the structural invariants of the track
func (t *FramePitchTrack) Validate() error {
	n := t.Len()

	if t.Voiced != nil && len(t.Voiced) != n {
		return fmt.Errorf("%w: %d voiced flags for %d frequencies", ErrLengthMismatch, len(t.Voiced), n)
	}
	if t.Times != nil && len(t.Times) != n {
		return fmt.Errorf("%w: %d times for %d frequencies", ErrLengthMismatch, len(t.Times), n)
	}
	if t.Confidence != nil && len(t.Confidence) != n {
		return fmt.Errorf("%w: %d confidences for %d frequencies", ErrLengthMismatch, len(t.Confidence), n)
	}

	if n == 0 {
		return nil
	}

	if t.SampleRate <= 0 || t.HopLength <= 0 {
		return fmt.Errorf("%w: sample rate %d, hop length %d", ErrInvalidFrameRate, t.SampleRate, t.HopLength)
	}

	interval := t.FrameInterval()
	tolerance := 1e-6 + 1e-3*interval
	for i := 1; i < len(t.Times); i++ {
		dt := t.Times[i] - t.Times[i-1]
		if !(dt > 0) {
			return fmt.Errorf("%w: frame %d at %gs follows %gs", ErrNonMonotonicTime, i, t.Times[i], t.Times[i-1])
		}
		if math.Abs(dt-interval) > tolerance {
			return fmt.Errorf("%w: frame %d is %gs after the previous, expected %gs", ErrNonUniformSpacing, i, dt, interval)
		}
	}

	return nil
}

// VoicedFlags returns the explicit voicing flags, or derives them from the
// frequencies when the estimator gave none
func (t *FramePitchTrack) VoicedFlags() []bool {
	if t.Voiced != nil {
		return t.Voiced
	}

	flags := make([]bool, len(t.Frequencies))
	for i, hz := range t.Frequencies {
		flags[i] = common.IsValidFrequency(hz)
	}
	return flags
}
