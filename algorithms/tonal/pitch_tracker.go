package tonal

import (
	"fmt"
	"math"

	"github.com/RyanBlaney/sonido-nota/algorithms/common"
	"github.com/RyanBlaney/sonido-nota/algorithms/spectral"
)

// PitchTrackerParams contains parameters for frame-wise pitch tracking
type PitchTrackerParams struct {
	SampleRate  int `json:"sample_rate"`
	FrameLength int `json:"frame_length"` // analysis window in samples
	HopLength   int `json:"hop_length"`   // frame advance in samples

	// Frequency range constraints
	MinFreq float64 `json:"min_freq"`
	MaxFreq float64 `json:"max_freq"`

	YinThreshold     float64 `json:"yin_threshold"`     // CMNDF dip threshold (0.1-0.3)
	SilenceThreshold float64 `json:"silence_threshold"` // frames below this RMS are unvoiced
}

// DefaultPitchTrackerParams returns parameters suited to voice and
// monophonic instruments at 16 kHz with a 10 ms hop
func DefaultPitchTrackerParams() PitchTrackerParams {
	return PitchTrackerParams{
		SampleRate:       16000,
		FrameLength:      1024,
		HopLength:        160,
		MinFreq:          65.0,
		MaxFreq:          1000.0,
		YinThreshold:     0.15,
		SilenceThreshold: 1e-3,
	}
}

// PitchTrack is the per-frame output of a PitchTracker. All slices have one
// entry per frame; frame i starts at sample i*HopLength.
type PitchTrack struct {
	SampleRate  int
	HopLength   int
	Frequencies []float64 // Hz, NaN when unvoiced
	Voiced      []bool
	Confidence  []float64 // 1 - CMNDF minimum, 0 when no dip was found
}

// PitchTracker runs YIN over consecutive frames of a mono signal
//
// References:
// - de Cheveigné, A., Kawahara, H. (2002). "YIN, a fundamental frequency estimator for speech and music"
//
// The difference function is computed through FFT cross-correlation so each
// frame costs O(N log N) instead of O(N^2).
type PitchTracker struct {
	params PitchTrackerParams
	fft    *spectral.FFT
}

// NewPitchTracker creates a tracker, validating the parameters
func NewPitchTracker(params PitchTrackerParams) (*PitchTracker, error) {
	if params.SampleRate <= 0 || params.HopLength <= 0 {
		return nil, fmt.Errorf("sample rate (%d) and hop length (%d) must be positive", params.SampleRate, params.HopLength)
	}
	if params.FrameLength < 4 {
		return nil, fmt.Errorf("frame length %d too small", params.FrameLength)
	}
	if params.MinFreq <= 0 || params.MaxFreq <= params.MinFreq {
		return nil, fmt.Errorf("invalid frequency range [%g, %g]", params.MinFreq, params.MaxFreq)
	}
	if params.YinThreshold <= 0 {
		return nil, fmt.Errorf("yin threshold must be positive, got %g", params.YinThreshold)
	}

	return &PitchTracker{
		params: params,
		fft:    spectral.NewFFT(),
	}, nil
}

// Params returns the tracker parameters
func (pt *PitchTracker) Params() PitchTrackerParams {
	return pt.params
}

// FrameCount returns how many full frames fit in n samples (no centering).
func (pt *PitchTracker) FrameCount(n int) int {
	if n < pt.params.FrameLength {
		return 0
	}
	return 1 + (n-pt.params.FrameLength)/pt.params.HopLength
}

// Track estimates the pitch of every frame of signal
func (pt *PitchTracker) Track(signal []float64) *PitchTrack {
	n := pt.FrameCount(len(signal))
	track := &PitchTrack{
		SampleRate:  pt.params.SampleRate,
		HopLength:   pt.params.HopLength,
		Frequencies: make([]float64, n),
		Voiced:      make([]bool, n),
		Confidence:  make([]float64, n),
	}

	for i := 0; i < n; i++ {
		start := i * pt.params.HopLength
		frame := signal[start : start+pt.params.FrameLength]

		hz, confidence := pt.DetectFrame(frame)
		track.Frequencies[i] = hz
		track.Voiced[i] = common.IsValidFrequency(hz)
		track.Confidence[i] = confidence
	}

	return track
}

// DetectFrame returns the YIN estimate for one frame of FrameLength samples,
// or NaN when the frame is silent, aperiodic or out of range.
func (pt *PitchTracker) DetectFrame(frame []float64) (float64, float64) {
	if len(frame) < pt.params.FrameLength || common.RMS(frame) < pt.params.SilenceThreshold {
		return math.NaN(), 0
	}

	halfN := pt.params.FrameLength / 2
	minTau := max(2, int(float64(pt.params.SampleRate)/pt.params.MaxFreq))
	maxTau := min(halfN-1, int(math.Ceil(float64(pt.params.SampleRate)/pt.params.MinFreq)))
	if minTau >= maxTau {
		return math.NaN(), 0
	}

	cmndf := pt.cumulativeMeanNormalizedDifference(frame, halfN)

	// first dip below threshold, followed down to its local minimum
	bestTau := -1
	for tau := minTau; tau < maxTau; tau++ {
		if cmndf[tau] < pt.params.YinThreshold {
			for tau+1 < maxTau && cmndf[tau+1] < cmndf[tau] {
				tau++
			}
			bestTau = tau
			break
		}
	}

	if bestTau < 0 {
		return math.NaN(), 0
	}

	confidence := math.Max(0, 1.0-cmndf[bestTau])
	period := common.ParabolicOffset(cmndf, bestTau)
	if period <= 0 {
		return math.NaN(), 0
	}

	frequency := float64(pt.params.SampleRate) / period
	if frequency < pt.params.MinFreq || frequency > pt.params.MaxFreq {
		return math.NaN(), confidence
	}

	return frequency, confidence
}

// cumulativeMeanNormalizedDifference computes YIN's d'(tau) for tau < halfN
func (pt *PitchTracker) cumulativeMeanNormalizedDifference(frame []float64, halfN int) []float64 {
	// d(tau) = sum x[j]^2 + sum x[j+tau]^2 - 2 sum x[j]x[j+tau], j in [0, halfN)
	corr := pt.fft.CrossCorrelate(frame[:halfN], frame, halfN)

	energy := make([]float64, len(frame)+1)
	for i, v := range frame {
		energy[i+1] = energy[i] + v*v
	}
	base := energy[halfN]

	cmndf := make([]float64, halfN)
	cmndf[0] = 1.0

	runningSum := 0.0
	for tau := 1; tau < halfN; tau++ {
		shifted := energy[tau+halfN] - energy[tau]
		diff := math.Max(0, base+shifted-2*corr[tau])

		runningSum += diff
		if runningSum <= 0 {
			cmndf[tau] = 1.0
			continue
		}
		cmndf[tau] = diff * float64(tau) / runningSum
	}

	return cmndf
}
