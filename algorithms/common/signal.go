package common

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Downmix averages interleaved multi-channel PCM into a mono signal.
func Downmix(interleaved []float64, channels int) []float64 {
	if channels <= 1 {
		out := make([]float64, len(interleaved))
		copy(out, interleaved)
		return out
	}

	frames := len(interleaved) / channels
	mono := make([]float64, frames)
	for i := range mono {
		mono[i] = Mean(interleaved[i*channels : (i+1)*channels])
	}
	return mono
}

// Resample converts a signal between sample rates with linear interpolation
func Resample(signal []float64, originalRate, targetRate int) []float64 {
	if len(signal) == 0 || originalRate <= 0 || targetRate <= 0 || originalRate == targetRate {
		return signal
	}

	ratio := float64(originalRate) / float64(targetRate)
	newLength := int(float64(len(signal)) / ratio)
	if newLength <= 0 {
		return []float64{}
	}

	resampled := make([]float64, newLength)
	last := len(signal) - 1
	for i := range resampled {
		pos := float64(i) * ratio
		j := int(pos)
		if j >= last {
			resampled[i] = signal[last]
			continue
		}
		frac := pos - float64(j)
		resampled[i] = signal[j] + frac*(signal[j+1]-signal[j])
	}

	return resampled
}

// Peak returns the largest absolute sample, or 0 for an empty signal
func Peak(signal []float64) float64 {
	if len(signal) == 0 {
		return 0
	}
	return math.Max(math.Abs(floats.Max(signal)), math.Abs(floats.Min(signal)))
}

// ScaleToPeak divides a signal by peak. A peak below 1e-10 leaves the
// signal unchanged.
func ScaleToPeak(signal []float64, peak float64) []float64 {
	if len(signal) == 0 || peak < 1e-10 {
		return signal
	}

	normalized := make([]float64, len(signal))
	copy(normalized, signal)
	floats.Scale(1/peak, normalized)
	return normalized
}

// Truncate limits a signal to at most maxSeconds of audio at sampleRate.
// A non-positive maxSeconds means no limit.
func Truncate(signal []float64, sampleRate int, maxSeconds float64) []float64 {
	if maxSeconds <= 0 || sampleRate <= 0 {
		return signal
	}
	limit := int(float64(sampleRate) * maxSeconds)
	if len(signal) > limit {
		return signal[:limit]
	}
	return signal
}
