package tonal

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sine(hz float64, sampleRate int, seconds float64) []float64 {
	n := int(float64(sampleRate) * seconds)
	out := make([]float64, n)
	for i := range out {
		out[i] = 0.8 * math.Sin(2*math.Pi*hz*float64(i)/float64(sampleRate))
	}
	return out
}

func TestTrackSineFrequency(t *testing.T) {
	tracker, err := NewPitchTracker(DefaultPitchTrackerParams())
	require.NoError(t, err)

	for _, hz := range []float64{110, 220, 440, 659.25} {
		track := tracker.Track(sine(hz, 16000, 0.3))
		require.NotEmpty(t, track.Frequencies)

		for i, f := range track.Frequencies {
			require.True(t, track.Voiced[i], "frame %d of %g Hz unvoiced", i, hz)
			assert.InDelta(t, hz, f, hz*0.01, "frame %d", i)
			assert.Greater(t, track.Confidence[i], 0.8)
		}
	}
}

func TestTrackSilenceIsUnvoiced(t *testing.T) {
	tracker, err := NewPitchTracker(DefaultPitchTrackerParams())
	require.NoError(t, err)

	track := tracker.Track(make([]float64, 4000))
	require.NotEmpty(t, track.Frequencies)
	for i := range track.Frequencies {
		assert.False(t, track.Voiced[i])
		assert.True(t, math.IsNaN(track.Frequencies[i]))
	}
}

func TestTrackOutOfRangeIsUnvoiced(t *testing.T) {
	params := DefaultPitchTrackerParams()
	params.MinFreq = 300
	params.MaxFreq = 500
	tracker, err := NewPitchTracker(params)
	require.NoError(t, err)

	track := tracker.Track(sine(100, 16000, 0.2))
	for i := range track.Voiced {
		assert.False(t, track.Voiced[i])
	}
}

func TestFrameCount(t *testing.T) {
	tracker, err := NewPitchTracker(DefaultPitchTrackerParams())
	require.NoError(t, err)

	assert.Equal(t, 0, tracker.FrameCount(1023))
	assert.Equal(t, 1, tracker.FrameCount(1024))
	assert.Equal(t, 2, tracker.FrameCount(1184))
	assert.Len(t, tracker.Track(make([]float64, 100)).Frequencies, 0)
}

func TestNewPitchTrackerRejectsBadParams(t *testing.T) {
	bad := []func(*PitchTrackerParams){
		func(p *PitchTrackerParams) { p.SampleRate = 0 },
		func(p *PitchTrackerParams) { p.HopLength = -1 },
		func(p *PitchTrackerParams) { p.FrameLength = 2 },
		func(p *PitchTrackerParams) { p.MaxFreq = p.MinFreq },
		func(p *PitchTrackerParams) { p.YinThreshold = 0 },
	}

	for i, mutate := range bad {
		params := DefaultPitchTrackerParams()
		mutate(&params)
		_, err := NewPitchTracker(params)
		assert.Error(t, err, "case %d", i)
	}
}
