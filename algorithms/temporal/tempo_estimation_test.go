package temporal

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clickTrack renders a 20 ms 1 kHz burst on every beat
func clickTrack(bpm float64, sampleRate int, seconds float64) []float64 {
	signal := make([]float64, int(float64(sampleRate)*seconds))
	beat := int(60.0 / bpm * float64(sampleRate))
	burst := sampleRate / 50

	for start := 0; start < len(signal); start += beat {
		for i := 0; i < burst && start+i < len(signal); i++ {
			signal[start+i] = math.Sin(2 * math.Pi * 1000 * float64(i) / float64(sampleRate))
		}
	}
	return signal
}

func TestEstimateTempoClickTrack(t *testing.T) {
	te := NewTempoEstimation(DefaultTempoParams())

	for _, bpm := range []float64{80, 100, 120} {
		got, err := te.EstimateTempo(clickTrack(bpm, 8000, 10), 8000)
		require.NoError(t, err)
		assert.InDelta(t, bpm, got, bpm*0.05, "bpm %g", bpm)
	}
}

func TestEstimateTempoTooShort(t *testing.T) {
	te := NewTempoEstimation(DefaultTempoParams())
	_, err := te.EstimateTempo(make([]float64, 1000), 8000)
	assert.ErrorIs(t, err, ErrSignalTooShort)

	_, err = te.EstimateTempo(make([]float64, 1000), 0)
	assert.Error(t, err)
}

func TestEstimateTempoSilenceFallsBackToDefault(t *testing.T) {
	te := NewTempoEstimation(DefaultTempoParams())
	got, err := te.EstimateTempo(make([]float64, 8000*5), 8000)
	require.NoError(t, err)
	assert.Equal(t, 120.0, got)
}

func TestOnsetStrengthRectifies(t *testing.T) {
	e := NewEnvelope()
	assert.Equal(t, []float64{1, 0, 2}, e.OnsetStrength([]float64{0, 1, 0.5, 2.5}))
	assert.Empty(t, e.OnsetStrength([]float64{1}))
	assert.Len(t, e.ComputeRMS(make([]float64, 10), 4, 2), 4)
}
