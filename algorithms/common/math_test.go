package common

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMedian(t *testing.T) {
	tests := []struct {
		name string
		in   []float64
		want float64
	}{
		{"odd", []float64{3, 1, 2}, 2},
		{"even averages middle pair", []float64{4, 1, 3, 2}, 2.5},
		{"single", []float64{440}, 440},
		{"octave outlier ignored", []float64{440, 441, 880, 439, 440}, 440},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Median(tt.in))
		})
	}

	assert.True(t, math.IsNaN(Median(nil)))
}

func TestMedianDoesNotReorderInput(t *testing.T) {
	in := []float64{3, 1, 2}
	Median(in)
	assert.Equal(t, []float64{3, 1, 2}, in)
}

func TestIsValidFrequency(t *testing.T) {
	assert.True(t, IsValidFrequency(440))
	assert.False(t, IsValidFrequency(0))
	assert.False(t, IsValidFrequency(-1))
	assert.False(t, IsValidFrequency(math.NaN()))
	assert.False(t, IsValidFrequency(math.Inf(1)))
}

func TestMedianFilterValidKeepsGaps(t *testing.T) {
	nan := math.NaN()
	in := []float64{440, 880, 440, nan, 220, 220, 221}
	out := MedianFilterValid(in, 3)

	assert.Equal(t, 660.0, out[0]) // window {440, 880}
	assert.Equal(t, 440.0, out[1])
	assert.Equal(t, 660.0, out[2]) // window {880, 440}
	assert.True(t, math.IsNaN(out[3]))
	assert.Equal(t, 220.0, out[4])
	assert.Equal(t, 220.0, out[5])
	assert.Equal(t, 220.5, out[6])
}

func TestMedianFilterValidWidthOneCopies(t *testing.T) {
	in := []float64{1, 2, 3}
	out := MedianFilterValid(in, 1)
	assert.Equal(t, in, out)
	out[0] = 9
	assert.Equal(t, 1.0, in[0])
}

func TestFloorDivMod(t *testing.T) {
	assert.Equal(t, 5, FloorDiv(69, 12))
	assert.Equal(t, -1, FloorDiv(-1, 12))
	assert.Equal(t, 11, FloorMod(-1, 12))
	assert.Equal(t, 9, FloorMod(69, 12))
	assert.Equal(t, -2, FloorDiv(-13, 12))
}

func TestParabolicOffset(t *testing.T) {
	// symmetric valley stays put
	assert.Equal(t, 2.0, ParabolicOffset([]float64{4, 1, 0, 1, 4}, 2))
	// edges are returned unchanged
	assert.Equal(t, 0.0, ParabolicOffset([]float64{0, 1}, 0))
	// y = (x-2.25)^2 sampled at 1,2,3
	off := ParabolicOffset([]float64{9, 1.5625, 0.0625, 0.5625}, 2)
	assert.InDelta(t, 2.25, off, 1e-9)
}

func TestMeanAndRMS(t *testing.T) {
	assert.Equal(t, 0.0, Mean(nil))
	assert.InDelta(t, 2.0, Mean([]float64{1, 2, 3}), 1e-12)
	assert.InDelta(t, 1.0, RMS([]float64{1, -1, 1, -1}), 1e-12)
}

func TestSignalHelpers(t *testing.T) {
	assert.Equal(t, []float64{0.5, 2}, Downmix([]float64{0, 1, 2, 2}, 2))
	assert.Equal(t, 2.0, Peak([]float64{1, -2}))
	assert.Zero(t, Peak(nil))
	assert.Equal(t, []float64{0.5, -1}, ScaleToPeak([]float64{1, -2}, 2))
	assert.Equal(t, []float64{0.25, -0.5}, ScaleToPeak([]float64{1, -2}, 4))
	assert.Equal(t, []float64{0, 0}, ScaleToPeak([]float64{0, 0}, 0))

	up := Resample([]float64{0, 1, 2, 3}, 4, 8)
	assert.Len(t, up, 8)
	assert.InDelta(t, 0.5, up[1], 1e-12)

	assert.Len(t, Truncate(make([]float64, 100), 10, 2), 20)
	assert.Len(t, Truncate(make([]float64, 100), 10, 0), 100)
}
