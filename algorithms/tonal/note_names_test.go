package tonal

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNoteNameFromHzReferencePoints(t *testing.T) {
	tests := []struct {
		hz   float64
		want string
	}{
		{440.0, "A4"},
		{261.63, "C4"},
		{466.16, "A#4"},
		{27.5, "A0"},
		{4186.01, "C8"},
		{16.35, "C0"},
		{8.18, "C-1"},
		{452.0, "A4"}, // +47 cents still rounds down
		{454.0, "A#4"},
		{0.0, RestLabel},
		{-220.0, RestLabel},
		{math.NaN(), RestLabel},
		{math.Inf(1), RestLabel},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, NoteNameFromHz(tt.hz), "hz=%v", tt.hz)
	}
}

func TestNoteNameFromMIDI(t *testing.T) {
	assert.Equal(t, "A4", NoteNameFromMIDI(69))
	assert.Equal(t, "C4", NoteNameFromMIDI(60))
	assert.Equal(t, "B3", NoteNameFromMIDI(59))
	assert.Equal(t, "C-1", NoteNameFromMIDI(0))
	assert.Equal(t, "B-2", NoteNameFromMIDI(-1))
	assert.Equal(t, "G9", NoteNameFromMIDI(127))
}

func TestHzMIDIConversions(t *testing.T) {
	assert.InDelta(t, 69.0, HzToMIDI(440), 1e-12)
	assert.InDelta(t, 81.0, HzToMIDI(880), 1e-12)
	assert.True(t, math.IsNaN(HzToMIDI(0)))
	assert.InDelta(t, 261.6256, MIDIToHz(60), 1e-4)

	midi, ok := NearestMIDI(261.63)
	assert.True(t, ok)
	assert.Equal(t, 60, midi)

	_, ok = NearestMIDI(math.NaN())
	assert.False(t, ok)
}
