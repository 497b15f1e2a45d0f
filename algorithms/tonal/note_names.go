package tonal

import (
	"math"
	"strconv"

	"github.com/RyanBlaney/sonido-nota/algorithms/common"
)

const (
	// RestLabel names silence or an unusable frequency
	RestLabel = "Rest"

	// ReferenceA4 is the tuning reference in Hz (MIDI 69)
	ReferenceA4   = 440.0
	referenceMIDI = 69
)

// chromatic pitch classes starting at C
var noteNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// HzToMIDI converts a frequency to a fractional MIDI note number.
// Invalid frequencies return NaN.
func HzToMIDI(hz float64) float64 {
	if !common.IsValidFrequency(hz) {
		return math.NaN()
	}
	return referenceMIDI + 12*math.Log2(hz/ReferenceA4)
}

// MIDIToHz converts a MIDI note number to its equal-tempered frequency
func MIDIToHz(midi float64) float64 {
	return ReferenceA4 * math.Pow(2, (midi-referenceMIDI)/12)
}

// NearestMIDI rounds a frequency to the closest semitone.
// ok is false when hz is not a valid frequency.
func NearestMIDI(hz float64) (midi int, ok bool) {
	if !common.IsValidFrequency(hz) {
		return 0, false
	}
	return int(math.Round(HzToMIDI(hz))), true
}

// NoteNameFromMIDI names a MIDI number, e.g. 69 -> "A4", 60 -> "C4".
func NoteNameFromMIDI(midi int) string {
	octave := common.FloorDiv(midi, 12) - 1
	return noteNames[common.FloorMod(midi, 12)] + strconv.Itoa(octave)
}

// NoteNameFromHz names the semitone nearest to hz. Cents are discarded.
// Non-finite or non-positive input yields RestLabel.
func NoteNameFromHz(hz float64) string {
	midi, ok := NearestMIDI(hz)
	if !ok {
		return RestLabel
	}
	return NoteNameFromMIDI(midi)
}
