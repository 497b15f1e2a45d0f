package midifile

import (
	"bytes"
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/RyanBlaney/sonido-nota/transcription"
)

type noteOn struct {
	key     uint8
	tick    int64
	micros  int64
	offTick int64
}

func readNotes(t *testing.T, data []byte) (*smf.SMF, []noteOn, float64) {
	t.Helper()

	s, err := smf.ReadFrom(bytes.NewReader(data))
	require.NoError(t, err)
	require.Len(t, s.Tracks, 1)

	var notes []noteOn
	var tempo float64
	var abs int64
	for _, ev := range s.Tracks[0] {
		abs += int64(ev.Delta)

		var ch, key, vel uint8
		var bpm float64
		switch {
		case ev.Message.GetMetaTempo(&bpm):
			tempo = bpm
		case ev.Message.GetNoteOn(&ch, &key, &vel):
			notes = append(notes, noteOn{key: key, tick: abs, micros: s.TimeAt(abs)})
		case ev.Message.GetNoteOff(&ch, &key, &vel):
			require.NotEmpty(t, notes)
			notes[len(notes)-1].offTick = abs
		}
	}
	return s, notes, tempo
}

func TestWrite(t *testing.T) {
	tempo := 120.0
	result := &transcription.TranscriptionResult{
		Tempo: &tempo,
		Notes: []transcription.NoteEvent{
			{Pitch: "A4", Start: 0.5, End: 1.0, Frequency: 440},
			{Pitch: "Rest", Start: 1.0, End: 1.2, Frequency: math.NaN()},
			{Pitch: "C5", Start: 1.25, End: 1.5, Frequency: 523.25},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, result, DefaultOptions()))

	s, notes, bpm := readNotes(t, buf.Bytes())
	assert.Equal(t, smf.MetricTicks(TicksPerQuarter), s.TimeFormat)
	assert.InDelta(t, 120.0, bpm, 1e-6)

	require.Len(t, notes, 2)
	assert.Equal(t, uint8(69), notes[0].key)
	assert.Equal(t, int64(480), notes[0].tick)
	assert.Equal(t, int64(960), notes[0].offTick)
	assert.Equal(t, int64(500000), notes[0].micros)

	assert.Equal(t, uint8(72), notes[1].key)
	assert.Equal(t, int64(1200), notes[1].tick)
	assert.Equal(t, int64(1440), notes[1].offTick)
}

func TestWriteDefaultTempo(t *testing.T) {
	result := &transcription.TranscriptionResult{
		Notes: []transcription.NoteEvent{{Pitch: "A4", Start: 0, End: 1, Frequency: 440}},
	}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, result, DefaultOptions()))

	_, notes, bpm := readNotes(t, buf.Bytes())
	assert.InDelta(t, DefaultTempo, bpm, 1e-6)
	require.Len(t, notes, 1)
	assert.Equal(t, int64(0), notes[0].tick)
	assert.Equal(t, int64(960), notes[0].offTick)
}

func TestBuildKeepsNotesMonophonic(t *testing.T) {
	result := &transcription.TranscriptionResult{
		Notes: []transcription.NoteEvent{
			{Start: 0, End: 0.6, Frequency: 440},
			{Start: 0.5, End: 0.5, Frequency: 494},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, result, DefaultOptions()))

	_, notes, _ := readNotes(t, buf.Bytes())
	require.Len(t, notes, 2)
	assert.GreaterOrEqual(t, notes[1].tick, notes[0].offTick)
	assert.Greater(t, notes[1].offTick, notes[1].tick)
}

func TestBuildErrors(t *testing.T) {
	_, err := Build(nil, DefaultOptions())
	assert.Error(t, err)

	opts := DefaultOptions()
	opts.Channel = 16
	_, err = Build(&transcription.TranscriptionResult{}, opts)
	assert.Error(t, err)

	opts = DefaultOptions()
	opts.Velocity = 0
	_, err = Build(&transcription.TranscriptionResult{}, opts)
	assert.Error(t, err)
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.mid")
	result := &transcription.TranscriptionResult{Notes: []transcription.NoteEvent{}}

	require.NoError(t, WriteFile(path, result, DefaultOptions()))
	assert.FileExists(t, path)

	assert.Error(t, WriteFile(filepath.Join(t.TempDir(), "missing", "out.mid"), result, DefaultOptions()))
}
