// Package midifile renders transcription results as Standard MIDI Files.
package midifile

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/RyanBlaney/sonido-nota/algorithms/tonal"
	"github.com/RyanBlaney/sonido-nota/logging"
	"github.com/RyanBlaney/sonido-nota/transcription"
)

const (
	// TicksPerQuarter is the resolution of written files
	TicksPerQuarter = 480

	// DefaultTempo is written when the result carries no tempo
	DefaultTempo = 120.0
)

// Options controls how notes are written
type Options struct {
	Channel   uint8  `json:"channel"`  // 0-15
	Velocity  uint8  `json:"velocity"` // 1-127
	TrackName string `json:"track_name"`
}

// DefaultOptions returns options for a single melody track on channel 1
func DefaultOptions() Options {
	return Options{
		Channel:   0,
		Velocity:  100,
		TrackName: "sonido-nota",
	}
}

// Build lays the notes of result out on one track. Note times come from
// the note start and end in seconds, converted at the result's tempo.
// Rests and notes outside the MIDI range are skipped.
func Build(result *transcription.TranscriptionResult, opts Options) (*smf.SMF, error) {
	if result == nil {
		return nil, errors.New("transcription result cannot be nil")
	}
	if opts.Channel > 15 {
		return nil, fmt.Errorf("invalid MIDI channel %d", opts.Channel)
	}
	if opts.Velocity == 0 || opts.Velocity > 127 {
		return nil, fmt.Errorf("invalid MIDI velocity %d", opts.Velocity)
	}

	bpm := DefaultTempo
	if result.Tempo != nil && *result.Tempo > 0 && !math.IsInf(*result.Tempo, 0) {
		bpm = *result.Tempo
	}

	clock := smf.MetricTicks(TicksPerQuarter)
	toTicks := func(seconds float64) uint32 {
		return uint32(math.Round(seconds * bpm / 60 * float64(clock)))
	}

	var track smf.Track
	if opts.TrackName != "" {
		track.Add(0, smf.MetaTrackSequenceName(opts.TrackName))
	}
	track.Add(0, smf.MetaTempo(bpm))

	var cursor uint32
	skipped := 0
	for _, note := range result.Notes {
		key, ok := tonal.NearestMIDI(note.Frequency)
		if !ok || key < 0 || key > 127 {
			skipped++
			continue
		}

		start := max(toTicks(note.Start), cursor)
		end := max(toTicks(note.End), start+1)

		track.Add(start-cursor, midi.NoteOn(opts.Channel, uint8(key), opts.Velocity))
		track.Add(end-start, midi.NoteOff(opts.Channel, uint8(key)))
		cursor = end
	}
	track.Close(0)

	s := smf.New()
	s.TimeFormat = clock
	if err := s.Add(track); err != nil {
		return nil, fmt.Errorf("failed to add track: %w", err)
	}

	logging.Debug("MIDI file built", logging.Fields{
		"component": "midifile",
		"notes":     len(result.Notes) - skipped,
		"skipped":   skipped,
		"tempo":     bpm,
	})

	return s, nil
}

// Write encodes result as a Standard MIDI File
func Write(w io.Writer, result *transcription.TranscriptionResult, opts Options) error {
	s, err := Build(result, opts)
	if err != nil {
		return err
	}
	if _, err := s.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write MIDI: %w", err)
	}
	return nil
}

// WriteFile encodes result into the file at path
func WriteFile(path string, result *transcription.TranscriptionResult, opts Options) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create MIDI file: %w", err)
	}

	if err := Write(f, result, opts); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
