package transcription

import "encoding/json"

// NoteEvent is one transcribed note
type NoteEvent struct {
	Pitch     string        // note label such as "A4", or "Rest"
	Start     float64       // seconds
	End       float64       // seconds, always > Start
	Frequency float64       // median f0 in Hz
	Duration  DurationClass // set only when durations are quantized
}

// Seconds returns the wall-clock length of the note
func (n NoteEvent) Seconds() float64 {
	return n.End - n.Start
}

type timedNoteJSON struct {
	Pitch string  `json:"pitch"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

type quantizedNoteJSON struct {
	Pitch    string        `json:"pitch"`
	Duration DurationClass `json:"duration"`
}

// MarshalJSON emits {pitch, start, end}, or {pitch, duration} for
// quantized notes
func (n NoteEvent) MarshalJSON() ([]byte, error) {
	if n.Duration != "" {
		return json.Marshal(quantizedNoteJSON{Pitch: n.Pitch, Duration: n.Duration})
	}
	return json.Marshal(timedNoteJSON{Pitch: n.Pitch, Start: n.Start, End: n.End})
}

// TranscriptionResult is the output of one pipeline run
type TranscriptionResult struct {
	Tempo *float64    `json:"tempo"` // nil when unknown
	Notes []NoteEvent `json:"notes"`
}
