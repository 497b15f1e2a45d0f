package transcription

// durationTolerance absorbs float rounding in End-Start so a note lasting
// exactly the minimum is kept wherever it starts.
const durationTolerance = 1e-9

// FilterByDuration keeps notes lasting at least minDuration seconds.
// Notes with End <= Start are always dropped. The input is not modified.
func FilterByDuration(notes []NoteEvent, minDuration float64) []NoteEvent {
	kept := make([]NoteEvent, 0, len(notes))
	for _, n := range notes {
		d := n.End - n.Start
		if d <= 0 || d < minDuration-durationTolerance {
			continue
		}
		kept = append(kept, n)
	}
	return kept
}
