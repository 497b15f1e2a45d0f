package transcription

import (
	"math"

	"github.com/RyanBlaney/sonido-nota/algorithms/common"
)

// ResolveSegment collapses the f0 samples of a segment into one note.
// The pitch is the median of the valid (finite, positive) samples, which
// resists octave jumps and stray unvoiced frames. ok is false when the
// segment holds no valid sample. The returned note has no label yet.
func ResolveSegment(track *FramePitchTrack, frequencies []float64, seg Segment) (note NoteEvent, ok bool) {
	valid := common.ValidFrequencies(frequencies[seg.Start:seg.End])
	if len(valid) == 0 {
		return NoteEvent{}, false
	}

	return NoteEvent{
		Frequency: common.Median(valid),
		Start:     track.FrameTime(seg.Start),
		End:       math.Min(track.FrameTime(seg.End), track.AudioEnd()),
	}, true
}
