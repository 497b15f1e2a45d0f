package transcription

import "github.com/RyanBlaney/sonido-nota/algorithms/common"

// Segment is a half-open frame range [Start, End) of consecutive voiced frames
type Segment struct {
	Start int
	End   int
}

// Len returns the number of frames in the segment
func (s Segment) Len() int {
	return s.End - s.Start
}

// SegmentVoicing returns every maximal run of true values in track order.
// Runs separated by a single false frame stay separate, and a run still
// open at the last frame is flushed exactly once.
func SegmentVoicing(voiced []bool) []Segment {
	segments := make([]Segment, 0)

	open := false
	start := 0
	for i, v := range voiced {
		switch {
		case v && !open:
			open = true
			start = i
		case !v && open:
			open = false
			segments = append(segments, Segment{Start: start, End: i})
		}
	}

	if open {
		segments = append(segments, Segment{Start: start, End: len(voiced)})
	}

	return segments
}

// SegmentFrequencies segments a contour without voicing flags: a frame is
// voiced when its frequency is finite and positive
func SegmentFrequencies(frequencies []float64) []Segment {
	voiced := make([]bool, len(frequencies))
	for i, hz := range frequencies {
		voiced[i] = common.IsValidFrequency(hz)
	}
	return SegmentVoicing(voiced)
}
