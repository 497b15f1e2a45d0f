package transcription

import (
	"fmt"
	"math"
)

// DurationClass is a standard rhythmic figure
type DurationClass string

const (
	Whole     DurationClass = "whole"
	Half      DurationClass = "half"
	Quarter   DurationClass = "quarter"
	Eighth    DurationClass = "eighth"
	Sixteenth DurationClass = "sixteenth"
)

// rhythmGrid lists each figure with its length in beats. Order matters:
// on a tie the earlier entry wins.
var rhythmGrid = []struct {
	class DurationClass
	beats float64
}{
	{Whole, 4},
	{Half, 2},
	{Quarter, 1},
	{Eighth, 0.5},
	{Sixteenth, 0.25},
}

// QuantizeDuration returns the figure whose length at bpm is closest to
// seconds. This is a nearest-neighbour choice over five lengths; there is
// no dotted, tuplet or swing handling.
func QuantizeDuration(seconds, bpm float64) (DurationClass, error) {
	if math.IsNaN(bpm) || math.IsInf(bpm, 0) || bpm <= 0 {
		return "", fmt.Errorf("%w: %g", ErrInvalidTempo, bpm)
	}

	beat := 60.0 / bpm

	best := rhythmGrid[0].class
	bestDiff := math.Inf(1)
	for _, figure := range rhythmGrid {
		diff := math.Abs(seconds - figure.beats*beat)
		if diff < bestDiff {
			bestDiff = diff
			best = figure.class
		}
	}

	return best, nil
}
