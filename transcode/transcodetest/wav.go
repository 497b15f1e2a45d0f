// Package transcodetest builds synthetic audio for tests.
package transcodetest

import (
	"bytes"
	"math"

	"github.com/unixpickle/wav"
)

// PCM16WAV encodes interleaved samples in [-1, 1] as a 16-bit PCM WAV file
func PCM16WAV(samples []float64, channels, sampleRate int) []byte {
	sound := wav.NewPCM16Sound(channels, sampleRate)

	pcm := make([]wav.Sample, len(samples))
	for i, s := range samples {
		pcm[i] = wav.Sample(math.Max(-1, math.Min(1, s)))
	}
	sound.SetSamples(pcm)

	var buf bytes.Buffer
	if err := sound.Write(&buf); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// Tone is a mono sine of the given frequency, length and amplitude
func Tone(hz, seconds float64, sampleRate int, amplitude float64) []float64 {
	out := make([]float64, int(seconds*float64(sampleRate)))
	for i := range out {
		out[i] = amplitude * math.Sin(2*math.Pi*hz*float64(i)/float64(sampleRate))
	}
	return out
}

// Silence is a mono run of zeros
func Silence(seconds float64, sampleRate int) []float64 {
	return make([]float64, int(seconds*float64(sampleRate)))
}

// Melody concatenates tones separated by short silences. Each note lasts
// noteSeconds and is followed by gapSeconds of silence.
func Melody(freqs []float64, noteSeconds, gapSeconds float64, sampleRate int) []float64 {
	var out []float64
	for _, hz := range freqs {
		out = append(out, Tone(hz, noteSeconds, sampleRate, 0.6)...)
		out = append(out, Silence(gapSeconds, sampleRate)...)
	}
	return out
}
