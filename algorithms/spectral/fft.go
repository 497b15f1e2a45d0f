package spectral

import (
	"github.com/mjibson/go-dsp/fft"
)

// FFT provides Fast Fourier Transform functionality
type FFT struct {
	// No state needed for now
}

// NewFFT creates a new FFT calculator
func NewFFT() *FFT {
	return &FFT{}
}

// Compute computes the Fast Fourier Transform of a real signal using mjibson/go-dsp
func (f *FFT) Compute(x []float64) []complex128 {
	if len(x) == 0 {
		return []complex128{}
	}

	// mjibson/go-dsp handles all sizes efficiently, including non-power-of-2
	return fft.FFTReal(x)
}

// ComputeInverseReal computes inverse FFT and returns real part only
func (f *FFT) ComputeInverseReal(x []complex128) []float64 {
	if len(x) == 0 {
		return []float64{}
	}

	result := fft.IFFT(x)
	realResult := make([]float64, len(result))

	for i, val := range result {
		realResult[i] = real(val)
	}

	return realResult
}

// CrossCorrelate returns r[tau] = sum_j a[j] * b[j+tau] for tau in [0, maxLag).
// Both inputs are zero padded so the circular product equals the linear one.
func (f *FFT) CrossCorrelate(a, b []float64, maxLag int) []float64 {
	if len(a) == 0 || len(b) == 0 || maxLag <= 0 {
		return []float64{}
	}

	size := nextPowerOfTwo(len(a) + len(b))
	pa := make([]float64, size)
	pb := make([]float64, size)
	copy(pa, a)
	copy(pb, b)

	sa := f.Compute(pa)
	sb := f.Compute(pb)

	// conj(A) * B correlates a against shifted b
	prod := make([]complex128, size)
	for i := range prod {
		re, im := real(sa[i]), -imag(sa[i])
		prod[i] = complex(re, im) * sb[i]
	}

	full := f.ComputeInverseReal(prod)
	if maxLag > len(full) {
		maxLag = len(full)
	}
	return full[:maxLag]
}

func nextPowerOfTwo(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}
