package common

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Basic statistical helpers shared by the pitch and tempo algorithms

// Mean calculates the arithmetic mean of a slice using gonum
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0.0
	}
	return stat.Mean(data, nil)
}

// RMS calculates root mean square
func RMS(data []float64) float64 {
	if len(data) == 0 {
		return 0.0
	}
	return math.Sqrt(floats.Dot(data, data) / float64(len(data)))
}

// Median returns the median of data, averaging the two middle values for
// even lengths. The input is not modified. Returns NaN for empty input.
func Median(data []float64) float64 {
	if len(data) == 0 {
		return math.NaN()
	}

	sorted := make([]float64, len(data))
	copy(sorted, data)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2.0
	}
	return sorted[mid]
}

// IsValidFrequency reports whether hz is a usable pitch: finite and positive.
func IsValidFrequency(hz float64) bool {
	return !math.IsNaN(hz) && !math.IsInf(hz, 0) && hz > 0
}

// ValidFrequencies returns the finite positive values of data in order.
func ValidFrequencies(data []float64) []float64 {
	valid := make([]float64, 0, len(data))
	for _, v := range data {
		if IsValidFrequency(v) {
			valid = append(valid, v)
		}
	}
	return valid
}

// MedianFilterValid median-filters a pitch contour with a centered window,
// considering only valid frequencies inside each window. Positions holding
// an invalid value stay invalid (NaN) so unvoiced frames are never filled in.
func MedianFilterValid(data []float64, windowSize int) []float64 {
	result := make([]float64, len(data))
	if windowSize <= 1 {
		copy(result, data)
		return result
	}

	halfWindow := windowSize / 2
	for i, v := range data {
		if !IsValidFrequency(v) {
			result[i] = math.NaN()
			continue
		}

		start := max(0, i-halfWindow)
		end := min(len(data), i+halfWindow+1)
		result[i] = Median(ValidFrequencies(data[start:end]))
	}

	return result
}

// FloorDiv divides rounding toward negative infinity.
func FloorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// FloorMod returns the non-negative remainder matching FloorDiv.
func FloorMod(a, b int) int {
	return a - FloorDiv(a, b)*b
}

// ParabolicOffset refines a peak or valley at idx by fitting a parabola
// through its neighbours. Returns the fractional index.
func ParabolicOffset(data []float64, idx int) float64 {
	if idx <= 0 || idx >= len(data)-1 {
		return float64(idx)
	}

	y1 := data[idx-1]
	y2 := data[idx]
	y3 := data[idx+1]

	denom := y1 - 2*y2 + y3
	if math.Abs(denom) < 1e-12 {
		return float64(idx)
	}

	return float64(idx) + 0.5*(y1-y3)/denom
}
