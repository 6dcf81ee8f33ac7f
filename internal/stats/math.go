package stats

import (
	"math"
	"slices"
)

// SortedCopy returns an ascending copy of values, leaving the input untouched.
func SortedCopy(values []float64) []float64 {
	temp := make([]float64, len(values))
	copy(temp, values)
	slices.Sort(temp)
	return temp
}

// NearestRankIndex returns floor(n*p) clamped into [0, n-1].
func NearestRankIndex(n int, p float64) int {
	if n <= 0 {
		return 0
	}
	idx := int(math.Floor(float64(n) * p))
	if idx < 0 {
		idx = 0
	}
	if idx >= n {
		idx = n - 1
	}
	return idx
}

// Percentile picks sorted[floor(n*p)] from an ascending slice. No interpolation is applied.
func Percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	return sorted[NearestRankIndex(len(sorted), p)]
}

// Mean returns the arithmetic mean, or 0 for an empty slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// StdDev returns the population standard deviation around mean.
func StdDev(values []float64, mean float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sq := 0.0
	for _, v := range values {
		d := v - mean
		sq += d * d
	}
	return math.Sqrt(sq / float64(len(values)))
}

// TailMean averages sorted[0..idx] inclusive.
func TailMean(sorted []float64, idx int) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	if idx < 0 {
		idx = 0
	}
	return Mean(sorted[:idx+1])
}

// CountBelow counts values strictly below threshold.
func CountBelow(values []float64, threshold float64) int {
	n := 0
	for _, v := range values {
		if v < threshold {
			n++
		}
	}
	return n
}
