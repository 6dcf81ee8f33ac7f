package simulation

import "math"

// CalculateCorrelation calculates the Pearson correlation between two equally long series.
func CalculateCorrelation(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	n := float64(len(a))
	sumA, sumB := 0.0, 0.0
	sumA2, sumB2 := 0.0, 0.0
	sumAB := 0.0

	for i := 0; i < len(a); i++ {
		valA := a[i]
		valB := b[i]
		sumA += valA
		sumB += valB
		sumA2 += valA * valA
		sumB2 += valB * valB
		sumAB += valA * valB
	}

	num := (n * sumAB) - (sumA * sumB)
	den := math.Sqrt((n*sumA2 - sumA*sumA) * (n*sumB2 - sumB*sumB))

	if den == 0 || math.IsNaN(den) {
		return 0
	}

	return num / den
}

// MostSensitive returns the variable with the largest absolute elasticity, or "" if none.
func MostSensitive(results []SensitivityResult) string {
	best := ""
	bestAbs := -1.0
	for _, r := range results {
		if a := math.Abs(r.Correlation); a > bestAbs {
			best, bestAbs = r.Variable, a
		}
	}
	return best
}
