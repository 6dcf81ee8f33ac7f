package simulation

// OutcomeHistogram bins an ascending sample into equal-width buckets between its
// min and max. A degenerate sample (min == max) yields a single bucket.
func OutcomeHistogram(sorted []float64, bins int) []Bucket {
	if len(sorted) == 0 || bins <= 0 {
		return []Bucket{}
	}
	lo, hi := sorted[0], sorted[len(sorted)-1]
	total := float64(len(sorted))

	if hi == lo {
		return []Bucket{{Lower: lo, Upper: hi, Count: len(sorted), Share: 1}}
	}

	width := (hi - lo) / float64(bins)
	buckets := make([]Bucket, bins)
	for i := range buckets {
		buckets[i].Lower = lo + float64(i)*width
		buckets[i].Upper = lo + float64(i+1)*width
	}
	// The last edge is pinned to the sample max to absorb rounding.
	buckets[bins-1].Upper = hi

	for _, v := range sorted {
		idx := int((v - lo) / width)
		if idx >= bins {
			idx = bins - 1
		}
		buckets[idx].Count++
	}
	for i := range buckets {
		buckets[i].Share = float64(buckets[i].Count) / total
	}
	return buckets
}
