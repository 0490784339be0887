package util

import "math"

// RoundPercent computes round(part/total*100) as an integer percentage.
// A zero total yields 0 rather than a division error.
func RoundPercent(part, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(total) * 100))
}

// ClampInt bounds v to the inclusive range [min, max].
func ClampInt(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
