package indicators

import "math"

// PctChange returns the fractional change over the given lag:
// out[i] = src[i]/src[i-lag] - 1. 기준값이 0이거나 null이면 null.
func PctChange(src []float64, lag int) []float64 {
	n := len(src)
	out := make([]float64, n)
	if lag < 1 {
		for i := range out {
			out[i] = math.NaN()
		}
		return out
	}
	for i := 0; i < n; i++ {
		if i < lag {
			out[i] = math.NaN()
			continue
		}
		base := src[i-lag]
		if math.IsNaN(base) || base == 0 || math.IsNaN(src[i]) {
			out[i] = math.NaN()
			continue
		}
		out[i] = src[i]/base - 1
	}
	return out
}

// Momentum is the rate of change of close over period bars.
func Momentum(close []float64, period int) []float64 {
	return PctChange(close, period)
}
