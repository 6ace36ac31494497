package indicators

import "math"

// DailyReturns is the bar-over-bar fractional change of close.
func DailyReturns(close []float64) []float64 {
	return PctChange(close, 1)
}

// LogReturns is ln(close[i]/close[i-1]). 비율이 0 이하면 null.
func LogReturns(close []float64) []float64 {
	n := len(close)
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		if i == 0 {
			out[i] = math.NaN()
			continue
		}
		prev := close[i-1]
		if math.IsNaN(prev) || math.IsNaN(close[i]) || prev <= 0 || close[i] <= 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = math.Log(close[i] / prev)
	}
	return out
}
