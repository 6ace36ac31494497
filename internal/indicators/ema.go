package indicators

import "math"

// EMA returns the exponential moving average with α = 2/(span+1),
// seeded at the first valid value, computed in one causal pass.
// null 입력 행은 null을 방출하되 내부 상태는 유지됨
func EMA(src []float64, span int) []float64 {
	out := make([]float64, len(src))
	if span < 1 {
		for i := range out {
			out[i] = math.NaN()
		}
		return out
	}

	alpha := 2.0 / (float64(span) + 1.0)
	seeded := false
	state := 0.0

	for i, v := range src {
		if math.IsNaN(v) {
			out[i] = math.NaN()
			continue
		}
		if !seeded {
			state = v
			seeded = true
		} else {
			state = alpha*v + (1-alpha)*state
		}
		out[i] = state
	}
	return out
}
