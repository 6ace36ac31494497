package targets

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// 타깃 커널 공통 규칙 (SSOT):
// - 피처와 반대로 앞쪽 행 [t+1, t+horizon]만 봄
// - 미래 행이 배열 밖이면 null (마지막 horizon개 행)
// NaN은 null 표현이며 산술로 전파됨

// FutureClose shifts close back by horizon rows: out[t] = close[t+horizon].
func FutureClose(close []float64, horizon int) []float64 {
	n := len(close)
	out := make([]float64, n)
	for t := 0; t < n; t++ {
		if horizon < 1 || t+horizon >= n {
			out[t] = math.NaN()
			continue
		}
		out[t] = close[t+horizon]
	}
	return out
}

// FutureReturn is the fractional change from close[t] to close[t+horizon].
// 기준가가 0이거나 null이면 null
func FutureReturn(close []float64, horizon int) []float64 {
	future := FutureClose(close, horizon)
	out := make([]float64, len(close))
	for t := range close {
		base := close[t]
		if math.IsNaN(base) || base == 0 || math.IsNaN(future[t]) {
			out[t] = math.NaN()
			continue
		}
		out[t] = future[t]/base - 1
	}
	return out
}

// Direction maps a future return to 1 (up) or 0 (flat or down).
// 수익률이 null이면 방향도 null (0으로 뭉개지 않음)
func Direction(returns []float64) []float64 {
	out := make([]float64, len(returns))
	for i, r := range returns {
		switch {
		case math.IsNaN(r):
			out[i] = math.NaN()
		case r > 0:
			out[i] = 1
		default:
			out[i] = 0
		}
	}
	return out
}

// ForwardVolatility is the sample standard deviation (ddof=1) of close
// over the forward rows [t+1, t+horizon]. The window must be complete
// and fully valid; horizon < 2면 표본 표준편차가 정의되지 않아 전부 null.
func ForwardVolatility(close []float64, horizon int) []float64 {
	n := len(close)
	out := make([]float64, n)
	for t := range out {
		out[t] = math.NaN()
	}
	if horizon < 2 {
		return out
	}

	window := make([]float64, 0, horizon)
	for t := 0; t+horizon < n; t++ {
		window = window[:0]
		for j := t + 1; j <= t+horizon; j++ {
			if math.IsNaN(close[j]) {
				break
			}
			window = append(window, close[j])
		}
		if len(window) < horizon {
			continue
		}
		out[t] = stat.StdDev(window, nil)
	}
	return out
}
