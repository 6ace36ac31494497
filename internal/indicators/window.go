package indicators

import "math"

// 롤링 커널 공통 규칙 (SSOT):
// - 윈도우는 행 i 기준 뒤쪽 [i-p+1, i], 그룹 경계를 넘지 않음
// - minPeriods <= 0 → 엄격: 윈도우가 다 차고 NaN이 없을 때만 값 방출
// - minPeriods >= 1 → 윈도우 내 유효값이 그 이상이면 부분 집계 방출
// NaN은 null 표현이며 산술로 전파됨

func effectiveMin(period, minPeriods int) int {
	if minPeriods <= 0 || minPeriods > period {
		return period
	}
	return minPeriods
}

func rollingMean(src []float64, period, minPeriods int) []float64 {
	out := make([]float64, len(src))
	need := effectiveMin(period, minPeriods)

	for i := range src {
		lo := i - period + 1
		if lo < 0 {
			lo = 0
		}
		sum, count := 0.0, 0
		for j := lo; j <= i; j++ {
			if math.IsNaN(src[j]) {
				continue
			}
			sum += src[j]
			count++
		}
		if count < need {
			out[i] = math.NaN()
			continue
		}
		out[i] = sum / float64(count)
	}
	return out
}

// rollingStd is the sample standard deviation (ddof=1)
func rollingStd(src []float64, period, minPeriods int) []float64 {
	out := make([]float64, len(src))
	need := effectiveMin(period, minPeriods)

	for i := range src {
		lo := i - period + 1
		if lo < 0 {
			lo = 0
		}
		sum, count := 0.0, 0
		for j := lo; j <= i; j++ {
			if math.IsNaN(src[j]) {
				continue
			}
			sum += src[j]
			count++
		}
		if count < need || count < 2 {
			out[i] = math.NaN()
			continue
		}

		mean := sum / float64(count)
		ss := 0.0
		for j := lo; j <= i; j++ {
			if math.IsNaN(src[j]) {
				continue
			}
			d := src[j] - mean
			ss += d * d
		}
		out[i] = math.Sqrt(ss / float64(count-1))
	}
	return out
}

func rollingMin(src []float64, period, minPeriods int) []float64 {
	out := make([]float64, len(src))
	need := effectiveMin(period, minPeriods)

	for i := range src {
		lo := i - period + 1
		if lo < 0 {
			lo = 0
		}
		low, count := math.Inf(1), 0
		for j := lo; j <= i; j++ {
			if math.IsNaN(src[j]) {
				continue
			}
			if src[j] < low {
				low = src[j]
			}
			count++
		}
		if count < need {
			out[i] = math.NaN()
			continue
		}
		out[i] = low
	}
	return out
}

func rollingMax(src []float64, period, minPeriods int) []float64 {
	out := make([]float64, len(src))
	need := effectiveMin(period, minPeriods)

	for i := range src {
		lo := i - period + 1
		if lo < 0 {
			lo = 0
		}
		high, count := math.Inf(-1), 0
		for j := lo; j <= i; j++ {
			if math.IsNaN(src[j]) {
				continue
			}
			if src[j] > high {
				high = src[j]
			}
			count++
		}
		if count < need {
			out[i] = math.NaN()
			continue
		}
		out[i] = high
	}
	return out
}
