package indicators

import "math"

// Stochastic returns the %K and %D oscillator lines.
// %K = 100 * (close - lowestLow) / (highestHigh - lowestLow) over kPeriod,
// %D = SMA(%K, dPeriod). 윈도우 고저 범위가 0이면 %K는 null.
func Stochastic(high, low, close []float64, kPeriod, dPeriod int) (k, d []float64) {
	lowest := rollingMin(low, kPeriod, kPeriod)
	highest := rollingMax(high, kPeriod, kPeriod)

	n := len(close)
	k = make([]float64, n)
	for i := 0; i < n; i++ {
		span := highest[i] - lowest[i]
		if math.IsNaN(span) || span == 0 || math.IsNaN(close[i]) {
			k[i] = math.NaN()
			continue
		}
		k[i] = 100 * (close[i] - lowest[i]) / span
	}

	d = rollingMean(k, dPeriod, dPeriod)
	return k, d
}
