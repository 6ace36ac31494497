package indicators

import "math"

// RSI returns the Relative Strength Index over the trailing period.
// Gains and losses are averaged with a simple rolling mean, not Wilder
// smoothing. The first delta is undefined, so the first value appears
// at index period (one later than the SMA warmup).
// avg_loss = 0이면: avg_gain > 0 → 100, 아니면 null
func RSI(close []float64, period int) []float64 {
	n := len(close)
	gains := make([]float64, n)
	losses := make([]float64, n)

	if n > 0 {
		gains[0] = math.NaN()
		losses[0] = math.NaN()
	}
	for i := 1; i < n; i++ {
		delta := close[i] - close[i-1]
		if math.IsNaN(delta) {
			gains[i] = math.NaN()
			losses[i] = math.NaN()
			continue
		}
		if delta > 0 {
			gains[i] = delta
			losses[i] = 0
		} else {
			gains[i] = 0
			losses[i] = -delta
		}
	}

	avgGain := rollingMean(gains, period, 0)
	avgLoss := rollingMean(losses, period, 0)

	out := make([]float64, n)
	for i := 0; i < n; i++ {
		ag, al := avgGain[i], avgLoss[i]
		if math.IsNaN(ag) || math.IsNaN(al) {
			out[i] = math.NaN()
			continue
		}
		if al == 0 {
			if ag > 0 {
				out[i] = 100
			} else {
				out[i] = math.NaN()
			}
			continue
		}
		rs := ag / al
		out[i] = 100 - 100/(1+rs)
	}
	return out
}
