package indicators

// Bollinger returns the middle, upper, and lower bands.
// middle = SMA(close, period), band width = mult * rolling sample std.
func Bollinger(close []float64, period int, mult float64) (middle, upper, lower []float64) {
	middle = rollingMean(close, period, period)
	std := rollingStd(close, period, period)

	n := len(close)
	upper = make([]float64, n)
	lower = make([]float64, n)
	for i := 0; i < n; i++ {
		upper[i] = middle[i] + mult*std[i]
		lower[i] = middle[i] - mult*std[i]
	}
	return middle, upper, lower
}
