package indicators

// MACD returns the MACD line, signal line, and histogram.
// macd = EMA(close, fast) - EMA(close, slow); signal = EMA(macd, signalSpan)
func MACD(close []float64, fast, slow, signalSpan int) (macd, signal, histogram []float64) {
	fastEMA := EMA(close, fast)
	slowEMA := EMA(close, slow)

	n := len(close)
	macd = make([]float64, n)
	for i := 0; i < n; i++ {
		macd[i] = fastEMA[i] - slowEMA[i] // NaN은 산술로 전파
	}

	signal = EMA(macd, signalSpan)

	histogram = make([]float64, n)
	for i := 0; i < n; i++ {
		histogram[i] = macd[i] - signal[i]
	}
	return macd, signal, histogram
}
