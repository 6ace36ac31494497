package indicators

// Volatility is the rolling sample standard deviation of daily returns.
// 첫 유효값은 인덱스 period (수익률 자체가 인덱스 1부터 시작)
func Volatility(close []float64, period int) []float64 {
	return rollingStd(DailyReturns(close), period, period)
}
