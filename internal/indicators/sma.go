package indicators

// SMA returns the trailing simple moving average over period rows,
// aligned to src. Values are null until the window fills; a positive
// minPeriods relaxes that to a partial mean once that many valid rows
// are in the window.
func SMA(src []float64, period, minPeriods int) []float64 {
	return rollingMean(src, period, minPeriods)
}
