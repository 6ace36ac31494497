package indicators

import (
	"fmt"

	"github.com/wonny/kairos/internal/contracts"
	"github.com/wonny/kairos/internal/dataset"
	"github.com/wonny/kairos/internal/pipelineconfig"
)

// ⭐ SSOT: 파생 컬럼 이름과 추가 순서는 이 파일에서만 정의됨
const (
	ColDailyReturn     = "daily_return"
	ColLogReturn       = "log_return"
	ColMACD            = "macd"
	ColMACDSignal      = "macd_signal"
	ColMACDHistogram   = "macd_histogram"
	ColBollingerMiddle = "bollinger_middle"
	ColBollingerUpper  = "bollinger_upper"
	ColBollingerLower  = "bollinger_lower"
	ColRSI             = "rsi"
	ColStochK          = "stoch_k"
	ColStochD          = "stoch_d"
)

// SMAName returns the close SMA column name for a window
func SMAName(period int) string { return fmt.Sprintf("sma_%d", period) }

// VolumeSMAName returns the volume SMA column name for a window
func VolumeSMAName(period int) string { return fmt.Sprintf("volume_sma_%d", period) }

// EMAName returns the close EMA column name for a span
func EMAName(span int) string { return fmt.Sprintf("ema_%d", span) }

// MomentumName returns the momentum column name for a lag
func MomentumName(period int) string { return fmt.Sprintf("momentum_%d", period) }

// VolatilityName returns the volatility column name for a window
func VolatilityName(period int) string { return fmt.Sprintf("volatility_%d", period) }

// ColumnNames returns every column Enrich produces, in append order
func ColumnNames(cfg pipelineconfig.Indicators) []string {
	names := []string{ColDailyReturn, ColLogReturn}
	for _, p := range cfg.MAWindows {
		names = append(names, SMAName(p), VolumeSMAName(p))
	}
	names = append(names,
		EMAName(cfg.MACD.Fast), EMAName(cfg.MACD.Slow),
		ColMACD, ColMACDSignal, ColMACDHistogram,
		ColBollingerMiddle, ColBollingerUpper, ColBollingerLower,
		ColRSI, ColStochK, ColStochD,
	)
	for _, p := range cfg.MomentumWindows {
		names = append(names, MomentumName(p))
	}
	for _, p := range cfg.VolatilityWindows {
		names = append(names, VolatilityName(p))
	}
	return names
}

// Enrich appends every configured indicator column to a single-instrument
// table, in the order ColumnNames reports. The table must already be
// sorted by date; 멀티 심볼 테이블은 GroupBySymbol로 먼저 나눠야 함.
func Enrich(t *dataset.Table, cfg pipelineconfig.Indicators) error {
	if syms := t.UniqueSymbols(); len(syms) > 1 {
		return fmt.Errorf("enrich expects a single instrument, got %d symbols", len(syms))
	}
	for _, col := range []string{dataset.ColHigh, dataset.ColLow, dataset.ColClose, dataset.ColVolume} {
		if !t.HasColumn(col) {
			return contracts.NewSchemaError(col)
		}
	}

	closes := t.Column(dataset.ColClose)
	highs := t.Column(dataset.ColHigh)
	lows := t.Column(dataset.ColLow)
	volumes := t.Column(dataset.ColVolume)

	var err error
	set := func(name string, vals []float64) {
		if err == nil {
			err = t.SetColumn(name, vals)
		}
	}

	set(ColDailyReturn, DailyReturns(closes))
	set(ColLogReturn, LogReturns(closes))

	// min_periods는 SMA 계열에만 적용됨. 나머지 지표는 항상 엄격.
	for _, p := range cfg.MAWindows {
		set(SMAName(p), SMA(closes, p, cfg.MinPeriods))
		set(VolumeSMAName(p), SMA(volumes, p, cfg.MinPeriods))
	}

	set(EMAName(cfg.MACD.Fast), EMA(closes, cfg.MACD.Fast))
	set(EMAName(cfg.MACD.Slow), EMA(closes, cfg.MACD.Slow))

	macd, signal, histogram := MACD(closes, cfg.MACD.Fast, cfg.MACD.Slow, cfg.MACD.Signal)
	set(ColMACD, macd)
	set(ColMACDSignal, signal)
	set(ColMACDHistogram, histogram)

	middle, upper, lower := Bollinger(closes, cfg.Bollinger.Period, cfg.Bollinger.Multiplier)
	set(ColBollingerMiddle, middle)
	set(ColBollingerUpper, upper)
	set(ColBollingerLower, lower)

	set(ColRSI, RSI(closes, cfg.RSIPeriod))

	k, d := Stochastic(highs, lows, closes, cfg.Stochastic.KPeriod, cfg.Stochastic.DPeriod)
	set(ColStochK, k)
	set(ColStochD, d)

	for _, p := range cfg.MomentumWindows {
		set(MomentumName(p), Momentum(closes, p))
	}
	for _, p := range cfg.VolatilityWindows {
		set(VolatilityName(p), Volatility(closes, p))
	}
	return err
}
