package pipeline

import (
	"math"

	"github.com/wonny/kairos/internal/contracts"
	"github.com/wonny/kairos/internal/dataset"
)

// CleanStats counts what one Clean pass changed
type CleanStats struct {
	InvalidRows  int // close <= 0 또는 volume < 0
	FilledCells  int // 그룹 내 ffill로 채운 셀
	RequiredRows int // 필수 컬럼 null로 버린 행
}

// Clean applies the row-validity filter, forward-fills derived columns
// within each instrument group, and drops rows still null in the
// required columns. The input table is not modified. Idempotent.
func (p *Policy) Clean(t *dataset.Table) (*dataset.Table, CleanStats, error) {
	var stats CleanStats

	for _, col := range []string{dataset.ColClose, dataset.ColVolume} {
		if !t.HasColumn(col) {
			return nil, stats, contracts.NewSchemaError(col)
		}
	}

	// 1) 유효 행 필터: close > 0 && volume >= 0 (null은 비교에 실패해 탈락)
	closes := t.Column(dataset.ColClose)
	volumes := t.Column(dataset.ColVolume)
	cleaned := t.Filter(func(i int) bool {
		return closes[i] > 0 && volumes[i] >= 0
	})
	stats.InvalidRows = t.Len() - cleaned.Len()

	// 2) 파생 컬럼만 그룹 내 ffill (원시 OHLCV는 절대 채우지 않음)
	for _, col := range p.derivedColumns(cleaned) {
		stats.FilledCells += fillForward(cleaned, col)
	}

	// 3) 필수 컬럼이 여전히 null인 행 드랍
	required := p.requiredColumns(cleaned)
	for _, col := range required {
		if !cleaned.HasColumn(col) {
			return nil, stats, &contracts.SchemaError{Column: col, Reason: "designated required but absent"}
		}
	}
	reqVals := make([][]float64, len(required))
	for i, col := range required {
		reqVals[i] = cleaned.Column(col)
	}
	final := cleaned.Filter(func(i int) bool {
		for _, vals := range reqVals {
			if math.IsNaN(vals[i]) {
				return false
			}
		}
		return true
	})
	stats.RequiredRows = cleaned.Len() - final.Len()

	if p.logger != nil && (stats.InvalidRows > 0 || stats.FilledCells > 0 || stats.RequiredRows > 0) {
		p.logger.WithFields(map[string]interface{}{
			"invalid_rows":  stats.InvalidRows,
			"filled_cells":  stats.FilledCells,
			"required_rows": stats.RequiredRows,
			"rows":          final.Len(),
		}).Debug("Cleaned table")
	}
	return final, stats, nil
}

// fillForward carries the last valid value of one column forward within
// each instrument group. 그룹 경계를 넘어 값이 새면 안 됨.
func fillForward(t *dataset.Table, col string) int {
	vals := t.Column(col)
	last := make(map[string]float64)
	filled := 0
	for i := 0; i < t.Len(); i++ {
		sym := t.SymbolAt(i)
		if math.IsNaN(vals[i]) {
			if lv, ok := last[sym]; ok {
				vals[i] = lv
				filled++
			}
			continue
		}
		last[sym] = vals[i]
	}
	return filled
}

// VerifyMinimum fails with InsufficientDataError when an instrument
// group has fewer rows than the configured minimum. Symbols to check
// default to those present; 전부 걸러진 그룹은 명시적으로 넘겨야 잡힘.
func (p *Policy) VerifyMinimum(t *dataset.Table, symbols ...string) error {
	if len(symbols) == 0 {
		symbols = t.UniqueSymbols()
	}
	counts := make(map[string]int, len(symbols))
	for i := 0; i < t.Len(); i++ {
		counts[t.SymbolAt(i)]++
	}

	min := p.cfg.Cleaning.MinimumRecords
	for _, sym := range symbols {
		if counts[sym] < min {
			return &contracts.InsufficientDataError{Symbol: sym, Rows: counts[sym], Minimum: min}
		}
	}
	return nil
}
