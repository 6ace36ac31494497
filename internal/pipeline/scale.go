package pipeline

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/wonny/kairos/internal/contracts"
	"github.com/wonny/kairos/internal/dataset"
	"github.com/wonny/kairos/internal/targets"
)

// Scale fits a min-max transform to [0,1] per instrument group and per
// configured feature column, using only that group's values, and writes
// the result to a parallel `{col}{suffix}` column (or in place). Fitted
// parameters are recorded in the policy's ScalerState.
// 타깃/식별자 컬럼은 설정에 있어도 절대 스케일하지 않음.
func (p *Policy) Scale(t *dataset.Table) error {
	cols := p.cfg.Scaling.FeaturesToScale
	for _, col := range cols {
		if !t.HasColumn(col) {
			return &contracts.SchemaError{Column: col, Reason: "designated for scaling but absent"}
		}
	}

	rowsBySym := make(map[string][]int)
	for i := 0; i < t.Len(); i++ {
		sym := t.SymbolAt(i)
		rowsBySym[sym] = append(rowsBySym[sym], i)
	}

	for _, col := range cols {
		if targets.IsTargetColumn(col) {
			continue
		}
		src := t.Column(col)
		out := make([]float64, len(src))

		for sym, rows := range rowsBySym {
			mm := fitMinMax(src, rows)
			p.scalers.put(sym, col, mm)

			span := mm.Max - mm.Min
			for _, r := range rows {
				v := src[r]
				switch {
				case math.IsNaN(v):
					out[r] = math.NaN()
				case span == 0:
					// 상수 컬럼은 0.0으로 수렴
					out[r] = 0
				default:
					out[r] = (v - mm.Min) / span
				}
			}
		}

		name := col + p.cfg.Scaling.Suffix
		if p.cfg.Scaling.InPlace {
			name = col
		}
		if err := t.SetColumn(name, out); err != nil {
			return err
		}
	}

	if p.logger != nil {
		p.logger.WithFields(map[string]interface{}{
			"columns":  len(cols),
			"groups":   len(rowsBySym),
			"in_place": p.cfg.Scaling.InPlace,
		}).Debug("Scaled feature columns")
	}
	return nil
}

// fitMinMax fits min/max over the valid values at the given rows.
// 유효값이 없으면 {NaN, NaN} (변환 결과도 전부 null)
func fitMinMax(src []float64, rows []int) MinMax {
	valid := make([]float64, 0, len(rows))
	for _, r := range rows {
		if !math.IsNaN(src[r]) {
			valid = append(valid, src[r])
		}
	}
	if len(valid) == 0 {
		return MinMax{Min: math.NaN(), Max: math.NaN()}
	}
	return MinMax{Min: floats.Min(valid), Max: floats.Max(valid)}
}
