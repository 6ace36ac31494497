package targets

import (
	"fmt"
	"strings"

	"github.com/wonny/kairos/internal/contracts"
	"github.com/wonny/kairos/internal/dataset"
	"github.com/wonny/kairos/internal/pipelineconfig"
)

// ⭐ SSOT: 타깃 컬럼 이름과 추가 순서는 이 파일에서만 정의됨

// FutureCloseName returns the shifted-close column name for a horizon
func FutureCloseName(horizon int) string { return fmt.Sprintf("future_close_%d", horizon) }

// ReturnName returns the future-return column name for a horizon
func ReturnName(horizon int) string { return fmt.Sprintf("target_return_%d", horizon) }

// DirectionName returns the up/down label column name for a horizon
func DirectionName(horizon int) string { return fmt.Sprintf("target_direction_%d", horizon) }

// VolatilityName returns the forward-volatility column name for a horizon
func VolatilityName(horizon int) string { return fmt.Sprintf("target_volatility_%d", horizon) }

// IsTargetColumn reports whether a column carries future information.
// 스케일링/결측 보간에서 제외해야 하는 컬럼 판별에 쓰임
func IsTargetColumn(name string) bool {
	return strings.HasPrefix(name, "target_") || strings.HasPrefix(name, "future_close_")
}

// ColumnNames returns every column Label produces, in append order
func ColumnNames(cfg pipelineconfig.Targets) []string {
	names := make([]string, 0, 4*len(cfg.PredictionHorizons))
	for _, h := range cfg.PredictionHorizons {
		names = append(names, FutureCloseName(h), ReturnName(h), DirectionName(h), VolatilityName(h))
	}
	return names
}

// Label appends every configured target column to a single-instrument
// table, horizon by horizon in the order ColumnNames reports.
func Label(t *dataset.Table, cfg pipelineconfig.Targets) error {
	if syms := t.UniqueSymbols(); len(syms) > 1 {
		return fmt.Errorf("label expects a single instrument, got %d symbols", len(syms))
	}
	if !t.HasColumn(dataset.ColClose) {
		return contracts.NewSchemaError(dataset.ColClose)
	}

	closes := t.Column(dataset.ColClose)
	var err error
	set := func(name string, vals []float64) {
		if err == nil {
			err = t.SetColumn(name, vals)
		}
	}

	for _, h := range cfg.PredictionHorizons {
		ret := FutureReturn(closes, h)
		set(FutureCloseName(h), FutureClose(closes, h))
		set(ReturnName(h), ret)
		set(DirectionName(h), Direction(ret))
		set(VolatilityName(h), ForwardVolatility(closes, h))
	}
	return err
}
