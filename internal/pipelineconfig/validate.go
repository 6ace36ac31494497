package pipelineconfig

import (
	"fmt"
	"strings"
)

// ValidationError 검증 실패 (프로그램 중단)
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Warning 권장 위반 (경고만)
type Warning struct {
	Code    string
	Message string
}

// Validate checks all required constraints
// 실패 시 error 반환 (프로그램 중단)
func Validate(cfg *Config) error {
	// === Meta ===
	if cfg.Meta.PipelineID == "" {
		return ValidationError{"meta.pipeline_id", "required"}
	}

	// === Indicators ===
	if len(cfg.Indicators.MAWindows) == 0 {
		return ValidationError{"indicators.ma_windows", "required"}
	}
	if err := validateWindowList("indicators.ma_windows", cfg.Indicators.MAWindows, 1); err != nil {
		return err
	}
	if cfg.Indicators.RSIPeriod < 2 {
		return ValidationError{"indicators.rsi_period", "must be >= 2"}
	}

	m := cfg.Indicators.MACD
	if m.Fast < 1 {
		return ValidationError{"indicators.macd.fast", "must be >= 1"}
	}
	if m.Slow <= m.Fast {
		return ValidationError{"indicators.macd", "slow must be > fast"}
	}
	if m.Signal < 1 {
		return ValidationError{"indicators.macd.signal", "must be >= 1"}
	}

	// 표본 표준편차는 최소 2행 필요
	if cfg.Indicators.Bollinger.Period < 2 {
		return ValidationError{"indicators.bollinger.period", "must be >= 2"}
	}
	if cfg.Indicators.Bollinger.Multiplier <= 0 {
		return ValidationError{"indicators.bollinger.multiplier", "must be > 0"}
	}

	if cfg.Indicators.Stochastic.KPeriod < 1 {
		return ValidationError{"indicators.stochastic.k_period", "must be >= 1"}
	}
	if cfg.Indicators.Stochastic.DPeriod < 1 {
		return ValidationError{"indicators.stochastic.d_period", "must be >= 1"}
	}

	if err := validateWindowList("indicators.momentum_windows", cfg.Indicators.MomentumWindows, 1); err != nil {
		return err
	}
	if err := validateWindowList("indicators.volatility_windows", cfg.Indicators.VolatilityWindows, 2); err != nil {
		return err
	}

	if cfg.Indicators.MinPeriods < 0 {
		return ValidationError{"indicators.min_periods", "must be >= 0"}
	}
	if cfg.Indicators.MinPeriods > 0 {
		// pandas와 동일: min_periods > window는 에러
		for _, w := range cfg.Indicators.MAWindows {
			if cfg.Indicators.MinPeriods > w {
				return ValidationError{
					Field:   "indicators.min_periods",
					Message: fmt.Sprintf("must be <= smallest ma_window, got %d > %d", cfg.Indicators.MinPeriods, w),
				}
			}
		}
	}

	// === Targets ===
	if len(cfg.Targets.PredictionHorizons) == 0 {
		return ValidationError{"targets.prediction_horizons", "required"}
	}
	if err := validateWindowList("targets.prediction_horizons", cfg.Targets.PredictionHorizons, 1); err != nil {
		return err
	}

	// === Cleaning ===
	if cfg.Cleaning.MinimumRecords < 1 {
		return ValidationError{"cleaning.minimum_records", "must be >= 1"}
	}
	for i, col := range cfg.Cleaning.RequiredColumns {
		if strings.TrimSpace(col) == "" {
			return ValidationError{
				Field:   fmt.Sprintf("cleaning.required_columns[%d]", i),
				Message: "must not be blank",
			}
		}
	}

	// === Scaling ===
	for i, col := range cfg.Scaling.FeaturesToScale {
		field := fmt.Sprintf("scaling.features_to_scale[%d]", i)
		trimmed := strings.TrimSpace(col)
		if trimmed == "" {
			return ValidationError{field, "must not be blank"}
		}
		// 타깃/식별자 컬럼 스케일링 금지 (누수 방지)
		if trimmed == "symbol" || trimmed == "date" {
			return ValidationError{field, "identifier columns cannot be scaled"}
		}
		if strings.HasPrefix(trimmed, "target_") || strings.HasPrefix(trimmed, "future_close_") {
			return ValidationError{field, "target columns cannot be scaled"}
		}
	}
	if !cfg.Scaling.InPlace && cfg.Scaling.Suffix == "" {
		return ValidationError{"scaling.suffix", "required unless in_place is true"}
	}

	return nil
}

// Warn checks recommended constraints (non-fatal)
func Warn(cfg *Config) []Warning {
	var warnings []Warning

	// 최소 행 수가 최대 룩백+호라이즌보다 작으면 생존 행이 거의 없음
	needed := cfg.Indicators.MaxWindow() + cfg.Targets.MaxHorizon()
	if cfg.Cleaning.MinimumRecords < needed {
		warnings = append(warnings, Warning{
			Code:    "LOW_MINIMUM_RECORDS",
			Message: fmt.Sprintf("minimum_records=%d < 최대 룩백+호라이즌=%d: 워밍업 제거 후 생존 행 부족 우려", cfg.Cleaning.MinimumRecords, needed),
		})
	}

	// 부분 윈도우 평균은 초기 구간 통계 왜곡 가능
	if cfg.Indicators.MinPeriods > 0 {
		warnings = append(warnings, Warning{
			Code:    "PARTIAL_WINDOWS",
			Message: fmt.Sprintf("min_periods=%d: 초기 구간 이동평균이 부분 표본으로 계산됨", cfg.Indicators.MinPeriods),
		})
	}

	if len(cfg.Scaling.FeaturesToScale) == 0 {
		warnings = append(warnings, Warning{
			Code:    "NO_SCALING",
			Message: "features_to_scale 비어 있음: 스케일링 단계가 건너뛰어짐",
		})
	}

	return warnings
}

// === Helper Functions ===

// validateWindowList는 윈도우 목록의 하한과 중복을 검증
func validateWindowList(field string, windows []int, minVal int) error {
	seen := make(map[int]bool, len(windows))
	for i, w := range windows {
		if w < minVal {
			return ValidationError{
				Field:   fmt.Sprintf("%s[%d]", field, i),
				Message: fmt.Sprintf("must be >= %d, got %d", minVal, w),
			}
		}
		if seen[w] {
			return ValidationError{
				Field:   fmt.Sprintf("%s[%d]", field, i),
				Message: fmt.Sprintf("duplicate window %d", w),
			}
		}
		seen[w] = true
	}
	return nil
}
