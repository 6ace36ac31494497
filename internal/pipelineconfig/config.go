package pipelineconfig

import "time"

// Config는 피처/타깃 파이프라인의 전체 설정
type Config struct {
	Meta       Meta       `yaml:"meta" json:"meta"`
	Indicators Indicators `yaml:"indicators" json:"indicators"`
	Targets    Targets    `yaml:"targets" json:"targets"`
	Cleaning   Cleaning   `yaml:"cleaning" json:"cleaning"`
	Scaling    Scaling    `yaml:"scaling" json:"scaling"`
}

// Meta 메타 정보
type Meta struct {
	PipelineID string `yaml:"pipeline_id" json:"pipeline_id"`
	Version    string `yaml:"version" json:"version"`
}

// Indicators 기술적 지표 파라미터
type Indicators struct {
	MAWindows         []int      `yaml:"ma_windows" json:"ma_windows"`
	RSIPeriod         int        `yaml:"rsi_period" json:"rsi_period"`
	MACD              MACD       `yaml:"macd" json:"macd"`
	Bollinger         Bollinger  `yaml:"bollinger" json:"bollinger"`
	Stochastic        Stochastic `yaml:"stochastic" json:"stochastic"`
	MomentumWindows   []int      `yaml:"momentum_windows" json:"momentum_windows"`
	VolatilityWindows []int      `yaml:"volatility_windows" json:"volatility_windows"`

	// 0 = 엄격 (윈도우가 다 찰 때까지 null), n >= 1 = n개부터 부분 평균 허용
	MinPeriods int `yaml:"min_periods" json:"min_periods"`
}

type MACD struct {
	Fast   int `yaml:"fast" json:"fast"`
	Slow   int `yaml:"slow" json:"slow"`
	Signal int `yaml:"signal" json:"signal"`
}

type Bollinger struct {
	Period     int     `yaml:"period" json:"period"`
	Multiplier float64 `yaml:"multiplier" json:"multiplier"`
}

type Stochastic struct {
	KPeriod int `yaml:"k_period" json:"k_period"`
	DPeriod int `yaml:"d_period" json:"d_period"`
}

// Targets 예측 타깃 파라미터
type Targets struct {
	PredictionHorizons []int `yaml:"prediction_horizons" json:"prediction_horizons"`
}

// Cleaning 정제 정책
type Cleaning struct {
	MinimumRecords int `yaml:"minimum_records" json:"minimum_records"`

	// 비어 있으면 지표 컬럼 전체가 필수 (타깃 컬럼은 기본 제외)
	RequiredColumns []string `yaml:"required_columns" json:"required_columns"`
}

// Scaling 그룹별 정규화 정책 (min-max → [0,1])
type Scaling struct {
	FeaturesToScale []string `yaml:"features_to_scale" json:"features_to_scale"`
	Suffix          string   `yaml:"suffix" json:"suffix"`
	InPlace         bool     `yaml:"in_place" json:"in_place"`
}

// MaxWindow returns the largest lookback any indicator needs
func (i Indicators) MaxWindow() int {
	max := i.RSIPeriod
	candidates := [][]int{i.MAWindows, i.MomentumWindows, i.VolatilityWindows}
	for _, list := range candidates {
		for _, w := range list {
			if w > max {
				max = w
			}
		}
	}
	if i.MACD.Slow > max {
		max = i.MACD.Slow
	}
	if i.Bollinger.Period > max {
		max = i.Bollinger.Period
	}
	if i.Stochastic.KPeriod > max {
		max = i.Stochastic.KPeriod
	}
	return max
}

// MaxHorizon returns the largest prediction horizon
func (t Targets) MaxHorizon() int {
	max := 0
	for _, h := range t.PredictionHorizons {
		if h > max {
			max = h
		}
	}
	return max
}

// Snapshot 실행 재현성 스냅샷
type Snapshot struct {
	ConfigHash string    `json:"config_hash"`
	ConfigYAML string    `json:"config_yaml"`
	PipelineID string    `json:"pipeline_id"`
	CreatedAt  time.Time `json:"created_at"`
}
