package pipelineconfig

// Default returns the built-in pipeline configuration
// configs/pipeline.yaml이 없을 때 사용하는 기본값 (SSOT)
func Default() *Config {
	return &Config{
		Meta: Meta{
			PipelineID: "crypto-features-daily",
			Version:    "1.0",
		},
		Indicators: Indicators{
			MAWindows:         []int{7, 14, 30, 50, 200},
			RSIPeriod:         14,
			MACD:              MACD{Fast: 12, Slow: 26, Signal: 9},
			Bollinger:         Bollinger{Period: 20, Multiplier: 2.0},
			Stochastic:        Stochastic{KPeriod: 14, DPeriod: 3},
			MomentumWindows:   []int{7, 14, 30},
			VolatilityWindows: []int{7, 14, 30},
			MinPeriods:        0,
		},
		Targets: Targets{
			PredictionHorizons: []int{1, 3, 7, 14, 30},
		},
		Cleaning: Cleaning{
			MinimumRecords:  250,
			RequiredColumns: nil,
		},
		Scaling: Scaling{
			FeaturesToScale: []string{"open", "high", "low", "close", "volume"},
			Suffix:          "_scaled",
			InPlace:         false,
		},
	}
}
