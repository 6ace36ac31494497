package contracts

import "time"

// Bar represents one daily OHLCV observation for an instrument
// ⭐ SSOT: 원시 시세 행의 표준 표현
type Bar struct {
	Symbol string    `json:"symbol"`
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// IsValid checks the invariants a bar must satisfy to be retained
func (b *Bar) IsValid() bool {
	return b.Close > 0 && b.Volume >= 0
}

// FeatureRow is one persisted enriched observation. Values may contain
// NaN for cells that were absent in the source table.
type FeatureRow struct {
	Symbol string             `json:"symbol"`
	Date   time.Time          `json:"date"`
	RunID  string             `json:"run_id"`
	Values map[string]float64 `json:"values"`
}
