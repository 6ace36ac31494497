package contracts

import (
	"context"
	"time"
)

// ⭐ SSOT: Repository 인터페이스 정의는 여기서만

// BarRepository persists raw daily bars
type BarRepository interface {
	SaveBatch(ctx context.Context, bars []Bar) error
	GetBySymbol(ctx context.Context, symbol string, from, to time.Time) ([]Bar, error)
	Symbols(ctx context.Context) ([]string, error)
}

// FeatureRepository persists enriched feature rows. Rows are keyed on
// (symbol, date); a later run overwrites earlier values.
type FeatureRepository interface {
	// SaveRows upserts one instrument's rows: rows[i][j] is the value of
	// columns[j] at dates[i].
	SaveRows(ctx context.Context, runID string, symbol string, dates []time.Time, columns []string, rows [][]float64) error
	// RecentRows returns up to limit newest rows in ascending date order
	RecentRows(ctx context.Context, symbol string, limit int) ([]FeatureRow, error)
	// LatestDate returns the zero time when no rows exist for the symbol
	LatestDate(ctx context.Context, symbol string) (time.Time, error)
}

// RunRepository persists batch run records
type RunRepository interface {
	SaveRun(ctx context.Context, record *RunRecord) error
	GetRun(ctx context.Context, id string) (*RunRecord, error)
	RecentRuns(ctx context.Context, limit int) ([]*RunRecord, error)
}

// ProgressSink receives stage-transition events from the orchestrator.
// Implementations must be safe for concurrent use.
type ProgressSink interface {
	Publish(event ProgressEvent)
}
