package storage

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/kairos/internal/contracts"
)

// FeatureRepository implements contracts.FeatureRepository. The column
// set varies with the pipeline config, so each row is stored as one
// JSONB document instead of a fixed-width table.
type FeatureRepository struct {
	pool *pgxpool.Pool
}

// NewFeatureRepository creates a new feature repository
func NewFeatureRepository(pool *pgxpool.Pool) *FeatureRepository {
	return &FeatureRepository{pool: pool}
}

// SaveRows upserts one instrument's enriched rows
func (r *FeatureRepository) SaveRows(ctx context.Context, runID, symbol string, dates []time.Time, columns []string, rows [][]float64) error {
	if len(rows) != len(dates) {
		return fmt.Errorf("feature rows: %d rows for %d dates", len(rows), len(dates))
	}
	if len(dates) == 0 {
		return nil
	}

	query := `
		INSERT INTO analytics.feature_rows (symbol, trade_date, run_id, features)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (symbol, trade_date) DO UPDATE SET
			run_id = EXCLUDED.run_id,
			features = EXCLUDED.features`

	batch := &pgx.Batch{}
	for i, d := range dates {
		batch.Queue(query, symbol, d, runID, featureDoc(columns, rows[i]))
	}

	br := r.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range dates {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// RecentRows returns up to limit newest rows, oldest first
func (r *FeatureRepository) RecentRows(ctx context.Context, symbol string, limit int) ([]contracts.FeatureRow, error) {
	query := `
		SELECT symbol, trade_date, run_id, features
		FROM analytics.feature_rows
		WHERE symbol = $1
		ORDER BY trade_date DESC
		LIMIT $2`

	rows, err := r.pool.Query(ctx, query, symbol, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []contracts.FeatureRow
	for rows.Next() {
		var fr contracts.FeatureRow
		var doc map[string]interface{}
		if err := rows.Scan(&fr.Symbol, &fr.Date, &fr.RunID, &doc); err != nil {
			return nil, err
		}
		fr.Values = decodeFeatures(doc)
		out = append(out, fr)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// 최신 limit건을 읽었으니 뒤집어 날짜 오름차순으로
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

// LatestDate returns the newest stored date, or the zero time
func (r *FeatureRepository) LatestDate(ctx context.Context, symbol string) (time.Time, error) {
	var d time.Time
	err := r.pool.QueryRow(ctx,
		`SELECT trade_date FROM analytics.feature_rows WHERE symbol = $1 ORDER BY trade_date DESC LIMIT 1`,
		symbol,
	).Scan(&d)
	if errors.Is(err, pgx.ErrNoRows) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, err
	}
	return d, nil
}

// featureDoc renders one row as a JSON object. JSON cannot carry NaN,
// so absent values become null.
func featureDoc(columns []string, row []float64) map[string]interface{} {
	doc := make(map[string]interface{}, len(columns))
	for j, col := range columns {
		if j >= len(row) || math.IsNaN(row[j]) {
			doc[col] = nil
			continue
		}
		doc[col] = row[j]
	}
	return doc
}

// decodeFeatures restores null cells to NaN
func decodeFeatures(doc map[string]interface{}) map[string]float64 {
	values := make(map[string]float64, len(doc))
	for col, v := range doc {
		f, ok := v.(float64)
		if !ok {
			values[col] = math.NaN()
			continue
		}
		values[col] = f
	}
	return values
}
