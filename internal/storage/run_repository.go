package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/kairos/internal/contracts"
)

// RunRepository implements contracts.RunRepository
type RunRepository struct {
	pool *pgxpool.Pool
}

// NewRunRepository creates a new run repository
func NewRunRepository(pool *pgxpool.Pool) *RunRepository {
	return &RunRepository{pool: pool}
}

// SaveRun stores a run record and its instrument statuses atomically
func (r *RunRepository) SaveRun(ctx context.Context, rec *contracts.RunRecord) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO analytics.runs (id, config_hash, started_at, finished_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			config_hash = EXCLUDED.config_hash,
			started_at = EXCLUDED.started_at,
			finished_at = EXCLUDED.finished_at`,
		rec.ID, rec.ConfigHash, rec.StartedAt, rec.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}

	_, err = tx.Exec(ctx, `DELETE FROM analytics.run_instruments WHERE run_id = $1`, rec.ID)
	if err != nil {
		return fmt.Errorf("failed to clear run instruments: %w", err)
	}

	query := `
		INSERT INTO analytics.run_instruments
			(run_id, position, symbol, stage, succeeded, row_count, reason, duration_ms)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	for i, inst := range rec.Instruments {
		_, err := tx.Exec(ctx, query,
			rec.ID, i, inst.Symbol, string(inst.Stage), inst.Succeeded,
			inst.Rows, inst.Reason, inst.Duration.Milliseconds(),
		)
		if err != nil {
			return fmt.Errorf("failed to save instrument status: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetRun loads one run with its instrument statuses
func (r *RunRepository) GetRun(ctx context.Context, id string) (*contracts.RunRecord, error) {
	rec := &contracts.RunRecord{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, config_hash, started_at, finished_at FROM analytics.runs WHERE id = $1`, id,
	).Scan(&rec.ID, &rec.ConfigHash, &rec.StartedAt, &rec.FinishedAt)
	if err != nil {
		return nil, err
	}

	rec.Instruments, err = r.loadInstruments(ctx, id)
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// RecentRuns loads the newest runs, newest first
func (r *RunRepository) RecentRuns(ctx context.Context, limit int) ([]*contracts.RunRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, config_hash, started_at, finished_at
		FROM analytics.runs
		ORDER BY started_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []*contracts.RunRecord
	for rows.Next() {
		rec := &contracts.RunRecord{}
		if err := rows.Scan(&rec.ID, &rec.ConfigHash, &rec.StartedAt, &rec.FinishedAt); err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, rec := range recs {
		if rec.Instruments, err = r.loadInstruments(ctx, rec.ID); err != nil {
			return nil, err
		}
	}
	return recs, nil
}

// PruneBefore deletes run records started before the cutoff. Instrument
// statuses go with them via ON DELETE CASCADE.
func (r *RunRepository) PruneBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM analytics.runs WHERE started_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *RunRepository) loadInstruments(ctx context.Context, runID string) ([]contracts.InstrumentStatus, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT symbol, stage, succeeded, row_count, reason, duration_ms
		FROM analytics.run_instruments
		WHERE run_id = $1
		ORDER BY position ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []contracts.InstrumentStatus
	for rows.Next() {
		var st contracts.InstrumentStatus
		var stage string
		var durationMs int64
		if err := rows.Scan(&st.Symbol, &stage, &st.Succeeded, &st.Rows, &st.Reason, &durationMs); err != nil {
			return nil, err
		}
		st.Stage = contracts.Stage(stage)
		st.Duration = time.Duration(durationMs) * time.Millisecond
		out = append(out, st)
	}
	return out, rows.Err()
}
