package storage

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// 실행 순서 중요: 스키마 → 부모 → 자식
var schemaStatements = []string{
	`CREATE SCHEMA IF NOT EXISTS data`,
	`CREATE SCHEMA IF NOT EXISTS analytics`,
	`CREATE TABLE IF NOT EXISTS data.daily_bars (
		symbol     TEXT             NOT NULL,
		trade_date DATE             NOT NULL,
		open       DOUBLE PRECISION NOT NULL,
		high       DOUBLE PRECISION NOT NULL,
		low        DOUBLE PRECISION NOT NULL,
		close      DOUBLE PRECISION NOT NULL,
		volume     DOUBLE PRECISION NOT NULL,
		PRIMARY KEY (symbol, trade_date)
	)`,
	`CREATE TABLE IF NOT EXISTS analytics.feature_rows (
		symbol     TEXT  NOT NULL,
		trade_date DATE  NOT NULL,
		run_id     TEXT  NOT NULL,
		features   JSONB NOT NULL,
		PRIMARY KEY (symbol, trade_date)
	)`,
	`CREATE TABLE IF NOT EXISTS analytics.runs (
		id          TEXT        PRIMARY KEY,
		config_hash TEXT        NOT NULL,
		started_at  TIMESTAMPTZ NOT NULL,
		finished_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS analytics.run_instruments (
		run_id      TEXT    NOT NULL REFERENCES analytics.runs(id) ON DELETE CASCADE,
		position    INTEGER NOT NULL,
		symbol      TEXT    NOT NULL,
		stage       TEXT    NOT NULL,
		succeeded   BOOLEAN NOT NULL,
		row_count   INTEGER NOT NULL,
		reason      TEXT    NOT NULL DEFAULT '',
		duration_ms BIGINT  NOT NULL,
		PRIMARY KEY (run_id, symbol)
	)`,
}

// EnsureSchema creates the schemas and tables the repositories touch.
// Safe to call on every startup.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schemaStatements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
