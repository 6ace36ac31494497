package storage

import (
	"context"
	"time"

	"github.com/wonny/kairos/internal/contracts"
	"github.com/wonny/kairos/internal/dataset"
)

// Persister adapts the feature repository to the pipeline's persist
// stage. Combine with the CSV writer via pipeline.MultiPersister to get
// both artifacts and database rows from one run.
type Persister struct {
	features contracts.FeatureRepository
}

// NewPersister creates a feature-store persister
func NewPersister(features contracts.FeatureRepository) *Persister {
	return &Persister{features: features}
}

// Persist stores every row of the enriched table
func (p *Persister) Persist(ctx context.Context, runID, symbol string, t *dataset.Table) error {
	columns := t.Columns()
	series := make([][]float64, len(columns))
	for j, col := range columns {
		series[j] = t.Column(col)
	}

	dates := make([]time.Time, t.Len())
	rows := make([][]float64, t.Len())
	for i := 0; i < t.Len(); i++ {
		dates[i] = t.DateAt(i)
		row := make([]float64, len(columns))
		for j := range series {
			row[j] = series[j][i]
		}
		rows[i] = row
	}
	return p.features.SaveRows(ctx, runID, symbol, dates, columns, rows)
}
