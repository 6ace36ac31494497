package jobs

import (
	"context"
	"fmt"

	"github.com/wonny/kairos/internal/contracts"
	"github.com/wonny/kairos/internal/dataset"
	"github.com/wonny/kairos/internal/pipeline"
	"github.com/wonny/kairos/pkg/logger"
)

// DatasetRefreshJob reloads the raw dataset and runs the full pipeline
// ⭐ SSOT: 데이터셋 갱신 스케줄은 이 Job에서만
type DatasetRefreshJob struct {
	fetcher *dataset.Fetcher
	runner  *pipeline.Runner
	bars    contracts.BarRepository // nil when storage is disabled
	runs    contracts.RunRepository // nil when storage is disabled
	source  string
	workers int
	logger  *logger.Logger
}

// NewDatasetRefreshJob creates a new dataset refresh job
func NewDatasetRefreshJob(
	fetcher *dataset.Fetcher,
	runner *pipeline.Runner,
	bars contracts.BarRepository,
	runs contracts.RunRepository,
	source string,
	workers int,
	log *logger.Logger,
) *DatasetRefreshJob {
	return &DatasetRefreshJob{
		fetcher: fetcher,
		runner:  runner,
		bars:    bars,
		runs:    runs,
		source:  source,
		workers: workers,
		logger:  log,
	}
}

// Name returns the job name
func (j *DatasetRefreshJob) Name() string {
	return "dataset_refresh"
}

// Schedule returns the cron schedule (daily at 00:10 UTC, right after
// the daily bar closes)
func (j *DatasetRefreshJob) Schedule() string {
	return "0 10 0 * * *"
}

// Run fetches the dataset, runs the pipeline and persists the results
func (j *DatasetRefreshJob) Run(ctx context.Context) error {
	j.logger.WithField("source", j.source).Info("Starting scheduled dataset refresh")

	table, err := j.fetcher.Load(ctx, j.source)
	if err != nil {
		return fmt.Errorf("load dataset: %w", err)
	}

	if j.bars != nil {
		if err := j.bars.SaveBatch(ctx, table.Bars()); err != nil {
			return fmt.Errorf("save bars: %w", err)
		}
	}

	result, err := j.runner.Run(ctx, table, pipeline.RunConfig{Workers: j.workers})
	if err != nil {
		return fmt.Errorf("run pipeline: %w", err)
	}

	if j.runs != nil {
		if err := j.runs.SaveRun(ctx, result.Record()); err != nil {
			return fmt.Errorf("save run record: %w", err)
		}
	}

	j.logger.WithFields(map[string]interface{}{
		"run_id":    result.RunID,
		"succeeded": result.Succeeded,
		"skipped":   result.Skipped,
		"duration":  result.Duration,
	}).Info("Dataset refresh completed")

	return nil
}
