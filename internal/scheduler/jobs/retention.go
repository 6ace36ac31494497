package jobs

import (
	"context"
	"time"

	"github.com/wonny/kairos/internal/storage"
	"github.com/wonny/kairos/pkg/logger"
)

// RunRetentionJob prunes old run records from the feature store
type RunRetentionJob struct {
	runs   *storage.RunRepository
	keep   time.Duration
	logger *logger.Logger
}

// NewRunRetentionJob creates a new retention job. A keep of zero falls
// back to 90 days.
func NewRunRetentionJob(runs *storage.RunRepository, keep time.Duration, log *logger.Logger) *RunRetentionJob {
	if keep <= 0 {
		keep = 90 * 24 * time.Hour
	}
	return &RunRetentionJob{
		runs:   runs,
		keep:   keep,
		logger: log,
	}
}

// Name returns the job name
func (j *RunRetentionJob) Name() string {
	return "run_retention"
}

// Schedule returns the cron schedule (weekly, Sunday 00:30 UTC)
func (j *RunRetentionJob) Schedule() string {
	return "0 30 0 * * 0"
}

// Run deletes run records older than the retention window
func (j *RunRetentionJob) Run(ctx context.Context) error {
	cutoff := time.Now().Add(-j.keep)

	removed, err := j.runs.PruneBefore(ctx, cutoff)
	if err != nil {
		return err
	}

	if removed > 0 {
		j.logger.WithFields(map[string]interface{}{
			"removed": removed,
			"cutoff":  cutoff.Format("2006-01-02"),
		}).Info("Run retention completed")
	}

	return nil
}
