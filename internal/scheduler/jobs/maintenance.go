package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/krxdaily/internal/contracts"
	"github.com/wonny/krxdaily/pkg/logger"
)

// Purger deletes price and market-cap rows older than a cutoff
type Purger interface {
	DeleteOldData(ctx context.Context, ticker string, before time.Time) (int64, error)
}

// PurgeJob keeps stored prices within a retention window
type PurgeJob struct {
	purger    Purger
	retention int // days
	schedule  string
	now       func() time.Time
	logger    *logger.Logger
}

// NewPurgeJob creates a purge job for all tickers
func NewPurgeJob(purger Purger, retentionDays int, schedule string, log *logger.Logger) *PurgeJob {
	return &PurgeJob{
		purger:    purger,
		retention: retentionDays,
		schedule:  schedule,
		now:       time.Now,
		logger:    log.WithField("job", "purge_old_data"),
	}
}

// Name returns the job name
func (j *PurgeJob) Name() string {
	return "purge_old_data"
}

// Schedule returns the cron schedule (with seconds)
func (j *PurgeJob) Schedule() string {
	return j.schedule
}

// Run deletes rows dated before today minus the retention window
func (j *PurgeJob) Run(ctx context.Context) error {
	if j.retention <= 0 {
		return fmt.Errorf("retention must be positive, got %d", j.retention)
	}

	cutoff := contracts.Today(j.now()).AddDate(0, 0, -j.retention)
	deleted, err := j.purger.DeleteOldData(ctx, "", cutoff)
	if err != nil {
		return fmt.Errorf("purge before %s: %w", contracts.FormatDate(cutoff), err)
	}

	if deleted > 0 {
		j.logger.WithFields(map[string]interface{}{
			"before":  contracts.FormatDate(cutoff),
			"removed": deleted,
		}).Info("Old data purged")
	}
	return nil
}
