package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wonny/krxdaily/internal/contracts"
	"github.com/wonny/krxdaily/internal/report"
	"github.com/wonny/krxdaily/internal/s0_data/collector"
	"github.com/wonny/krxdaily/pkg/logger"
)

// WatchlistCollector runs one watchlist batch
type WatchlistCollector interface {
	CollectWatchlist(ctx context.Context, items []contracts.WatchItem, opts collector.BatchOptions) *contracts.BatchResult
}

// ReportGenerator renders the daily report
type ReportGenerator interface {
	Generate(ctx context.Context, date time.Time) (string, error)
}

// DailyCollectJob collects the watchlist after market close and writes the daily report.
// ⭐ SSOT: 일일 수집 스케줄은 이 Job에서만
type DailyCollectJob struct {
	collector WatchlistCollector
	report    ReportGenerator
	watchlist func() ([]contracts.WatchItem, error)
	schedule  string
	mode      contracts.FetchMode
	reportDir string
	now       func() time.Time
	logger    *logger.Logger
}

// DailyCollectConfig holds the job settings
type DailyCollectConfig struct {
	Schedule  string
	Mode      contracts.FetchMode
	ReportDir string
}

// NewDailyCollectJob creates the daily collect job.
// watchlist is re-read on every run so file edits apply without restart.
func NewDailyCollectJob(col WatchlistCollector, gen ReportGenerator, watchlist func() ([]contracts.WatchItem, error), cfg DailyCollectConfig, log *logger.Logger) *DailyCollectJob {
	return &DailyCollectJob{
		collector: col,
		report:    gen,
		watchlist: watchlist,
		schedule:  cfg.Schedule,
		mode:      cfg.Mode,
		reportDir: cfg.ReportDir,
		now:       time.Now,
		logger:    log.WithField("job", "daily_collect"),
	}
}

// Name returns the job name
func (j *DailyCollectJob) Name() string {
	return "daily_collect"
}

// Schedule returns the cron schedule (with seconds)
func (j *DailyCollectJob) Schedule() string {
	return j.schedule
}

// Run collects today's data, then writes the report even if some tickers failed.
// 휴장일(지수 데이터 없음)은 실패가 아니다
func (j *DailyCollectJob) Run(ctx context.Context) error {
	items, err := j.watchlist()
	if err != nil {
		return fmt.Errorf("load watchlist: %w", err)
	}

	date := contracts.Today(j.now())
	batch := j.collector.CollectWatchlist(ctx, items, collector.BatchOptions{Date: date, Mode: j.mode})

	j.logger.WithFields(map[string]interface{}{
		"date":    contracts.FormatDate(date),
		"success": batch.TotalSuccess,
		"failed":  batch.TotalFailed,
		"skipped": batch.Skipped,
	}).Info("Scheduled collection finished")

	text, err := j.report.Generate(ctx, date)
	switch {
	case errors.Is(err, report.ErrNoData):
		j.logger.WithField("date", contracts.FormatDate(date)).Info("No market data, report skipped")
	case err != nil:
		return fmt.Errorf("generate report: %w", err)
	default:
		path, err := report.Save(j.reportDir, date, text)
		if err != nil {
			return err
		}
		j.logger.WithField("path", path).Info("Report saved")
	}

	if batch.Failed() {
		return fmt.Errorf("collection failed for %d of %d tickers", batch.TotalFailed, len(batch.Stocks))
	}
	return nil
}
