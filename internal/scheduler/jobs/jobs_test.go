package jobs

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/krxdaily/internal/contracts"
	"github.com/wonny/krxdaily/internal/report"
	"github.com/wonny/krxdaily/internal/s0_data/collector"
	"github.com/wonny/krxdaily/pkg/logger"
)

type fakeCollector struct {
	result *contracts.BatchResult
	opts   []collector.BatchOptions
	items  [][]contracts.WatchItem
}

func (f *fakeCollector) CollectWatchlist(_ context.Context, items []contracts.WatchItem, opts collector.BatchOptions) *contracts.BatchResult {
	f.opts = append(f.opts, opts)
	f.items = append(f.items, items)
	return f.result
}

type fakeReport struct {
	text  string
	err   error
	dates []time.Time
}

func (f *fakeReport) Generate(_ context.Context, date time.Time) (string, error) {
	f.dates = append(f.dates, date)
	return f.text, f.err
}

var testItems = []contracts.WatchItem{{Ticker: "267260", Name: "HD현대일렉트릭", Market: "KOSPI"}}

// 2025-12-04 09:30 UTC = 18:30 KST
var testNow = time.Date(2025, 12, 4, 9, 30, 0, 0, time.UTC)

func newTestJob(t *testing.T, col *fakeCollector, rep *fakeReport) (*DailyCollectJob, string) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "reports")
	job := NewDailyCollectJob(col, rep, func() ([]contracts.WatchItem, error) { return testItems, nil },
		DailyCollectConfig{Schedule: "0 0 18 * * 1-5", Mode: contracts.ModeRecent, ReportDir: dir}, logger.Nop())
	job.now = func() time.Time { return testNow }
	return job, dir
}

func TestDailyCollectJob_Run(t *testing.T) {
	col := &fakeCollector{result: &contracts.BatchResult{TotalSuccess: 1, Stocks: []contracts.TickerResult{{Ticker: "267260", Success: true}}}}
	rep := &fakeReport{text: "report body"}
	job, dir := newTestJob(t, col, rep)

	assert.Equal(t, "daily_collect", job.Name())
	assert.Equal(t, "0 0 18 * * 1-5", job.Schedule())

	require.NoError(t, job.Run(context.Background()))

	require.Len(t, col.opts, 1)
	assert.Equal(t, "20251204", contracts.FormatDate(col.opts[0].Date))
	assert.Equal(t, contracts.ModeRecent, col.opts[0].Mode)
	assert.False(t, col.opts[0].Force)
	assert.Equal(t, testItems, col.items[0])

	raw, err := os.ReadFile(filepath.Join(dir, "daily_report_20251204.txt"))
	require.NoError(t, err)
	assert.Equal(t, "report body", string(raw))
}

func TestDailyCollectJob_FailuresStillReport(t *testing.T) {
	col := &fakeCollector{result: &contracts.BatchResult{TotalFailed: 1, Stocks: []contracts.TickerResult{{Ticker: "267260"}}}}
	rep := &fakeReport{text: "partial"}
	job, dir := newTestJob(t, col, rep)

	err := job.Run(context.Background())
	assert.EqualError(t, err, "collection failed for 1 of 1 tickers")

	_, statErr := os.Stat(filepath.Join(dir, "daily_report_20251204.txt"))
	assert.NoError(t, statErr, "report is written even when collection failed")
}

func TestDailyCollectJob_Holiday(t *testing.T) {
	col := &fakeCollector{result: &contracts.BatchResult{}}
	rep := &fakeReport{err: fmt.Errorf("%w: 20251204", report.ErrNoData)}
	job, dir := newTestJob(t, col, rep)

	require.NoError(t, job.Run(context.Background()))

	_, err := os.Stat(dir)
	assert.True(t, os.IsNotExist(err), "no report file on a holiday")
}

func TestDailyCollectJob_Errors(t *testing.T) {
	t.Run("report error", func(t *testing.T) {
		job, _ := newTestJob(t, &fakeCollector{result: &contracts.BatchResult{}}, &fakeReport{err: errors.New("db down")})
		assert.ErrorContains(t, job.Run(context.Background()), "generate report")
	})

	t.Run("watchlist error", func(t *testing.T) {
		col := &fakeCollector{result: &contracts.BatchResult{}}
		job, _ := newTestJob(t, col, &fakeReport{})
		job.watchlist = func() ([]contracts.WatchItem, error) { return nil, errors.New("bad csv") }

		assert.ErrorContains(t, job.Run(context.Background()), "load watchlist")
		assert.Empty(t, col.opts)
	})
}

type fakePurger struct {
	tickers []string
	before  []time.Time
	n       int64
	err     error
}

func (f *fakePurger) DeleteOldData(_ context.Context, ticker string, before time.Time) (int64, error) {
	f.tickers = append(f.tickers, ticker)
	f.before = append(f.before, before)
	return f.n, f.err
}

func TestPurgeJob(t *testing.T) {
	p := &fakePurger{n: 42}
	job := NewPurgeJob(p, 365, "0 0 3 * * 0", logger.Nop())
	job.now = func() time.Time { return testNow }

	assert.Equal(t, "purge_old_data", job.Name())
	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, []string{""}, p.tickers, "all tickers")
	assert.Equal(t, "20241204", contracts.FormatDate(p.before[0]))

	p.err = errors.New("timeout")
	assert.Error(t, job.Run(context.Background()))

	assert.Error(t, NewPurgeJob(p, 0, "@daily", logger.Nop()).Run(context.Background()))
}
