package collector

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/krxdaily/internal/contracts"
	"github.com/wonny/krxdaily/internal/s0_data"
	"github.com/wonny/krxdaily/pkg/logger"
)

// Fetcher reads one data kind for a ticker over a window
type Fetcher interface {
	Fetch(ctx context.Context, kind contracts.DataKind, ticker string, w contracts.Window) (*contracts.Table, error)
}

// kindPolicy marks whether a kind's failure is reported
type kindPolicy struct {
	kind     contracts.DataKind
	required bool
}

// kindPolicies is the per-ticker collection plan in fixed order.
// ⭐ SSOT: 필수(core) / 선택(best-effort) kind 구분
var kindPolicies = []kindPolicy{
	{contracts.KindDailyPrice, true},
	{contracts.KindMarketCap, true},
	{contracts.KindFundamental, true},
	{contracts.KindTrading, true},
	{contracts.KindShortSelling, false},
	{contracts.KindShortBalance, false},
}

// IsRequired reports whether failures of kind are recorded as errors
func IsRequired(kind contracts.DataKind) bool {
	for _, p := range kindPolicies {
		if p.kind == kind {
			return p.required
		}
	}
	return false
}

// Collector orchestrates per-ticker and watchlist collection
// ⭐ SSOT: 데이터 수집 오케스트레이션은 이 패키지에서만
type Collector struct {
	client Fetcher
	saver  *s0_data.Saver
	prices contracts.PriceLookup
	now    func() time.Time
	logger *logger.Logger
}

// NewCollector creates a new Collector instance
func NewCollector(client Fetcher, writer contracts.RecordWriter, prices contracts.PriceLookup, log *logger.Logger) *Collector {
	return &Collector{
		client: client,
		saver:  s0_data.NewSaver(writer, log),
		prices: prices,
		now:    time.Now,
		logger: log.WithField("module", "collector"),
	}
}

// CollectTicker collects all six kinds for one ticker over the mode's window ending at ref
func (c *Collector) CollectTicker(ctx context.Context, item contracts.WatchItem, ref time.Time, mode contracts.FetchMode) contracts.TickerResult {
	return c.CollectWindow(ctx, item, contracts.WindowFor(mode, ref))
}

// CollectWindow collects all six kinds for one ticker over an explicit window.
// kind 하나의 실패가 다른 kind 수집을 막지 않는다
func (c *Collector) CollectWindow(ctx context.Context, item contracts.WatchItem, w contracts.Window) contracts.TickerResult {
	log := c.logger.WithFields(map[string]interface{}{
		"ticker": item.Ticker,
		"name":   item.Name,
	})
	log.WithField("window", w.String()).Info("Collecting stock data")

	result := contracts.TickerResult{
		Ticker:  item.Ticker,
		Name:    item.Name,
		Success: true,
		Counts:  map[contracts.DataKind]int{},
		Errors:  []string{},
	}

	// 종목 정보 선저장 (FK 보장)
	if _, err := c.saver.SaveSecurity(ctx, item.Ticker, item.Name, item.Market); err != nil {
		log.WithError(err).Error("Whole-ticker collection failed")
		return contracts.TickerResult{
			Ticker:  item.Ticker,
			Name:    item.Name,
			Success: false,
			Counts:  map[contracts.DataKind]int{},
			Errors:  []string{fmt.Sprintf("전체 수집 실패: %v", err)},
		}
	}

	for _, p := range kindPolicies {
		n, err := c.collectKind(ctx, p.kind, item.Ticker, w)
		if err != nil {
			if p.required {
				log.WithField("kind", p.kind).WithError(err).Warn("Data kind failed")
				result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", p.kind.Label(), err))
			} else {
				log.WithField("kind", p.kind).WithError(err).Debug("Optional data kind failed")
			}
			continue
		}
		if n > 0 {
			result.Counts[p.kind] = n
		}
		if p.required {
			log.WithFields(map[string]interface{}{"kind": p.kind, "saved": n}).Info("Data kind collected")
		}
	}

	return result
}

// collectKind fetches one kind and saves it when non-empty
func (c *Collector) collectKind(ctx context.Context, kind contracts.DataKind, ticker string, w contracts.Window) (int, error) {
	table, err := c.client.Fetch(ctx, kind, ticker, w)
	if err != nil {
		return 0, err
	}
	if table.Empty() {
		return 0, nil
	}
	return c.saver.Save(ctx, kind, ticker, table)
}

// BatchOptions controls a watchlist run
type BatchOptions struct {
	Date  time.Time // zero → today (KST)
	Mode  contracts.FetchMode
	Force bool
}

// CollectWatchlist runs CollectTicker for every item in order.
// force가 아니면 기준일 주가가 이미 있는 종목은 스킵한다
func (c *Collector) CollectWatchlist(ctx context.Context, items []contracts.WatchItem, opts BatchOptions) *contracts.BatchResult {
	date := opts.Date
	if date.IsZero() {
		date = contracts.Today(c.now())
	}
	date = contracts.DateOf(date)

	c.logger.WithFields(map[string]interface{}{
		"date":  contracts.FormatDate(date),
		"mode":  opts.Mode,
		"force": opts.Force,
		"count": len(items),
	}).Info("Starting watchlist collection")

	result := &contracts.BatchResult{
		Date:   date,
		Mode:   opts.Mode,
		Stocks: []contracts.TickerResult{},
	}

	for _, item := range items {
		if ctx.Err() != nil {
			c.logger.WithError(ctx.Err()).Warn("Watchlist collection interrupted")
			break
		}

		if !opts.Force && c.exists(ctx, item.Ticker, date) {
			c.logger.WithFields(map[string]interface{}{
				"ticker": item.Ticker,
				"name":   item.Name,
			}).Info("Data already exists, skipping")
			result.Skipped++
			continue
		}

		tr := c.CollectTicker(ctx, item, date, opts.Mode)
		result.Stocks = append(result.Stocks, tr)
		if tr.Success {
			result.TotalSuccess++
		} else {
			result.TotalFailed++
		}
	}

	c.logger.WithFields(map[string]interface{}{
		"success": result.TotalSuccess,
		"failed":  result.TotalFailed,
		"skipped": result.Skipped,
	}).Info("Watchlist collection completed")

	return result
}

// exists wraps the existence check; a lookup error means "collect anyway"
func (c *Collector) exists(ctx context.Context, ticker string, date time.Time) bool {
	ok, err := s0_data.HasPriceOn(ctx, c.prices, ticker, date)
	if err != nil {
		c.logger.WithField("ticker", ticker).WithError(err).Warn("Existence check failed, collecting")
		return false
	}
	return ok
}
