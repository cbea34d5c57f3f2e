package contracts

import (
	"context"
	"time"
)

// WatchItem is one configured watchlist entry
type WatchItem struct {
	Ticker string `json:"ticker" csv:"ticker"`
	Name   string `json:"name" csv:"name"`
	Market string `json:"market" csv:"market"`
}

// TickerResult is the outcome of collecting one ticker.
// Counts에는 성공한 kind만 들어감 (빈 결과 / 실패 kind는 없음)
type TickerResult struct {
	Ticker  string           `json:"ticker"`
	Name    string           `json:"name"`
	Success bool             `json:"success"`
	Counts  map[DataKind]int `json:"counts"`
	Errors  []string         `json:"errors"`
}

// BatchResult summarizes a watchlist run
type BatchResult struct {
	Date         time.Time      `json:"date"`
	Mode         FetchMode      `json:"mode"`
	Stocks       []TickerResult `json:"stocks"`
	TotalSuccess int            `json:"total_success"`
	TotalFailed  int            `json:"total_failed"`
	Skipped      int            `json:"skipped"`
}

// Failed reports whether any collected ticker failed
func (b *BatchResult) Failed() bool {
	return b.TotalFailed > 0
}

// MarketDataSource is the upstream provider: six per-ticker reads over a date window.
// ⭐ SSOT: 외부 시세 제공자 인터페이스
type MarketDataSource interface {
	FetchOHLCV(ctx context.Context, ticker string, w Window) (*Table, error)
	FetchMarketCap(ctx context.Context, ticker string, w Window) (*Table, error)
	FetchFundamental(ctx context.Context, ticker string, w Window) (*Table, error)
	FetchTradingByInvestor(ctx context.Context, ticker string, w Window) (*Table, error)
	FetchShortVolume(ctx context.Context, ticker string, w Window) (*Table, error)
	FetchShortBalance(ctx context.Context, ticker string, w Window) (*Table, error)
}

// IndexBar is one index OHLCV row
type IndexBar struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
	Value  int64     `json:"value"`
}

// MarketQuote is one stock in a market-wide daily snapshot
type MarketQuote struct {
	Ticker    string `json:"ticker"`
	Name      string `json:"name"`
	Open      int64  `json:"open"`
	High      int64  `json:"high"`
	Low       int64  `json:"low"`
	Close     int64  `json:"close"`
	Volume    int64  `json:"volume"`
	Value     int64  `json:"value"` // 거래대금
	MarketCap int64  `json:"market_cap"`
}

// ChangeRate returns (close-open)/open*100 rounded to 2 decimals, 0 when open is 0
func (q MarketQuote) ChangeRate() float64 {
	if q.Open == 0 {
		return 0
	}
	r := float64(q.Close-q.Open) / float64(q.Open) * 100
	return roundTo(r, 2)
}

// MarketSource provides market-wide data for the daily report
type MarketSource interface {
	FetchIndexOHLCV(ctx context.Context, indexCode string, w Window) ([]IndexBar, error)
	FetchMarketSnapshot(ctx context.Context, market string, date time.Time) ([]MarketQuote, error)
}
