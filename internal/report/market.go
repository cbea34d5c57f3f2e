package report

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/wonny/krxdaily/internal/contracts"
	"github.com/wonny/krxdaily/internal/external/krx"
)

// ErrNoData means the exchange has no index data for the date (holiday, weekend, before close)
var ErrNoData = errors.New("데이터 없음")

const topN = 5

// prevLookback is how many preceding calendar days are searched for the previous close
const prevLookback = 3

// IndexSummary is one index line of the market overview
type IndexSummary struct {
	Name      string
	Close     float64
	Change    float64
	ChangePct float64
	Volume    int64
}

// marketIndices are the overview indices in display order
var marketIndices = []struct {
	name string
	code string
}{
	{"KOSPI", krx.IndexKOSPI},
	{"KOSDAQ", krx.IndexKOSDAQ},
}

// IndexSummaries reads KOSPI/KOSDAQ for date with change against the previous trading day.
// 두 지수 모두 당일 데이터가 없으면 ErrNoData
func IndexSummaries(ctx context.Context, source contracts.MarketSource, date time.Time) ([]IndexSummary, error) {
	date = contracts.DateOf(date)
	w := contracts.Window{From: date.AddDate(0, 0, -prevLookback), To: date}

	var out []IndexSummary
	for _, idx := range marketIndices {
		bars, err := source.FetchIndexOHLCV(ctx, idx.code, w)
		if err != nil {
			return nil, fmt.Errorf("fetch %s index: %w", idx.name, err)
		}
		if s, ok := summarize(idx.name, bars, date); ok {
			out = append(out, s)
		}
	}

	if len(out) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoData, contracts.FormatDate(date))
	}
	return out, nil
}

// summarize picks the bar on date and the latest bar before it.
// 전일 데이터가 없으면 변동은 0
func summarize(name string, bars []contracts.IndexBar, date time.Time) (IndexSummary, bool) {
	var today, prev *contracts.IndexBar
	for i := range bars {
		d := contracts.DateOf(bars[i].Date)
		switch {
		case d.Equal(date):
			today = &bars[i]
		case d.Before(date):
			if prev == nil || d.After(contracts.DateOf(prev.Date)) {
				prev = &bars[i]
			}
		}
	}
	if today == nil {
		return IndexSummary{}, false
	}

	s := IndexSummary{Name: name, Close: today.Close, Volume: today.Volume}
	if prev != nil && prev.Close != 0 {
		s.Change = today.Close - prev.Close
		s.ChangePct = s.Change / prev.Close * 100
	}
	return s, true
}

// Movers holds the three top-5 lists for one market
type Movers struct {
	Market  string
	Gainers []contracts.MarketQuote
	Losers  []contracts.MarketQuote
	ByValue []contracts.MarketQuote
}

// Empty reports whether the snapshot had no quotes
func (m Movers) Empty() bool {
	return len(m.Gainers) == 0 && len(m.Losers) == 0 && len(m.ByValue) == 0
}

// TopMovers ranks a market snapshot: gainers/losers by 등락률, then 거래대금
func TopMovers(market string, quotes []contracts.MarketQuote) Movers {
	m := Movers{Market: market}
	if len(quotes) == 0 {
		return m
	}

	m.Gainers = topBy(quotes, func(a, b contracts.MarketQuote) bool { return a.ChangeRate() > b.ChangeRate() })
	m.Losers = topBy(quotes, func(a, b contracts.MarketQuote) bool { return a.ChangeRate() < b.ChangeRate() })
	m.ByValue = topBy(quotes, func(a, b contracts.MarketQuote) bool { return a.Value > b.Value })
	return m
}

func topBy(quotes []contracts.MarketQuote, less func(a, b contracts.MarketQuote) bool) []contracts.MarketQuote {
	sorted := append([]contracts.MarketQuote(nil), quotes...)
	sort.SliceStable(sorted, func(i, j int) bool { return less(sorted[i], sorted[j]) })
	if len(sorted) > topN {
		sorted = sorted[:topN]
	}
	return sorted
}
