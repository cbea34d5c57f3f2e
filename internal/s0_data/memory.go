package s0_data

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/wonny/krxdaily/internal/contracts"
)

var (
	_ contracts.RecordWriter = (*MemoryStore)(nil)
	_ contracts.StockReader  = (*MemoryStore)(nil)
)

// MemoryStore keeps records in process memory with the same uniqueness and
// stock-reference rules as the database. Used for dry runs and tests.
type MemoryStore struct {
	mu      sync.Mutex
	now     func() time.Time
	stocks  map[string]contracts.Security
	records map[contracts.DataKind]map[contracts.RowKey]contracts.Record
}

// NewMemoryStore creates an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		now:     time.Now,
		stocks:  make(map[string]contracts.Security),
		records: make(map[contracts.DataKind]map[contracts.RowKey]contracts.Record),
	}
}

// EnsureSecurity creates the stock if absent
func (m *MemoryStore) EnsureSecurity(_ context.Context, sec contracts.Security) (*contracts.Security, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.stocks[sec.Ticker]; ok {
		return &existing, nil
	}
	now := m.now()
	sec.CreatedAt, sec.UpdatedAt = now, now
	m.stocks[sec.Ticker] = sec
	return &sec, nil
}

// InsertRecord stores rec unless its (ticker, date) already exists
func (m *MemoryStore) InsertRecord(_ context.Context, rec contracts.Record) (contracts.RowOutcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := rec.Key()
	if _, ok := m.stocks[k.Ticker]; !ok {
		return contracts.RowFailed, fmt.Errorf("insert %s: unknown stock %s", rec.Kind(), k.Ticker)
	}
	k.Date = contracts.DateOf(k.Date)

	table, ok := m.records[rec.Kind()]
	if !ok {
		table = make(map[contracts.RowKey]contracts.Record)
		m.records[rec.Kind()] = table
	}
	if _, exists := table[k]; exists {
		return contracts.RowDuplicate, nil
	}
	table[k] = rec
	return contracts.RowSaved, nil
}

// Count returns the number of stored rows of kind
func (m *MemoryStore) Count(kind contracts.DataKind) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records[kind])
}

// GetStock returns the stock, or nil when unknown
func (m *MemoryStore) GetStock(_ context.Context, ticker string) (*contracts.Security, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sec, ok := m.stocks[ticker]
	if !ok {
		return nil, nil
	}
	return &sec, nil
}

// GetAllStocks returns all stocks ordered by ticker
func (m *MemoryStore) GetAllStocks(_ context.Context) ([]contracts.Security, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]contracts.Security, 0, len(m.stocks))
	for _, sec := range m.stocks {
		out = append(out, sec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Ticker < out[j].Ticker })
	return out, nil
}

// GetLatestPrice returns the most recent price, or nil
func (m *MemoryStore) GetLatestPrice(ctx context.Context, ticker string) (*contracts.DailyPrice, error) {
	prices, _ := m.GetDailyPrices(ctx, ticker, nil, nil)
	if len(prices) == 0 {
		return nil, nil
	}
	latest := prices[len(prices)-1]
	return &latest, nil
}

// GetDailyPrices returns prices within the optional range, ascending
func (m *MemoryStore) GetDailyPrices(_ context.Context, ticker string, from, to *time.Time) ([]contracts.DailyPrice, error) {
	return ofKind[contracts.DailyPrice](m, contracts.KindDailyPrice, ticker, from, to), nil
}

// GetMarketCaps returns market caps within the optional range, ascending
func (m *MemoryStore) GetMarketCaps(_ context.Context, ticker string, from, to *time.Time) ([]contracts.MarketCap, error) {
	return ofKind[contracts.MarketCap](m, contracts.KindMarketCap, ticker, from, to), nil
}

// GetFundamentals returns fundamentals within the optional range, ascending
func (m *MemoryStore) GetFundamentals(_ context.Context, ticker string, from, to *time.Time) ([]contracts.Fundamental, error) {
	return ofKind[contracts.Fundamental](m, contracts.KindFundamental, ticker, from, to), nil
}

// GetTradingByInvestor returns investor flows within the optional range, ascending
func (m *MemoryStore) GetTradingByInvestor(_ context.Context, ticker string, from, to *time.Time) ([]contracts.InvestorTrading, error) {
	return ofKind[contracts.InvestorTrading](m, contracts.KindTrading, ticker, from, to), nil
}

// GetForeignNetBuyingDays returns the latest n investor rows, newest first
func (m *MemoryStore) GetForeignNetBuyingDays(_ context.Context, ticker string, days int) ([]contracts.InvestorTrading, error) {
	rows := ofKind[contracts.InvestorTrading](m, contracts.KindTrading, ticker, nil, nil)
	out := make([]contracts.InvestorTrading, 0, days)
	for i := len(rows) - 1; i >= 0 && len(out) < days; i-- {
		out = append(out, rows[i])
	}
	return out, nil
}

func ofKind[T contracts.Record](m *MemoryStore, kind contracts.DataKind, ticker string, from, to *time.Time) []T {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []T
	for k, rec := range m.records[kind] {
		if k.Ticker != ticker {
			continue
		}
		if from != nil && k.Date.Before(contracts.DateOf(*from)) {
			continue
		}
		if to != nil && k.Date.After(contracts.DateOf(*to)) {
			continue
		}
		out = append(out, rec.(T))
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Key().Date.Before(out[j].Key().Date)
	})
	return out
}
