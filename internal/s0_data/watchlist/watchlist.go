package watchlist

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gocarina/gocsv"

	"github.com/wonny/krxdaily/internal/contracts"
)

// ErrInvalidItem is returned for entries without a 6-character ticker
var ErrInvalidItem = errors.New("invalid watchlist item")

// defaultItems is the built-in watchlist used when no file is configured.
// ⭐ SSOT: 기본 관심 종목
var defaultItems = []contracts.WatchItem{
	{Ticker: "267260", Name: "HD현대일렉트릭", Market: "KOSPI"},
	{Ticker: "064350", Name: "현대로템", Market: "KOSPI"},
}

// Default returns a copy of the built-in watchlist
func Default() []contracts.WatchItem {
	return append([]contracts.WatchItem(nil), defaultItems...)
}

// Load reads the watchlist CSV (header: ticker,name,market).
// 경로가 비어 있으면 기본 목록을 돌려준다
func Load(path string) ([]contracts.WatchItem, error) {
	if path == "" {
		return Default(), nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read watchlist: %w", err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return []contracts.WatchItem{}, nil
	}

	var items []contracts.WatchItem
	if err := gocsv.UnmarshalBytes(raw, &items); err != nil {
		return nil, fmt.Errorf("parse watchlist %s: %w", path, err)
	}

	for i := range items {
		items[i] = normalize(items[i])
		if err := validate(items[i]); err != nil {
			return nil, fmt.Errorf("watchlist %s line %d: %w", path, i+2, err)
		}
	}
	return items, nil
}

// Save writes items as CSV, creating the parent directory if needed
func Save(path string, items []contracts.WatchItem) error {
	if path == "" {
		return fmt.Errorf("save watchlist: no file configured (WATCHLIST_FILE)")
	}
	if items == nil {
		items = []contracts.WatchItem{}
	}

	out, err := gocsv.MarshalBytes(&items)
	if err != nil {
		return fmt.Errorf("encode watchlist: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create watchlist dir: %w", err)
		}
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return fmt.Errorf("write watchlist: %w", err)
	}
	return nil
}

// Add inserts item, or replaces the entry with the same ticker in place.
// 순서는 유지 (수집 순서 = 관심 종목 순서)
func Add(items []contracts.WatchItem, item contracts.WatchItem) ([]contracts.WatchItem, error) {
	item = normalize(item)
	if err := validate(item); err != nil {
		return items, err
	}

	out := append([]contracts.WatchItem(nil), items...)
	for i := range out {
		if out[i].Ticker == item.Ticker {
			out[i] = item
			return out, nil
		}
	}
	return append(out, item), nil
}

// Remove drops the entry with ticker; reports whether it was present
func Remove(items []contracts.WatchItem, ticker string) ([]contracts.WatchItem, bool) {
	out := make([]contracts.WatchItem, 0, len(items))
	found := false
	for _, it := range items {
		if it.Ticker == ticker {
			found = true
			continue
		}
		out = append(out, it)
	}
	return out, found
}

// Filter keeps the entries whose ticker is in tickers, in watchlist order
func Filter(items []contracts.WatchItem, tickers []string) []contracts.WatchItem {
	want := make(map[string]bool, len(tickers))
	for _, t := range tickers {
		want[strings.TrimSpace(t)] = true
	}
	out := make([]contracts.WatchItem, 0, len(tickers))
	for _, it := range items {
		if want[it.Ticker] {
			out = append(out, it)
		}
	}
	return out
}

func normalize(item contracts.WatchItem) contracts.WatchItem {
	item.Ticker = strings.TrimSpace(item.Ticker)
	item.Name = strings.TrimSpace(item.Name)
	item.Market = strings.ToUpper(strings.TrimSpace(item.Market))
	return item
}

func validate(item contracts.WatchItem) error {
	if len(item.Ticker) != 6 {
		return fmt.Errorf("%w: ticker %q must be 6 characters", ErrInvalidItem, item.Ticker)
	}
	return nil
}
