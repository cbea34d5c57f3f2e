package report

import (
	"context"
	"time"

	"github.com/wonny/krxdaily/internal/contracts"
	"github.com/wonny/krxdaily/pkg/logger"
	"github.com/wonny/krxdaily/pkg/redis"
)

// CachedMarketSource caches market-wide reads for a day.
// 캐시 오류는 조회를 막지 않는다 (경고만 남김)
type CachedMarketSource struct {
	source contracts.MarketSource
	cache  *redis.Cache
	logger *logger.Logger
}

var _ contracts.MarketSource = (*CachedMarketSource)(nil)

// NewCachedMarketSource wraps source with cache
func NewCachedMarketSource(source contracts.MarketSource, cache *redis.Cache, log *logger.Logger) *CachedMarketSource {
	return &CachedMarketSource{
		source: source,
		cache:  cache,
		logger: log.WithField("module", "market_cache"),
	}
}

// FetchIndexOHLCV returns cached index bars or fetches and stores them
func (c *CachedMarketSource) FetchIndexOHLCV(ctx context.Context, indexCode string, w contracts.Window) ([]contracts.IndexBar, error) {
	key := redis.IndexKey(indexCode, contracts.FormatDate(w.From), contracts.FormatDate(w.To))

	var bars []contracts.IndexBar
	if c.lookup(ctx, key, &bars) {
		return bars, nil
	}

	bars, err := c.source.FetchIndexOHLCV(ctx, indexCode, w)
	if err != nil {
		return nil, err
	}
	c.store(ctx, key, bars)
	return bars, nil
}

// FetchMarketSnapshot returns a cached snapshot or fetches and stores it
func (c *CachedMarketSource) FetchMarketSnapshot(ctx context.Context, market string, date time.Time) ([]contracts.MarketQuote, error) {
	key := redis.SnapshotKey(market, contracts.FormatDate(date))

	var quotes []contracts.MarketQuote
	if c.lookup(ctx, key, &quotes) {
		return quotes, nil
	}

	quotes, err := c.source.FetchMarketSnapshot(ctx, market, date)
	if err != nil {
		return nil, err
	}
	c.store(ctx, key, quotes)
	return quotes, nil
}

func (c *CachedMarketSource) lookup(ctx context.Context, key string, dest interface{}) bool {
	found, err := c.cache.Get(ctx, key, dest)
	if err != nil {
		c.logger.WithField("key", key).WithError(err).Warn("Cache read failed")
		return false
	}
	if found {
		c.logger.WithField("key", key).Debug("Cache hit")
	}
	return found
}

// store skips empty results so a pre-close run does not pin an empty day
func (c *CachedMarketSource) store(ctx context.Context, key string, value interface{}) {
	switch v := value.(type) {
	case []contracts.IndexBar:
		if len(v) == 0 {
			return
		}
	case []contracts.MarketQuote:
		if len(v) == 0 {
			return
		}
	}
	if err := c.cache.Set(ctx, key, value, redis.TTLDaily); err != nil {
		c.logger.WithField("key", key).WithError(err).Warn("Cache write failed")
	}
}
