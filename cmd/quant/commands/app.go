package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/wonny/krxdaily/internal/contracts"
	"github.com/wonny/krxdaily/internal/external/krx"
	"github.com/wonny/krxdaily/internal/report"
	"github.com/wonny/krxdaily/internal/s0_data"
	"github.com/wonny/krxdaily/internal/s0_data/collector"
	"github.com/wonny/krxdaily/internal/s0_data/watchlist"
	"github.com/wonny/krxdaily/pkg/config"
	"github.com/wonny/krxdaily/pkg/database"
	"github.com/wonny/krxdaily/pkg/logger"
	"github.com/wonny/krxdaily/pkg/redis"
)

// errCollectFailed makes the process exit 1 after the summary has been printed
var errCollectFailed = errors.New("일부 종목 데이터 수집 실패")

// cacheNamespace prefixes every Redis key this CLI writes
const cacheNamespace = "krxdaily"

// loadConfig reads the environment and builds the logger.
// --verbose는 LOG_LEVEL보다 우선한다
func loadConfig() (*config.Config, *logger.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	return cfg, logger.New(cfg), nil
}

// openStore connects to PostgreSQL. The caller closes the returned DB.
func openStore(cfg *config.Config, log *logger.Logger) (*database.DB, *s0_data.Store, error) {
	db, err := database.New(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to database: %w", err)
	}
	return db, s0_data.NewStore(db.Pool, log), nil
}

// newCollector wires source → rate limited client → collector
func newCollector(cfg *config.Config, log *logger.Logger, source contracts.MarketDataSource, writer contracts.RecordWriter, prices contracts.PriceLookup) *collector.Collector {
	client := collector.NewRateLimitedClient(source, cfg.Provider, log)
	return collector.NewCollector(client, writer, prices, log)
}

// newMarketSource wraps the KRX client with the Redis snapshot cache.
// Redis 연결 실패는 캐시 없이 진행한다
func newMarketSource(ctx context.Context, cfg *config.Config, log *logger.Logger, source contracts.MarketSource) (contracts.MarketSource, func()) {
	rc, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		log.WithError(err).Warn("Redis unavailable, report runs without cache")
		rc = redis.Disabled()
	}
	cached := report.NewCachedMarketSource(source, redis.NewCache(rc, cacheNamespace), log)
	return cached, func() { _ = rc.Close() }
}

// newKRXClient returns the KRX provider used for both collection and market data
func newKRXClient(cfg *config.Config, log *logger.Logger) *krx.Client {
	return krx.NewClient(cfg.Provider, log)
}

// loadWatchlist reads WATCHLIST_FILE or the built-in list
func loadWatchlist(cfg *config.Config) ([]contracts.WatchItem, error) {
	items, err := watchlist.Load(cfg.Watchlist.File)
	if err != nil {
		return nil, fmt.Errorf("load watchlist: %w", err)
	}
	return items, nil
}

// parseDateArg parses an optional YYYYMMDD argument. No argument means today (KST).
func parseDateArg(args []string) (time.Time, error) {
	if len(args) == 0 || args[0] == "" {
		return contracts.Today(time.Now()), nil
	}
	return contracts.ParseDate(args[0])
}

// signalContext is cancelled on Ctrl+C or SIGTERM
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
