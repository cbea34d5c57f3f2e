package collector

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"

	"github.com/wonny/krxdaily/internal/contracts"
	"github.com/wonny/krxdaily/pkg/config"
	"github.com/wonny/krxdaily/pkg/logger"
)

// Clock abstracts time so waits can be observed in tests
type Clock interface {
	Now() time.Time
	Sleep(ctx context.Context, d time.Duration)
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func (systemClock) Sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// clockTimer drives backoff's retry wait through a Clock
type clockTimer struct {
	ctx   context.Context
	clock Clock
	c     chan time.Time
}

func newClockTimer(ctx context.Context, clock Clock) *clockTimer {
	return &clockTimer{ctx: ctx, clock: clock, c: make(chan time.Time, 1)}
}

func (t *clockTimer) Start(d time.Duration) {
	t.clock.Sleep(t.ctx, d)
	t.c <- t.clock.Now()
}

func (t *clockTimer) Stop() {}

func (t *clockTimer) C() <-chan time.Time { return t.c }

// RateLimitedClient wraps a MarketDataSource with a minimum inter-call delay
// and fixed-interval retries.
// ⭐ SSOT: 제공자 호출 간격/재시도 정책은 여기서만
type RateLimitedClient struct {
	source     contracts.MarketDataSource
	clock      Clock
	limiter    *rate.Limiter
	maxRetries int
	retryDelay time.Duration
	lastCall   time.Time // 마지막 호출 시각 (재시도 포함 매 시도마다 갱신)
	logger     *logger.Logger
}

// ClientOption customizes a RateLimitedClient
type ClientOption func(*RateLimitedClient)

// WithClock replaces the system clock
func WithClock(clock Clock) ClientOption {
	return func(c *RateLimitedClient) { c.clock = clock }
}

// NewRateLimitedClient creates a client using the provider's delay/retry settings
func NewRateLimitedClient(source contracts.MarketDataSource, cfg config.ProviderConfig, log *logger.Logger, opts ...ClientOption) *RateLimitedClient {
	maxRetries := cfg.MaxRetries
	if maxRetries < 1 {
		maxRetries = 1
	}

	c := &RateLimitedClient{
		source:     source,
		clock:      systemClock{},
		limiter:    rate.NewLimiter(rate.Every(cfg.APIDelay), 1),
		maxRetries: maxRetries,
		retryDelay: cfg.RetryDelay,
		logger:     log.WithField("module", "rate_limited_client"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// LastCall returns when the most recent provider attempt started
func (c *RateLimitedClient) LastCall() time.Time {
	return c.lastCall
}

// wait blocks until the minimum delay since the previous attempt has passed
func (c *RateLimitedClient) wait(ctx context.Context) {
	now := c.clock.Now()
	delay := c.limiter.ReserveN(now, 1).DelayFrom(now)
	if delay > 0 {
		c.clock.Sleep(ctx, delay)
	}
	c.lastCall = c.clock.Now()
}

// call runs fn with rate limiting before every attempt and a fixed delay between attempts.
// Exhausting maxRetries attempts returns the last error.
func (c *RateLimitedClient) call(ctx context.Context, name string, fn func() (*contracts.Table, error)) (*contracts.Table, error) {
	var table *contracts.Table
	attempt := 0

	op := func() error {
		attempt++
		c.wait(ctx)

		var err error
		table, err = fn()
		return err
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(c.retryDelay), uint64(c.maxRetries-1)),
		ctx,
	)
	notify := func(err error, next time.Duration) {
		c.logger.WithFields(map[string]interface{}{
			"call":    name,
			"attempt": fmt.Sprintf("%d/%d", attempt, c.maxRetries),
			"retry":   next.String(),
		}).WithError(err).Warn("Provider call failed, retrying")
	}

	if err := backoff.RetryNotifyWithTimer(op, policy, notify, newClockTimer(ctx, c.clock)); err != nil {
		c.logger.WithFields(map[string]interface{}{
			"call":     name,
			"attempts": attempt,
		}).WithError(err).Error("Max retries exceeded")
		return nil, err
	}
	return table, nil
}

// Fetch reads one data kind for ticker over w.
// 공매도 거래/잔고는 best-effort: 재시도 후에도 실패하면 빈 결과를 돌려준다
func (c *RateLimitedClient) Fetch(ctx context.Context, kind contracts.DataKind, ticker string, w contracts.Window) (*contracts.Table, error) {
	var fn func(context.Context, string, contracts.Window) (*contracts.Table, error)
	switch kind {
	case contracts.KindDailyPrice:
		fn = c.source.FetchOHLCV
	case contracts.KindMarketCap:
		fn = c.source.FetchMarketCap
	case contracts.KindFundamental:
		fn = c.source.FetchFundamental
	case contracts.KindTrading:
		fn = c.source.FetchTradingByInvestor
	case contracts.KindShortSelling:
		fn = c.source.FetchShortVolume
	case contracts.KindShortBalance:
		fn = c.source.FetchShortBalance
	default:
		return nil, fmt.Errorf("unknown data kind %q", kind)
	}

	c.logger.WithFields(map[string]interface{}{
		"kind":   kind,
		"ticker": ticker,
		"window": w.String(),
	}).Debug("Fetching")

	table, err := c.call(ctx, string(kind), func() (*contracts.Table, error) {
		return fn(ctx, ticker, w)
	})
	if err != nil && !IsRequired(kind) {
		c.logger.WithFields(map[string]interface{}{
			"kind":   kind,
			"ticker": ticker,
		}).WithError(err).Debug("Optional data unavailable")
		return &contracts.Table{}, nil
	}
	if err != nil {
		return nil, err
	}
	if table == nil {
		table = &contracts.Table{}
	}
	return table, nil
}
