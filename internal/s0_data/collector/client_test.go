package collector

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/krxdaily/internal/contracts"
	"github.com/wonny/krxdaily/pkg/config"
	"github.com/wonny/krxdaily/pkg/logger"
)

// fakeClock advances only when slept on
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	sleeps []time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 12, 4, 18, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Sleep(_ context.Context, d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sleeps = append(c.sleeps, d)
	c.now = c.now.Add(d)
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func (c *fakeClock) Slept() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]time.Duration(nil), c.sleeps...)
}

// fakeSource is a scriptable MarketDataSource. Unset funcs return an empty table.
type fakeSource struct {
	clock *fakeClock

	OHLCVFunc        func(ticker string, w contracts.Window) (*contracts.Table, error)
	MarketCapFunc    func(ticker string, w contracts.Window) (*contracts.Table, error)
	FundamentalFunc  func(ticker string, w contracts.Window) (*contracts.Table, error)
	TradingFunc      func(ticker string, w contracts.Window) (*contracts.Table, error)
	ShortVolumeFunc  func(ticker string, w contracts.Window) (*contracts.Table, error)
	ShortBalanceFunc func(ticker string, w contracts.Window) (*contracts.Table, error)

	calls     map[contracts.DataKind]int
	order     []contracts.DataKind
	callTimes []time.Time
	windows   []contracts.Window
	tickers   []string
}

func newFakeSource(clock *fakeClock) *fakeSource {
	return &fakeSource{clock: clock, calls: map[contracts.DataKind]int{}}
}

func (f *fakeSource) record(kind contracts.DataKind, ticker string, w contracts.Window, fn func(string, contracts.Window) (*contracts.Table, error)) (*contracts.Table, error) {
	f.calls[kind]++
	f.order = append(f.order, kind)
	f.callTimes = append(f.callTimes, f.clock.Now())
	f.windows = append(f.windows, w)
	f.tickers = append(f.tickers, ticker)
	if fn == nil {
		return &contracts.Table{}, nil
	}
	return fn(ticker, w)
}

func (f *fakeSource) total() int {
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

func (f *fakeSource) FetchOHLCV(_ context.Context, ticker string, w contracts.Window) (*contracts.Table, error) {
	return f.record(contracts.KindDailyPrice, ticker, w, f.OHLCVFunc)
}

func (f *fakeSource) FetchMarketCap(_ context.Context, ticker string, w contracts.Window) (*contracts.Table, error) {
	return f.record(contracts.KindMarketCap, ticker, w, f.MarketCapFunc)
}

func (f *fakeSource) FetchFundamental(_ context.Context, ticker string, w contracts.Window) (*contracts.Table, error) {
	return f.record(contracts.KindFundamental, ticker, w, f.FundamentalFunc)
}

func (f *fakeSource) FetchTradingByInvestor(_ context.Context, ticker string, w contracts.Window) (*contracts.Table, error) {
	return f.record(contracts.KindTrading, ticker, w, f.TradingFunc)
}

func (f *fakeSource) FetchShortVolume(_ context.Context, ticker string, w contracts.Window) (*contracts.Table, error) {
	return f.record(contracts.KindShortSelling, ticker, w, f.ShortVolumeFunc)
}

func (f *fakeSource) FetchShortBalance(_ context.Context, ticker string, w contracts.Window) (*contracts.Table, error) {
	return f.record(contracts.KindShortBalance, ticker, w, f.ShortBalanceFunc)
}

var testProvider = config.ProviderConfig{
	APIDelay:   time.Second,
	MaxRetries: 3,
	RetryDelay: 5 * time.Second,
}

func newTestClient(src *fakeSource, clock *fakeClock) *RateLimitedClient {
	return NewRateLimitedClient(src, testProvider, logger.Nop(), WithClock(clock))
}

func TestRateLimitedClient_MinimumDelay(t *testing.T) {
	clock := newFakeClock()
	src := newFakeSource(clock)
	c := newTestClient(src, clock)
	ctx := context.Background()
	w := contracts.WindowFor(contracts.ModeToday, clock.Now())

	_, err := c.Fetch(ctx, contracts.KindDailyPrice, "005930", w)
	require.NoError(t, err)
	first := c.LastCall()

	// 바로 다음 호출은 1초 대기
	_, err = c.Fetch(ctx, contracts.KindMarketCap, "005930", w)
	require.NoError(t, err)
	assert.Equal(t, time.Second, c.LastCall().Sub(first))

	// 0.4초 경과 후에는 남은 0.6초만 대기
	clock.Advance(400 * time.Millisecond)
	_, err = c.Fetch(ctx, contracts.KindFundamental, "005930", w)
	require.NoError(t, err)

	require.Len(t, src.callTimes, 3)
	for i := 1; i < len(src.callTimes); i++ {
		gap := src.callTimes[i].Sub(src.callTimes[i-1])
		assert.GreaterOrEqual(t, gap, time.Second, "call %d gap", i)
	}
	slept := clock.Slept()
	require.Len(t, slept, 2)
	assert.Equal(t, time.Second, slept[0])
	assert.InDelta(t, float64(600*time.Millisecond), float64(slept[1]), float64(time.Millisecond))

	// 충분히 시간이 지났으면 대기 없음
	clock.Advance(10 * time.Second)
	_, err = c.Fetch(ctx, contracts.KindTrading, "005930", w)
	require.NoError(t, err)
	assert.Len(t, clock.Slept(), 2)
}

func TestRateLimitedClient_InstancesIndependent(t *testing.T) {
	clock := newFakeClock()
	a := newTestClient(newFakeSource(clock), clock)
	b := newTestClient(newFakeSource(clock), clock)
	w := contracts.WindowFor(contracts.ModeToday, clock.Now())

	_, err := a.Fetch(context.Background(), contracts.KindDailyPrice, "005930", w)
	require.NoError(t, err)
	_, err = b.Fetch(context.Background(), contracts.KindDailyPrice, "005930", w)
	require.NoError(t, err)

	assert.Empty(t, clock.Slept(), "separate clients must not share the last-call time")
}

func TestRateLimitedClient_RetryThenSuccess(t *testing.T) {
	clock := newFakeClock()
	src := newFakeSource(clock)
	attempts := 0
	src.OHLCVFunc = func(string, contracts.Window) (*contracts.Table, error) {
		attempts++
		if attempts < testProvider.MaxRetries {
			return nil, errors.New("connection reset")
		}
		tbl := &contracts.Table{}
		tbl.Append(clock.Now(), map[string]float64{"종가": 1})
		return tbl, nil
	}
	c := newTestClient(src, clock)

	table, err := c.Fetch(context.Background(), contracts.KindDailyPrice, "005930", contracts.WindowFor(contracts.ModeToday, clock.Now()))
	require.NoError(t, err)
	assert.Equal(t, 1, table.Len())
	assert.Equal(t, testProvider.MaxRetries, attempts)

	// 재시도 간격 5초, 재시도 전 rate limit은 이미 충족
	assert.Equal(t, []time.Duration{5 * time.Second, 5 * time.Second}, clock.Slept())
}

func TestRateLimitedClient_AlwaysFails(t *testing.T) {
	clock := newFakeClock()
	src := newFakeSource(clock)
	boom := errors.New("KRX API returned status 500")
	src.FundamentalFunc = func(string, contracts.Window) (*contracts.Table, error) {
		return nil, boom
	}
	c := newTestClient(src, clock)

	_, err := c.Fetch(context.Background(), contracts.KindFundamental, "005930", contracts.WindowFor(contracts.ModeToday, clock.Now()))
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, testProvider.MaxRetries, src.calls[contracts.KindFundamental])
}

func TestRateLimitedClient_OptionalKindsDegrade(t *testing.T) {
	for _, kind := range []contracts.DataKind{contracts.KindShortSelling, contracts.KindShortBalance} {
		t.Run(string(kind), func(t *testing.T) {
			clock := newFakeClock()
			src := newFakeSource(clock)
			fail := func(string, contracts.Window) (*contracts.Table, error) {
				return nil, errors.New("not supported")
			}
			src.ShortVolumeFunc, src.ShortBalanceFunc = fail, fail
			c := newTestClient(src, clock)

			table, err := c.Fetch(context.Background(), kind, "005930", contracts.WindowFor(contracts.ModeToday, clock.Now()))
			require.NoError(t, err)
			assert.True(t, table.Empty())
			assert.Equal(t, testProvider.MaxRetries, src.calls[kind])
		})
	}
}

func TestRateLimitedClient_UnknownKind(t *testing.T) {
	clock := newFakeClock()
	c := newTestClient(newFakeSource(clock), clock)

	_, err := c.Fetch(context.Background(), contracts.DataKind("dividends"), "005930", contracts.Window{})
	assert.Error(t, err)
}
