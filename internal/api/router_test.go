package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/krxdaily/internal/api/handlers"
	"github.com/wonny/krxdaily/internal/contracts"
	"github.com/wonny/krxdaily/internal/report"
	"github.com/wonny/krxdaily/internal/s0_data"
	"github.com/wonny/krxdaily/pkg/logger"
)

func day(d int) time.Time {
	return time.Date(2025, 12, d, 0, 0, 0, 0, time.UTC)
}

func ptrInt(v int64) *int64 { return &v }

func newTestRouter(t *testing.T) (http.Handler, string) {
	t.Helper()
	ctx := context.Background()

	store := s0_data.NewMemoryStore()
	_, err := store.EnsureSecurity(ctx, contracts.Security{Ticker: "267260", Name: "HD현대일렉트릭", Market: "KOSPI"})
	require.NoError(t, err)

	for d := 1; d <= 4; d++ {
		_, err := store.InsertRecord(ctx, contracts.DailyPrice{
			RowKey: contracts.RowKey{Ticker: "267260", Date: day(d)},
			Open:   100, High: 110, Low: 90, Close: int64(100 + d), Volume: 1000,
		})
		require.NoError(t, err)
		_, err = store.InsertRecord(ctx, contracts.InvestorTrading{
			RowKey:       contracts.RowKey{Ticker: "267260", Date: day(d)},
			ForeignerNet: ptrInt(int64(d) * 1e8),
		})
		require.NoError(t, err)
	}

	dir := t.TempDir()
	_, err = report.Save(dir, day(4), "📋 일일 투자 리포트\n")
	require.NoError(t, err)

	log := logger.Nop()
	return NewRouter(handlers.NewStockHandler(store, log), handlers.NewReportHandler(dir, log), log), dir
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

type envelope struct {
	Success bool            `json:"success"`
	Count   int             `json:"count"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env
}

func TestHealth(t *testing.T) {
	h, _ := newTestRouter(t)
	rec := get(t, h, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestStocks(t *testing.T) {
	h, _ := newTestRouter(t)

	rec := get(t, h, "/api/stocks")
	require.Equal(t, http.StatusOK, rec.Code)
	env := decode(t, rec)
	assert.True(t, env.Success)
	assert.Equal(t, 1, env.Count)

	rec = get(t, h, "/api/stocks/267260")
	require.Equal(t, http.StatusOK, rec.Code)
	var detail struct {
		Ticker      string `json:"ticker"`
		LatestPrice struct {
			Close int64 `json:"close"`
		} `json:"latest_price"`
	}
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &detail))
	assert.Equal(t, "267260", detail.Ticker)
	assert.Equal(t, int64(104), detail.LatestPrice.Close)

	rec = get(t, h, "/api/stocks/000000")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPrices(t *testing.T) {
	h, _ := newTestRouter(t)

	tests := []struct {
		name   string
		query  string
		status int
		count  int
	}{
		{"all", "", http.StatusOK, 4},
		{"range", "?from=20251202&to=20251203", http.StatusOK, 2},
		{"open end", "?from=20251203", http.StatusOK, 2},
		{"bad date", "?from=2025-12-01", http.StatusBadRequest, 0},
		{"reversed", "?from=20251204&to=20251201", http.StatusBadRequest, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, h, "/api/stocks/267260/prices"+tt.query)
			require.Equal(t, tt.status, rec.Code, rec.Body.String())
			if tt.status != http.StatusOK {
				assert.NotEmpty(t, decode(t, rec).Error)
				return
			}
			var prices []contracts.DailyPrice
			require.NoError(t, json.Unmarshal(decode(t, rec).Data, &prices))
			assert.Len(t, prices, tt.count)
		})
	}
}

func TestFundamentalsEmpty(t *testing.T) {
	h, _ := newTestRouter(t)
	rec := get(t, h, "/api/stocks/267260/fundamentals")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode(t, rec).Success)
}

func TestInvestors(t *testing.T) {
	h, _ := newTestRouter(t)

	rec := get(t, h, "/api/stocks/267260/investors?days=2")
	require.Equal(t, http.StatusOK, rec.Code)
	var flows []contracts.InvestorTrading
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &flows))
	require.Len(t, flows, 2)
	assert.Equal(t, int64(4e8), *flows[0].ForeignerNet, "newest first")

	rec = get(t, h, "/api/stocks/267260/investors?days=zero")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReports(t *testing.T) {
	h, _ := newTestRouter(t)

	rec := get(t, h, "/api/reports/20251204")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/plain"))
	assert.Contains(t, rec.Body.String(), "일일 투자 리포트")

	assert.Equal(t, http.StatusNotFound, get(t, h, "/api/reports/20251205").Code)
	assert.Equal(t, http.StatusBadRequest, get(t, h, "/api/reports/2025120").Code)
}
