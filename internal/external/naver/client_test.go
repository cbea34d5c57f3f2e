package naver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/korean"

	"github.com/wonny/krxdaily/pkg/config"
	"github.com/wonny/krxdaily/pkg/logger"
)

const itemPage = `<html><head><meta http-equiv="Content-Type" content="text/html; charset=euc-kr"></head>
<body>
<div class="wrap_company">
  <h2><a href="#">%NAME%</a></h2>
  <div class="description">
    <span class="code">267260</span>
    <img src="https://ssl.pstatic.net/imgstock/item/%MKT%.gif" class="%MKT%" alt="">
  </div>
</div>
</body></html>`

func page(name, market string) string {
	return strings.NewReplacer("%NAME%", name, "%MKT%", market).Replace(itemPage)
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(config.ProviderConfig{NaverURL: srv.URL, Timeout: 5 * time.Second}, logger.Nop())
}

func TestLookupSecurity(t *testing.T) {
	tests := []struct {
		name       string
		market     string
		wantMarket string
	}{
		{"HD현대일렉트릭", "kospi", "KOSPI"},
		{"에코프로비엠", "kosdaq", "KOSDAQ"},
	}

	for _, tt := range tests {
		t.Run(tt.wantMarket, func(t *testing.T) {
			encoded, err := korean.EUCKR.NewEncoder().String(page(tt.name, tt.market))
			require.NoError(t, err)

			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/item/main.naver", r.URL.Path)
				assert.Equal(t, "267260", r.URL.Query().Get("code"))
				w.Header().Set("Content-Type", "text/html;charset=EUC-KR")
				_, _ = w.Write([]byte(encoded))
			})

			sec, err := c.LookupSecurity(context.Background(), "267260")
			require.NoError(t, err)
			assert.Equal(t, "267260", sec.Ticker)
			assert.Equal(t, tt.name, sec.Name)
			assert.Equal(t, tt.wantMarket, sec.Market)
		})
	}
}

func TestLookupSecurityUTF8(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		body := strings.Replace(page("현대로템", "kospi"), "charset=euc-kr", "charset=utf-8", 1)
		_, _ = w.Write([]byte(body))
	})

	sec, err := c.LookupSecurity(context.Background(), "064350")
	require.NoError(t, err)
	assert.Equal(t, "현대로템", sec.Name)
}

func TestLookupSecurityErrors(t *testing.T) {
	t.Run("no company block", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("<html><body>없는 종목</body></html>"))
		})
		_, err := c.LookupSecurity(context.Background(), "000000")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("status", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
		_, err := c.LookupSecurity(context.Background(), "005930")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "503")
	})
}
