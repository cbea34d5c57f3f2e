package krx

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/alphadose/haxmap"
	"github.com/go-resty/resty/v2"
	"github.com/goccy/go-json"

	"github.com/wonny/krxdaily/pkg/config"
	"github.com/wonny/krxdaily/pkg/logger"
)

const jsonDataPath = "/comm/bldAttendant/getJsonData.cmd"

// ErrUnexpectedResponse is returned when a KRX response has no known data block
var ErrUnexpectedResponse = errors.New("unexpected KRX response")

// responseBlocks are the keys KRX uses for the row array, depending on the screen
var responseBlocks = []string{"OutBlock_1", "output", "block1"}

// Client talks to the KRX market data service (data.krx.co.kr).
// 재시도/호출 간격은 collector 쪽 RateLimitedClient가 담당, 여기서는 단일 요청만
// ⭐ SSOT: KRX 시장 데이터 호출은 이 클라이언트에서만
type Client struct {
	http   *resty.Client
	logger *logger.Logger
	isin   *haxmap.Map[string, string] // ticker → 표준코드(ISIN)
}

// NewClient creates a KRX client
func NewClient(cfg config.ProviderConfig, log *logger.Logger) *Client {
	httpClient := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetHeaders(map[string]string{
			// KRX blocks bot-looking requests
			"User-Agent":      "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			"Accept":          "application/json, text/javascript, */*; q=0.01",
			"Accept-Language": "ko-KR,ko;q=0.9,en-US;q=0.8,en;q=0.7",
			"Origin":          cfg.BaseURL,
			"Referer":         cfg.BaseURL + "/contents/MDC/MDI/mdiLoader/index.cmd",
		})

	return &Client{
		http:   httpClient,
		logger: log.WithField("module", "krx"),
		isin:   haxmap.New[string, string](),
	}
}

// post calls one KRX screen (bld) and returns its row block.
// An empty block is a valid empty result.
func (c *Client) post(ctx context.Context, bld string, params map[string]string) ([]map[string]interface{}, error) {
	form := map[string]string{
		"bld":         bld,
		"locale":      "ko_KR",
		"csvxls_isNo": "false",
	}
	for k, v := range params {
		form[k] = v
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetFormData(form).
		Post(jsonDataPath)
	if err != nil {
		return nil, fmt.Errorf("KRX API request: %w", err)
	}

	body := resp.Body()
	c.logger.WithFields(map[string]interface{}{
		"bld":         bld,
		"status_code": resp.StatusCode(),
		"body_size":   len(body),
	}).Debug("KRX API response received")

	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("KRX API returned status %d: %s", resp.StatusCode(), preview(body, 200))
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		c.logger.WithField("response_preview", preview(body, 500)).Error("Failed to parse KRX response")
		return nil, fmt.Errorf("decode KRX response: %w", err)
	}

	for _, key := range responseBlocks {
		raw, ok := envelope[key]
		if !ok {
			continue
		}
		var rows []map[string]interface{}
		if err := json.Unmarshal(raw, &rows); err != nil {
			return nil, fmt.Errorf("decode KRX %s block: %w", key, err)
		}
		return rows, nil
	}

	return nil, fmt.Errorf("%w: bld=%s body=%s", ErrUnexpectedResponse, bld, preview(body, 200))
}

// resolveISIN maps a short ticker (005930) to the ISIN (KR7005930003) KRX screens expect
func (c *Client) resolveISIN(ctx context.Context, ticker string) (string, error) {
	if isin, ok := c.isin.Get(ticker); ok {
		return isin, nil
	}

	rows, err := c.post(ctx, "dbms/comm/finder/finder_stkisu", map[string]string{
		"mktsel":     "ALL",
		"searchText": ticker,
		"typeNo":     "0",
	})
	if err != nil {
		return "", fmt.Errorf("resolve ISIN %s: %w", ticker, err)
	}

	for _, row := range rows {
		if str(row["short_code"]) == ticker {
			isin := str(row["full_code"])
			c.isin.Set(ticker, isin)
			return isin, nil
		}
	}

	return "", fmt.Errorf("resolve ISIN %s: ticker not listed", ticker)
}

func preview(body []byte, n int) string {
	if len(body) > n {
		return string(body[:n])
	}
	return string(body)
}
