package naver

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"golang.org/x/text/encoding/korean"

	"github.com/wonny/krxdaily/internal/contracts"
	"github.com/wonny/krxdaily/pkg/config"
	"github.com/wonny/krxdaily/pkg/logger"
)

// ErrNotFound is returned when the item page has no company block
var ErrNotFound = errors.New("stock not found on Naver Finance")

// Client handles communication with Naver Finance
// ⭐ SSOT: Naver Finance 호출은 이 클라이언트에서만
type Client struct {
	http   *resty.Client
	logger *logger.Logger
}

// NewClient creates a new Naver Finance client
func NewClient(cfg config.ProviderConfig, log *logger.Logger) *Client {
	httpClient := resty.New().
		SetBaseURL(cfg.NaverURL).
		SetTimeout(cfg.Timeout).
		SetHeader("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36").
		SetHeader("Referer", "https://finance.naver.com/")

	return &Client{
		http:   httpClient,
		logger: log.WithField("module", "naver"),
	}
}

// LookupSecurity resolves a ticker's name and market from the Naver item page
func (c *Client) LookupSecurity(ctx context.Context, ticker string) (*contracts.Security, error) {
	html, err := c.fetchHTML(ctx, "/item/main.naver", map[string]string{"code": ticker})
	if err != nil {
		return nil, fmt.Errorf("lookup %s: %w", ticker, err)
	}

	sec, err := parseItemPage(html)
	if err != nil {
		return nil, fmt.Errorf("lookup %s: %w", ticker, err)
	}
	sec.Ticker = ticker

	c.logger.WithFields(map[string]interface{}{
		"ticker": ticker,
		"name":   sec.Name,
		"market": sec.Market,
	}).Debug("Resolved security from Naver")

	return sec, nil
}

// fetchHTML fetches a page and returns it as UTF-8.
// 종목 페이지는 EUC-KR로 내려온다
func (c *Client) fetchHTML(ctx context.Context, path string, params map[string]string) ([]byte, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(params).
		Get(path)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}

	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode())
	}

	body := resp.Body()
	if isEUCKR(resp.Header().Get("Content-Type"), body) {
		decoded, err := korean.EUCKR.NewDecoder().Bytes(body)
		if err != nil {
			return nil, fmt.Errorf("decode EUC-KR: %w", err)
		}
		return decoded, nil
	}
	return body, nil
}

func isEUCKR(contentType string, body []byte) bool {
	if strings.Contains(strings.ToLower(contentType), "euc-kr") {
		return true
	}
	head := body
	if len(head) > 1024 {
		head = head[:1024]
	}
	return bytes.Contains(bytes.ToLower(head), []byte("charset=euc-kr"))
}

// parseItemPage extracts name + market from the company header:
//
//	<div class="wrap_company"><h2><a>삼성전자</a></h2>
//	  <div class="description"><span class="code">005930</span><img class="kospi" alt="코스피">
func parseItemPage(html []byte) (*contracts.Security, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse HTML: %w", err)
	}

	company := doc.Find("div.wrap_company")
	name := strings.TrimSpace(company.Find("h2 a").First().Text())
	if name == "" {
		return nil, ErrNotFound
	}

	market := ""
	desc := company.Find("div.description")
	switch {
	case desc.Find("img.kospi").Length() > 0:
		market = "KOSPI"
	case desc.Find("img.kosdaq").Length() > 0:
		market = "KOSDAQ"
	case desc.Find("img.konex").Length() > 0:
		market = "KONEX"
	default:
		return nil, fmt.Errorf("unknown market for %s", name)
	}

	return &contracts.Security{Name: name, Market: market}, nil
}
