package krx

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/wonny/krxdaily/internal/contracts"
)

var _ contracts.MarketSource = (*Client)(nil)

// Index codes understood by FetchIndexOHLCV
const (
	IndexKOSPI  = "1001"
	IndexKOSDAQ = "2001"
)

// indexIDs maps an index code to the KRX (indIdx, indIdx2) pair
var indexIDs = map[string][2]string{
	IndexKOSPI:  {"1", "001"},
	IndexKOSDAQ: {"2", "001"},
}

// marketIDs maps a market name to the KRX mktId
var marketIDs = map[string]string{
	"KOSPI":  "STK",
	"KOSDAQ": "KSQ",
}

// FetchIndexOHLCV fetches daily bars for a market index (1001 KOSPI, 2001 KOSDAQ)
func (c *Client) FetchIndexOHLCV(ctx context.Context, indexCode string, w contracts.Window) ([]contracts.IndexBar, error) {
	ids, ok := indexIDs[indexCode]
	if !ok {
		return nil, fmt.Errorf("unsupported index: %s", indexCode)
	}

	rows, err := c.post(ctx, "dbms/MDC/STAT/standard/MDCSTAT00301", map[string]string{
		"indIdx":  ids[0],
		"indIdx2": ids[1],
		"strtDd":  contracts.FormatDate(w.From),
		"endDd":   contracts.FormatDate(w.To),
	})
	if err != nil {
		return nil, fmt.Errorf("fetch index %s: %w", indexCode, err)
	}

	bars := make([]contracts.IndexBar, 0, len(rows))
	for _, row := range rows {
		date, err := parseKRXDate(str(row["TRD_DD"]))
		if err != nil {
			return nil, fmt.Errorf("fetch index %s: %w", indexCode, err)
		}
		closePrice := parseKRXNumber(str(row["CLSPRC_IDX"]))
		if math.IsNaN(closePrice) {
			continue // 휴장일 등 종가 없음
		}
		bars = append(bars, contracts.IndexBar{
			Date:   contracts.DateOf(date),
			Open:   orZero(parseKRXNumber(str(row["OPNPRC_IDX"]))),
			High:   orZero(parseKRXNumber(str(row["HGPRC_IDX"]))),
			Low:    orZero(parseKRXNumber(str(row["LWPRC_IDX"]))),
			Close:  closePrice,
			Volume: int64(orZero(parseKRXNumber(str(row["ACC_TRDVOL"])))),
			Value:  int64(orZero(parseKRXNumber(str(row["ACC_TRDVAL"])))),
		})
	}

	// KRX returns newest first
	sort.Slice(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })

	c.logger.WithFields(map[string]interface{}{
		"index":  indexCode,
		"window": w.String(),
		"count":  len(bars),
	}).Debug("Fetched index OHLCV")

	return bars, nil
}

// FetchMarketSnapshot fetches every stock's OHLCV for one market on one date.
// ⭐ SSOT: KRX 전종목 시세 조회는 이 함수에서만
func (c *Client) FetchMarketSnapshot(ctx context.Context, market string, date time.Time) ([]contracts.MarketQuote, error) {
	mktID, ok := marketIDs[strings.ToUpper(market)]
	if !ok {
		return nil, fmt.Errorf("unsupported market: %s", market)
	}

	rows, err := c.post(ctx, "dbms/MDC/STAT/standard/MDCSTAT01501", map[string]string{
		"mktId": mktID,
		"trdDd": contracts.FormatDate(date),
		"share": "1",
		"money": "1",
	})
	if err != nil {
		return nil, fmt.Errorf("fetch %s snapshot: %w", market, err)
	}

	quotes := make([]contracts.MarketQuote, 0, len(rows))
	for _, row := range rows {
		ticker := str(row["ISU_SRT_CD"])
		closePrice := parseKRXNumber(str(row["TDD_CLSPRC"]))

		// Skip if essential data is missing (거래정지 등)
		if ticker == "" || math.IsNaN(closePrice) {
			continue
		}

		quotes = append(quotes, contracts.MarketQuote{
			Ticker:    ticker,
			Name:      str(row["ISU_ABBRV"]),
			Open:      int64(orZero(parseKRXNumber(str(row["TDD_OPNPRC"])))),
			High:      int64(orZero(parseKRXNumber(str(row["TDD_HGPRC"])))),
			Low:       int64(orZero(parseKRXNumber(str(row["TDD_LWPRC"])))),
			Close:     int64(closePrice),
			Volume:    int64(orZero(parseKRXNumber(str(row["ACC_TRDVOL"])))),
			Value:     int64(orZero(parseKRXNumber(str(row["ACC_TRDVAL"])))),
			MarketCap: int64(orZero(parseKRXNumber(str(row["MKTCAP"])))),
		})
	}

	c.logger.WithFields(map[string]interface{}{
		"market":     market,
		"trade_date": contracts.FormatDate(date),
		"count":      len(quotes),
	}).Info("Fetched market snapshot from KRX")

	return quotes, nil
}

func orZero(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return v
}
