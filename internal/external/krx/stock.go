package krx

import (
	"context"
	"fmt"

	"github.com/wonny/krxdaily/internal/contracts"
)

var _ contracts.MarketDataSource = (*Client)(nil)

// column maps a KRX response field to the table column name consumers read
type column struct {
	field string
	name  string
}

// screen describes one per-ticker KRX statistics screen
type screen struct {
	bld       string
	dateField string
	params    map[string]string
	columns   []column
	derive    func(values map[string]float64) // 파생 컬럼 (합계 등)
}

// 개별종목 시세 추이 (OHLCV + 시가총액)
var ohlcvScreen = screen{
	bld:       "dbms/MDC/STAT/standard/MDCSTAT01701",
	dateField: "TRD_DD",
	params:    map[string]string{"adjStkPrc": "2", "share": "1", "money": "1"},
	columns: []column{
		{"TDD_OPNPRC", "시가"},
		{"TDD_HGPRC", "고가"},
		{"TDD_LWPRC", "저가"},
		{"TDD_CLSPRC", "종가"},
		{"ACC_TRDVOL", "거래량"},
		{"ACC_TRDVAL", "거래대금"},
	},
}

var marketCapScreen = screen{
	bld:       "dbms/MDC/STAT/standard/MDCSTAT01701",
	dateField: "TRD_DD",
	params:    map[string]string{"adjStkPrc": "2", "share": "1", "money": "1"},
	columns: []column{
		{"MKTCAP", "시가총액"},
		{"ACC_TRDVOL", "거래량"},
		{"ACC_TRDVAL", "거래대금"},
		{"LIST_SHRS", "상장주식수"},
	},
}

// PER/PBR/배당수익률 (개별종목)
var fundamentalScreen = screen{
	bld:       "dbms/MDC/STAT/standard/MDCSTAT03502",
	dateField: "TRD_DD",
	params:    map[string]string{"searchType": "2", "mktId": "ALL"},
	columns: []column{
		{"BPS", "BPS"},
		{"PER", "PER"},
		{"PBR", "PBR"},
		{"EPS", "EPS"},
		{"DVD_YLD", "DIV"},
		{"DPS", "DPS"},
	},
}

// 투자자별 거래실적 (개별종목, 상세, 순매수 거래대금)
var investorScreen = screen{
	bld:       "dbms/MDC/STAT/standard/MDCSTAT02303",
	dateField: "TRD_DD",
	params:    map[string]string{"inqTpCd": "2", "trdVolVal": "2", "askBid": "3"},
	columns: []column{
		{"TRDVAL1", "금융투자"},
		{"TRDVAL2", "보험"},
		{"TRDVAL3", "투신"},
		{"TRDVAL4", "사모"},
		{"TRDVAL5", "은행"},
		{"TRDVAL6", "기타금융"},
		{"TRDVAL7", "연기금"},
		{"TRDVAL8", "기타법인"},
		{"TRDVAL9", "개인"},
		{"TRDVAL10", "외국인"},
		{"TRDVAL11", "기타외국인"},
	},
	derive: func(v map[string]float64) {
		v["기관합계"] = sumPresent(v, "금융투자", "보험", "투신", "사모", "은행", "기타금융", "연기금")
		v["외국인합계"] = sumPresent(v, "외국인", "기타외국인")
	},
}

// 공매도 거래 (개별종목)
var shortVolumeScreen = screen{
	bld:       "dbms/MDC/STAT/srt/MDCSTAT30102",
	dateField: "TRD_DD",
	params:    map[string]string{"share": "1", "money": "1"},
	columns: []column{
		{"CVSRTSELL_TRDVOL", "거래량"},
		{"CVSRTSELL_TRDVAL", "거래대금"},
	},
}

// 공매도 잔고 (개별종목)
var shortBalanceScreen = screen{
	bld:       "dbms/MDC/STAT/srt/MDCSTAT30502",
	dateField: "RPT_DUTY_OCCR_DD",
	columns: []column{
		{"BAL_QTY", "잔고수량"},
		{"BAL_AMT", "잔고금액"},
		{"BAL_RTO", "잔고비율"},
	},
}

// FetchOHLCV returns 시가/고가/저가/종가/거래량 rows for ticker over w
func (c *Client) FetchOHLCV(ctx context.Context, ticker string, w contracts.Window) (*contracts.Table, error) {
	return c.fetchScreen(ctx, ohlcvScreen, ticker, w)
}

// FetchMarketCap returns 시가총액/거래량/거래대금/상장주식수 rows
func (c *Client) FetchMarketCap(ctx context.Context, ticker string, w contracts.Window) (*contracts.Table, error) {
	return c.fetchScreen(ctx, marketCapScreen, ticker, w)
}

// FetchFundamental returns BPS/PER/PBR/EPS/DIV/DPS rows
func (c *Client) FetchFundamental(ctx context.Context, ticker string, w contracts.Window) (*contracts.Table, error) {
	return c.fetchScreen(ctx, fundamentalScreen, ticker, w)
}

// FetchTradingByInvestor returns net-buy value per investor type
func (c *Client) FetchTradingByInvestor(ctx context.Context, ticker string, w contracts.Window) (*contracts.Table, error) {
	return c.fetchScreen(ctx, investorScreen, ticker, w)
}

// FetchShortVolume returns short-selling 거래량/거래대금 rows
func (c *Client) FetchShortVolume(ctx context.Context, ticker string, w contracts.Window) (*contracts.Table, error) {
	return c.fetchScreen(ctx, shortVolumeScreen, ticker, w)
}

// FetchShortBalance returns short-selling 잔고수량/잔고금액/잔고비율 rows
func (c *Client) FetchShortBalance(ctx context.Context, ticker string, w contracts.Window) (*contracts.Table, error) {
	return c.fetchScreen(ctx, shortBalanceScreen, ticker, w)
}

func (c *Client) fetchScreen(ctx context.Context, s screen, ticker string, w contracts.Window) (*contracts.Table, error) {
	isin, err := c.resolveISIN(ctx, ticker)
	if err != nil {
		return nil, err
	}

	params := map[string]string{
		"isuCd":  isin,
		"strtDd": contracts.FormatDate(w.From),
		"endDd":  contracts.FormatDate(w.To),
	}
	for k, v := range s.params {
		params[k] = v
	}

	rows, err := c.post(ctx, s.bld, params)
	if err != nil {
		return nil, err
	}

	table, err := toTable(rows, s)
	if err != nil {
		return nil, fmt.Errorf("parse %s rows for %s: %w", s.bld, ticker, err)
	}

	c.logger.WithFields(map[string]interface{}{
		"ticker": ticker,
		"bld":    s.bld,
		"window": w.String(),
		"rows":   table.Len(),
	}).Debug("Fetched KRX screen")

	return table, nil
}

// toTable converts KRX rows into a date-ascending Table using the screen's column map
func toTable(rows []map[string]interface{}, s screen) (*contracts.Table, error) {
	table := &contracts.Table{}
	for _, row := range rows {
		date, err := parseKRXDate(str(row[s.dateField]))
		if err != nil {
			return nil, err
		}

		values := make(map[string]float64, len(s.columns)+2)
		for _, col := range s.columns {
			raw, ok := row[col.field]
			if !ok {
				continue // 컬럼 없음 → Row.Value에서 missing
			}
			values[col.name] = parseKRXNumber(str(raw))
		}
		if s.derive != nil {
			s.derive(values)
		}

		table.Append(date, values)
	}
	table.SortByDate()
	return table, nil
}
