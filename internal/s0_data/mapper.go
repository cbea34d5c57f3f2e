package s0_data

import (
	"errors"
	"fmt"
	"math"

	"github.com/wonny/krxdaily/internal/contracts"
)

// ErrMissingValue is returned when a non-null column is absent or NaN
var ErrMissingValue = errors.New("missing required value")

// RowMapper builds one record from a provider row.
// ⭐ SSOT: 제공자 컬럼명 → 레코드 필드 매핑은 여기서만
type RowMapper func(ticker string, row contracts.Row) (contracts.Record, error)

// Mappers holds the row mapper for every data kind
var Mappers = map[contracts.DataKind]RowMapper{
	contracts.KindDailyPrice:   mapDailyPrice,
	contracts.KindMarketCap:    mapMarketCap,
	contracts.KindFundamental:  mapFundamental,
	contracts.KindTrading:      mapInvestorTrading,
	contracts.KindShortSelling: mapShortSelling,
	contracts.KindShortBalance: mapShortBalance,
}

func key(ticker string, row contracts.Row) contracts.RowKey {
	return contracts.RowKey{Ticker: ticker, Date: contracts.DateOf(row.Date)}
}

// required reads a non-null integer column
func required(row contracts.Row, column string) (int64, error) {
	v, ok := row.Value(column)
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrMissingValue, column)
	}
	return toInt(v), nil
}

// optionalInt reads a nullable integer column (nil when missing)
func optionalInt(row contracts.Row, column string) *int64 {
	v, ok := row.Value(column)
	if !ok {
		return nil
	}
	n := toInt(v)
	return &n
}

// optionalFloat reads a nullable ratio column (nil when missing)
func optionalFloat(row contracts.Row, column string) *float64 {
	v, ok := row.Value(column)
	if !ok {
		return nil
	}
	return &v
}

// toInt truncates toward zero, like int(float) on the provider's float columns
func toInt(v float64) int64 {
	return int64(math.Trunc(v))
}

func mapDailyPrice(ticker string, row contracts.Row) (contracts.Record, error) {
	rec := contracts.DailyPrice{RowKey: key(ticker, row)}
	fields := []struct {
		column string
		dst    *int64
	}{
		{"시가", &rec.Open},
		{"고가", &rec.High},
		{"저가", &rec.Low},
		{"종가", &rec.Close},
		{"거래량", &rec.Volume},
	}
	for _, f := range fields {
		v, err := required(row, f.column)
		if err != nil {
			return nil, err
		}
		*f.dst = v
	}
	return rec, nil
}

func mapMarketCap(ticker string, row contracts.Row) (contracts.Record, error) {
	rec := contracts.MarketCap{RowKey: key(ticker, row)}
	fields := []struct {
		column string
		dst    *int64
	}{
		{"시가총액", &rec.MarketCap},
		{"거래량", &rec.TradingVolume},
		{"거래대금", &rec.TradingValue},
		{"상장주식수", &rec.OutstandingShares},
	}
	for _, f := range fields {
		v, err := required(row, f.column)
		if err != nil {
			return nil, err
		}
		*f.dst = v
	}
	return rec, nil
}

func mapFundamental(ticker string, row contracts.Row) (contracts.Record, error) {
	return contracts.Fundamental{
		RowKey: key(ticker, row),
		BPS:    optionalInt(row, "BPS"),
		PER:    optionalFloat(row, "PER"),
		PBR:    optionalFloat(row, "PBR"),
		EPS:    optionalInt(row, "EPS"),
		DIV:    optionalFloat(row, "DIV"),
		DPS:    optionalInt(row, "DPS"),
	}, nil
}

func mapInvestorTrading(ticker string, row contracts.Row) (contracts.Record, error) {
	return contracts.InvestorTrading{
		RowKey:           key(ticker, row),
		InstitutionNet:   optionalInt(row, "기관합계"),
		ForeignerNet:     optionalInt(row, "외국인합계"),
		IndividualNet:    optionalInt(row, "개인"),
		FinancialNet:     optionalInt(row, "금융투자"),
		InsuranceNet:     optionalInt(row, "보험"),
		TrustNet:         optionalInt(row, "투신"),
		PrivateEquityNet: optionalInt(row, "사모"),
		PensionNet:       optionalInt(row, "연기금"),
	}, nil
}

func mapShortSelling(ticker string, row contracts.Row) (contracts.Record, error) {
	return contracts.ShortSelling{
		RowKey:      key(ticker, row),
		ShortVolume: optionalInt(row, "거래량"),
		ShortValue:  optionalInt(row, "거래대금"),
	}, nil
}

func mapShortBalance(ticker string, row contracts.Row) (contracts.Record, error) {
	return contracts.ShortBalance{
		RowKey:          key(ticker, row),
		BalanceQuantity: optionalInt(row, "잔고수량"),
		BalanceValue:    optionalInt(row, "잔고금액"),
		BalanceRatio:    optionalFloat(row, "잔고비율"),
	}, nil
}
