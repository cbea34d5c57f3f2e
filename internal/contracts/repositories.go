package contracts

import (
	"context"
	"time"
)

// ⭐ SSOT: 저장 레코드 / Repository 인터페이스 정의는 여기서만

// Security is one listed stock. Created once, never updated by the pipeline.
type Security struct {
	Ticker    string    `json:"ticker"`
	Name      string    `json:"name"`
	Market    string    `json:"market"` // KOSPI, KOSDAQ, KONEX
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RowKey is the (ticker, date) uniqueness key shared by all time-series records
type RowKey struct {
	Ticker string    `json:"ticker"`
	Date   time.Time `json:"date"`
}

// Key returns the record's uniqueness key
func (k RowKey) Key() RowKey { return k }

// Record is any of the six time-series records
type Record interface {
	Kind() DataKind
	Key() RowKey
}

// DailyPrice is an OHLCV row (원, 주)
type DailyPrice struct {
	RowKey
	Open   int64 `json:"open"`
	High   int64 `json:"high"`
	Low    int64 `json:"low"`
	Close  int64 `json:"close"`
	Volume int64 `json:"volume"`
}

func (DailyPrice) Kind() DataKind { return KindDailyPrice }

// ChangeRate returns (close-open)/open*100, 0 when open is 0
func (p DailyPrice) ChangeRate() float64 {
	if p.Open == 0 {
		return 0
	}
	return float64(p.Close-p.Open) / float64(p.Open) * 100
}

// MarketCap is a market capitalization row
type MarketCap struct {
	RowKey
	MarketCap         int64 `json:"market_cap"`
	TradingVolume     int64 `json:"trading_volume"`
	TradingValue      int64 `json:"trading_value"`
	OutstandingShares int64 `json:"outstanding_shares"`
}

func (MarketCap) Kind() DataKind { return KindMarketCap }

// Fundamental holds valuation ratios; any field may be missing
type Fundamental struct {
	RowKey
	BPS *int64   `json:"bps"`
	PER *float64 `json:"per"`
	PBR *float64 `json:"pbr"`
	EPS *int64   `json:"eps"`
	DIV *float64 `json:"div"` // 배당수익률
	DPS *int64   `json:"dps"`
}

func (Fundamental) Kind() DataKind { return KindFundamental }

// InvestorTrading holds net-buy amounts per investor type (원)
type InvestorTrading struct {
	RowKey
	InstitutionNet   *int64 `json:"institution_net"`
	ForeignerNet     *int64 `json:"foreigner_net"`
	IndividualNet    *int64 `json:"individual_net"`
	FinancialNet     *int64 `json:"financial_net"`      // 금융투자
	InsuranceNet     *int64 `json:"insurance_net"`      // 보험
	TrustNet         *int64 `json:"trust_net"`          // 투신
	PrivateEquityNet *int64 `json:"private_equity_net"` // 사모
	PensionNet       *int64 `json:"pension_net"`        // 연기금
}

func (InvestorTrading) Kind() DataKind { return KindTrading }

// ShortSelling is a daily short-selling volume row
type ShortSelling struct {
	RowKey
	ShortVolume *int64 `json:"short_volume"`
	ShortValue  *int64 `json:"short_value"`
}

func (ShortSelling) Kind() DataKind { return KindShortSelling }

// ShortBalance is a short-selling balance row
type ShortBalance struct {
	RowKey
	BalanceQuantity *int64   `json:"balance_quantity"`
	BalanceValue    *int64   `json:"balance_value"`
	BalanceRatio    *float64 `json:"balance_ratio"`
}

func (ShortBalance) Kind() DataKind { return KindShortBalance }

// RowOutcome is the result of writing one record
type RowOutcome int

const (
	RowSaved     RowOutcome = iota // committed
	RowDuplicate                   // (ticker, date) already present, nothing written
	RowFailed                      // any other error, rolled back
)

func (o RowOutcome) String() string {
	switch o {
	case RowSaved:
		return "saved"
	case RowDuplicate:
		return "duplicate"
	default:
		return "failed"
	}
}

// RecordWriter persists single records, each in its own transaction.
// 저장소 종류와 무관하게 결과를 RowOutcome으로 돌려준다
type RecordWriter interface {
	// EnsureSecurity creates the security if absent and returns the stored row unchanged otherwise.
	EnsureSecurity(ctx context.Context, sec Security) (*Security, error)
	InsertRecord(ctx context.Context, rec Record) (RowOutcome, error)
}

// PriceLookup answers latest-price questions for the skip decision
type PriceLookup interface {
	GetLatestPrice(ctx context.Context, ticker string) (*DailyPrice, error)
}

// StockReader is the read side used by reports and the API
type StockReader interface {
	PriceLookup
	GetStock(ctx context.Context, ticker string) (*Security, error)
	GetAllStocks(ctx context.Context) ([]Security, error)
	GetDailyPrices(ctx context.Context, ticker string, from, to *time.Time) ([]DailyPrice, error)
	GetMarketCaps(ctx context.Context, ticker string, from, to *time.Time) ([]MarketCap, error)
	GetFundamentals(ctx context.Context, ticker string, from, to *time.Time) ([]Fundamental, error)
	GetTradingByInvestor(ctx context.Context, ticker string, from, to *time.Time) ([]InvestorTrading, error)
	GetForeignNetBuyingDays(ctx context.Context, ticker string, days int) ([]InvestorTrading, error)
}
