package quality

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/krxdaily/internal/contracts"
	"github.com/wonny/krxdaily/pkg/logger"
)

// Config holds quality gate thresholds
type Config struct {
	MinPriceCoverage       float64 // 1.0 (100%)
	MinMarketCapCoverage   float64 // 1.0
	MinFundamentalCoverage float64 // 0.80
	MinInvestorCoverage    float64 // 0.80
}

// DefaultConfig returns the thresholds used by data-check
func DefaultConfig() Config {
	return Config{
		MinPriceCoverage:       1.0,
		MinMarketCapCoverage:   1.0,
		MinFundamentalCoverage: 0.80,
		MinInvestorCoverage:    0.80,
	}
}

// weights of the required kinds in the quality score (합계 = 1.0)
var weights = map[contracts.DataKind]float64{
	contracts.KindDailyPrice:  0.35,
	contracts.KindMarketCap:   0.25,
	contracts.KindFundamental: 0.20,
	contracts.KindTrading:     0.20,
}

// checkedKinds is the required-kind order used in output
var checkedKinds = []contracts.DataKind{
	contracts.KindDailyPrice,
	contracts.KindMarketCap,
	contracts.KindFundamental,
	contracts.KindTrading,
}

// Snapshot is the coverage of one date over a set of tickers
type Snapshot struct {
	Date         time.Time
	TotalStocks  int
	ValidStocks  int // 필수 4종이 모두 있는 종목 수
	Coverage     map[contracts.DataKind]float64
	Missing      map[string][]contracts.DataKind
	QualityScore float64
	Passed       bool
}

// Kinds returns the checked kinds in display order
func (s *Snapshot) Kinds() []contracts.DataKind {
	return checkedKinds
}

// QualityGate measures how completely the required kinds were stored for a date
// ⭐ SSOT: 수집 결과 품질 검증
type QualityGate struct {
	stocks contracts.StockReader
	config Config
	logger *logger.Logger
}

// NewQualityGate creates a new QualityGate instance
func NewQualityGate(stocks contracts.StockReader, config Config, log *logger.Logger) *QualityGate {
	return &QualityGate{
		stocks: stocks,
		config: config,
		logger: log.WithField("module", "quality"),
	}
}

// Check computes per-kind coverage of tickers on date.
// 공매도 거래/잔고는 선택 데이터라 검사하지 않는다
func (g *QualityGate) Check(ctx context.Context, tickers []string, date time.Time) (*Snapshot, error) {
	date = contracts.DateOf(date)
	snapshot := &Snapshot{
		Date:        date,
		TotalStocks: len(tickers),
		Coverage:    make(map[contracts.DataKind]float64, len(checkedKinds)),
		Missing:     make(map[string][]contracts.DataKind),
	}

	present := make(map[contracts.DataKind]int, len(checkedKinds))
	for _, ticker := range tickers {
		complete := true
		for _, kind := range checkedKinds {
			ok, err := g.hasRow(ctx, kind, ticker, date)
			if err != nil {
				return nil, fmt.Errorf("check %s coverage for %s: %w", kind, ticker, err)
			}
			if ok {
				present[kind]++
				continue
			}
			complete = false
			snapshot.Missing[ticker] = append(snapshot.Missing[ticker], kind)
		}
		if complete {
			snapshot.ValidStocks++
		}
	}

	for _, kind := range checkedKinds {
		if len(tickers) > 0 {
			snapshot.Coverage[kind] = float64(present[kind]) / float64(len(tickers))
		} else {
			snapshot.Coverage[kind] = 0
		}
	}

	snapshot.QualityScore = calculateScore(snapshot.Coverage)
	snapshot.Passed = len(tickers) > 0 && g.passes(snapshot.Coverage)

	g.logger.WithFields(map[string]interface{}{
		"date":   contracts.FormatDate(date),
		"total":  snapshot.TotalStocks,
		"valid":  snapshot.ValidStocks,
		"score":  fmt.Sprintf("%.4f", snapshot.QualityScore),
		"passed": snapshot.Passed,
	}).Info("Quality check completed")

	return snapshot, nil
}

// hasRow reports whether ticker has a kind row on date
func (g *QualityGate) hasRow(ctx context.Context, kind contracts.DataKind, ticker string, date time.Time) (bool, error) {
	from, to := date, date
	switch kind {
	case contracts.KindDailyPrice:
		rows, err := g.stocks.GetDailyPrices(ctx, ticker, &from, &to)
		return len(rows) > 0, err
	case contracts.KindMarketCap:
		rows, err := g.stocks.GetMarketCaps(ctx, ticker, &from, &to)
		return len(rows) > 0, err
	case contracts.KindFundamental:
		rows, err := g.stocks.GetFundamentals(ctx, ticker, &from, &to)
		return len(rows) > 0, err
	case contracts.KindTrading:
		rows, err := g.stocks.GetTradingByInvestor(ctx, ticker, &from, &to)
		return len(rows) > 0, err
	}
	return false, fmt.Errorf("unsupported kind %q", kind)
}

func (g *QualityGate) passes(coverage map[contracts.DataKind]float64) bool {
	return coverage[contracts.KindDailyPrice] >= g.config.MinPriceCoverage &&
		coverage[contracts.KindMarketCap] >= g.config.MinMarketCapCoverage &&
		coverage[contracts.KindFundamental] >= g.config.MinFundamentalCoverage &&
		coverage[contracts.KindTrading] >= g.config.MinInvestorCoverage
}

// calculateScore calculates overall quality score using weighted average
func calculateScore(coverage map[contracts.DataKind]float64) float64 {
	score := 0.0
	for kind, weight := range weights {
		score += coverage[kind] * weight
	}
	return score
}
