package report

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/wonny/krxdaily/internal/contracts"
	"github.com/wonny/krxdaily/pkg/logger"
)

// reportMarkets are the top-mover sections in display order
var reportMarkets = []string{"KOSPI", "KOSDAQ"}

const (
	heavyRule = "================================================================================"
	lightRule = "--------------------------------------------------------------------------------"
)

// Generator builds the daily text report from market-wide data and stored watchlist data.
// ⭐ SSOT: 일일 리포트 포맷은 여기서만
type Generator struct {
	market contracts.MarketSource
	stocks contracts.StockReader
	now    func() time.Time
	logger *logger.Logger
}

// NewGenerator creates a report generator
func NewGenerator(market contracts.MarketSource, stocks contracts.StockReader, log *logger.Logger) *Generator {
	return &Generator{
		market: market,
		stocks: stocks,
		now:    time.Now,
		logger: log.WithField("module", "report"),
	}
}

// Generate renders the report for date.
// Returns ErrNoData (wrapped) when the exchange has no index data for the date.
func (g *Generator) Generate(ctx context.Context, date time.Time) (string, error) {
	date = contracts.DateOf(date)
	g.logger.WithField("date", contracts.FormatDate(date)).Info("Generating daily report")

	var b strings.Builder
	g.writeHeader(&b)

	if err := g.writeMarketOverview(ctx, &b, date); err != nil {
		return "", err
	}
	for _, market := range reportMarkets {
		g.writeTopMovers(ctx, &b, date, market)
	}
	if err := g.writeWatchlist(ctx, &b, date); err != nil {
		return "", err
	}

	b.WriteString(heavyRule + "\n")
	b.WriteString("리포트 생성 완료\n")
	b.WriteString(heavyRule + "\n")

	return b.String(), nil
}

func (g *Generator) writeHeader(b *strings.Builder) {
	inner := strings.Repeat("=", 78)
	b.WriteString("\n")
	b.WriteString("╔" + inner + "╗\n")
	b.WriteString("║" + strings.Repeat(" ", 25) + "📋 일일 투자 리포트" + strings.Repeat(" ", 34) + "║\n")
	b.WriteString("║" + strings.Repeat(" ", 78) + "║\n")
	b.WriteString("║" + "  생성일시: " + g.now().Format("2006-01-02 15:04:05") + strings.Repeat(" ", 47) + "║\n")
	b.WriteString("╚" + inner + "╝\n\n")
}

func (g *Generator) writeMarketOverview(ctx context.Context, b *strings.Builder, date time.Time) error {
	indices, err := IndexSummaries(ctx, g.market, date)
	if err != nil {
		return err
	}

	b.WriteString(heavyRule + "\n")
	fmt.Fprintf(b, "📊 시장 개황 (%s)\n", contracts.FormatDate(date))
	b.WriteString(heavyRule + "\n\n")

	for _, idx := range indices {
		fmt.Fprintf(b, "▶ %s: %s (%s, %s)\n", idx.Name, FormatNumber(idx.Close), FormatChange(idx.Change), FormatPercentage(idx.ChangePct))
		fmt.Fprintf(b, "  거래량: %s\n\n", FormatNumber(float64(idx.Volume)))
	}
	return nil
}

// writeTopMovers renders one market's movers. 스냅샷 조회 실패는 섹션만 비운다
func (g *Generator) writeTopMovers(ctx context.Context, b *strings.Builder, date time.Time, market string) {
	b.WriteString(lightRule + "\n")
	fmt.Fprintf(b, "📈 %s 주요 동향\n", market)
	b.WriteString(lightRule + "\n\n")

	quotes, err := g.market.FetchMarketSnapshot(ctx, market, date)
	if err != nil {
		g.logger.WithField("market", market).WithError(err).Warn("Market snapshot unavailable")
		return
	}
	movers := TopMovers(market, quotes)

	writeQuotes := func(title string, quotes []contracts.MarketQuote) {
		if len(quotes) == 0 {
			return
		}
		b.WriteString(title + "\n")
		for _, q := range quotes {
			fmt.Fprintf(b, "  %-15s %12s원  %8s  거래량: %s\n",
				q.Name, FormatNumber(float64(q.Close)), FormatPercentage(q.ChangeRate()), FormatNumber(float64(q.Volume)))
		}
		b.WriteString("\n")
	}
	writeQuotes("▶ 급등 상위 5종목:", movers.Gainers)
	writeQuotes("▶ 급락 상위 5종목:", movers.Losers)

	if len(movers.ByValue) > 0 {
		b.WriteString("▶ 거래대금 상위 5종목:\n")
		for _, q := range movers.ByValue {
			fmt.Fprintf(b, "  %-15s %12s원  %8s  거래대금: %s억\n",
				q.Name, FormatNumber(float64(q.Close)), FormatPercentage(q.ChangeRate()), FormatNumber(eok(q.Value)))
		}
		b.WriteString("\n")
	}
}

// writeWatchlist covers every stored stock whose latest price is on date
func (g *Generator) writeWatchlist(ctx context.Context, b *strings.Builder, date time.Time) error {
	b.WriteString(lightRule + "\n")
	b.WriteString("⭐ 관심 종목 분석\n")
	b.WriteString(lightRule + "\n\n")

	stocks, err := g.stocks.GetAllStocks(ctx)
	if err != nil {
		return fmt.Errorf("load stocks: %w", err)
	}

	for _, sec := range stocks {
		latest, err := g.stocks.GetLatestPrice(ctx, sec.Ticker)
		if err != nil {
			return fmt.Errorf("load latest price %s: %w", sec.Ticker, err)
		}
		if latest == nil || !contracts.DateOf(latest.Date).Equal(date) {
			continue
		}

		fmt.Fprintf(b, "▶ %s (%s)\n", sec.Name, sec.Ticker)
		fmt.Fprintf(b, "  종가: %s원  등락률: %s  거래량: %s\n",
			FormatNumber(float64(latest.Close)), FormatPercentage(latest.ChangeRate()), FormatNumber(float64(latest.Volume)))

		foreign, err := g.stocks.GetForeignNetBuyingDays(ctx, sec.Ticker, 5)
		if err != nil {
			return fmt.Errorf("load foreign flows %s: %w", sec.Ticker, err)
		}
		if len(foreign) > 0 {
			b.WriteString("  외국인 순매수 (최근 5일):\n")
			for _, f := range foreign {
				if f.ForeignerNet == nil {
					continue
				}
				fmt.Fprintf(b, "    %s: %s억\n", f.Date.Format("2006-01-02"), formatEok1(eok(*f.ForeignerNet)))
			}
		}

		funds, err := g.stocks.GetFundamentals(ctx, sec.Ticker, nil, nil)
		if err != nil {
			return fmt.Errorf("load fundamentals %s: %w", sec.Ticker, err)
		}
		if n := len(funds); n > 0 && contracts.DateOf(funds[n-1].Date).Equal(date) {
			writeFundamental(b, funds[n-1])
		}

		b.WriteString("\n")
	}
	return nil
}

// writeFundamental prints PER/PBR/EPS; 0 또는 null 값은 생략
func writeFundamental(b *strings.Builder, f contracts.Fundamental) {
	b.WriteString("  펀더멘탈: ")
	if f.PER != nil && *f.PER != 0 {
		fmt.Fprintf(b, "PER %.2f  ", *f.PER)
	}
	if f.PBR != nil && *f.PBR != 0 {
		fmt.Fprintf(b, "PBR %.2f  ", *f.PBR)
	}
	if f.EPS != nil && *f.EPS != 0 {
		fmt.Fprintf(b, "EPS %s원", FormatNumber(float64(*f.EPS)))
	}
	b.WriteString("\n")
}
