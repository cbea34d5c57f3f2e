package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/wonny/krxdaily/internal/contracts"
)

// queryCmd represents the query command
var queryCmd = &cobra.Command{
	Use:   "query [ticker...]",
	Short: "저장된 종목 데이터 조회",
	Long: `저장된 종목 정보와 최근 주가, 외국인 순매수, 펀더멘털을 출력합니다.

종목을 지정하지 않으면 관심종목 전체를 조회합니다.

Example:
  go run ./cmd/quant query
  go run ./cmd/quant query 267260 --days 60`,
	RunE: runQuery,
}

var queryDays int

func init() {
	rootCmd.AddCommand(queryCmd)

	queryCmd.Flags().IntVar(&queryDays, "days", 30, "주가/펀더멘털 조회 기간 (일)")
}

func runQuery(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}

	tickers := args
	if len(tickers) == 0 {
		items, err := loadWatchlist(cfg)
		if err != nil {
			return err
		}
		for _, it := range items {
			tickers = append(tickers, it.Ticker)
		}
	}

	db, store, err := openStore(cfg, log)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := context.Background()
	for i, ticker := range tickers {
		if i > 0 {
			fmt.Println()
			PrintDoubleSeparator()
		}
		if err := printStock(ctx, store, ticker, queryDays); err != nil {
			return err
		}
	}
	return nil
}

// printStock prints one ticker's stored data
func printStock(ctx context.Context, stocks contracts.StockReader, ticker string, days int) error {
	stock, err := stocks.GetStock(ctx, ticker)
	if err != nil {
		return fmt.Errorf("get stock %s: %w", ticker, err)
	}
	if stock == nil {
		PrintWarning(fmt.Sprintf("종목 정보 없음: %s", ticker))
		return nil
	}

	fmt.Printf("종목: %s (%s)\n", stock.Name, stock.Ticker)
	fmt.Printf("시장: %s\n", stock.Market)

	latest, err := stocks.GetLatestPrice(ctx, ticker)
	if err != nil {
		return fmt.Errorf("get latest price %s: %w", ticker, err)
	}
	if latest != nil {
		fmt.Printf("\n최근 주가 (%s):\n", latest.Date.Format("2006-01-02"))
		PrintKeyValue("시가", humanize.Comma(latest.Open)+"원", 4)
		PrintKeyValue("고가", humanize.Comma(latest.High)+"원", 4)
		PrintKeyValue("저가", humanize.Comma(latest.Low)+"원", 4)
		PrintKeyValue("종가", humanize.Comma(latest.Close)+"원", 4)
		PrintKeyValue("거래량", humanize.Comma(latest.Volume)+"주", 4)
	}

	to := contracts.Today(time.Now())
	from := to.AddDate(0, 0, -days)

	prices, err := stocks.GetDailyPrices(ctx, ticker, &from, &to)
	if err != nil {
		return fmt.Errorf("get daily prices %s: %w", ticker, err)
	}
	fmt.Printf("\n최근 %d일 주가 데이터: %d건\n", days, len(prices))

	flows, err := stocks.GetForeignNetBuyingDays(ctx, ticker, 5)
	if err != nil {
		return fmt.Errorf("get investor trading %s: %w", ticker, err)
	}
	if len(flows) > 0 {
		fmt.Println("\n외국인 순매수 (최근 5일):")
		for _, f := range flows {
			value := "데이터 없음"
			if f.ForeignerNet != nil {
				value = humanize.Comma(*f.ForeignerNet) + "원"
			}
			PrintKeyValue(f.Date.Format("2006-01-02"), value, 10)
		}
	}

	funds, err := stocks.GetFundamentals(ctx, ticker, &from, &to)
	if err != nil {
		return fmt.Errorf("get fundamentals %s: %w", ticker, err)
	}
	if len(funds) > 0 {
		f := funds[len(funds)-1]
		fmt.Printf("\n펀더멘탈 지표 (%s):\n", f.Date.Format("2006-01-02"))
		PrintKeyValue("PER", ratio(f.PER), 3)
		PrintKeyValue("PBR", ratio(f.PBR), 3)
		PrintKeyValue("EPS", won(f.EPS), 3)
		PrintKeyValue("BPS", won(f.BPS), 3)
	}
	return nil
}

func ratio(v *float64) string {
	if v == nil {
		return "N/A"
	}
	return fmt.Sprintf("%.2f", *v)
}

func won(v *int64) string {
	if v == nil {
		return "N/A"
	}
	return humanize.Comma(*v) + "원"
}
