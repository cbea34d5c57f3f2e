package commands

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/wonny/krxdaily/internal/contracts"
	"github.com/wonny/krxdaily/internal/s0_data"
	"github.com/wonny/krxdaily/internal/s0_data/quality"
)

// dataCheckCmd represents the data check command
var dataCheckCmd = &cobra.Command{
	Use:   "data-check",
	Short: "DB 데이터 상태 확인",
	Long: `데이터베이스 연결과 각 테이블의 데이터 상태를 확인합니다.

확인 항목:
- DB 연결 / 커넥션 풀
- 종목 수
- 테이블별 레코드 수, 종목 수, 기간
- 기준일 관심종목 필수 데이터 커버리지 (주가/시가총액/펀더멘털/투자자별 거래)

Example:
  go run ./cmd/quant data-check
  go run ./cmd/quant data-check --date 20251204`,
	Args: cobra.NoArgs,
	RunE: runDataCheck,
}

var dataCheckDate string

func init() {
	rootCmd.AddCommand(dataCheckCmd)

	dataCheckCmd.Flags().StringVar(&dataCheckDate, "date", "", "커버리지 기준일 (YYYYMMDD, 기본: 오늘)")
}

func runDataCheck(cmd *cobra.Command, args []string) error {
	var dateArgs []string
	if dataCheckDate != "" {
		dateArgs = []string{dataCheckDate}
	}
	date, err := parseDateArg(dateArgs)
	if err != nil {
		return err
	}

	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}

	items, err := loadWatchlist(cfg)
	if err != nil {
		return err
	}

	db, store, err := openStore(cfg, log)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	PrintHeader("DB 데이터 상태 확인")

	health, err := db.HealthCheck(ctx)
	if err != nil {
		PrintError(fmt.Sprintf("DB 연결 실패: %v", err))
		return fmt.Errorf("database health check: %w", err)
	}
	PrintKeyValue("응답 시간", health.ResponseTime.String(), 8)
	PrintKeyValue("커넥션", fmt.Sprintf("%d/%d", health.TotalConns, health.MaxConns), 8)

	stocks, err := store.GetAllStocks(ctx)
	if err != nil {
		return fmt.Errorf("get stocks: %w", err)
	}
	PrintKeyValue("종목 수", fmt.Sprintf("%d", len(stocks)), 8)
	fmt.Println()

	stats, err := store.TableStats(ctx)
	if err != nil {
		return fmt.Errorf("table stats: %w", err)
	}
	printTableStats(stats)

	tickers := make([]string, 0, len(items))
	for _, it := range items {
		tickers = append(tickers, it.Ticker)
	}
	snapshot, err := quality.NewQualityGate(store, quality.DefaultConfig(), log).Check(ctx, tickers, date)
	if err != nil {
		return fmt.Errorf("quality check: %w", err)
	}
	printQuality(snapshot)
	return nil
}

// printQuality prints watchlist coverage for the snapshot date
func printQuality(s *quality.Snapshot) {
	fmt.Println()
	fmt.Printf("🔍 관심종목 데이터 커버리지 (%s)\n", contracts.FormatDate(s.Date))
	PrintSeparator()
	for _, kind := range s.Kinds() {
		PrintKeyValue(kind.Label(), fmt.Sprintf("%.0f%%", s.Coverage[kind]*100), 12)
	}
	PrintKeyValue("완전 수집", fmt.Sprintf("%d/%d", s.ValidStocks, s.TotalStocks), 12)
	PrintKeyValue("품질 점수", fmt.Sprintf("%.2f", s.QualityScore), 12)

	missing := make([]string, 0, len(s.Missing))
	for ticker := range s.Missing {
		missing = append(missing, ticker)
	}
	sort.Strings(missing)
	for _, ticker := range missing {
		kinds := s.Missing[ticker]
		labels := make([]string, 0, len(kinds))
		for _, k := range kinds {
			labels = append(labels, k.Label())
		}
		fmt.Printf("   ! %s 누락: %s\n", ticker, strings.Join(labels, ", "))
	}

	if s.Passed {
		PrintSuccess("품질 기준 충족")
	} else {
		PrintWarning("품질 기준 미달 (휴장일이면 정상)")
	}
}

// printTableStats prints one line per time-series table
func printTableStats(stats []s0_data.TableStat) {
	widths := []int{20, 10, 6, 23}
	PrintTableHeader([]string{"테이블", "레코드", "종목", "기간"}, widths)

	for _, st := range stats {
		span := "-"
		if st.FirstDate != nil && st.LastDate != nil {
			span = fmt.Sprintf("%s ~ %s", st.FirstDate.Format("2006-01-02"), st.LastDate.Format("2006-01-02"))
		}
		PrintTableRow([]string{
			st.Table,
			humanize.Comma(st.Rows),
			fmt.Sprintf("%d", st.Tickers),
			span,
		}, widths)
	}

	empty := 0
	for _, st := range stats {
		if st.Rows == 0 {
			empty++
		}
	}
	if empty > 0 {
		PrintWarning(fmt.Sprintf("%d개 테이블에 데이터가 없습니다 (go run ./cmd/quant collect)", empty))
	}
}
