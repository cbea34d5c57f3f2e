package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/krxdaily/internal/contracts"
	"github.com/wonny/krxdaily/internal/report"
	"github.com/wonny/krxdaily/internal/s0_data/collector"
	"github.com/wonny/krxdaily/pkg/logger"
)

// reportCmd represents the report command
var reportCmd = &cobra.Command{
	Use:   "report [date]",
	Short: "일일 리포트 생성",
	Long: `시장 개황, 등락률 상위 종목, 관심종목 현황을 담은 일일 리포트를 만듭니다.

리포트 생성 전에 관심종목 데이터를 먼저 수집합니다 (--no-fetch로 생략).
기준일에 시장 데이터가 없으면 (휴장일) 전일로 다시 시도합니다.
리포트는 화면에 출력하고 REPORT_DIR/daily_report_YYYYMMDD.txt로 저장합니다.

Example:
  go run ./cmd/quant report
  go run ./cmd/quant report 20251204
  go run ./cmd/quant report --fetch --mode month
  go run ./cmd/quant report --no-fetch`,
	Args: cobra.MaximumNArgs(1),
	RunE: runReport,
}

var (
	reportFetch   bool
	reportNoFetch bool
	reportMode    string
)

func init() {
	rootCmd.AddCommand(reportCmd)

	reportCmd.Flags().BoolVar(&reportFetch, "fetch", false, "이미 있어도 데이터를 다시 수집")
	reportCmd.Flags().BoolVar(&reportNoFetch, "no-fetch", false, "데이터 수집 없이 리포트만 생성")
	reportCmd.Flags().StringVar(&reportMode, "mode", string(contracts.ModeRecent), "수집 모드 (today|recent|month)")
	reportCmd.MarkFlagsMutuallyExclusive("fetch", "no-fetch")
}

func runReport(cmd *cobra.Command, args []string) error {
	date, err := parseDateArg(args)
	if err != nil {
		PrintError(fmt.Sprintf("잘못된 날짜 형식: %s (YYYYMMDD)", args[0]))
		return err
	}
	mode, err := contracts.ParseFetchMode(reportMode)
	if err != nil {
		return err
	}

	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}

	db, store, err := openStore(cfg, log)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, cancel := signalContext()
	defer cancel()

	source := newKRXClient(cfg, log)

	if !reportNoFetch {
		items, err := loadWatchlist(cfg)
		if err != nil {
			return err
		}
		col := newCollector(cfg, log, source, store, store)
		batch := col.CollectWatchlist(ctx, items, collector.BatchOptions{
			Date:  date,
			Mode:  mode,
			Force: reportFetch,
		})
		if batch.Failed() {
			log.WithFields(map[string]interface{}{
				"failed":  batch.TotalFailed,
				"success": batch.TotalSuccess,
			}).Warn("Some tickers failed to collect, report may be incomplete")
		}
	}

	market, closeCache := newMarketSource(ctx, cfg, log, source)
	defer closeCache()

	gen := report.NewGenerator(market, store, log)
	text, reportDate, err := generateWithFallback(ctx, gen, date, log)
	if err != nil {
		return fmt.Errorf("generate report: %w", err)
	}

	fmt.Println(text)

	path, err := report.Save(cfg.Report.Dir, reportDate, text)
	if err != nil {
		return err
	}
	PrintSuccess(fmt.Sprintf("리포트 저장: %s", path))
	return nil
}

// generateWithFallback retries once with the previous day when the date has no market data
func generateWithFallback(ctx context.Context, gen *report.Generator, date time.Time, log *logger.Logger) (string, time.Time, error) {
	text, err := gen.Generate(ctx, date)
	if err == nil {
		return text, date, nil
	}
	if !errors.Is(err, report.ErrNoData) {
		return "", date, err
	}

	prev := date.AddDate(0, 0, -1)
	log.WithFields(map[string]interface{}{
		"date":     contracts.FormatDate(date),
		"fallback": contracts.FormatDate(prev),
	}).Warn("No market data for date, trying previous day")

	text, err = gen.Generate(ctx, prev)
	if err != nil {
		return "", prev, err
	}
	return text, prev, nil
}
