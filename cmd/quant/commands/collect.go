package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/krxdaily/internal/contracts"
	"github.com/wonny/krxdaily/internal/s0_data"
	"github.com/wonny/krxdaily/internal/s0_data/collector"
)

// collectCmd represents the collect command
var collectCmd = &cobra.Command{
	Use:   "collect [date]",
	Short: "관심종목 데이터 수집",
	Long: `관심종목 전체의 6종 데이터를 KRX에서 수집해 저장합니다.

수집 데이터:
- 일별 주가 (OHLCV)
- 시가총액
- 펀더멘털 (PER/PBR/EPS/BPS/배당수익률)
- 투자자별 거래 (순매수)
- 공매도 거래 / 공매도 잔고 (실패해도 무시)

기준일 주가가 이미 저장된 종목은 스킵합니다 (--force로 강제 수집).
실패한 종목이 하나라도 있으면 종료 코드 1로 끝납니다.

Example:
  go run ./cmd/quant collect
  go run ./cmd/quant collect 20251204 --today
  go run ./cmd/quant collect --month --force
  go run ./cmd/quant collect --dry-run`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCollect,
}

var (
	collectToday  bool
	collectMonth  bool
	collectForce  bool
	collectDryRun bool
)

func init() {
	rootCmd.AddCommand(collectCmd)

	collectCmd.Flags().BoolVar(&collectToday, "today", false, "기준일 하루만 수집")
	collectCmd.Flags().BoolVar(&collectMonth, "month", false, "최근 30일 수집")
	collectCmd.Flags().BoolVar(&collectForce, "force", false, "이미 있는 데이터도 다시 수집")
	collectCmd.Flags().BoolVar(&collectDryRun, "dry-run", false, "DB 대신 메모리에 저장 (수집 확인용)")
	collectCmd.MarkFlagsMutuallyExclusive("today", "month")
}

// collectMode maps the window flags; 기본은 최근 5일
func collectMode(today, month bool) contracts.FetchMode {
	switch {
	case today:
		return contracts.ModeToday
	case month:
		return contracts.ModeMonth
	default:
		return contracts.ModeRecent
	}
}

func runCollect(cmd *cobra.Command, args []string) error {
	date, err := parseDateArg(args)
	if err != nil {
		return err
	}
	mode := collectMode(collectToday, collectMonth)

	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}

	items, err := loadWatchlist(cfg)
	if err != nil {
		return err
	}

	PrintHeader("관심종목 데이터 수집")
	PrintKeyValue("기준일", contracts.FormatDate(date), 6)
	PrintKeyValue("모드", string(mode), 6)
	PrintKeyValue("종목 수", fmt.Sprintf("%d", len(items)), 6)
	fmt.Println()

	var (
		writer contracts.RecordWriter
		prices contracts.PriceLookup
	)
	if collectDryRun {
		mem := s0_data.NewMemoryStore()
		writer, prices = mem, mem
		PrintInfo("dry-run: 결과는 저장되지 않습니다")
	} else {
		db, store, err := openStore(cfg, log)
		if err != nil {
			return err
		}
		defer db.Close()
		writer, prices = store, store
	}

	ctx, cancel := signalContext()
	defer cancel()

	col := newCollector(cfg, log, newKRXClient(cfg, log), writer, prices)
	batch := col.CollectWatchlist(ctx, items, collector.BatchOptions{
		Date:  date,
		Mode:  mode,
		Force: collectForce,
	})

	PrintBatchSummary(batch)

	if batch.Failed() {
		PrintWarning("일부 데이터 수집에 실패했습니다. 로그를 확인하세요.")
		return errCollectFailed
	}
	return nil
}
