package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/wonny/krxdaily/internal/contracts"
)

// cleanupCmd represents the cleanup command
var cleanupCmd = &cobra.Command{
	Use:   "cleanup [ticker]",
	Short: "오래된 데이터 삭제",
	Long: `기준일 이전의 일별 주가와 시가총액 데이터를 삭제합니다.
종목 정보(stocks)와 나머지 테이블은 그대로 둡니다.

종목을 지정하지 않으면 모든 종목이 대상입니다.

Example:
  go run ./cmd/quant cleanup --before 20240101
  go run ./cmd/quant cleanup 267260 --before 20240101`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCleanup,
}

var cleanupBefore string

func init() {
	rootCmd.AddCommand(cleanupCmd)

	cleanupCmd.Flags().StringVar(&cleanupBefore, "before", "", "이 날짜 이전 데이터 삭제 (YYYYMMDD)")
	_ = cleanupCmd.MarkFlagRequired("before")
}

func runCleanup(cmd *cobra.Command, args []string) error {
	before, err := contracts.ParseDate(cleanupBefore)
	if err != nil {
		return err
	}
	ticker := ""
	if len(args) == 1 {
		ticker = args[0]
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

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	target := "전체 종목"
	if ticker != "" {
		target = ticker
	}
	fmt.Printf("=== Data Cleanup (%s, %s 이전) ===\n", target, contracts.FormatDate(before))

	deleted, err := store.DeleteOldData(ctx, ticker, before)
	if err != nil {
		return fmt.Errorf("delete old data: %w", err)
	}

	if deleted == 0 {
		PrintSuccess("삭제할 데이터가 없습니다")
		return nil
	}
	PrintSuccess(fmt.Sprintf("%s건 삭제 완료", humanize.Comma(deleted)))
	return nil
}
