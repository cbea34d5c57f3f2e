package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// checkStocksLimit is how many stocks are listed before the remainder count
const checkStocksLimit = 20

// checkStocksCmd represents the check-stocks command
var checkStocksCmd = &cobra.Command{
	Use:   "check-stocks",
	Short: "저장된 종목 목록 확인",
	Long: `DB에 저장된 종목 수와 목록(최대 20개)을 출력합니다.

Example:
  go run ./cmd/quant check-stocks`,
	Args: cobra.NoArgs,
	RunE: runCheckStocks,
}

func init() {
	rootCmd.AddCommand(checkStocksCmd)
}

func runCheckStocks(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}

	db, store, err := openStore(cfg, log)
	if err != nil {
		return err
	}
	defer db.Close()

	stocks, err := store.GetAllStocks(context.Background())
	if err != nil {
		return fmt.Errorf("get stocks: %w", err)
	}

	fmt.Printf("\n총 %d개 종목이 저장되어 있습니다.\n\n", len(stocks))
	if len(stocks) == 0 {
		fmt.Println("저장된 종목이 없습니다.")
		fmt.Println("\n관심종목 수집:")
		fmt.Println("  go run ./cmd/quant collect")
		return nil
	}

	widths := []int{8, 20, 8}
	PrintTableHeader([]string{"종목코드", "종목명", "시장"}, widths)
	for i, s := range stocks {
		if i == checkStocksLimit {
			break
		}
		PrintTableRow([]string{s.Ticker, s.Name, s.Market}, widths)
	}
	if len(stocks) > checkStocksLimit {
		fmt.Printf("\n... 외 %d개 종목\n", len(stocks)-checkStocksLimit)
	}
	return nil
}
