package commands

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/krxdaily/internal/contracts"
	"github.com/wonny/krxdaily/internal/external/naver"
	"github.com/wonny/krxdaily/internal/s0_data/watchlist"
	"github.com/wonny/krxdaily/pkg/config"
)

// watchlistCmd represents the watchlist command
var watchlistCmd = &cobra.Command{
	Use:   "watchlist",
	Short: "관심종목 관리",
	Long: `관심종목 목록(WATCHLIST_FILE CSV)을 조회하거나 수정합니다.

WATCHLIST_FILE이 없으면 기본 목록을 사용하며, add/remove는 파일이 필요합니다.

Subcommands:
  list    - 관심종목 목록
  add     - 종목 추가 (종목명/시장 생략 시 Naver Finance 조회)
  remove  - 종목 삭제

Example:
  go run ./cmd/quant watchlist list
  go run ./cmd/quant watchlist add 005930
  go run ./cmd/quant watchlist add 000660 --name SK하이닉스 --market KOSPI
  go run ./cmd/quant watchlist remove 005930`,
}

var (
	watchlistListCmd = &cobra.Command{
		Use:   "list",
		Short: "관심종목 목록",
		Args:  cobra.NoArgs,
		RunE:  runWatchlistList,
	}

	watchlistAddCmd = &cobra.Command{
		Use:   "add [ticker]",
		Short: "관심종목 추가",
		Args:  cobra.ExactArgs(1),
		RunE:  runWatchlistAdd,
	}

	watchlistRemoveCmd = &cobra.Command{
		Use:   "remove [ticker]",
		Short: "관심종목 삭제",
		Args:  cobra.ExactArgs(1),
		RunE:  runWatchlistRemove,
	}
)

var (
	watchlistName   string
	watchlistMarket string
)

func init() {
	rootCmd.AddCommand(watchlistCmd)
	watchlistCmd.AddCommand(watchlistListCmd)
	watchlistCmd.AddCommand(watchlistAddCmd)
	watchlistCmd.AddCommand(watchlistRemoveCmd)

	watchlistAddCmd.Flags().StringVar(&watchlistName, "name", "", "종목명")
	watchlistAddCmd.Flags().StringVar(&watchlistMarket, "market", "", "시장 (KOSPI|KOSDAQ|KONEX)")
}

func runWatchlistList(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}

	items, err := loadWatchlist(cfg)
	if err != nil {
		return err
	}

	source := cfg.Watchlist.File
	if source == "" {
		source = "기본 목록"
	}
	fmt.Printf("\n관심종목 %d개 (%s)\n\n", len(items), source)

	widths := []int{8, 20, 8}
	PrintTableHeader([]string{"종목코드", "종목명", "시장"}, widths)
	for _, it := range items {
		PrintTableRow([]string{it.Ticker, it.Name, it.Market}, widths)
	}
	return nil
}

// editableWatchlist loads the file for editing. 파일이 아직 없으면 기본 목록에서 시작한다
func editableWatchlist(cfg *config.Config) ([]contracts.WatchItem, error) {
	if cfg.Watchlist.File == "" {
		return nil, fmt.Errorf("WATCHLIST_FILE is not set")
	}
	items, err := watchlist.Load(cfg.Watchlist.File)
	if errors.Is(err, fs.ErrNotExist) {
		return watchlist.Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load watchlist: %w", err)
	}
	return items, nil
}

func runWatchlistAdd(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}

	items, err := editableWatchlist(cfg)
	if err != nil {
		return err
	}

	item := contracts.WatchItem{
		Ticker: strings.TrimSpace(args[0]),
		Name:   watchlistName,
		Market: watchlistMarket,
	}

	if item.Name == "" || item.Market == "" {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Provider.Timeout+5*time.Second)
		defer cancel()

		sec, err := naver.NewClient(cfg.Provider, log).LookupSecurity(ctx, item.Ticker)
		if errors.Is(err, naver.ErrNotFound) {
			PrintError(fmt.Sprintf("종목을 찾을 수 없습니다: %s", item.Ticker))
			return err
		}
		if err != nil {
			return err
		}
		if item.Name == "" {
			item.Name = sec.Name
		}
		if item.Market == "" {
			item.Market = sec.Market
		}
	}

	items, err = watchlist.Add(items, item)
	if err != nil {
		return err
	}
	if err := watchlist.Save(cfg.Watchlist.File, items); err != nil {
		return err
	}

	PrintSuccess(fmt.Sprintf("관심종목 추가: %s (%s, %s)", item.Name, item.Ticker, strings.ToUpper(item.Market)))
	return nil
}

func runWatchlistRemove(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}

	items, err := editableWatchlist(cfg)
	if err != nil {
		return err
	}

	ticker := strings.TrimSpace(args[0])
	items, found := watchlist.Remove(items, ticker)
	if !found {
		PrintWarning(fmt.Sprintf("관심종목에 없는 종목입니다: %s", ticker))
		return nil
	}
	if err := watchlist.Save(cfg.Watchlist.File, items); err != nil {
		return err
	}

	PrintSuccess(fmt.Sprintf("관심종목 삭제: %s (남은 종목 %d개)", ticker, len(items)))
	return nil
}
