package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "quant",
	Short: "KRX Daily - 관심종목 일일 데이터 수집기",
	Long: `KRX Daily CLI

관심종목의 주가/시가총액/펀더멘털/투자자별 거래/공매도 데이터를
KRX에서 수집해 PostgreSQL에 저장하고 일일 리포트를 만듭니다.

Usage:
  go run ./cmd/quant [command]

Examples:
  go run ./cmd/quant migrate
  go run ./cmd/quant collect --today
  go run ./cmd/quant report 20251204
  go run ./cmd/quant scheduler start`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug 로그 출력")
}
