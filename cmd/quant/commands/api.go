package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/krxdaily/internal/api"
	"github.com/wonny/krxdaily/internal/api/handlers"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "API 서버 시작",
	Long: `저장된 데이터를 조회하는 읽기 전용 REST API 서버를 시작합니다.

Endpoints:
  GET  /health                            - Health check
  GET  /api/stocks                        - 종목 목록
  GET  /api/stocks/{ticker}               - 종목 정보 + 최근 주가
  GET  /api/stocks/{ticker}/prices        - 일별 주가 (?from=&to=)
  GET  /api/stocks/{ticker}/fundamentals  - 펀더멘털 (?from=&to=)
  GET  /api/stocks/{ticker}/investors     - 외국인 순매수 (?days=)
  GET  /api/reports/{YYYYMMDD}            - 저장된 일일 리포트

Example:
  go run ./cmd/quant api
  go run ./cmd/quant api --port 8080`,
	Args: cobra.NoArgs,
	RunE: runAPIServer,
}

var (
	apiPort string
)

func init() {
	rootCmd.AddCommand(apiCmd)

	// Flags
	apiCmd.Flags().StringVar(&apiPort, "port", "", "API 서버 포트 (기본: PORT)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	fmt.Println("=== KRX Daily API Server ===")

	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}

	// Override port if flag is set
	if apiPort != "" {
		cfg.Port = apiPort
	}

	db, store, err := openStore(cfg, log)
	if err != nil {
		return err
	}
	defer db.Close()

	log.Info("Connected to database")

	router := api.NewRouter(
		handlers.NewStockHandler(store, log),
		handlers.NewReportHandler(cfg.Report.Dir, log),
		log,
	)
	server := api.New(cfg.Port, log, router)

	ctx, stop := signalContext()
	defer stop()

	fmt.Printf("\n✅ Server running on http://localhost:%s\n", cfg.Port)
	fmt.Println("\nPress Ctrl+C to stop")

	if err := server.Run(ctx); err != nil {
		return err
	}

	log.WithField("env", cfg.Env).Info("Server stopped")
	return nil
}
