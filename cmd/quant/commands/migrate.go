package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/krxdaily/pkg/database"
)

// migrateCmd represents the migrate command
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "DB 스키마 마이그레이션",
	Long: `내장된 마이그레이션으로 data 스키마를 최신 버전까지 올립니다.
이미 최신이면 아무것도 하지 않습니다.

Example:
  go run ./cmd/quant migrate`,
	Args: cobra.NoArgs,
	RunE: runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}

	version, err := database.Migrate(cfg.Database.URL)
	if err != nil {
		return err
	}

	log.WithField("version", version).Info("Schema migrated")
	PrintSuccess(fmt.Sprintf("마이그레이션 완료 (version %d)", version))
	return nil
}
