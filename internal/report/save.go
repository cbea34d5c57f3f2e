package report

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/wonny/krxdaily/internal/contracts"
)

// FileName is the report file name for date
func FileName(date time.Time) string {
	return fmt.Sprintf("daily_report_%s.txt", contracts.FormatDate(date))
}

// Save writes the report under dir, creating it if needed, and returns the path
func Save(dir string, date time.Time, text string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create report dir: %w", err)
	}
	path := filepath.Join(dir, FileName(date))
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	return path, nil
}

// Load reads a previously saved report
func Load(dir string, date time.Time) (string, error) {
	raw, err := os.ReadFile(filepath.Join(dir, FileName(date)))
	if err != nil {
		return "", fmt.Errorf("read report: %w", err)
	}
	return string(raw), nil
}
