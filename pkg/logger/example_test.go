package logger_test

import (
	"errors"

	"github.com/wonny/krxdaily/pkg/config"
	"github.com/wonny/krxdaily/pkg/logger"
)

// Example_withFields demonstrates structured logging with fields
func Example_withFields() {
	log := logger.New(&config.Config{
		Env:       "production",
		LogLevel:  "info",
		LogFormat: "json",
	})

	// 모듈 단위 로거
	colLog := log.WithField("module", "collector")

	colLog.WithFields(map[string]interface{}{
		"ticker": "267260",
		"kind":   "daily_price",
		"saved":  5,
	}).Info("Data kind collected")
}

// Example_withError demonstrates error logging
func Example_withError() {
	log := logger.New(&config.Config{
		Env:       "development",
		LogLevel:  "debug",
		LogFormat: "console",
	})

	err := errors.New("KRX API returned status 500")
	log.WithError(err).
		WithFields(map[string]interface{}{
			"call":    "fundamental",
			"attempt": "3/3",
		}).
		Error("Max retries exceeded")
}
