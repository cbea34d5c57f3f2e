package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
// ⭐ SSOT: 모든 환경변수는 여기서만 읽음
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Database
	Database DatabaseConfig

	// Redis (리포트 시장 스냅샷 캐시)
	Redis RedisConfig

	// Market data provider
	Provider ProviderConfig

	Watchlist WatchlistConfig
	Report    ReportConfig
	Scheduler SchedulerConfig

	// Logging
	LogLevel  string
	LogFormat string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	URL string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// ProviderConfig holds KRX provider call policy
type ProviderConfig struct {
	BaseURL    string
	NaverURL   string
	APIDelay   time.Duration // 호출 간 최소 간격
	MaxRetries int           // 총 시도 횟수
	RetryDelay time.Duration // 재시도 대기
	Timeout    time.Duration
}

// WatchlistConfig points at the CSV watchlist. Empty path means the built-in list.
type WatchlistConfig struct {
	File string
}

// ReportConfig holds report output settings
type ReportConfig struct {
	Dir string
}

// SchedulerConfig holds the daily collection job settings
type SchedulerConfig struct {
	CollectSchedule string // cron with seconds field
	CollectMode     string
	RetentionDays   int    // 0 → purge job disabled
	PurgeSchedule   string
}

// Load reads configuration from environment variables
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		// Server
		Port: getEnv("PORT", "8080"),
		Env:  getEnv("ENV", "development"),

		// Database
		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 5),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 1),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		// Redis
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
		},

		Provider: ProviderConfig{
			BaseURL:    getEnv("KRX_BASE_URL", "http://data.krx.co.kr"),
			NaverURL:   getEnv("NAVER_BASE_URL", "https://finance.naver.com"),
			APIDelay:   getEnvAsDuration("KRX_API_DELAY", "1s"),
			MaxRetries: getEnvAsInt("KRX_MAX_RETRIES", 3),
			RetryDelay: getEnvAsDuration("KRX_RETRY_DELAY", "5s"),
			Timeout:    getEnvAsDuration("KRX_TIMEOUT", "30s"),
		},

		Watchlist: WatchlistConfig{
			File: getEnv("WATCHLIST_FILE", ""),
		},

		Report: ReportConfig{
			Dir: getEnv("REPORT_DIR", "reports"),
		},

		Scheduler: SchedulerConfig{
			// 평일 18:00 (장 마감 후 데이터 확정)
			CollectSchedule: getEnv("COLLECT_SCHEDULE", "0 0 18 * * 1-5"),
			CollectMode:     getEnv("COLLECT_MODE", "recent"),
			RetentionDays:   getEnvAsInt("RETENTION_DAYS", 0),
			PurgeSchedule:   getEnv("PURGE_SCHEDULE", "0 0 3 * * 0"),
		},

		// Logging
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "console"),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if required configuration values are set
func (c *Config) validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	if c.Provider.MaxRetries < 1 {
		return fmt.Errorf("KRX_MAX_RETRIES must be at least 1")
	}

	if c.Scheduler.RetentionDays < 0 {
		return fmt.Errorf("RETENTION_DAYS must not be negative")
	}

	switch c.Scheduler.CollectMode {
	case "today", "recent", "month":
	default:
		return fmt.Errorf("COLLECT_MODE must be one of: today, recent, month")
	}

	return nil
}

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{".env"}

	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}
