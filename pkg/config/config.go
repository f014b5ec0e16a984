package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application. It is constructed once
// at process start and passed explicitly into every component constructor;
// nothing else in the codebase reads environment variables.
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Local data files
	Data DataConfig

	// Exchange calendar / session rules
	Market MarketConfig

	// Upstream price source
	Upstream UpstreamConfig

	// Sell trigger digest email
	SMTP   SMTPConfig
	Digest DigestConfig

	// Logging
	LogLevel  string
	LogFormat string
}

// DataConfig holds paths for the local durable stores.
type DataConfig struct {
	Dir           string // base data directory
	HistoryDir    string // one CSV file per ticker
	ScoresFile    string // single shared score store file
	PortfolioFile string // transaction ledger
	WatchlistFile string // broad ticker universe, one ticker per line
}

// MarketConfig holds trading calendar parameters.
type MarketConfig struct {
	Timezone     string // exchange local timezone, e.g. Asia/Kolkata
	CloseHour    int    // daily close cutoff, local time
	CloseMinute  int
	LookbackDays int    // calendar lookback when resolving the last session
	HistoryYears int    // initial history fetch depth
	HolidaysFile string // optional newline-separated YYYY-MM-DD holiday list
}

// UpstreamConfig holds upstream price source parameters.
type UpstreamConfig struct {
	BaseURL    string
	QuoteURL   string
	Timeout    time.Duration
	MaxRetries int
	RateLimit  float64 // requests per second
	RateBurst  int
}

// SMTPConfig holds email delivery settings for the digest.
type SMTPConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	From     string
	To       string
}

// DigestConfig holds sell trigger digest scheduling.
type DigestConfig struct {
	Enabled  bool
	Schedule string // cron spec, seconds field included
}

// Load reads configuration from environment variables. This is the only
// function in the codebase that calls os.Getenv.
func Load() (*Config, error) {
	loadEnvFile()

	dataDir := getEnv("DATA_DIR", "data")

	cfg := &Config{
		Port: getEnv("PORT", "8087"),
		Env:  getEnv("ENV", "development"),

		Data: DataConfig{
			Dir:           dataDir,
			HistoryDir:    getEnv("HISTORY_DIR", filepath.Join(dataDir, "historical")),
			ScoresFile:    getEnv("SCORES_FILE", filepath.Join(dataDir, "scores.csv")),
			PortfolioFile: getEnv("PORTFOLIO_FILE", filepath.Join(dataDir, "portfolio.csv")),
			WatchlistFile: getEnv("WATCHLIST_FILE", filepath.Join(dataDir, "watchlist.txt")),
		},

		Market: MarketConfig{
			Timezone:     getEnv("MARKET_TIMEZONE", "Asia/Kolkata"),
			CloseHour:    getEnvAsInt("MARKET_CLOSE_HOUR", 16),
			CloseMinute:  getEnvAsInt("MARKET_CLOSE_MINUTE", 0),
			LookbackDays: getEnvAsInt("MARKET_LOOKBACK_DAYS", 5),
			HistoryYears: getEnvAsInt("MARKET_HISTORY_YEARS", 2),
			HolidaysFile: getEnv("MARKET_HOLIDAYS_FILE", ""),
		},

		Upstream: UpstreamConfig{
			BaseURL:    getEnv("UPSTREAM_BASE_URL", "https://charting.nseindia.com"),
			QuoteURL:   getEnv("UPSTREAM_QUOTE_URL", "https://www.nseindia.com"),
			Timeout:    getEnvAsDuration("UPSTREAM_TIMEOUT", "30s"),
			MaxRetries: getEnvAsInt("UPSTREAM_MAX_RETRIES", 1),
			RateLimit:  getEnvAsFloat("UPSTREAM_RATE_LIMIT", 2.0),
			RateBurst:  getEnvAsInt("UPSTREAM_RATE_BURST", 1),
		},

		SMTP: SMTPConfig{
			Host:     getEnv("SMTP_HOST", ""),
			Port:     getEnv("SMTP_PORT", "587"),
			User:     getEnv("SMTP_USER", ""),
			Password: getEnv("SMTP_PASSWORD", ""),
			From:     getEnv("SMTP_FROM", ""),
			To:       getEnv("SMTP_TO", ""),
		},

		Digest: DigestConfig{
			Enabled:  getEnvAsBool("DIGEST_ENABLED", false),
			Schedule: getEnv("DIGEST_SCHEDULE", "0 30 16 * * MON-FRI"),
		},

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if required configuration values are set.
func (c *Config) validate() error {
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	if c.Market.LookbackDays <= 0 {
		return fmt.Errorf("MARKET_LOOKBACK_DAYS must be positive")
	}

	if c.Market.CloseHour < 0 || c.Market.CloseHour > 23 {
		return fmt.Errorf("MARKET_CLOSE_HOUR must be between 0 and 23")
	}

	if _, err := time.LoadLocation(c.Market.Timezone); err != nil {
		return fmt.Errorf("MARKET_TIMEZONE is invalid: %w", err)
	}

	if c.Digest.Enabled && c.SMTP.Host == "" {
		return fmt.Errorf("SMTP_HOST is required when DIGEST_ENABLED is set")
	}

	return nil
}

// Location returns the exchange local timezone. validate() guarantees the
// name parses, so a failure here falls back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Market.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// loadEnvFile tries to load .env from multiple locations.
func loadEnvFile() {
	paths := []string{
		".env",
	}

	// Also try relative to executable
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

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
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
