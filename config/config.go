package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // TIMEZONE must resolve on hosts without a zoneinfo database

	"github.com/joho/godotenv"

	"journalAnalytics/internal/adapters/logger" // Import the logger package for LogLevel
	"journalAnalytics/internal/export"
	"journalAnalytics/internal/journal"
	"journalAnalytics/internal/position"
)

// Config holds all application configuration.
type Config struct {
	// Pipeline
	ReplayOrder     position.ReplayOrder  // Order standard trades are replayed in
	RoundTripMode   journal.RoundTripMode // How round-trip records become ledger entries
	RoundTripLegFee float64               // Fee booked on each synthetic round-trip leg
	ZeroFillDays    bool                  // Insert zero-PnL days into daily statistics
	VaRConfidence   float64               // e.g., 0.95
	Location        *time.Location        // Calendar for day and month buckets
	HeuristicsFile  string                // Optional YAML file overriding risk heuristic thresholds

	// Export
	ExportFormat  export.Format
	ExportSection export.Section

	// Price feed (Binance public market data)
	PriceSymbol       string  // e.g., "SOLUSDT"
	PriceFallbackUSD  float64 // Used when the feed is off or failing
	PriceTimeout      time.Duration
	PricePollInterval time.Duration
	UseLivePrice      bool
	IsTestnet         bool

	// Database
	DBPath           string
	PersistRuns      bool
	RunRetentionDays int // 0 keeps runs forever

	// Logging
	LogLevel       logger.LogLevel // Use the LogLevel type from the logger adapter
	LogFormat      string          // "console" or "json"
	TracingEnabled bool
}

// LoadConfig loads configuration from environment variables (.env file).
func LoadConfig() (*Config, error) {
	// Load .env file, but don't fail if it doesn't exist (allow pure env vars)
	_ = godotenv.Load()

	cfg := &Config{}
	var err error
	var errs []string // Collect validation errors

	// Pipeline
	cfg.ReplayOrder, err = position.ParseReplayOrder(getEnv("POSITION_REPLAY_ORDER", "timestamp"))
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid POSITION_REPLAY_ORDER: %v", err))
	}

	cfg.RoundTripMode, err = journal.ParseRoundTripMode(getEnv("ROUND_TRIP_MODE", "legs"))
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid ROUND_TRIP_MODE: %v", err))
	}

	cfg.RoundTripLegFee, err = getEnvAsFloatRequired("ROUND_TRIP_LEG_FEE", 0)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid ROUND_TRIP_LEG_FEE: %v", err))
	} else if cfg.RoundTripLegFee < 0 {
		errs = append(errs, "ROUND_TRIP_LEG_FEE cannot be negative")
	}

	cfg.ZeroFillDays = getEnvAsBool("ZERO_FILL_DAYS", false)

	cfg.VaRConfidence, err = getEnvAsFloatRequired("VAR_CONFIDENCE", 0.95)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid VAR_CONFIDENCE: %v", err))
	} else if cfg.VaRConfidence <= 0 || cfg.VaRConfidence >= 1.0 {
		errs = append(errs, "VAR_CONFIDENCE must be between 0.0 and 1.0 (exclusive)")
	}

	tz := getEnv("TIMEZONE", "UTC")
	cfg.Location, err = time.LoadLocation(tz)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid TIMEZONE '%s': %v", tz, err))
	}

	cfg.HeuristicsFile = getEnv("HEURISTICS_FILE", "")

	// Export
	cfg.ExportFormat, err = export.ParseFormat(getEnv("EXPORT_FORMAT", "json"))
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid EXPORT_FORMAT: %v", err))
	}
	cfg.ExportSection, err = export.ParseSection(getEnv("EXPORT_SECTION", "all"))
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid EXPORT_SECTION: %v", err))
	}

	// Price feed
	cfg.PriceSymbol = strings.ToUpper(getEnv("PRICE_SYMBOL", "SOLUSDT"))
	if cfg.PriceSymbol == "" {
		errs = append(errs, "PRICE_SYMBOL must be set")
	}

	cfg.PriceFallbackUSD, err = getEnvAsFloatRequired("PRICE_FALLBACK_USD", 1.0)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid PRICE_FALLBACK_USD: %v", err))
	} else if cfg.PriceFallbackUSD <= 0 {
		errs = append(errs, "PRICE_FALLBACK_USD must be positive")
	}

	timeoutSeconds := getEnvAsInt("PRICE_TIMEOUT_SECONDS", 5)
	if timeoutSeconds <= 0 {
		errs = append(errs, "PRICE_TIMEOUT_SECONDS must be positive")
	}
	cfg.PriceTimeout = time.Duration(timeoutSeconds) * time.Second

	pollSeconds := getEnvAsInt("PRICE_POLL_SECONDS", 30)
	if pollSeconds <= 0 {
		errs = append(errs, "PRICE_POLL_SECONDS must be positive")
	}
	cfg.PricePollInterval = time.Duration(pollSeconds) * time.Second

	cfg.UseLivePrice = getEnvAsBool("USE_LIVE_PRICE", false)
	cfg.IsTestnet = getEnvAsBool("IS_TESTNET", false)

	// Database
	cfg.DBPath = getEnv("DB_PATH", "./data/journal_runs.db")
	if cfg.DBPath == "" {
		errs = append(errs, "DB_PATH must be set")
	}
	cfg.PersistRuns = getEnvAsBool("PERSIST_RUNS", true)

	cfg.RunRetentionDays, err = getEnvAsIntRequired("RUN_RETENTION_DAYS", 0)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid RUN_RETENTION_DAYS: %v", err))
	} else if cfg.RunRetentionDays < 0 {
		errs = append(errs, "RUN_RETENTION_DAYS cannot be negative")
	}

	// Logging
	logLevelStr := getEnv("LOG_LEVEL", "INFO")
	cfg.LogLevel = logger.ParseLevel(logLevelStr) // Use the parser from the logger package

	cfg.LogFormat = strings.ToLower(getEnv("LOG_FORMAT", "console"))
	if cfg.LogFormat != "console" && cfg.LogFormat != "json" {
		errs = append(errs, "LOG_FORMAT must be console or json")
	}
	cfg.TracingEnabled = getEnvAsBool("LOG_TRACING_ENABLED", false)

	// Combine validation errors
	if len(errs) > 0 {
		return nil, fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}

	return cfg, nil
}

// --- Env Var Helpers ---

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
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

func getEnvAsIntRequired(key string, defaultValue int) (int, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		// Use default if env var is not set at all
		return defaultValue, nil
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		// Return error if env var is set but invalid
		return 0, fmt.Errorf("invalid integer value '%s' for key %s: %w", valueStr, key, err)
	}
	return value, nil
}

func getEnvAsFloatRequired(key string, defaultValue float64) (float64, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue, nil
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid float value '%s' for key %s: %w", valueStr, key, err)
	}
	return value, nil
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
