package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	App      AppConfig
	Platform PlatformConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

// ServerConfig holds server settings
type ServerConfig struct {
	Port     string
	LogLevel string
}

// AppConfig holds application-specific settings
type AppConfig struct {
	JWTSecret    string
	LoginMessage string
}

// PlatformConfig holds the auction business parameters. These are deliberate
// configuration, not constants: increment, fee and reserve semantics differ
// per deployment.
type PlatformConfig struct {
	// MinIncrement is the minimum amount a new bid must exceed the current
	// highest bid by. Must be positive.
	MinIncrement decimal.Decimal
	// FeeRate is the platform's cut of the winning bid, e.g. 0.025 for 2.5%.
	FeeRate decimal.Decimal
	// SweepInterval is how often the sweep promotes time-triggered
	// transitions and retries stuck settlements.
	SweepInterval time.Duration
	// StaleSettlementAfter is how long an auction may sit in "ended" without
	// a committed settlement before the sweep flags it as stale.
	StaleSettlementAfter time.Duration
	// CommitRetries bounds internal retries on concurrent-modification
	// conflicts before surfacing a retry-exceeded failure.
	CommitRetries int
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	minIncrement, err := decimal.NewFromString(getEnv("MIN_BID_INCREMENT", "1"))
	if err != nil {
		return nil, fmt.Errorf("invalid MIN_BID_INCREMENT: %w", err)
	}
	if !minIncrement.IsPositive() {
		return nil, fmt.Errorf("MIN_BID_INCREMENT must be positive, got %s", minIncrement)
	}

	feeRate, err := decimal.NewFromString(getEnv("PLATFORM_FEE_RATE", "0.025"))
	if err != nil {
		return nil, fmt.Errorf("invalid PLATFORM_FEE_RATE: %w", err)
	}
	if feeRate.IsNegative() || feeRate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return nil, fmt.Errorf("PLATFORM_FEE_RATE must be in [0, 1), got %s", feeRate)
	}

	sweepInterval, err := time.ParseDuration(getEnv("SWEEP_INTERVAL", "5s"))
	if err != nil {
		return nil, fmt.Errorf("invalid SWEEP_INTERVAL: %w", err)
	}

	staleAfter, err := time.ParseDuration(getEnv("STALE_SETTLEMENT_AFTER", "1m"))
	if err != nil {
		return nil, fmt.Errorf("invalid STALE_SETTLEMENT_AFTER: %w", err)
	}

	commitRetries, err := strconv.Atoi(getEnv("BID_COMMIT_RETRIES", "3"))
	if err != nil || commitRetries < 1 {
		return nil, fmt.Errorf("BID_COMMIT_RETRIES must be a positive integer")
	}

	config := &Config{
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			DBName:   getEnv("DB_NAME", "auction_ledger"),
		},
		Server: ServerConfig{
			Port:     getEnv("SERVER_PORT", "8080"),
			LogLevel: getEnv("LOG_LEVEL", "info"),
		},
		App: AppConfig{
			JWTSecret:    getEnv("JWT_SECRET", ""),
			LoginMessage: getEnv("LOGIN_MESSAGE", "Sign this message to authenticate with the auction marketplace"),
		},
		Platform: PlatformConfig{
			MinIncrement:         minIncrement,
			FeeRate:              feeRate,
			SweepInterval:        sweepInterval,
			StaleSettlementAfter: staleAfter,
			CommitRetries:        commitRetries,
		},
	}

	if config.App.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	return config, nil
}

// GetDSN returns the PostgreSQL connection string
func (c *Config) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.DBName,
	)
}

// getEnv gets an environment variable with a fallback default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
