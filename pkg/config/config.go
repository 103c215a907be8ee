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

	// Database (optional price cache)
	Database DatabaseConfig

	// Redis (optional series cache)
	Redis RedisConfig

	// Market data provider
	Provider ProviderConfig

	// Optimization engine defaults
	Engine EngineConfig

	// Logging
	LogLevel  string
	LogFormat string
}

// DatabaseConfig holds PostgreSQL configuration for the price cache
type DatabaseConfig struct {
	URL     string
	Enabled bool

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// ProviderConfig holds market data provider configuration
type ProviderConfig struct {
	BaseURL        string  // daily CSV endpoint base
	InfoBaseURL    string  // company profile pages
	RatePerSecond  float64 // outbound request rate limit
	RateBurst      int
	RequestTimeout time.Duration
	SyntheticOnly  bool // skip network entirely, generate synthetic data
}

// EngineConfig holds optimization engine defaults
type EngineConfig struct {
	RiskFreeRate   float64 // annualized (e.g. 0.02 = 2%)
	PeriodsPerYear int     // 252 trading days
	SampleCount    int     // Monte Carlo frontier samples
	MaxIterations  int     // QP iteration cap
}

// Load reads configuration from environment variables
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		Port: getEnv("PORT", "8090"),
		Env:  getEnv("ENV", "development"),

		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			Enabled:         getEnvAsBool("DB_ENABLED", false),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 2),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
		},

		Provider: ProviderConfig{
			BaseURL:        getEnv("PROVIDER_BASE_URL", "https://stooq.com/q/d/l"),
			InfoBaseURL:    getEnv("PROVIDER_INFO_BASE_URL", "https://stooq.com/q"),
			RatePerSecond:  getEnvAsFloat("PROVIDER_RATE_PER_SECOND", 2.0),
			RateBurst:      getEnvAsInt("PROVIDER_RATE_BURST", 4),
			RequestTimeout: getEnvAsDuration("PROVIDER_TIMEOUT", "30s"),
			SyntheticOnly:  getEnvAsBool("PROVIDER_SYNTHETIC_ONLY", false),
		},

		Engine: EngineConfig{
			RiskFreeRate:   getEnvAsFloat("ENGINE_RISK_FREE_RATE", 0.02),
			PeriodsPerYear: getEnvAsInt("ENGINE_PERIODS_PER_YEAR", 252),
			SampleCount:    getEnvAsInt("ENGINE_SAMPLE_COUNT", 5000),
			MaxIterations:  getEnvAsInt("ENGINE_MAX_ITERATIONS", 1000),
		},

		LogLevel:  getEnv("LOG_LEVEL", "debug"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if required configuration values are set
func (c *Config) validate() error {
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	if c.Database.Enabled && c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required when DB_ENABLED=true")
	}

	if c.Engine.PeriodsPerYear <= 0 {
		return fmt.Errorf("ENGINE_PERIODS_PER_YEAR must be positive")
	}
	if c.Engine.RiskFreeRate < 0 {
		return fmt.Errorf("ENGINE_RISK_FREE_RATE must be non-negative")
	}
	if c.Engine.SampleCount <= 0 {
		return fmt.Errorf("ENGINE_SAMPLE_COUNT must be positive")
	}

	return nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{
		".env", // Current directory
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
