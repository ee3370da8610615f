package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	// Database configuration
	DatabaseHost     string
	DatabasePort     string
	DatabaseName     string
	DatabaseUser     string
	DatabasePassword string
	DatabaseMaxOpen  int
	DatabaseMaxIdle  int

	// Redis configuration
	RedisHost     string
	RedisPassword string
	RedisPort     string

	// HTTP server
	ServerPort int

	// LLM configuration
	LLM LLMConfig

	// Pattern analysis configuration
	Analysis AnalysisConfig

	// Logging configuration
	Log LogConfig

	// EnvFileLoaded reports whether a .env file was found at startup
	EnvFileLoaded bool
}

// LLMConfig holds LLM service configuration
type LLMConfig struct {
	Enabled           bool
	Endpoint          string
	APIKey            string
	Model             string
	RequestsPerMinute int
	AnswerCacheTTL    time.Duration
}

// AnalysisConfig holds pattern statistics and similarity parameters
type AnalysisConfig struct {
	DefaultWindowDays int
	StatisticsPairs   []string

	// Similarity weights (sum to 1.0 by default)
	WeightCurrencyPair  float64
	WeightTimeframe     float64
	WeightPattern       float64
	WeightRecency       float64
	SimilarityThreshold float64

	// Learning data export
	LearningDir      string
	LearningInterval time.Duration
	LearningDays     int
}

// LogConfig holds logger settings
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() *Config {
	// Load .env file if exists
	envLoaded := godotenv.Load() == nil

	return &Config{
		EnvFileLoaded: envLoaded,

		// Database configuration
		DatabaseHost:     getEnvOrDefault("DB_HOST", "localhost"),
		DatabasePort:     getEnvOrDefault("DB_PORT", "5432"),
		DatabaseName:     getEnvOrDefault("DB_NAME", "fx_forecast"),
		DatabaseUser:     getEnvOrDefault("DB_USER", "fxforecast"),
		DatabasePassword: getEnvOrDefault("DB_PASSWORD", "fxforecast"),
		DatabaseMaxOpen:  getEnvInt("DB_MAX_OPEN_CONNS", 25),
		DatabaseMaxIdle:  getEnvInt("DB_MAX_IDLE_CONNS", 5),

		// Redis configuration
		RedisHost:     getEnvOrDefault("REDIS_HOST", "localhost"),
		RedisPort:     getEnvOrDefault("REDIS_PORT", "6379"),
		RedisPassword: getEnvOrDefault("REDIS_PASSWORD", ""),

		ServerPort: getEnvInt("SERVER_PORT", 8000),

		// LLM configuration
		LLM: LLMConfig{
			Enabled:           getEnvOrDefault("LLM_ENABLED", "false") == "true",
			Endpoint:          getEnvOrDefault("LLM_ENDPOINT", "https://api.openai.com/v1"),
			APIKey:            getEnvOrDefault("LLM_API_KEY", ""),
			Model:             getEnvOrDefault("LLM_MODEL", "gpt-4o-mini"),
			RequestsPerMinute: getEnvInt("LLM_REQUESTS_PER_MINUTE", 20),
			AnswerCacheTTL:    getEnvDuration("LLM_ANSWER_CACHE_TTL", 24*time.Hour),
		},

		Analysis: AnalysisConfig{
			DefaultWindowDays: getEnvInt("ANALYSIS_WINDOW_DAYS", 30),
			StatisticsPairs:   getEnvList("ANALYSIS_STATISTICS_PAIRS", []string{"XAUUSD", "USDJPY", "EURUSD", "GBPUSD"}),

			WeightCurrencyPair:  getEnvFloat("SIMILARITY_WEIGHT_PAIR", 0.3),
			WeightTimeframe:     getEnvFloat("SIMILARITY_WEIGHT_TIMEFRAME", 0.2),
			WeightPattern:       getEnvFloat("SIMILARITY_WEIGHT_PATTERN", 0.3),
			WeightRecency:       getEnvFloat("SIMILARITY_WEIGHT_RECENCY", 0.2),
			SimilarityThreshold: getEnvFloat("SIMILARITY_THRESHOLD", 0.5),

			LearningDir:      getEnvOrDefault("LEARNING_DATA_DIR", "data/learning"),
			LearningInterval: getEnvDuration("LEARNING_COMPILE_INTERVAL", 24*time.Hour),
			LearningDays:     getEnvInt("LEARNING_DAYS_BACK", 30),
		},

		Log: LogConfig{
			Level:  getEnvOrDefault("LOG_LEVEL", "info"),
			Format: getEnvOrDefault("LOG_FORMAT", "json"),
		},
	}
}

// DSN returns the Postgres connection string
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
		c.DatabaseHost, c.DatabaseUser, c.DatabasePassword, c.DatabaseName, c.DatabasePort)
}

// getEnvInt gets environment variable as int or returns default value
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var intValue int
	if _, err := fmt.Sscanf(value, "%d", &intValue); err != nil {
		return defaultValue
	}
	return intValue
}

// getEnvFloat gets environment variable as float64 or returns default value
func getEnvFloat(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var floatValue float64
	if _, err := fmt.Sscanf(value, "%f", &floatValue); err != nil {
		return defaultValue
	}
	return floatValue
}

// getEnvDuration parses values like "30m" or "24h"
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return defaultValue
	}
	return d
}

// getEnvList splits a comma separated variable, dropping empty items
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, strings.ToUpper(item))
		}
	}
	if len(items) == 0 {
		return defaultValue
	}
	return items
}

// getEnvOrDefault gets environment variable or returns default value
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
