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

	// Redis
	Redis RedisConfig

	// External APIs
	Groq      GroqConfig
	Wikipedia WikipediaConfig
	Trends    TrendsConfig
	Listing   ListingConfig

	// Dataset & artifacts
	Dataset DatasetConfig

	// Pipeline
	PipelineConfigPath string

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
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	URL      string
	Enabled  bool

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// GroqConfig holds Groq chat-completion API configuration
// 심볼 → 이름 해석용 (선택적)
type GroqConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

// WikipediaConfig holds MediaWiki API configuration
type WikipediaConfig struct {
	BaseURL   string
	UserAgent string
}

// TrendsConfig holds search-interest API configuration
type TrendsConfig struct {
	BaseURL string
}

// ListingConfig holds the symbol directory page used as a
// name-resolution fallback
type ListingConfig struct {
	BaseURL string
}

// DatasetConfig holds dataset source and artifact locations
type DatasetConfig struct {
	// Path to a local CSV, takes priority over URL when both are set
	Path string
	// HTTP(S) source for the raw dataset CSV
	URL string
	// Directory for downloaded datasets
	DataDir string
	// Directory for per-symbol output artifacts
	OutputDir string
}

// Load reads configuration from environment variables
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	// Try multiple paths for .env file
	loadEnvFile()

	cfg := &Config{
		// Server
		Port: getEnv("PORT", "8091"),
		Env:  getEnv("ENV", "development"),

		// Database
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			Name:            getEnv("DB_NAME", "kairos"),
			User:            getEnv("DB_USER", "kairos"),
			Password:        getEnv("DB_PASSWORD", ""),
			URL:             getEnv("DATABASE_URL", ""),
			Enabled:         getEnvAsBool("DB_ENABLED", false),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 25),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 5),
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

		// External APIs
		Groq: GroqConfig{
			APIKey:  getEnv("GROQ_API_KEY", ""),
			BaseURL: getEnv("GROQ_BASE_URL", "https://api.groq.com/openai/v1"),
			Model:   getEnv("GROQ_MODEL", "llama-3.3-70b-versatile"),
		},

		Wikipedia: WikipediaConfig{
			BaseURL:   getEnv("WIKIPEDIA_BASE_URL", "https://en.wikipedia.org/w/api.php"),
			UserAgent: getEnv("WIKIPEDIA_USER_AGENT", "kairos/1.0 (research pipeline)"),
		},

		Trends: TrendsConfig{
			BaseURL: getEnv("TRENDS_BASE_URL", "https://trends.google.com/trends/api"),
		},

		Listing: ListingConfig{
			BaseURL: getEnv("LISTING_BASE_URL", "https://coinmarketcap.com"),
		},

		// Dataset & artifacts
		Dataset: DatasetConfig{
			Path:      getEnv("DATASET_PATH", ""),
			URL:       getEnv("DATASET_URL", ""),
			DataDir:   getEnv("DATA_DIR", "data"),
			OutputDir: getEnv("OUTPUT_DIR", "data/processed"),
		},

		// Pipeline
		PipelineConfigPath: getEnv("PIPELINE_CONFIG", "configs/pipeline.yaml"),

		// Logging
		LogLevel:  getEnv("LOG_LEVEL", "debug"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}

	// Validate configuration
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if required configuration values are set
func (c *Config) validate() error {
	// Validate environment
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	// Database URL is required only when persistence is on
	if c.Database.Enabled && c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required when DB_ENABLED=true")
	}

	if c.Dataset.OutputDir == "" {
		return fmt.Errorf("OUTPUT_DIR must not be empty")
	}

	return nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	// Try paths in order of priority
	paths := []string{
		".env", // Current directory
	}

	// Also try relative to executable
	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
			filepath.Join(exeDir, "..", "..", ".env"),
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
		// Fallback to default
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}
