package common

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// Supported backends.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"
)

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig
	LLM      LLMConfig
	Paths    PathsConfig
	Queue    QueueConfig
	Server   ServerConfig
	OCR      OCRConfig
	LogLevel string
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	Driver           string
	Path             string // sqlite file
	DSN              string // postgres url
	MaxConns         int32
	MinConns         int32
	MaxConnLifetime  time.Duration
	MaxConnIdleTime  time.Duration
	DialTimeout      time.Duration
	StatementTimeout time.Duration
}

// LLMConfig holds LLM-related configuration
type LLMConfig struct {
	Provider      string
	Model         string
	APIKey        string
	OpenAIBaseURL string
	OllamaBaseURL string
	Temperature   float32
	MaxTokens     int
	Timeout       time.Duration
}

type PathsConfig struct {
	DataDir  string
	InboxDir string
}

type QueueConfig struct {
	Workers        int
	Size           int
	ProcessTimeout time.Duration
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	GRPCAddr    string
	MetricsAddr string
}

type OCRConfig struct {
	Tesseract     string
	TesseractLang string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	provider := strings.ToLower(strings.TrimSpace(getEnv("LLM_PROVIDER", ProviderOllama)))
	return &Config{
		Database: DatabaseConfig{
			Driver:           strings.ToLower(strings.TrimSpace(getEnv("DB_DRIVER", DriverSQLite))),
			Path:             getEnv("DB_PATH", "data/extractions.db"),
			DSN:              getEnv("DB_URL", ""),
			MaxConns:         getEnvAsInt32("DB_MAX_CONNS", 10),
			MinConns:         getEnvAsInt32("DB_MIN_CONNS", 1),
			MaxConnLifetime:  getEnvAsDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute),
			MaxConnIdleTime:  getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 5*time.Minute),
			DialTimeout:      getEnvAsDuration("DB_DIAL_TIMEOUT", 3*time.Second),
			StatementTimeout: getEnvAsDuration("DB_STATEMENT_TIMEOUT", 0),
		},
		LLM: LLMConfig{
			Provider:      provider,
			Model:         getEnv("LLM_MODEL", defaultModel(provider)),
			APIKey:        getEnv("OPENAI_API_KEY", ""),
			OpenAIBaseURL: getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			OllamaBaseURL: getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			Temperature:   getEnvAsFloat32("LLM_TEMPERATURE", 0.2),
			MaxTokens:     getEnvAsInt("LLM_MAX_TOKENS", 2000),
			Timeout:       getEnvAsDuration("LLM_TIMEOUT", 90*time.Second),
		},
		Paths: PathsConfig{
			DataDir:  getEnv("DATA_DIR", "data"),
			InboxDir: getEnv("INBOX_DIR", "data/inbox"),
		},
		Queue: QueueConfig{
			Workers:        getEnvAsInt("QUEUE_WORKERS", 2),
			Size:           getEnvAsInt("QUEUE_SIZE", 64),
			ProcessTimeout: getEnvAsDuration("PROCESS_TIMEOUT", 3*time.Minute),
		},
		Server: ServerConfig{
			GRPCAddr:    getEnv("GRPC_ADDR", ":8080"),
			MetricsAddr: getEnv("METRICS_ADDR", ":9090"),
		},
		OCR: OCRConfig{
			Tesseract:     getEnv("TESSERACT_BIN", "tesseract"),
			TesseractLang: getEnv("TESSERACT_LANG", "eng"),
		},
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

func defaultModel(provider string) string {
	if provider == ProviderOpenAI {
		return "gpt-4o-mini"
	}
	return "gemma:7b"
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
		}
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate checks the loaded configuration. Provider and credential problems are
// reported with their own sentinels; everything else is collected into one config error.
func (c *Config) Validate() error {
	switch c.LLM.Provider {
	case ProviderOllama, ProviderOpenAI:
	default:
		return NewUnsupportedProviderError(c.LLM.Provider)
	}
	if c.LLM.Provider == ProviderOpenAI && c.LLM.APIKey == "" {
		return NewAppError(CodeConfig, "OPENAI_API_KEY is required", ErrMissingConfig)
	}
	if err := c.ValidateDatabase(); err != nil {
		return err
	}

	var chk Checker
	chk.Required("LLM_MODEL", c.LLM.Model).
		Between("LLM_TEMPERATURE", float64(c.LLM.Temperature), 0, 2).
		Positive("LLM_MAX_TOKENS", c.LLM.MaxTokens).
		Positive("QUEUE_WORKERS", c.Queue.Workers)
	if chk.Failed() {
		return NewConfigError(chk.String(), errors.Join(ErrConfig, chk.Err()))
	}
	return nil
}

// ValidateDatabase checks only the store settings, for commands that never call a model.
func (c *Config) ValidateDatabase() error {
	if c.Database.Driver == DriverPostgres && c.Database.DSN == "" {
		return NewAppError(CodeConfig, "DB_URL is required for postgres", ErrMissingConfig)
	}
	var chk Checker
	chk.OneOf("DB_DRIVER", c.Database.Driver, DriverSQLite, DriverPostgres)
	if c.Database.Driver == DriverSQLite {
		chk.Required("DB_PATH", c.Database.Path)
	}
	if chk.Failed() {
		return NewConfigError(chk.String(), errors.Join(ErrConfig, chk.Err()))
	}
	return nil
}
