package openai

import (
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/joseph-ayodele/document-assistant/internal/common"
)

const (
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultModel   = "gpt-4o-mini"
)

type Config struct {
	APIKey      string // falls back to OPENAI_API_KEY
	BaseURL     string
	Model       string
	Temperature float32
	MaxTokens   int // 0 leaves the provider default
	Timeout     time.Duration
}

// ConfigFrom maps the shared LLM settings onto the OpenAI client.
func ConfigFrom(c common.LLMConfig) Config {
	return Config{
		APIKey:      c.APIKey,
		BaseURL:     c.OpenAIBaseURL,
		Model:       c.Model,
		Temperature: c.Temperature,
		MaxTokens:   c.MaxTokens,
		Timeout:     c.Timeout,
	}
}

func (c Config) withDefaults() Config {
	if c.APIKey == "" {
		c.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Model == "" {
		c.Model = DefaultModel
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	return c
}

// Client calls the chat completions endpoint in JSON mode.
type Client struct {
	cfg    Config
	http   *http.Client
	logger *slog.Logger
}

// NewClient fails with ErrMissingConfig when no API key is available.
func NewClient(cfg Config, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	cfg = cfg.withDefaults()
	if cfg.APIKey == "" {
		return nil, common.NewAppError(common.CodeConfig, "OPENAI_API_KEY is required", common.ErrMissingConfig)
	}
	logger.Debug("llm.openai.configured", "model", cfg.Model, "base_url", cfg.BaseURL)
	return &Client{cfg: cfg, http: &http.Client{Timeout: cfg.Timeout}, logger: logger}, nil
}
