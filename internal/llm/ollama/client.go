// Package ollama talks to a local Ollama server through /api/chat with structured outputs.
package ollama

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/document-assistant/internal/common"
	"github.com/joseph-ayodele/document-assistant/internal/llm"
)

type Config struct {
	BaseURL     string // default http://localhost:11434
	Model       string
	Temperature float32
	MaxTokens   int
	Timeout     time.Duration
}

type Client struct {
	cfg    Config
	http   *http.Client
	logger *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:11434"
	}
	if cfg.Model == "" {
		cfg.Model = "gemma:7b"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 90 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{cfg: cfg, http: &http.Client{Timeout: cfg.Timeout}, logger: logger}
}

type chatResponse struct {
	Message struct {
		Content string `json:"content"`
	} `json:"message"`
	Done  bool   `json:"done"`
	Error string `json:"error"`
}

// Call implements llm.Capability. The schema goes in the request's format field.
func (c *Client) Call(ctx context.Context, req llm.Request) (json.RawMessage, error) {
	rid := uuid.New().String()
	start := time.Now()

	c.logger.Info("llm.call.start",
		"provider", "ollama",
		"req_id", rid,
		"model", c.cfg.Model,
		"schema", req.Schema.Name,
		"text_len", len(req.Text),
	)

	system, user := req.Messages()
	messages := []map[string]string{{"role": "system", "content": system}}
	if user != "" {
		messages = append(messages, map[string]string{"role": "user", "content": user})
	}

	options := map[string]any{"temperature": c.cfg.Temperature}
	if c.cfg.MaxTokens > 0 {
		options["num_predict"] = c.cfg.MaxTokens
	}
	body := map[string]any{
		"model":    c.cfg.Model,
		"messages": messages,
		"format":   req.Schema.Definition,
		"stream":   false,
		"options":  options,
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/api/chat"
	raw, _, err := llm.SendJSON(ctx, c.http, endpoint, body, nil, c.logger)
	if err != nil {
		c.logger.Error("llm.call.http_error", "req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds())
		return nil, err
	}

	var cr chatResponse
	if err := json.Unmarshal(raw, &cr); err != nil {
		return nil, common.NewLLMResponseError("decode ollama response", err)
	}
	if cr.Error != "" {
		return nil, common.NewLLMResponseError("ollama error: "+cr.Error, nil)
	}

	content, err := llm.ValidateResponse(req.Schema, []byte(cr.Message.Content), c.logger)
	if err != nil {
		return nil, err
	}
	c.logger.Info("llm.call.ok",
		"provider", "ollama",
		"req_id", rid,
		"schema", req.Schema.Name,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return content, nil
}
