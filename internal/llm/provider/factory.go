// Package provider builds the configured LLM capability.
package provider

import (
	"log/slog"
	"strings"

	"github.com/joseph-ayodele/document-assistant/internal/common"
	"github.com/joseph-ayodele/document-assistant/internal/llm"
	"github.com/joseph-ayodele/document-assistant/internal/llm/ollama"
	"github.com/joseph-ayodele/document-assistant/internal/llm/openai"
)

// New returns the capability for cfg.Provider. Unknown providers fail with
// ErrUnsupportedProvider before any document is processed.
func New(cfg common.LLMConfig, logger *slog.Logger) (llm.Capability, error) {
	if logger == nil {
		logger = slog.Default()
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case common.ProviderOllama:
		logger.Info("llm.provider.created", "provider", common.ProviderOllama, "model", cfg.Model)
		return ollama.NewClient(ollama.Config{
			BaseURL:     cfg.OllamaBaseURL,
			Model:       cfg.Model,
			Temperature: cfg.Temperature,
			MaxTokens:   cfg.MaxTokens,
			Timeout:     cfg.Timeout,
		}, logger), nil
	case common.ProviderOpenAI:
		c, err := openai.NewClient(openai.ConfigFrom(cfg), logger)
		if err != nil {
			return nil, err
		}
		logger.Info("llm.provider.created", "provider", common.ProviderOpenAI, "model", cfg.Model)
		return c, nil
	default:
		logger.Error("llm.provider.unsupported", "provider", cfg.Provider)
		return nil, common.NewUnsupportedProviderError(cfg.Provider)
	}
}
