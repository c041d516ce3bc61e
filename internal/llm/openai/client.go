package openai

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/document-assistant/internal/common"
	"github.com/joseph-ayodele/document-assistant/internal/llm"
)

// Call implements llm.Capability using chat/completions in JSON mode. The schema is sent
// as a system message and enforced locally.
func (c *Client) Call(ctx context.Context, req llm.Request) (json.RawMessage, error) {
	rid := uuid.New().String()
	start := time.Now()

	c.logger.Info("llm.call.start",
		"provider", "openai",
		"req_id", rid,
		"model", c.cfg.Model,
		"temp", c.cfg.Temperature,
		"schema", req.Schema.Name,
		"text_len", len(req.Text),
	)

	system, user := req.Messages()
	messages := []map[string]any{
		{"role": "system", "content": system},
	}
	if user != "" {
		messages = append(messages, map[string]any{"role": "user", "content": user})
	}
	messages = append(messages, map[string]any{
		"role":    "system",
		"content": "Return ONLY JSON that matches this JSON Schema:\n" + mustJSON(req.Schema.Definition),
	})

	body := map[string]any{
		"model":           c.cfg.Model,
		"temperature":     c.cfg.Temperature,
		"response_format": map[string]any{"type": "json_object"},
		"messages":        messages,
	}
	if c.cfg.MaxTokens > 0 {
		body["max_tokens"] = c.cfg.MaxTokens
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	raw, _, err := llm.SendJSON(ctx, c.http, endpoint, body, map[string]string{
		"Authorization": "Bearer " + c.cfg.APIKey,
	}, c.logger)
	if err != nil {
		c.logger.Error("llm.call.http_error",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, err
	}

	var cc struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &cc); err != nil {
		c.logger.Error("llm.call.decode_error",
			"req_id", rid, "error", err, "raw_bytes", len(raw),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, common.NewLLMResponseError("decode openai response", err)
	}
	if len(cc.Choices) == 0 {
		c.logger.Error("llm.call.no_choices",
			"req_id", rid,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, common.NewLLMResponseError("no choices in openai response", nil)
	}

	content, err := llm.ValidateResponse(req.Schema, []byte(cc.Choices[0].Message.Content), c.logger)
	if err != nil {
		return nil, err
	}

	c.logger.Info("llm.call.ok",
		"provider", "openai",
		"req_id", rid,
		"schema", req.Schema.Name,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return content, nil
}

func mustJSON(v any) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}
