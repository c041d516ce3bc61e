package provider

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/document-assistant/internal/common"
	"github.com/joseph-ayodele/document-assistant/internal/llm"
	"github.com/joseph-ayodele/document-assistant/internal/llm/ollama"
	"github.com/joseph-ayodele/document-assistant/internal/llm/openai"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

const classification = `{"label":"note","confidence":{"level":"medium","explanation":"reads like a memo"}}`

func TestNew(t *testing.T) {
	c, err := New(common.LLMConfig{Provider: "Ollama", Model: "gemma:7b"}, discard())
	require.NoError(t, err)
	assert.IsType(t, &ollama.Client{}, c)

	c, err = New(common.LLMConfig{Provider: "openai", APIKey: "k"}, discard())
	require.NoError(t, err)
	assert.IsType(t, &openai.Client{}, c)

	t.Setenv("OPENAI_API_KEY", "")
	_, err = New(common.LLMConfig{Provider: "openai"}, discard())
	assert.ErrorIs(t, err, common.ErrMissingConfig)

	_, err = New(common.LLMConfig{Provider: "anthropic"}, discard())
	assert.ErrorIs(t, err, common.ErrUnsupportedProvider)
	assert.ErrorIs(t, err, common.ErrLLM)
}

func TestOllamaCall(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		var body struct {
			Model    string              `json:"model"`
			Stream   bool                `json:"stream"`
			Format   map[string]any      `json:"format"`
			Messages []map[string]string `json:"messages"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "gemma:7b", body.Model)
		assert.False(t, body.Stream)
		assert.Equal(t, "object", body.Format["type"])
		if assert.Len(t, body.Messages, 1) {
			assert.Equal(t, "Classify: dear diary", body.Messages[0]["content"])
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"message": map[string]string{"role": "assistant", "content": classification},
			"done":    true,
		})
	}))
	defer srv.Close()

	c, err := New(common.LLMConfig{Provider: "ollama", Model: "gemma:7b", OllamaBaseURL: srv.URL, Timeout: 5 * time.Second}, discard())
	require.NoError(t, err)

	out, err := c.Call(context.Background(), llm.Request{
		Prompt: "Classify: {text}",
		Text:   "dear diary",
		Schema: llm.ClassificationSchema(),
	})
	require.NoError(t, err)
	assert.JSONEq(t, classification, string(out))
}

func TestOpenAICall(t *testing.T) {
	tests := []struct {
		name    string
		content string
		status  int
		wantErr error
	}{
		{name: "valid", content: classification, status: http.StatusOK},
		{name: "schema mismatch", content: `{"label":"poem"}`, status: http.StatusOK, wantErr: common.ErrLLMResponse},
		{name: "server error", status: http.StatusInternalServerError, wantErr: common.ErrLLMConnection},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/v1/chat/completions", r.URL.Path)
				assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
				if tt.status != http.StatusOK {
					http.Error(w, "boom", tt.status)
					return
				}
				_ = json.NewEncoder(w).Encode(map[string]any{
					"choices": []map[string]any{{"message": map[string]string{"content": tt.content}}},
				})
			}))
			defer srv.Close()

			c, err := openai.NewClient(openai.Config{APIKey: "secret", BaseURL: srv.URL + "/v1"}, discard())
			require.NoError(t, err)

			out, err := c.Call(context.Background(), llm.Request{
				Prompt: "Classify the document.",
				Text:   "dear diary",
				Schema: llm.ClassificationSchema(),
			})
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.JSONEq(t, classification, string(out))
		})
	}
}

func TestOllamaCallInvoiceExtraction(t *testing.T) {
	tests := []struct {
		name     string
		answer   string
		wantType string
		price    float64
	}{
		{
			name:     "listed type",
			answer:   `{"type":"doctor-receipt","price":120.0,"date":"2023-10-01","description":"GP visit","logs":[{"log":"Extracted","date":"2023-10-01"}]}`,
			wantType: "doctor-receipt",
			price:    120,
		},
		{
			name:     "alias and decimal comma",
			answer:   `{"type":"receipt_from_doctor","price":"12,50","date":"2023-10-01","description":"GP visit","logs":[]}`,
			wantType: "doctor-receipt",
			price:    12.5,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_ = json.NewEncoder(w).Encode(map[string]any{
					"message": map[string]string{"role": "assistant", "content": tt.answer},
					"done":    true,
				})
			}))
			defer srv.Close()

			c, err := New(common.LLMConfig{Provider: "ollama", Model: "gemma:7b", OllamaBaseURL: srv.URL, Timeout: 5 * time.Second}, discard())
			require.NoError(t, err)

			out, err := c.Call(context.Background(), llm.Request{
				Prompt: "extract invoice",
				Text:   "GP visit 120.00",
				Schema: llm.InvoiceSchema(),
			})
			require.NoError(t, err)

			var got struct {
				Type  string  `json:"type"`
				Price float64 `json:"price"`
			}
			require.NoError(t, json.Unmarshal(out, &got))
			assert.Equal(t, tt.wantType, got.Type)
			assert.InDelta(t, tt.price, got.Price, 1e-9)
		})
	}
}
