package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/document-assistant/internal/common"
)

// SendJSON posts body to url and returns the raw response. The request carries
// X-Request-ID, taken from the run id in ctx when there is one.
// Transport failures and non-2xx answers come back as ErrLLMConnection or ErrLLMTimeout.
func SendJSON(ctx context.Context, client *http.Client, url string, body any, headers map[string]string, logger *slog.Logger) ([]byte, int, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if client == nil {
		client = &http.Client{Timeout: 45 * time.Second}
	}

	reqID := common.RunIDFromContext(ctx)
	if reqID == "" {
		reqID = uuid.NewString()
	}
	log := logger.With("req_id", reqID)
	start := time.Now()

	bs, err := json.Marshal(body)
	if err != nil {
		log.Error("llm.http.encode_error", "error", err)
		return nil, 0, common.NewLLMConnectionError("encode request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bs))
	if err != nil {
		log.Error("llm.http.build_request_error", "error", err)
		return nil, 0, common.NewLLMConnectionError("build request", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", reqID)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	log.Debug("llm.http.request", "url", url, "content_length", len(bs))

	resp, err := client.Do(req)
	if err != nil {
		log.Error("llm.http.send_error", "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return nil, 0, TransportError(err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			log.Warn("llm.http.response_body_close_error", "error", err)
		}
	}()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, TransportError(err)
	}

	log.Info("llm.http.response",
		"status", resp.StatusCode,
		"bytes", len(raw),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return raw, resp.StatusCode, statusError(resp.StatusCode, raw)
}

func statusError(code int, body []byte) error {
	if code/100 == 2 {
		return nil
	}
	cause := errors.New(truncate(string(body), 512))
	if code == http.StatusRequestTimeout || code == http.StatusGatewayTimeout {
		return common.NewLLMTimeoutError(fmt.Sprintf("provider timed out: %d", code), cause)
	}
	return common.NewLLMConnectionError(fmt.Sprintf("non-2xx status: %d", code), cause)
}

// TransportError maps a failed round trip onto the timeout or connection sentinel.
func TransportError(err error) error {
	var ne net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &ne) && ne.Timeout()) {
		return common.NewLLMTimeoutError("llm request timed out", err)
	}
	return common.NewLLMConnectionError("llm request failed", err)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "...(truncated)"
}
