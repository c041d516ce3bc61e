package llm

import (
	"bytes"
	"log/slog"

	"github.com/joseph-ayodele/document-assistant/internal/common"
)

// ValidateResponse checks model output against the schema. When strict validation fails
// it retries once on a sanitized copy; anything still invalid is an ErrLLMResponse.
func ValidateResponse(schema Schema, content []byte, logger *slog.Logger) ([]byte, error) {
	if logger == nil {
		logger = slog.Default()
	}
	content = stripCodeFence(content)

	err := ValidateJSONAgainstSchema(schema.Definition, content)
	if err == nil {
		return content, nil
	}

	cleaned, changes, sErr := sanitize(schema.Definition, schema.Canonical, content, logger)
	if sErr != nil {
		logger.Error("llm.response.sanitize_failed", "schema", schema.Name, "error", sErr)
		return nil, common.NewLLMResponseError("response is not valid json", sErr)
	}
	if vErr := ValidateJSONAgainstSchema(schema.Definition, cleaned); vErr != nil {
		logger.Error("llm.response.schema_validation_failed",
			"schema", schema.Name, "error", vErr, "content", truncate(string(content), 2048))
		return nil, common.NewLLMResponseError("response does not match schema "+schema.Name, vErr)
	}
	logger.Warn("llm.response.lenient_sanitize_applied", "schema", schema.Name, "changes", changes)
	return cleaned, nil
}

// stripCodeFence removes a ```json fence some models wrap around their answer.
func stripCodeFence(b []byte) []byte {
	b = bytes.TrimSpace(b)
	if !bytes.HasPrefix(b, []byte("```")) {
		return b
	}
	b = bytes.TrimPrefix(b, []byte("```"))
	if i := bytes.IndexByte(b, '\n'); i >= 0 {
		b = b[i+1:]
	}
	b = bytes.TrimSuffix(bytes.TrimSpace(b), []byte("```"))
	return bytes.TrimSpace(b)
}
