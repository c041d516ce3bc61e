// Package pipeline runs a document's text through classification, routing,
// extraction and storage.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/document-assistant/constants"
	"github.com/joseph-ayodele/document-assistant/internal/common"
	"github.com/joseph-ayodele/document-assistant/internal/llm"
	"github.com/joseph-ayodele/document-assistant/internal/metrics"
	"github.com/joseph-ayodele/document-assistant/internal/workflow"
)

// Classifier asks the model for a label and a confidence rating.
type Classifier struct {
	llm     llm.Capability
	schema  llm.Schema
	metrics *metrics.Pipeline
	logger  *slog.Logger
}

func NewClassifier(capability llm.Capability, m *metrics.Pipeline, logger *slog.Logger) *Classifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Classifier{llm: capability, schema: llm.ClassificationSchema(), metrics: m, logger: logger}
}

type rawClassification struct {
	Label      string `json:"label"`
	Confidence struct {
		Level       string `json:"level"`
		Explanation string `json:"explanation"`
	} `json:"confidence"`
}

// Classify returns a copy of s with its result set. Empty text is forwarded as is.
// Capability errors are returned unchanged and never retried.
func (c *Classifier) Classify(ctx context.Context, s workflow.ClassificationState) (out workflow.ClassificationState, err error) {
	start := time.Now()
	defer func() { c.metrics.ObserveStage(string(workflow.StageClassification), start, err) }()

	raw, err := c.llm.Call(ctx, llm.Request{Prompt: s.Prompt, Text: s.Text, Schema: c.schema})
	if err != nil {
		c.logger.Error("pipeline.classify.failed", "path", s.FilePath, "error", err)
		return s, err
	}

	result, err := parseClassification(raw)
	if err != nil {
		c.logger.Error("pipeline.classify.bad_response", "path", s.FilePath, "error", err)
		return s, err
	}

	c.logger.Info("pipeline.classify.ok",
		"path", s.FilePath,
		"label", result.Label,
		"confidence", result.Confidence.Level,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return s.WithResult(result), nil
}

func parseClassification(raw json.RawMessage) (workflow.Classification, error) {
	var rc rawClassification
	if err := json.Unmarshal(raw, &rc); err != nil {
		return workflow.Classification{}, common.NewLLMResponseError("decode classification", err)
	}
	label, ok := constants.ParseDocumentType(rc.Label)
	if !ok {
		return workflow.Classification{}, common.NewLLMResponseError(fmt.Sprintf("unknown label %q", rc.Label), nil)
	}
	level, ok := constants.ParseConfidenceLevel(rc.Confidence.Level)
	if !ok {
		return workflow.Classification{}, common.NewLLMResponseError(
			fmt.Sprintf("unknown confidence level %q", rc.Confidence.Level), nil)
	}
	return workflow.Classification{
		Label: label,
		Confidence: workflow.Confidence{
			Level:       level,
			Explanation: rc.Confidence.Explanation,
		},
	}, nil
}
