package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/document-assistant/internal/common"
	"github.com/joseph-ayodele/document-assistant/internal/llm"
	"github.com/joseph-ayodele/document-assistant/internal/metrics"
	"github.com/joseph-ayodele/document-assistant/internal/workflow"
)

// ExtractStage is one node the router can send a classified document to.
type ExtractStage interface {
	Stage() workflow.Stage
	Extract(ctx context.Context, s workflow.ExtractionState) (workflow.ExtractionState, error)
}

// Extractor is the single extraction algorithm, specialised by stage, schema and result type.
type Extractor[T any, PT interface {
	*T
	workflow.Extraction
}] struct {
	stage   workflow.Stage
	schema  llm.Schema
	llm     llm.Capability
	metrics *metrics.Pipeline
	logger  *slog.Logger
}

func NewExtractor[T any, PT interface {
	*T
	workflow.Extraction
}](stage workflow.Stage, schema llm.Schema, capability llm.Capability, m *metrics.Pipeline, logger *slog.Logger) *Extractor[T, PT] {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor[T, PT]{stage: stage, schema: schema, llm: capability, metrics: m, logger: logger}
}

func NewInvoiceExtractor(capability llm.Capability, m *metrics.Pipeline, logger *slog.Logger) *Extractor[workflow.InvoiceExtraction, *workflow.InvoiceExtraction] {
	return NewExtractor[workflow.InvoiceExtraction](workflow.StageInvoiceExtractor, llm.InvoiceSchema(), capability, m, logger)
}

func NewNoteExtractor(capability llm.Capability, m *metrics.Pipeline, logger *slog.Logger) *Extractor[workflow.NoteExtraction, *workflow.NoteExtraction] {
	return NewExtractor[workflow.NoteExtraction](workflow.StageNoteExtractor, llm.NoteSchema(), capability, m, logger)
}

func NewResultExtractor(capability llm.Capability, m *metrics.Pipeline, logger *slog.Logger) *Extractor[workflow.ResultExtraction, *workflow.ResultExtraction] {
	return NewExtractor[workflow.ResultExtraction](workflow.StageResultExtractor, llm.ResultSchema(), capability, m, logger)
}

func (e *Extractor[T, PT]) Stage() workflow.Stage { return e.stage }

// Extract calls the model with the stage prompt and attaches the typed result to a copy of s.
func (e *Extractor[T, PT]) Extract(ctx context.Context, s workflow.ExtractionState) (out workflow.ExtractionState, err error) {
	if !s.Valid() {
		return s, common.NewStateValidationError("extraction requires a classified state")
	}
	if s.Stage() != e.stage {
		return s, common.NewStateValidationError(fmt.Sprintf("state for %q sent to %q", s.Stage(), e.stage))
	}

	start := time.Now()
	defer func() { e.metrics.ObserveStage(string(e.stage), start, err) }()

	raw, err := e.llm.Call(ctx, llm.Request{Prompt: s.Prompt(), Text: s.Text(), Schema: e.schema})
	if err != nil {
		e.logger.Error("pipeline.extract.failed", "stage", e.stage, "path", s.FilePath(), "error", err)
		return s, err
	}

	result := PT(new(T))
	if err := json.Unmarshal(raw, result); err != nil {
		e.logger.Error("pipeline.extract.bad_response", "stage", e.stage, "error", err)
		return s, common.NewLLMResponseError("decode "+e.schema.Name, err)
	}
	if n, ok := any(result).(interface{ Normalize() }); ok {
		n.Normalize()
	}

	out, err = s.WithExtraction(result)
	if err != nil {
		return s, err
	}
	e.logger.Info("pipeline.extract.ok",
		"stage", e.stage,
		"path", s.FilePath(),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out, nil
}
