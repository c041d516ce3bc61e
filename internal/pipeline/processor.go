package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/document-assistant/internal/common"
	"github.com/joseph-ayodele/document-assistant/internal/files"
	"github.com/joseph-ayodele/document-assistant/internal/llm"
	"github.com/joseph-ayodele/document-assistant/internal/metrics"
	"github.com/joseph-ayodele/document-assistant/internal/reader"
	"github.com/joseph-ayodele/document-assistant/internal/repository"
	"github.com/joseph-ayodele/document-assistant/internal/workflow"
)

// Processor runs classification, then the routed extractor, then storage.
type Processor struct {
	prompts    workflow.Prompts
	classifier *Classifier
	graph      *Graph
	storage    *StorageStage
	reader     reader.Reader
	logger     *slog.Logger
}

func NewProcessor(
	prompts workflow.Prompts,
	classifier *Classifier,
	graph *Graph,
	storage *StorageStage,
	rd reader.Reader,
	logger *slog.Logger,
) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		prompts:    prompts,
		classifier: classifier,
		graph:      graph,
		storage:    storage,
		reader:     rd,
		logger:     logger,
	}
}

// Deps are the collaborators Build wires into a processor.
type Deps struct {
	LLM       llm.Capability
	Prompts   workflow.Prompts
	Documents repository.DocumentRepository
	Reader    reader.Reader
	Mover     files.Mover
	Metrics   *metrics.Pipeline
	Logger    *slog.Logger
}

// Build assembles the standard graph: one extractor per label, all ending in storage.
func Build(d Deps) (*Processor, error) {
	graph, err := NewGraph(DefaultRoutes(),
		NewInvoiceExtractor(d.LLM, d.Metrics, d.Logger),
		NewNoteExtractor(d.LLM, d.Metrics, d.Logger),
		NewResultExtractor(d.LLM, d.Metrics, d.Logger),
	)
	if err != nil {
		return nil, err
	}
	return NewProcessor(
		d.Prompts,
		NewClassifier(d.LLM, d.Metrics, d.Logger),
		graph,
		NewStorageStage(d.Documents, d.Mover, d.Metrics, d.Logger),
		d.Reader,
		d.Logger,
	), nil
}

// Run processes text that came from filePath. filePath may be empty, in which case
// storage is skipped. A run id already on ctx is kept.
func (p *Processor) Run(ctx context.Context, text, filePath string) (workflow.StorageState, error) {
	if common.RunIDFromContext(ctx) == "" {
		ctx = common.WithRunID(ctx, uuid.New().String())
	}
	if filePath != "" {
		ctx = common.WithFilePath(ctx, filePath)
	}
	log := common.LoggerFromContext(ctx, p.logger)
	start := time.Now()
	log.Info("pipeline.run.start", "text_len", len(text))

	cs, err := p.classifier.Classify(ctx, workflow.NewClassificationState(text, filePath, p.prompts))
	if err != nil {
		return workflow.StorageState{}, common.NewClassificationError("classification stage", err)
	}

	stage, err := p.graph.Route(cs.Result.Label)
	if err != nil {
		return cs.ToStorage(), err
	}
	es, err := workflow.NewExtractionState(cs, stage, p.prompts)
	if err != nil {
		return cs.ToStorage(), err
	}
	x, ok := p.graph.Extractor(stage)
	if !ok {
		return cs.ToStorage(), common.NewStateValidationError("no extractor for stage " + string(stage))
	}
	es, err = x.Extract(ctx, es)
	if err != nil {
		return es.ToStorage(), common.NewExtractionError(string(stage), err)
	}

	out, err := p.storage.Store(ctx, es.ToStorage())
	if err != nil {
		return out, common.NewStorageError("storage stage", err)
	}

	id, _ := out.DocumentID()
	log.Info("pipeline.run.ok",
		"label", cs.Result.Label,
		"stage", stage,
		"document_id", id,
		"outcome", out.Outcome(),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out, nil
}

// ProcessFile reads path and runs it through the pipeline.
func (p *Processor) ProcessFile(ctx context.Context, path string) (workflow.StorageState, error) {
	if p.reader == nil {
		return workflow.StorageState{}, common.NewUnsupportedFileTypeError(path)
	}
	doc, err := p.reader.Read(ctx, path)
	if err != nil {
		p.logger.Error("pipeline.read.failed", "path", path, "error", err)
		return workflow.StorageState{}, err
	}
	return p.Run(ctx, doc.Content, path)
}
