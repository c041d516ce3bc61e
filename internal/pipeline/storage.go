package pipeline

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/joseph-ayodele/document-assistant/constants"
	"github.com/joseph-ayodele/document-assistant/internal/entity"
	"github.com/joseph-ayodele/document-assistant/internal/files"
	"github.com/joseph-ayodele/document-assistant/internal/metrics"
	"github.com/joseph-ayodele/document-assistant/internal/repository"
	"github.com/joseph-ayodele/document-assistant/internal/workflow"
)

// StorageStage persists a processed document exactly once per content hash and moves
// the file to its canonical name.
type StorageStage struct {
	docs    repository.DocumentRepository
	mover   files.Mover
	metrics *metrics.Pipeline
	logger  *slog.Logger
}

func NewStorageStage(docs repository.DocumentRepository, mover files.Mover, m *metrics.Pipeline, logger *slog.Logger) *StorageStage {
	if mover == nil {
		mover = files.OSMover{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &StorageStage{docs: docs, mover: mover, metrics: m, logger: logger}
}

// Store runs the storage algorithm:
//  1. hash the file; a known hash returns the stored id without writing
//  2. insert the document and its extraction in one transaction
//  3. move the file to doc_{id}_{type}_{date}_{hash8}{ext} and record the new path
//
// A state without a file path or classification is returned unchanged. A failed move
// is logged and leaves renamed_path unset.
func (st *StorageStage) Store(ctx context.Context, s workflow.StorageState) (out workflow.StorageState, err error) {
	path := s.FilePath()
	cls := s.Classification()
	if path == "" || cls == nil {
		st.logger.Warn("storage.skipped", "has_path", path != "", "has_classification", cls != nil)
		return s.WithOutcome(constants.OutcomeSkipped), nil
	}

	start := time.Now()
	defer func() { st.metrics.ObserveStage(string(workflow.StageStorage), start, err) }()

	digest, err := files.ComputeDigest(path)
	if err != nil {
		st.logger.Error("storage.hash.failed", "path", path, "error", err)
		return s, err
	}

	existing, err := st.docs.GetByHash(ctx, digest.Hex)
	if err != nil {
		return s, err
	}
	if existing != nil {
		st.metrics.DedupHit()
		st.logger.Info("storage.dedup.hit", "document_id", existing.ID, "path", path, "file_hash", digest.Hex)
		return s.WithDocumentID(existing.ID, constants.OutcomeDeduplicated), nil
	}

	date, docType, ok := s.FilenameParts()
	if !ok {
		st.logger.Warn("storage.filename.defaults", "path", path, "label", cls.Label)
	}

	doc := documentFor(s, path, digest)
	var persist repository.PersistFunc
	if ext := s.Extraction(); ext != nil {
		persist = func(ctx context.Context, w *repository.ExtractionWriter, documentID int64) error {
			return ext.Persist(ctx, w, documentID)
		}
	}

	id, created, err := st.docs.CreateWithExtraction(ctx, doc, persist)
	if err != nil {
		st.logger.Error("storage.persist.failed", "path", path, "error", err)
		return s, err
	}
	if !created {
		st.metrics.DedupHit()
		st.logger.Info("storage.dedup.race", "document_id", id, "path", path)
		return s.WithDocumentID(id, constants.OutcomeDeduplicated), nil
	}
	out = s.WithDocumentID(id, constants.OutcomeStored)

	target := files.CanonicalPath(path, id, docType, date, digest.Hex)
	if err := st.mover.Move(path, target); err != nil {
		st.metrics.RenameFailed()
		st.logger.Warn("storage.rename.failed", "document_id", id, "from", path, "to", target, "error", err)
		return out, nil
	}
	if err := st.docs.UpdateRenamedPath(ctx, id, target); err != nil {
		if rbErr := st.mover.Move(target, path); rbErr != nil {
			st.logger.Error("storage.rename.rollback_failed", "document_id", id, "path", target, "error", rbErr)
		}
		st.logger.Error("storage.rename.record_failed", "document_id", id, "error", err)
		return out, err
	}

	st.logger.Info("storage.stored",
		"document_id", id,
		"label", cls.Label,
		"renamed_path", target,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out, nil
}

func documentFor(s workflow.StorageState, path string, digest files.Digest) *entity.Document {
	cls := s.Classification()
	text := s.Text()
	doc := &entity.Document{
		OriginalPath:        path,
		FileHash:            digest.Hex,
		FileSize:            digest.Size,
		FileType:            constants.NormalizeExt(filepath.Ext(path)),
		ClassificationLabel: string(cls.Label),
		ConfidenceLevel:     string(cls.Confidence.Level),
		TextContent:         &text,
		ProcessedAt:         time.Now().UTC(),
	}
	if cls.Confidence.Explanation != "" {
		expl := cls.Confidence.Explanation
		doc.ConfidenceExplanation = &expl
	}
	return doc
}
