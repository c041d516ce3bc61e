package repository

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"

	"github.com/joseph-ayodele/document-assistant/internal/common"
	"github.com/joseph-ayodele/document-assistant/internal/entity"
)

// PersistFunc writes the extraction record for a freshly inserted document. It runs in
// the same transaction as the document insert.
type PersistFunc func(ctx context.Context, w *ExtractionWriter, documentID int64) error

type ListFilter struct {
	Label string // empty matches every label
	Page  PageQuery
}

// DocumentRepository provides access to stored documents.
type DocumentRepository interface {
	GetByID(ctx context.Context, id int64) (*entity.Document, error)
	// GetByHash returns nil and no error when no document has the hash.
	GetByHash(ctx context.Context, hash string) (*entity.Document, error)
	// CreateWithExtraction inserts doc and its extraction in one transaction. When another
	// writer stored the same hash first, it returns that document's id and created=false.
	CreateWithExtraction(ctx context.Context, doc *entity.Document, persist PersistFunc) (id int64, created bool, err error)
	UpdateRenamedPath(ctx context.Context, id int64, path string) error
	List(ctx context.Context, filter ListFilter) (PageResult[entity.Document], error)
	Count(ctx context.Context, label string) (int, error)
	// Delete removes the document and every extraction row it owns.
	Delete(ctx context.Context, id int64) (bool, error)
}

type documentRepository struct {
	db     *DB
	t      *tables
	logger *slog.Logger
}

func NewDocumentRepository(db *DB, logger *slog.Logger) DocumentRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &documentRepository{db: db, t: newTables(db, logger), logger: logger}
}

func (r *documentRepository) GetByID(ctx context.Context, id int64) (*entity.Document, error) {
	return r.t.documents.GetByID(ctx, id)
}

func (r *documentRepository) GetByHash(ctx context.Context, hash string) (*entity.Document, error) {
	docs, err := r.t.documents.GetByFields(ctx, Fields{"file_hash": hash})
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, nil
	}
	return docs[0], nil
}

func (r *documentRepository) CreateWithExtraction(ctx context.Context, doc *entity.Document, persist PersistFunc) (int64, bool, error) {
	if doc.ProcessedAt.IsZero() {
		doc.ProcessedAt = time.Now().UTC()
	}

	var id int64
	err := r.db.WithTx(ctx, "create document", func(ctx context.Context, tx dialect.Tx) error {
		var err error
		id, err = r.t.documents.insert(ctx, tx, documentValues(doc))
		if err != nil {
			return err
		}
		if persist == nil {
			return nil
		}
		return persist(ctx, &ExtractionWriter{t: r.t, ex: tx}, id)
	})
	if err != nil {
		if isUniqueViolation(err) {
			existing, getErr := r.GetByHash(ctx, doc.FileHash)
			if getErr == nil && existing != nil {
				r.logger.Info("db.document.hash_race_resolved", "document_id", existing.ID, "file_hash", doc.FileHash)
				return existing.ID, false, nil
			}
			if getErr != nil {
				err = errors.Join(err, getErr)
			}
		}
		r.logger.Error("db.document.create_failed", "file_hash", doc.FileHash, "error", err)
		return 0, false, err
	}

	doc.ID = id
	r.logger.Info("db.document.created", "document_id", id, "label", doc.ClassificationLabel)
	return id, true, nil
}

func (r *documentRepository) UpdateRenamedPath(ctx context.Context, id int64, path string) error {
	ok, err := r.t.documents.UpdateByID(ctx, id, Values{"renamed_path": path})
	if err != nil {
		return err
	}
	if !ok {
		return common.NewNotFoundError("document " + itoa(id))
	}
	return nil
}

func (r *documentRepository) List(ctx context.Context, filter ListFilter) (PageResult[entity.Document], error) {
	return r.t.documents.List(ctx, labelFields(filter.Label), filter.Page)
}

func (r *documentRepository) Count(ctx context.Context, label string) (int, error) {
	return r.t.documents.Count(ctx, labelFields(label))
}

func (r *documentRepository) Delete(ctx context.Context, id int64) (bool, error) {
	var removed int64
	err := r.db.WithTx(ctx, "delete document", func(ctx context.Context, tx dialect.Tx) error {
		if err := r.deleteExtractions(ctx, tx, id); err != nil {
			return err
		}
		n, err := r.t.documents.deleteWhere(ctx, tx, entsql.EQ(idColumn, id))
		removed = n
		return err
	})
	if err != nil {
		return false, err
	}
	if removed > 0 {
		r.logger.Info("db.document.deleted", "document_id", id)
	}
	return removed > 0, nil
}

// deleteExtractions removes children before parents so it does not depend on ON DELETE CASCADE.
func (r *documentRepository) deleteExtractions(ctx context.Context, tx dialect.Tx, documentID int64) error {
	byDoc := Fields{"document_id": documentID}

	invoices, err := r.t.invoices.query(ctx, tx, byDoc, PageQuery{})
	if err != nil {
		return err
	}
	for _, inv := range invoices {
		if _, err := r.t.invoiceLogs.deleteWhere(ctx, tx, entsql.EQ("invoice_extraction_id", inv.ID)); err != nil {
			return err
		}
	}
	notes, err := r.t.notes.query(ctx, tx, byDoc, PageQuery{})
	if err != nil {
		return err
	}
	for _, n := range notes {
		if _, err := r.t.noteTags.deleteWhere(ctx, tx, entsql.EQ("note_extraction_id", n.ID)); err != nil {
			return err
		}
	}
	results, err := r.t.results.query(ctx, tx, byDoc, PageQuery{})
	if err != nil {
		return err
	}
	for _, res := range results {
		if _, err := r.t.testResults.deleteWhere(ctx, tx, entsql.EQ("result_extraction_id", res.ID)); err != nil {
			return err
		}
	}

	for _, parent := range []interface {
		deleteWhere(context.Context, dialect.ExecQuerier, *entsql.Predicate) (int64, error)
	}{r.t.invoices, r.t.notes, r.t.results} {
		if _, err := parent.deleteWhere(ctx, tx, entsql.EQ("document_id", documentID)); err != nil {
			return err
		}
	}
	return nil
}

func documentValues(d *entity.Document) Values {
	return Values{
		"original_path":                         d.OriginalPath,
		"renamed_path":                          d.RenamedPath,
		"file_hash":                             d.FileHash,
		"file_size":                             d.FileSize,
		"file_type":                             d.FileType,
		"classification_label":                  d.ClassificationLabel,
		"classification_confidence_level":       d.ConfidenceLevel,
		"classification_confidence_explanation": d.ConfidenceExplanation,
		"text_content":                          d.TextContent,
		"processed_at":                          d.ProcessedAt,
	}
}

func labelFields(label string) Fields {
	if label == "" {
		return nil
	}
	return Fields{"classification_label": label}
}
