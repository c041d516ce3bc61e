package repository

import (
	"context"
	"errors"
	"log/slog"
	"strconv"

	"entgo.io/ent/dialect"

	"github.com/joseph-ayodele/document-assistant/internal/common"
	"github.com/joseph-ayodele/document-assistant/internal/entity"
)

// ExtractionWriter inserts extraction records and their children on a transaction.
// It is only handed out by DocumentRepository.CreateWithExtraction.
type ExtractionWriter struct {
	t  *tables
	ex dialect.ExecQuerier
}

func (w *ExtractionWriter) CreateInvoiceExtraction(ctx context.Context, rec *entity.InvoiceExtraction) (int64, error) {
	id, err := w.t.invoices.insert(ctx, w.ex, Values{
		"document_id": rec.DocumentID,
		"type":        rec.Type,
		"price":       rec.Price,
		"date":        rec.Date,
		"description": rec.Description,
		"notes":       rec.Notes,
	})
	if err != nil {
		return 0, err
	}
	rec.ID = id
	for i := range rec.Logs {
		l := &rec.Logs[i]
		l.InvoiceExtractionID = id
		if l.ID, err = w.t.invoiceLogs.insert(ctx, w.ex, Values{
			"invoice_extraction_id": id,
			"log":                   l.Log,
			"date":                  l.Date,
		}); err != nil {
			return 0, err
		}
	}
	return id, nil
}

func (w *ExtractionWriter) CreateNoteExtraction(ctx context.Context, rec *entity.NoteExtraction) (int64, error) {
	id, err := w.t.notes.insert(ctx, w.ex, Values{
		"document_id": rec.DocumentID,
		"author":      rec.Author,
		"date":        rec.Date,
		"content":     rec.Content,
	})
	if err != nil {
		return 0, err
	}
	rec.ID = id
	for i := range rec.Tags {
		tag := &rec.Tags[i]
		tag.NoteExtractionID = id
		if tag.ID, err = w.t.noteTags.insert(ctx, w.ex, Values{
			"note_extraction_id": id,
			"tag":                tag.Tag,
		}); err != nil {
			return 0, err
		}
	}
	return id, nil
}

func (w *ExtractionWriter) CreateResultExtraction(ctx context.Context, rec *entity.ResultExtraction) (int64, error) {
	id, err := w.t.results.insert(ctx, w.ex, Values{
		"document_id":   rec.DocumentID,
		"patient_name":  rec.PatientName,
		"overall_notes": rec.OverallNotes,
	})
	if err != nil {
		return 0, err
	}
	rec.ID = id
	for i := range rec.TestResults {
		tr := &rec.TestResults[i]
		tr.ResultExtractionID = id
		if tr.ID, err = w.t.testResults.insert(ctx, w.ex, Values{
			"result_extraction_id": id,
			"test_name":            tr.TestName,
			"value":                tr.Value,
			"unit":                 tr.Unit,
			"reference_range":      tr.ReferenceRange,
			"date":                 tr.Date,
			"notes":                tr.Notes,
		}); err != nil {
			return 0, err
		}
	}
	return id, nil
}

// ExtractionRepository reads extraction records. Children are loaded through their
// parent's id.
type ExtractionRepository interface {
	GetInvoice(ctx context.Context, documentID int64) (*entity.InvoiceExtraction, error)
	GetNote(ctx context.Context, documentID int64) (*entity.NoteExtraction, error)
	GetResult(ctx context.Context, documentID int64) (*entity.ResultExtraction, error)
	// Detail returns the document together with whichever extraction it owns.
	Detail(ctx context.Context, documentID int64) (*entity.ExtractionDetail, error)
	ListInvoices(ctx context.Context) ([]*entity.InvoiceExtraction, error)
	ListNotes(ctx context.Context) ([]*entity.NoteExtraction, error)
	ListResults(ctx context.Context) ([]*entity.ResultExtraction, error)
}

type extractionRepository struct {
	t      *tables
	logger *slog.Logger
}

func NewExtractionRepository(db *DB, logger *slog.Logger) ExtractionRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &extractionRepository{t: newTables(db, logger), logger: logger}
}

func (r *extractionRepository) GetInvoice(ctx context.Context, documentID int64) (*entity.InvoiceExtraction, error) {
	recs, err := r.t.invoices.GetByFields(ctx, Fields{"document_id": documentID})
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, common.NewNotFoundError("invoice extraction for document " + itoa(documentID))
	}
	return recs[0], r.loadInvoiceLogs(ctx, recs[0])
}

func (r *extractionRepository) GetNote(ctx context.Context, documentID int64) (*entity.NoteExtraction, error) {
	recs, err := r.t.notes.GetByFields(ctx, Fields{"document_id": documentID})
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, common.NewNotFoundError("note extraction for document " + itoa(documentID))
	}
	return recs[0], r.loadNoteTags(ctx, recs[0])
}

func (r *extractionRepository) GetResult(ctx context.Context, documentID int64) (*entity.ResultExtraction, error) {
	recs, err := r.t.results.GetByFields(ctx, Fields{"document_id": documentID})
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, common.NewNotFoundError("result extraction for document " + itoa(documentID))
	}
	return recs[0], r.loadTestResults(ctx, recs[0])
}

func (r *extractionRepository) Detail(ctx context.Context, documentID int64) (*entity.ExtractionDetail, error) {
	doc, err := r.t.documents.GetByID(ctx, documentID)
	if err != nil {
		return nil, err
	}
	detail := &entity.ExtractionDetail{Document: doc}

	if detail.Invoice, err = r.GetInvoice(ctx, documentID); err != nil && !errors.Is(err, common.ErrNotFound) {
		return nil, err
	}
	if detail.Note, err = r.GetNote(ctx, documentID); err != nil && !errors.Is(err, common.ErrNotFound) {
		return nil, err
	}
	if detail.Result, err = r.GetResult(ctx, documentID); err != nil && !errors.Is(err, common.ErrNotFound) {
		return nil, err
	}
	return detail, nil
}

func (r *extractionRepository) ListInvoices(ctx context.Context) ([]*entity.InvoiceExtraction, error) {
	recs, err := r.t.invoices.GetByFields(ctx, nil)
	if err != nil {
		return nil, err
	}
	for _, rec := range recs {
		if err := r.loadInvoiceLogs(ctx, rec); err != nil {
			return nil, err
		}
	}
	return recs, nil
}

func (r *extractionRepository) ListNotes(ctx context.Context) ([]*entity.NoteExtraction, error) {
	recs, err := r.t.notes.GetByFields(ctx, nil)
	if err != nil {
		return nil, err
	}
	for _, rec := range recs {
		if err := r.loadNoteTags(ctx, rec); err != nil {
			return nil, err
		}
	}
	return recs, nil
}

func (r *extractionRepository) ListResults(ctx context.Context) ([]*entity.ResultExtraction, error) {
	recs, err := r.t.results.GetByFields(ctx, nil)
	if err != nil {
		return nil, err
	}
	for _, rec := range recs {
		if err := r.loadTestResults(ctx, rec); err != nil {
			return nil, err
		}
	}
	return recs, nil
}

func (r *extractionRepository) loadInvoiceLogs(ctx context.Context, rec *entity.InvoiceExtraction) error {
	logs, err := r.t.invoiceLogs.GetByFields(ctx, Fields{"invoice_extraction_id": rec.ID})
	if err != nil {
		return err
	}
	rec.Logs = derefAll(logs)
	return nil
}

func (r *extractionRepository) loadNoteTags(ctx context.Context, rec *entity.NoteExtraction) error {
	tags, err := r.t.noteTags.GetByFields(ctx, Fields{"note_extraction_id": rec.ID})
	if err != nil {
		return err
	}
	rec.Tags = derefAll(tags)
	return nil
}

func (r *extractionRepository) loadTestResults(ctx context.Context, rec *entity.ResultExtraction) error {
	results, err := r.t.testResults.GetByFields(ctx, Fields{"result_extraction_id": rec.ID})
	if err != nil {
		return err
	}
	rec.TestResults = derefAll(results)
	return nil
}

func derefAll[T any](in []*T) []T {
	if len(in) == 0 {
		return nil
	}
	out := make([]T, len(in))
	for i, v := range in {
		out[i] = *v
	}
	return out
}

func itoa(id int64) string { return strconv.FormatInt(id, 10) }
