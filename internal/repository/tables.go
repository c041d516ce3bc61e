package repository

import (
	"database/sql"
	"log/slog"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/joseph-ayodele/document-assistant/internal/entity"
)

const (
	tableDocuments          = "documents"
	tableInvoiceExtractions = "invoice_extractions"
	tableInvoiceLogs        = "invoice_logs"
	tableNoteExtractions    = "note_extractions"
	tableNoteTags           = "note_tags"
	tableResultExtractions  = "result_extractions"
	tableTestResults        = "test_results"
)

// tables groups the typed CRUD handles over the schema.
type tables struct {
	documents   *Table[entity.Document]
	invoices    *Table[entity.InvoiceExtraction]
	invoiceLogs *Table[entity.InvoiceLog]
	notes       *Table[entity.NoteExtraction]
	noteTags    *Table[entity.NoteTag]
	results     *Table[entity.ResultExtraction]
	testResults *Table[entity.TestResult]
}

func newTables(db *DB, logger *slog.Logger) *tables {
	return &tables{
		documents: NewTable(db, tableDocuments, []string{
			"id", "original_path", "renamed_path", "file_hash", "file_size", "file_type",
			"classification_label", "classification_confidence_level",
			"classification_confidence_explanation", "text_content", "processed_at",
		}, scanDocument, logger),
		invoices: NewTable(db, tableInvoiceExtractions, []string{
			"id", "document_id", "type", "price", "date", "description", "notes",
		}, scanInvoice, logger),
		invoiceLogs: NewTable(db, tableInvoiceLogs, []string{
			"id", "invoice_extraction_id", "log", "date",
		}, scanInvoiceLog, logger),
		notes: NewTable(db, tableNoteExtractions, []string{
			"id", "document_id", "author", "date", "content",
		}, scanNote, logger),
		noteTags: NewTable(db, tableNoteTags, []string{
			"id", "note_extraction_id", "tag",
		}, scanNoteTag, logger),
		results: NewTable(db, tableResultExtractions, []string{
			"id", "document_id", "patient_name", "overall_notes",
		}, scanResult, logger),
		testResults: NewTable(db, tableTestResults, []string{
			"id", "result_extraction_id", "test_name", "value", "unit", "reference_range", "date", "notes",
		}, scanTestResult, logger),
	}
}

func scanDocument(rows *entsql.Rows) (*entity.Document, error) {
	var (
		d                   entity.Document
		renamed, expl, text sql.NullString
	)
	err := rows.Scan(&d.ID, &d.OriginalPath, &renamed, &d.FileHash, &d.FileSize, &d.FileType,
		&d.ClassificationLabel, &d.ConfidenceLevel, &expl, &text, &d.ProcessedAt)
	if err != nil {
		return nil, err
	}
	d.RenamedPath = nullable(renamed)
	d.ConfidenceExplanation = nullable(expl)
	d.TextContent = nullable(text)
	return &d, nil
}

func scanInvoice(rows *entsql.Rows) (*entity.InvoiceExtraction, error) {
	var (
		e     entity.InvoiceExtraction
		notes sql.NullString
	)
	if err := rows.Scan(&e.ID, &e.DocumentID, &e.Type, &e.Price, &e.Date, &e.Description, &notes); err != nil {
		return nil, err
	}
	e.Notes = nullable(notes)
	return &e, nil
}

func scanInvoiceLog(rows *entsql.Rows) (*entity.InvoiceLog, error) {
	var l entity.InvoiceLog
	if err := rows.Scan(&l.ID, &l.InvoiceExtractionID, &l.Log, &l.Date); err != nil {
		return nil, err
	}
	return &l, nil
}

func scanNote(rows *entsql.Rows) (*entity.NoteExtraction, error) {
	var (
		n            entity.NoteExtraction
		author, date sql.NullString
	)
	if err := rows.Scan(&n.ID, &n.DocumentID, &author, &date, &n.Content); err != nil {
		return nil, err
	}
	n.Author = nullable(author)
	n.Date = nullable(date)
	return &n, nil
}

func scanNoteTag(rows *entsql.Rows) (*entity.NoteTag, error) {
	var t entity.NoteTag
	if err := rows.Scan(&t.ID, &t.NoteExtractionID, &t.Tag); err != nil {
		return nil, err
	}
	return &t, nil
}

func scanResult(rows *entsql.Rows) (*entity.ResultExtraction, error) {
	var (
		r                    entity.ResultExtraction
		patient, overallNote sql.NullString
	)
	if err := rows.Scan(&r.ID, &r.DocumentID, &patient, &overallNote); err != nil {
		return nil, err
	}
	r.PatientName = nullable(patient)
	r.OverallNotes = nullable(overallNote)
	return &r, nil
}

func scanTestResult(rows *entsql.Rows) (*entity.TestResult, error) {
	var (
		t                           entity.TestResult
		unit, refRange, date, notes sql.NullString
	)
	if err := rows.Scan(&t.ID, &t.ResultExtractionID, &t.TestName, &t.Value, &unit, &refRange, &date, &notes); err != nil {
		return nil, err
	}
	t.Unit = nullable(unit)
	t.ReferenceRange = nullable(refRange)
	t.Date = nullable(date)
	t.Notes = nullable(notes)
	return &t, nil
}

func nullable(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
