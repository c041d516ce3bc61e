package workflow

import (
	"context"
	"strings"

	"github.com/joseph-ayodele/document-assistant/constants"
	"github.com/joseph-ayodele/document-assistant/internal/entity"
)

type Confidence struct {
	Level       constants.ConfidenceLevel `json:"level"`
	Explanation string                    `json:"explanation"`
}

type Classification struct {
	Label      constants.DocumentType `json:"label"`
	Confidence Confidence             `json:"confidence"`
}

// ExtractionWriter persists extraction records and their children inside the
// caller's transaction. Implementations assign the returned ids.
type ExtractionWriter interface {
	CreateInvoiceExtraction(ctx context.Context, rec *entity.InvoiceExtraction) (int64, error)
	CreateNoteExtraction(ctx context.Context, rec *entity.NoteExtraction) (int64, error)
	CreateResultExtraction(ctx context.Context, rec *entity.ResultExtraction) (int64, error)
}

// Extraction is the closed set of type-specific results. Each variant knows how to
// persist itself and which fragments go into its canonical filename.
type Extraction interface {
	Label() constants.DocumentType
	FilenameParts() (date, docType string)
	Persist(ctx context.Context, w ExtractionWriter, documentID int64) error
	extraction()
}

// DefaultFilenameParts is used when a label has no extraction result attached.
func DefaultFilenameParts(label constants.DocumentType) (date, docType string) {
	if _, ok := constants.ParseDocumentType(string(label)); !ok {
		return constants.UnknownFilenamePart, constants.UnknownFilenamePart
	}
	return constants.UnknownFilenamePart, string(label)
}

type InvoiceLog struct {
	Log  string `json:"log"`
	Date string `json:"date"`
}

type InvoiceExtraction struct {
	Type        constants.InvoiceType `json:"type"`
	Price       float64               `json:"price"`
	Date        string                `json:"date"`
	Description string                `json:"description"`
	Notes       string                `json:"notes"`
	Logs        []InvoiceLog          `json:"logs"`
}

func (*InvoiceExtraction) extraction() {}

func (*InvoiceExtraction) Label() constants.DocumentType { return constants.Invoice }

// Normalize maps loose type names onto the known invoice types and trims free text.
func (e *InvoiceExtraction) Normalize() {
	e.Type, _ = constants.CanonicalizeInvoiceType(string(e.Type))
	e.Date = strings.TrimSpace(e.Date)
	e.Description = strings.TrimSpace(e.Description)
	e.Notes = strings.TrimSpace(e.Notes)
}

func (e *InvoiceExtraction) FilenameParts() (string, string) {
	return e.Date, string(e.Type)
}

func (e *InvoiceExtraction) Persist(ctx context.Context, w ExtractionWriter, documentID int64) error {
	rec := &entity.InvoiceExtraction{
		DocumentID:  documentID,
		Type:        string(e.Type),
		Price:       e.Price,
		Date:        e.Date,
		Description: e.Description,
		Notes:       optional(e.Notes),
	}
	for _, l := range e.Logs {
		rec.Logs = append(rec.Logs, entity.InvoiceLog{Log: l.Log, Date: l.Date})
	}
	_, err := w.CreateInvoiceExtraction(ctx, rec)
	return err
}

type NoteExtraction struct {
	Author  *string  `json:"author"`
	Date    *string  `json:"date"`
	Content string   `json:"content"`
	Tags    []string `json:"tags"`
}

func (*NoteExtraction) extraction() {}

func (*NoteExtraction) Label() constants.DocumentType { return constants.Note }

func (e *NoteExtraction) FilenameParts() (string, string) {
	if e.Date == nil || *e.Date == "" {
		return constants.UnknownFilenamePart, string(constants.Note)
	}
	return *e.Date, string(constants.Note)
}

func (e *NoteExtraction) Persist(ctx context.Context, w ExtractionWriter, documentID int64) error {
	rec := &entity.NoteExtraction{
		DocumentID: documentID,
		Author:     e.Author,
		Date:       e.Date,
		Content:    e.Content,
	}
	seen := make(map[string]struct{}, len(e.Tags))
	for _, t := range e.Tags {
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		rec.Tags = append(rec.Tags, entity.NoteTag{Tag: t})
	}
	_, err := w.CreateNoteExtraction(ctx, rec)
	return err
}

type TestResult struct {
	TestName       string  `json:"test_name"`
	Value          string  `json:"value"`
	Unit           *string `json:"unit"`
	ReferenceRange *string `json:"reference_range"`
	Date           *string `json:"date"`
	Notes          *string `json:"notes"`
}

type ResultExtraction struct {
	PatientName  *string      `json:"patient_name"`
	TestResults  []TestResult `json:"test_results"`
	OverallNotes *string      `json:"overall_notes"`
}

func (*ResultExtraction) extraction() {}

func (*ResultExtraction) Label() constants.DocumentType { return constants.Result }

func (*ResultExtraction) FilenameParts() (string, string) {
	return constants.UnknownFilenamePart, string(constants.Result)
}

func (e *ResultExtraction) Persist(ctx context.Context, w ExtractionWriter, documentID int64) error {
	rec := &entity.ResultExtraction{
		DocumentID:   documentID,
		PatientName:  e.PatientName,
		OverallNotes: e.OverallNotes,
	}
	for _, tr := range e.TestResults {
		rec.TestResults = append(rec.TestResults, entity.TestResult{
			TestName:       tr.TestName,
			Value:          tr.Value,
			Unit:           tr.Unit,
			ReferenceRange: tr.ReferenceRange,
			Date:           tr.Date,
			Notes:          tr.Notes,
		})
	}
	_, err := w.CreateResultExtraction(ctx, rec)
	return err
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
