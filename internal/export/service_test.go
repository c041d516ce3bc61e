package export

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/document-assistant/internal/entity"
	"github.com/joseph-ayodele/document-assistant/internal/repository"
	"github.com/joseph-ayodele/document-assistant/internal/testutil"
)

func strPtr(s string) *string { return &s }

func seed(t *testing.T, docs repository.DocumentRepository) {
	t.Helper()
	ctx := context.Background()
	mk := func(hash, label string) *entity.Document {
		return &entity.Document{
			OriginalPath:        "/inbox/" + hash,
			FileHash:            hash,
			FileSize:            10,
			FileType:            "pdf",
			ClassificationLabel: label,
			ConfidenceLevel:     "high",
			ProcessedAt:         time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC),
		}
	}

	_, _, err := docs.CreateWithExtraction(ctx, mk("h-inv", "invoice"), func(ctx context.Context, w *repository.ExtractionWriter, id int64) error {
		_, err := w.CreateInvoiceExtraction(ctx, &entity.InvoiceExtraction{
			DocumentID: id, Type: "flat-receipt", Price: 900, Date: "2024-05-01", Description: "May rent",
			Logs: []entity.InvoiceLog{{Log: "Extracted", Date: "2024-05-06"}},
		})
		return err
	})
	require.NoError(t, err)

	_, _, err = docs.CreateWithExtraction(ctx, mk("h-note", "note"), func(ctx context.Context, w *repository.ExtractionWriter, id int64) error {
		_, err := w.CreateNoteExtraction(ctx, &entity.NoteExtraction{
			DocumentID: id, Content: "call the plumber", Tags: []entity.NoteTag{{Tag: "home"}, {Tag: "todo"}},
		})
		return err
	})
	require.NoError(t, err)

	_, _, err = docs.CreateWithExtraction(ctx, mk("h-res", "result"), func(ctx context.Context, w *repository.ExtractionWriter, id int64) error {
		_, err := w.CreateResultExtraction(ctx, &entity.ResultExtraction{
			DocumentID: id, PatientName: strPtr("Bob"),
			TestResults: []entity.TestResult{
				{TestName: "HbA1c", Value: "5.4", Unit: strPtr("%")},
				{TestName: "LDL", Value: "2.1", Unit: strPtr("mmol/L")},
			},
		})
		return err
	})
	require.NoError(t, err)
}

func TestDocumentsXLSX(t *testing.T) {
	db := testutil.NewTestDB(t)
	docs := repository.NewDocumentRepository(db, testutil.Logger())
	svc := NewService(docs, repository.NewExtractionRepository(db, testutil.Logger()), testutil.Logger())
	seed(t, docs)

	b, err := svc.DocumentsXLSX(context.Background(), "")
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(b))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	assert.Equal(t, []string{SheetDocuments, SheetInvoices, SheetNotes, SheetResults}, f.GetSheetList())

	rows, err := f.GetRows(SheetDocuments)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, "Label", rows[0][1])

	rows, err = f.GetRows(SheetInvoices)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "flat-receipt", rows[1][2])
	assert.Equal(t, "900", rows[1][3])
	assert.Equal(t, "2024-05-06 Extracted", rows[1][6])

	rows, err = f.GetRows(SheetNotes)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "home, todo", rows[1][4])

	rows, err = f.GetRows(SheetResults)
	require.NoError(t, err)
	assert.Len(t, rows, 3)
}

func TestDocumentsXLSX_LabelFilter(t *testing.T) {
	db := testutil.NewTestDB(t)
	docs := repository.NewDocumentRepository(db, testutil.Logger())
	svc := NewService(docs, repository.NewExtractionRepository(db, testutil.Logger()), testutil.Logger())
	seed(t, docs)

	b, err := svc.DocumentsXLSX(context.Background(), "note")
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(b))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows(SheetDocuments)
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	rows, err = f.GetRows(SheetInvoices)
	require.NoError(t, err)
	assert.Len(t, rows, 1, "header only")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "ab…", truncate("abcdef", 3))
}
