package export

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/document-assistant/internal/common"
	"github.com/joseph-ayodele/document-assistant/internal/entity"
	"github.com/joseph-ayodele/document-assistant/internal/repository"
)

// Sheet names in the workbook.
const (
	SheetDocuments = "Documents"
	SheetInvoices  = "Invoices"
	SheetNotes     = "Notes"
	SheetResults   = "Results"
)

const pageSize = 200

// Service is a tiny façade over repositories that produces XLSX bytes for exports.
type Service struct {
	docs        repository.DocumentRepository
	extractions repository.ExtractionRepository
	logger      *slog.Logger
}

func NewService(docs repository.DocumentRepository, extractions repository.ExtractionRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{docs: docs, extractions: extractions, logger: logger}
}

// DocumentsXLSX returns a workbook with one sheet of documents and one sheet per extraction
// type. label restricts the export to one classification; empty exports everything.
func (s *Service) DocumentsXLSX(ctx context.Context, label string) ([]byte, error) {
	start := time.Now()

	docs, err := s.allDocuments(ctx, label)
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]*entity.Document, len(docs))
	for _, d := range docs {
		byID[d.ID] = d
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	if err := f.SetSheetName("Sheet1", SheetDocuments); err != nil {
		return nil, fmt.Errorf("xlsx sheet: %w", err)
	}

	docRows := make([][]any, 0, len(docs))
	for _, d := range docs {
		docRows = append(docRows, []any{
			d.ID,
			d.ClassificationLabel,
			d.ConfidenceLevel,
			deref(d.ConfidenceExplanation),
			d.OriginalPath,
			deref(d.RenamedPath),
			d.FileType,
			d.FileSize,
			d.FileHash,
			d.ProcessedAt.UTC().Format(time.RFC3339),
		})
	}
	if err := writeSheet(f, SheetDocuments,
		[]string{"ID", "Label", "Confidence", "Explanation", "Original Path", "Renamed Path", "Type", "Size", "Hash", "Processed At"},
		docRows); err != nil {
		return nil, err
	}

	invoices, err := s.extractions.ListInvoices(ctx)
	if err != nil {
		return nil, err
	}
	var invRows [][]any
	for _, inv := range invoices {
		d, ok := byID[inv.DocumentID]
		if !ok {
			continue
		}
		logs := make([]string, 0, len(inv.Logs))
		for _, l := range inv.Logs {
			logs = append(logs, l.Date+" "+l.Log)
		}
		invRows = append(invRows, []any{
			inv.DocumentID, inv.Date, inv.Type, inv.Price,
			truncate(inv.Description, 140), truncate(deref(inv.Notes), 140),
			strings.Join(logs, "; "), d.CurrentPath(),
		})
	}
	if err := writeSheet(f, SheetInvoices,
		[]string{"Document ID", "Date", "Type", "Price", "Description", "Notes", "Logs", "File Path"},
		invRows); err != nil {
		return nil, err
	}

	notes, err := s.extractions.ListNotes(ctx)
	if err != nil {
		return nil, err
	}
	var noteRows [][]any
	for _, n := range notes {
		d, ok := byID[n.DocumentID]
		if !ok {
			continue
		}
		tags := make([]string, 0, len(n.Tags))
		for _, t := range n.Tags {
			tags = append(tags, t.Tag)
		}
		noteRows = append(noteRows, []any{
			n.DocumentID, deref(n.Date), deref(n.Author), truncate(n.Content, 500),
			strings.Join(tags, ", "), d.CurrentPath(),
		})
	}
	if err := writeSheet(f, SheetNotes,
		[]string{"Document ID", "Date", "Author", "Content", "Tags", "File Path"},
		noteRows); err != nil {
		return nil, err
	}

	results, err := s.extractions.ListResults(ctx)
	if err != nil {
		return nil, err
	}
	var resRows [][]any
	for _, r := range results {
		d, ok := byID[r.DocumentID]
		if !ok {
			continue
		}
		for _, tr := range r.TestResults {
			resRows = append(resRows, []any{
				r.DocumentID, deref(r.PatientName), tr.TestName, tr.Value, deref(tr.Unit),
				deref(tr.ReferenceRange), deref(tr.Date), deref(tr.Notes), d.CurrentPath(),
			})
		}
	}
	if err := writeSheet(f, SheetResults,
		[]string{"Document ID", "Patient", "Test", "Value", "Unit", "Reference Range", "Date", "Notes", "File Path"},
		resRows); err != nil {
		return nil, err
	}

	f.SetActiveSheet(0)
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, common.NewFileWriteError("xlsx", err)
	}

	s.logger.Info("export.xlsx.ok",
		"label", label,
		"documents", len(docs),
		"invoices", len(invRows),
		"notes", len(noteRows),
		"test_results", len(resRows),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func (s *Service) allDocuments(ctx context.Context, label string) ([]*entity.Document, error) {
	var out []*entity.Document
	for offset := 0; ; offset += pageSize {
		page, err := s.docs.List(ctx, repository.ListFilter{
			Label: label,
			Page:  repository.PageQuery{Limit: pageSize, Offset: offset},
		})
		if err != nil {
			return nil, err
		}
		out = append(out, page.Items...)
		if len(page.Items) < pageSize {
			return out, nil
		}
	}
}

func writeSheet(f *excelize.File, sheet string, headers []string, rows [][]any) error {
	if idx, _ := f.GetSheetIndex(sheet); idx == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return fmt.Errorf("xlsx sheet %s: %w", sheet, err)
		}
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return fmt.Errorf("xlsx header %s: %w", sheet, err)
		}
	}
	for r, row := range rows {
		for c, v := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return fmt.Errorf("xlsx cell %s!%s: %w", sheet, cell, err)
			}
		}
	}
	last, _ := excelize.ColumnNumberToName(len(headers))
	_ = f.SetColWidth(sheet, "A", last, 18)
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
