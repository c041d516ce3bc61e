package reader

import (
	"context"
	"log/slog"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/joseph-ayodele/document-assistant/constants"
	"github.com/joseph-ayodele/document-assistant/internal/common"
)

// PDFReader extracts the embedded text layer page by page. Scanned PDFs without a
// text layer come back empty.
type PDFReader struct {
	logger *slog.Logger
}

func NewPDFReader(logger *slog.Logger) *PDFReader {
	if logger == nil {
		logger = slog.Default()
	}
	return &PDFReader{logger: logger}
}

func (r *PDFReader) Read(ctx context.Context, path string) (Document, error) {
	if err := checkFile(path); err != nil {
		return Document{}, err
	}
	f, doc, err := pdf.Open(path)
	if err != nil {
		return Document{}, common.NewFileReadError(path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			r.logger.Warn("reader.pdf.close_failed", "path", path, "error", cerr)
		}
	}()

	var b strings.Builder
	total := doc.NumPage()
	for i := 1; i <= total; i++ {
		if err := ctx.Err(); err != nil {
			return Document{}, common.NewFileReadError(path, err)
		}
		page := doc.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			r.logger.Warn("reader.pdf.page_skipped", "path", path, "page", i, "error", err)
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(text)
	}

	r.logger.Debug("reader.pdf.ok", "path", path, "pages", total)
	return Document{
		Content:  Normalize(b.String()),
		Metadata: Metadata{Source: path, Type: constants.PDF},
	}, nil
}
