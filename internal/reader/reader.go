// Package reader turns a file on disk into text for the pipeline.
package reader

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joseph-ayodele/document-assistant/constants"
	"github.com/joseph-ayodele/document-assistant/internal/common"
)

type Metadata struct {
	Source string `json:"source"`
	Type   string `json:"type"`
}

// Document is the text of one file plus where it came from.
type Document struct {
	Content  string   `json:"content"`
	Metadata Metadata `json:"metadata"`
}

// Reader loads a document. Failures are ErrFileNotFound or ErrFileRead and are not retried.
type Reader interface {
	Read(ctx context.Context, path string) (Document, error)
}

// Auto picks a reader by file extension.
type Auto struct {
	pdf    Reader
	image  Reader
	text   Reader
	logger *slog.Logger
}

func NewAuto(pdf, image, text Reader, logger *slog.Logger) *Auto {
	if logger == nil {
		logger = slog.Default()
	}
	return &Auto{pdf: pdf, image: image, text: text, logger: logger}
}

// Default wires the PDF, tesseract and plain text readers.
func Default(cfg common.OCRConfig, logger *slog.Logger) *Auto {
	return NewAuto(
		NewPDFReader(logger),
		NewImageReader(ImageConfig{Tesseract: cfg.Tesseract, Lang: cfg.TesseractLang}, nil, logger),
		NewTextReader(),
		logger,
	)
}

// Kind maps an extension onto the reader family that handles it.
func Kind(path string) (string, bool) {
	kind := constants.MapExtToFormat(filepath.Ext(path))
	return kind, kind != ""
}

func (a *Auto) Read(ctx context.Context, path string) (Document, error) {
	if err := checkFile(path); err != nil {
		return Document{}, err
	}
	kind, ok := Kind(path)
	if !ok {
		return Document{}, common.NewUnsupportedFileTypeError(path)
	}

	var r Reader
	switch kind {
	case constants.PDF:
		r = a.pdf
	case constants.IMAGE:
		r = a.image
	default:
		r = a.text
	}
	if r == nil {
		return Document{}, common.NewUnsupportedFileTypeError(path)
	}

	doc, err := r.Read(ctx, path)
	if err != nil {
		a.logger.Error("reader.read.failed", "path", path, "type", kind, "error", err)
		return Document{}, err
	}
	a.logger.Info("reader.read.ok", "path", path, "type", kind, "chars", len(doc.Content))
	return doc, nil
}

func checkFile(path string) error {
	st, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return common.NewFileNotFoundError(path, err)
	}
	if err != nil {
		return common.NewFileReadError(path, err)
	}
	if st.IsDir() {
		return common.NewFileReadError(path, errors.New("is a directory"))
	}
	return nil
}
