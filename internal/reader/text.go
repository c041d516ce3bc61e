package reader

import (
	"context"
	"os"
	"strings"

	"github.com/joseph-ayodele/document-assistant/constants"
	"github.com/joseph-ayodele/document-assistant/internal/common"
)

type TextReader struct{}

func NewTextReader() *TextReader { return &TextReader{} }

func (TextReader) Read(_ context.Context, path string) (Document, error) {
	if err := checkFile(path); err != nil {
		return Document{}, err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Document{}, common.NewFileReadError(path, err)
	}
	return Document{
		Content:  Normalize(strings.ToValidUTF8(string(b), "\uFFFD")),
		Metadata: Metadata{Source: path, Type: constants.TXT},
	}, nil
}
