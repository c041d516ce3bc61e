package reader

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/joseph-ayodele/document-assistant/constants"
	"github.com/joseph-ayodele/document-assistant/internal/common"
)

type ImageConfig struct {
	Tesseract   string // binary, default "tesseract"
	Lang        string // default "eng"
	TessdataDir string
}

// ImageReader runs tesseract over a single image.
type ImageReader struct {
	cfg    ImageConfig
	runner Runner
	logger *slog.Logger
}

// NewImageReader uses the exec runner when runner is nil.
func NewImageReader(cfg ImageConfig, runner Runner, logger *slog.Logger) *ImageReader {
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.Lang == "" {
		cfg.Lang = "eng"
	}
	if runner == nil {
		runner = execRunner{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ImageReader{cfg: cfg, runner: runner, logger: logger}
}

func (r *ImageReader) Read(ctx context.Context, path string) (Document, error) {
	if err := checkFile(path); err != nil {
		return Document{}, err
	}

	// tesseract <file> stdout -l <lang>
	args := []string{path, "stdout", "-l", r.cfg.Lang}
	if r.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", r.cfg.TessdataDir)
	}
	out, errb, err := r.runner.Run(ctx, r.cfg.Tesseract, r.logger, args...)
	if err != nil {
		return Document{}, common.NewFileReadError(path,
			fmt.Errorf("tesseract: %w: %s", err, truncate(string(errb), 512)))
	}

	return Document{
		Content:  Normalize(string(out)),
		Metadata: Metadata{Source: path, Type: constants.IMAGE},
	}, nil
}
