package ingest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/joseph-ayodele/document-assistant/constants"
	"github.com/joseph-ayodele/document-assistant/internal/common"
)

type Options struct {
	Exts       []string // empty uses constants.AllowedExtensions
	SkipHidden bool
	Workers    int // default 1
}

// Ingester walks directories and runs every matching file through the processor.
type Ingester struct {
	proc   Processor
	logger *slog.Logger
}

func NewIngester(proc Processor, logger *slog.Logger) *Ingester {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ingester{proc: proc, logger: logger}
}

// IngestDirectory walks root, filters by extension, skips hidden entries if requested and
// processes the matches with at most opts.Workers in flight. Per-file failures are recorded
// in the results and do not stop the run. Results keep walk order.
func (in *Ingester) IngestDirectory(ctx context.Context, root string, opts Options) ([]FileResult, DirStats, error) {
	if strings.TrimSpace(root) == "" {
		return nil, DirStats{}, common.NewConfigError("ingest root is required", common.ErrMissingConfig)
	}
	exts := extSet(opts.Exts)

	var stats DirStats
	var results []FileResult
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if path == root {
				return walkErr
			}
			stats.Scanned++
			stats.Failed++
			results = append(results, FileResult{Path: path, Err: common.NewFileReadError(path, walkErr)})
			return nil
		}
		if opts.SkipHidden && path != root && IsHidden(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		stats.Scanned++
		if !matches(path, exts) {
			return nil
		}
		stats.Matched++
		results = append(results, FileResult{Path: path})
		return nil
	})
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, stats, common.NewFileNotFoundError(root, err)
		}
		return nil, stats, common.NewFileReadError(root, fmt.Errorf("walk: %w", err))
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = 1
	}
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range results {
		if results[i].Err != nil {
			continue
		}
		i := i
		g.Go(func() error {
			res := &results[i]
			st, err := in.proc.ProcessFile(gctx, res.Path)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				res.Err = err
				stats.Failed++
				in.logger.Error("ingest.file.failed", "path", res.Path, "error", err)
				return nil
			}
			res.DocumentID, _ = st.DocumentID()
			res.Outcome = st.Outcome()
			stats.Succeeded++
			if res.Outcome == constants.OutcomeDeduplicated {
				stats.Deduplicated++
			}
			return nil
		})
	}
	_ = g.Wait()

	in.logger.Info("ingest.directory.done",
		"root", root,
		"scanned", stats.Scanned,
		"matched", stats.Matched,
		"succeeded", stats.Succeeded,
		"deduplicated", stats.Deduplicated,
		"failed", stats.Failed,
	)
	return results, stats, ctx.Err()
}
