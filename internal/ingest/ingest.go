// Package ingest feeds files from disk into the processor.
package ingest

import (
	"context"

	"github.com/joseph-ayodele/document-assistant/constants"
	"github.com/joseph-ayodele/document-assistant/internal/workflow"
)

// Processor is the part of the pipeline ingestion depends on.
type Processor interface {
	ProcessFile(ctx context.Context, path string) (workflow.StorageState, error)
}

// FileResult is the per-file outcome of a directory run.
type FileResult struct {
	Path       string
	DocumentID int64
	Outcome    constants.StorageOutcome
	Err        error
}

// DirStats summarizes a directory run.
type DirStats struct {
	Scanned      uint32
	Matched      uint32
	Succeeded    uint32
	Deduplicated uint32
	Failed       uint32
}
