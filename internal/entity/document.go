package entity

import "time"

// Document is one row per distinct file content. FileHash is unique across the store.
type Document struct {
	ID                    int64
	OriginalPath          string
	RenamedPath           *string
	FileHash              string
	FileSize              int64
	FileType              string
	ClassificationLabel   string
	ConfidenceLevel       string
	ConfidenceExplanation *string
	TextContent           *string
	ProcessedAt           time.Time
}

// CurrentPath is where the file should be found on disk right now.
func (d *Document) CurrentPath() string {
	if d.RenamedPath != nil && *d.RenamedPath != "" {
		return *d.RenamedPath
	}
	return d.OriginalPath
}
