package repository

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/document-assistant/internal/common"
	"github.com/joseph-ayodele/document-assistant/internal/entity"
	"github.com/joseph-ayodele/document-assistant/internal/repository/migrations"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(context.Background(), Config{Driver: common.DriverSQLite, Path: ":memory:"}, discardLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, migrations.MigrateUp(db.SQL(), db.Dialect()))
	return db
}

func strPtr(s string) *string { return &s }

func newDocument(hash, label string) *entity.Document {
	return &entity.Document{
		OriginalPath:          "/inbox/" + hash + ".pdf",
		FileHash:              hash,
		FileSize:              123,
		FileType:              "pdf",
		ClassificationLabel:   label,
		ConfidenceLevel:       "high",
		ConfidenceExplanation: strPtr("clear"),
		TextContent:           strPtr("text of " + hash),
		ProcessedAt:           time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}
