// Package testutil holds helpers shared by package tests.
package testutil

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/document-assistant/internal/common"
	"github.com/joseph-ayodele/document-assistant/internal/repository"
	"github.com/joseph-ayodele/document-assistant/internal/repository/migrations"
)

// Logger discards output so test logs stay readable.
func Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// NewTestDB opens a migrated in-memory SQLite database that is closed with the test.
func NewTestDB(t testing.TB) *repository.DB {
	t.Helper()
	db, err := repository.Open(context.Background(), repository.Config{
		Driver: common.DriverSQLite,
		Path:   ":memory:",
	}, Logger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, migrations.MigrateUp(db.SQL(), db.Dialect()))
	return db
}
