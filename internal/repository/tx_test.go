package repository

import (
	"context"
	"errors"
	"testing"

	"entgo.io/ent/dialect"
	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/document-assistant/internal/common"
)

func newMockDB(t *testing.T) (*DB, sqlmock.Sqlmock) {
	t.Helper()
	sqldb, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqldb.Close() })
	return NewDB(sqldb, dialect.SQLite, discardLogger()), mock
}

func TestWithTx_CommitsOnSuccess(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := db.WithTx(context.Background(), "touch", func(ctx context.Context, tx dialect.Tx) error {
		return tx.Exec(ctx, "UPDATE documents SET file_size = 1", []any{}, nil)
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTx_RollsBackOnError(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectRollback()

	cause := errors.New("constraint failed")
	err := db.WithTx(context.Background(), "insert", func(context.Context, dialect.Tx) error {
		return cause
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrDatabase)
	assert.ErrorIs(t, err, common.ErrQuery)
	assert.ErrorIs(t, err, cause)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTx_KeepsDatabaseErrors(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectRollback()

	err := db.WithTx(context.Background(), "get", func(context.Context, dialect.Tx) error {
		return common.NewNotFoundError("document 9")
	})
	assert.ErrorIs(t, err, common.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTx_RollsBackOnPanic(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectRollback()

	assert.PanicsWithValue(t, "boom", func() {
		_ = db.WithTx(context.Background(), "explode", func(context.Context, dialect.Tx) error {
			panic("boom")
		})
	})
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTx_BeginFailure(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin().WillReturnError(errors.New("no connection"))

	called := false
	err := db.WithTx(context.Background(), "noop", func(context.Context, dialect.Tx) error {
		called = true
		return nil
	})
	assert.False(t, called)
	assert.ErrorIs(t, err, common.ErrDatabaseConnection)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTx_CommitFailure(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectCommit().WillReturnError(errors.New("disk full"))

	err := db.WithTx(context.Background(), "write", func(context.Context, dialect.Tx) error { return nil })
	assert.ErrorIs(t, err, common.ErrQuery)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_RollsBackFailedInsert(t *testing.T) {
	db, mock := newMockDB(t)
	tbl := newTables(db, discardLogger()).noteTags

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO .note_tags.`).WillReturnError(errors.New("fk violation"))
	mock.ExpectRollback()

	_, err := tbl.Create(context.Background(), Values{"note_extraction_id": 1, "tag": "x"})
	assert.ErrorIs(t, err, common.ErrDatabase)
	assert.NoError(t, mock.ExpectationsWereMet())
}
