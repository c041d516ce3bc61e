package repository

import (
	"context"
	"errors"
	"strings"

	"entgo.io/ent/dialect"
	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/joseph-ayodele/document-assistant/internal/common"
)

// TxFunc runs inside a transaction. Returning an error rolls it back.
type TxFunc func(ctx context.Context, tx dialect.Tx) error

// WithTx runs fn in its own transaction. It commits when fn succeeds and rolls back
// when fn fails or panics. Errors come back as database errors that keep the cause.
func (db *DB) WithTx(ctx context.Context, op string, fn TxFunc) error {
	tx, err := db.drv.Tx(ctx)
	if err != nil {
		db.logger.Error("db.tx.begin_failed", "op", op, "error", err)
		return common.NewDatabaseConnectionError(op+": begin transaction", err)
	}

	committed := false
	defer func() {
		if committed {
			return
		}
		if p := recover(); p != nil {
			_ = tx.Rollback()
			db.logger.Error("db.tx.panic", "op", op, "panic", p)
			panic(p)
		}
	}()

	if err := fn(ctx, tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			db.logger.Error("db.tx.rollback_failed", "op", op, "error", rbErr)
		}
		db.logger.Warn("db.tx.rolled_back", "op", op, "error", err)
		if errors.Is(err, common.ErrDatabase) {
			return err
		}
		return common.NewDatabaseError(op, err)
	}

	if err := tx.Commit(); err != nil {
		db.logger.Error("db.tx.commit_failed", "op", op, "error", err)
		return common.NewDatabaseError(op+": commit", err)
	}
	committed = true
	return nil
}

// isUniqueViolation reports whether err came from a UNIQUE constraint on either backend.
func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	if errors.As(err, &se) {
		code := se.Code()
		if code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY {
			return true
		}
		return code&0xff == sqlite3.SQLITE_CONSTRAINT && strings.Contains(se.Error(), "UNIQUE")
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
