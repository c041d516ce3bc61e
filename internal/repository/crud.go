package repository

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"slices"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"

	"github.com/joseph-ayodele/document-assistant/internal/common"
)

const idColumn = "id"

// Fields is a conjunction of column = value filters. A nil value matches NULL.
type Fields map[string]any

// Values holds the columns written by Create and UpdateByID.
type Values map[string]any

type PageQuery struct {
	Limit  int
	Offset int
}

// PageResult is one page plus the total number of matching rows.
type PageResult[T any] struct {
	Items  []*T
	Total  int
	Limit  int
	Offset int
}

// ScanFunc reads the current row in the column order the table was declared with.
type ScanFunc[T any] func(rows *entsql.Rows) (*T, error)

// Table provides generic CRUD over one table keyed by an integer id column.
type Table[T any] struct {
	db      *DB
	name    string
	columns []string
	scan    ScanFunc[T]
	logger  *slog.Logger
}

func NewTable[T any](db *DB, name string, columns []string, scan ScanFunc[T], logger *slog.Logger) *Table[T] {
	if logger == nil {
		logger = slog.Default()
	}
	return &Table[T]{db: db, name: name, columns: columns, scan: scan, logger: logger}
}

func (t *Table[T]) Name() string { return t.name }

func (t *Table[T]) GetByID(ctx context.Context, id int64) (*T, error) {
	rows, err := t.GetByFields(ctx, Fields{idColumn: id})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, common.NewNotFoundError(fmt.Sprintf("%s %d", t.name, id))
	}
	return rows[0], nil
}

// GetByFields returns every row matching all of fields, ordered by id.
func (t *Table[T]) GetByFields(ctx context.Context, fields Fields) ([]*T, error) {
	return t.query(ctx, t.db.drv, fields, PageQuery{})
}

// List returns one page of rows matching fields together with the total match count.
func (t *Table[T]) List(ctx context.Context, fields Fields, page PageQuery) (PageResult[T], error) {
	total, err := t.Count(ctx, fields)
	if err != nil {
		return PageResult[T]{}, err
	}
	items, err := t.query(ctx, t.db.drv, fields, page)
	if err != nil {
		return PageResult[T]{}, err
	}
	return PageResult[T]{Items: items, Total: total, Limit: page.Limit, Offset: page.Offset}, nil
}

func (t *Table[T]) Count(ctx context.Context, fields Fields) (int, error) {
	b := t.db.builder()
	sel := b.Select(entsql.Count("*")).From(b.Table(t.name))
	if p := fields.predicate(); p != nil {
		sel.Where(p)
	}
	q, args := sel.Query()

	var rows entsql.Rows
	if err := t.db.drv.Query(ctx, q, args, &rows); err != nil {
		return 0, common.NewDatabaseError("count "+t.name, err)
	}
	defer func() { _ = rows.Close() }()

	var n int
	if rows.Next() {
		if err := rows.Scan(&n); err != nil {
			return 0, common.NewDatabaseError("count "+t.name, err)
		}
	}
	if err := rows.Err(); err != nil {
		return 0, common.NewDatabaseError("count "+t.name, err)
	}
	return n, nil
}

func (t *Table[T]) Exists(ctx context.Context, fields Fields) (bool, error) {
	n, err := t.Count(ctx, fields)
	return n > 0, err
}

// Create inserts one row in its own transaction and returns the generated id.
func (t *Table[T]) Create(ctx context.Context, values Values) (int64, error) {
	var id int64
	err := t.db.WithTx(ctx, "create "+t.name, func(ctx context.Context, tx dialect.Tx) error {
		var err error
		id, err = t.insert(ctx, tx, values)
		return err
	})
	if err != nil {
		return 0, err
	}
	t.logger.Debug("db.create", "table", t.name, "id", id)
	return id, nil
}

// UpdateByID applies values to the row with the given id. It reports whether a row changed.
func (t *Table[T]) UpdateByID(ctx context.Context, id int64, values Values) (bool, error) {
	if len(values) == 0 {
		return false, nil
	}
	var affected int64
	err := t.db.WithTx(ctx, "update "+t.name, func(ctx context.Context, tx dialect.Tx) error {
		upd := t.db.builder().Update(t.name)
		for _, col := range values.columns() {
			if v := values[col]; v == nil {
				upd.SetNull(col)
			} else {
				upd.Set(col, v)
			}
		}
		q, args := upd.Where(entsql.EQ(idColumn, id)).Query()
		var res entsql.Result
		if err := tx.Exec(ctx, q, args, &res); err != nil {
			return err
		}
		n, err := res.RowsAffected()
		affected = n
		return err
	})
	return affected > 0, err
}

// DeleteByID removes the row with the given id. It reports whether a row was removed.
func (t *Table[T]) DeleteByID(ctx context.Context, id int64) (bool, error) {
	var affected int64
	err := t.db.WithTx(ctx, "delete "+t.name, func(ctx context.Context, tx dialect.Tx) error {
		n, err := t.deleteWhere(ctx, tx, entsql.EQ(idColumn, id))
		affected = n
		return err
	})
	return affected > 0, err
}

func (t *Table[T]) insert(ctx context.Context, ex dialect.ExecQuerier, values Values) (int64, error) {
	cols := values.columns()
	args := make([]any, len(cols))
	for i, c := range cols {
		args[i] = values[c]
	}
	q, qargs := t.db.builder().Insert(t.name).
		Columns(cols...).
		Values(args...).
		Returning(idColumn).
		Query()

	var rows entsql.Rows
	if err := ex.Query(ctx, q, qargs, &rows); err != nil {
		return 0, err
	}
	defer func() { _ = rows.Close() }()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return 0, err
		}
		return 0, fmt.Errorf("insert %s: no id returned", t.name)
	}
	var id int64
	if err := rows.Scan(&id); err != nil {
		return 0, err
	}
	return id, rows.Close()
}

func (t *Table[T]) deleteWhere(ctx context.Context, ex dialect.ExecQuerier, p *entsql.Predicate) (int64, error) {
	q, args := t.db.builder().Delete(t.name).Where(p).Query()
	var res entsql.Result
	if err := ex.Exec(ctx, q, args, &res); err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (t *Table[T]) query(ctx context.Context, ex dialect.ExecQuerier, fields Fields, page PageQuery) ([]*T, error) {
	b := t.db.builder()
	sel := b.Select(t.columns...).From(b.Table(t.name)).OrderBy(idColumn)
	if p := fields.predicate(); p != nil {
		sel.Where(p)
	}
	switch {
	case page.Limit > 0:
		sel.Limit(page.Limit)
	case page.Offset > 0:
		// SQLite rejects OFFSET without LIMIT.
		sel.Limit(math.MaxInt32)
	}
	if page.Offset > 0 {
		sel.Offset(page.Offset)
	}
	q, args := sel.Query()

	var rows entsql.Rows
	if err := ex.Query(ctx, q, args, &rows); err != nil {
		return nil, common.NewDatabaseError("select "+t.name, err)
	}
	defer func() { _ = rows.Close() }()

	var out []*T
	for rows.Next() {
		v, err := t.scan(&rows)
		if err != nil {
			return nil, common.NewDatabaseError("scan "+t.name, err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, common.NewDatabaseError("select "+t.name, err)
	}
	return out, nil
}

func (f Fields) predicate() *entsql.Predicate {
	if len(f) == 0 {
		return nil
	}
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	preds := make([]*entsql.Predicate, 0, len(keys))
	for _, k := range keys {
		if f[k] == nil {
			preds = append(preds, entsql.IsNull(k))
		} else {
			preds = append(preds, entsql.EQ(k, f[k]))
		}
	}
	if len(preds) == 1 {
		return preds[0]
	}
	return entsql.And(preds...)
}

func (v Values) columns() []string {
	cols := make([]string, 0, len(v))
	for k := range v {
		cols = append(cols, k)
	}
	slices.Sort(cols)
	return cols
}
