package datasource

import (
	"context"
	"database/sql"
	"fmt"
)

// SQLHandle adapts a *sql.DB to Handle. The MySQL, SQL Server and SQLite
// adapters share it; only the placeholder style differs.
type SQLHandle struct {
	db    *sql.DB
	style int
}

// NewSQLHandle wraps db. style is one of the Placeholder constants.
func NewSQLHandle(db *sql.DB, style int) *SQLHandle {
	return &SQLHandle{db: db, style: style}
}

// DB returns the underlying pool.
func (h *SQLHandle) DB() *sql.DB {
	return h.db
}

func (h *SQLHandle) Query(ctx context.Context, query string, args ...any) (Rows, error) {
	rows, err := h.db.QueryContext(ctx, Rebind(h.style, query), args...)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (h *SQLHandle) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := h.db.ExecContext(ctx, Rebind(h.style, query), args...)
	if err != nil {
		return 0, err
	}
	return rowsAffected(res), nil
}

func (h *SQLHandle) ExecBatch(ctx context.Context, query string, argSets [][]any) (total int64, err error) {
	if len(argSets) == 0 {
		return 0, nil
	}

	tx, err := h.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin batch: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, Rebind(h.style, query))
	if err != nil {
		return 0, fmt.Errorf("prepare batch statement: %w", err)
	}
	defer stmt.Close()

	for i, args := range argSets {
		res, err := stmt.ExecContext(ctx, args...)
		if err != nil {
			return 0, fmt.Errorf("batch row %d: %w", i, err)
		}
		total += rowsAffected(res)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit batch: %w", err)
	}
	return total, nil
}

func (h *SQLHandle) Ping(ctx context.Context) error {
	return h.db.PingContext(ctx)
}

func (h *SQLHandle) Close() error {
	return h.db.Close()
}

// Some drivers do not report affected rows for DDL; treat that as zero.
func rowsAffected(res sql.Result) int64 {
	n, err := res.RowsAffected()
	if err != nil {
		return 0
	}
	return n
}

var _ Handle = (*SQLHandle)(nil)
