package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ekaya-inc/author-merge/pkg/adapters/datasource"
)

// Handle is a pgxpool-backed datasource.Handle.
type Handle struct {
	pool *pgxpool.Pool
}

// NewHandle opens a pool. The pool connects lazily; call Ping to verify.
func NewHandle(ctx context.Context, cfg *Config) (*Handle, error) {
	pool, err := pgxpool.New(ctx, buildConnectionString(cfg))
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	return &Handle{pool: pool}, nil
}

func (h *Handle) Query(ctx context.Context, query string, args ...any) (datasource.Rows, error) {
	rows, err := h.pool.Query(ctx, datasource.Rebind(datasource.PlaceholderDollar, query), args...)
	if err != nil {
		return nil, err
	}
	return &pgxRows{rows: rows}, nil
}

func (h *Handle) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	tag, err := h.pool.Exec(ctx, datasource.Rebind(datasource.PlaceholderDollar, query), args...)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// ExecBatch sends every statement in one pgx.Batch inside an explicit transaction.
func (h *Handle) ExecBatch(ctx context.Context, query string, argSets [][]any) (int64, error) {
	if len(argSets) == 0 {
		return 0, nil
	}

	tx, err := h.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin batch: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	q := datasource.Rebind(datasource.PlaceholderDollar, query)
	batch := &pgx.Batch{}
	for _, args := range argSets {
		batch.Queue(q, args...)
	}

	results := tx.SendBatch(ctx, batch)
	var total int64
	for i := range argSets {
		tag, err := results.Exec()
		if err != nil {
			_ = results.Close()
			return 0, fmt.Errorf("batch row %d: %w", i, err)
		}
		total += tag.RowsAffected()
	}
	if err := results.Close(); err != nil {
		return 0, fmt.Errorf("close batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit batch: %w", err)
	}
	return total, nil
}

func (h *Handle) Ping(ctx context.Context) error {
	return h.pool.Ping(ctx)
}

func (h *Handle) Close() error {
	h.pool.Close()
	return nil
}

// pgxRows adapts pgx.Rows, whose Close has no error result.
type pgxRows struct {
	rows pgx.Rows
}

func (r *pgxRows) Next() bool             { return r.rows.Next() }
func (r *pgxRows) Scan(dest ...any) error { return r.rows.Scan(dest...) }
func (r *pgxRows) Err() error             { return r.rows.Err() }

func (r *pgxRows) Close() error {
	r.rows.Close()
	return r.rows.Err()
}

var _ datasource.Handle = (*Handle)(nil)
