package datasource

import "context"

// Rows is a forward-only result cursor. Both *sql.Rows and the pgx wrapper
// satisfy it.
type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close() error
}

// Handle is one independent connection pool to the bibliographic store.
// A merge pass holds two: a reader that streams result sets and a writer that
// applies updates while the reader's cursor is still open.
//
// Queries use '?' placeholders; each adapter rebinds them to its own syntax.
type Handle interface {
	// Query runs a statement that returns rows. The caller must Close the result.
	Query(ctx context.Context, query string, args ...any) (Rows, error)

	// Exec runs a statement and returns the number of affected rows.
	Exec(ctx context.Context, query string, args ...any) (int64, error)

	// ExecBatch runs query once per argument set inside a single transaction,
	// returning the total number of affected rows.
	ExecBatch(ctx context.Context, query string, argSets [][]any) (int64, error)

	// Ping verifies the store is reachable.
	Ping(ctx context.Context) error

	// Close releases the pool.
	Close() error
}

// Dialect supplies the per-store SQL that cannot be written portably.
// Statement builders take raw identifiers and quote them themselves.
type Dialect interface {
	// Type is the registry key: "mysql", "postgres", "sqlserver" or "sqlite".
	Type() string

	// QuoteIdentifier quotes a table, column or index name.
	QuoteIdentifier(name string) string

	// KeyColumnType is the column definition used for the working key column.
	// It must compare exactly (binary collation) and allow NULL.
	KeyColumnType() string

	// TableExistsQuery counts tables named by its single argument.
	TableExistsQuery() string

	// ColumnExistsQuery counts columns; args are (table, column).
	ColumnExistsQuery() string

	// IndexExistsQuery counts indexes; args are (table, index).
	IndexExistsQuery() string

	// DropIndexStatement drops index on table.
	DropIndexStatement(table, index string) string

	// CreateTableAsStatement materializes selectSQL into a new table.
	// primaryKey names result columns that are unique together; stores that
	// require every table to have a primary key declare it, others ignore it.
	CreateTableAsStatement(table string, primaryKey []string, selectSQL string) string
}

// QueryInt64 runs a single-value query such as COUNT(*) and scans the result.
func QueryInt64(ctx context.Context, h Handle, query string, args ...any) (int64, error) {
	rows, err := h.Query(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	var n int64
	if rows.Next() {
		if err := rows.Scan(&n); err != nil {
			return 0, err
		}
	}
	if err := rows.Err(); err != nil {
		return 0, err
	}
	return n, nil
}
