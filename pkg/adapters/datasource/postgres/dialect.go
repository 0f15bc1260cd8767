package postgres

import (
	"fmt"

	"github.com/jackc/pgx/v5"
)

// Dialect is the PostgreSQL datasource.Dialect.
type Dialect struct{}

func (Dialect) Type() string { return "postgres" }

// QuoteIdentifier safely quotes a SQL identifier to prevent SQL injection.
func (Dialect) QuoteIdentifier(name string) string {
	return pgx.Identifier{name}.Sanitize()
}

// KeyColumnType uses the byte-wise "C" collation, so keys group only when byte-equal.
func (Dialect) KeyColumnType() string {
	return `VARCHAR(500) COLLATE "C"`
}

func (Dialect) TableExistsQuery() string {
	return `SELECT COUNT(*) FROM information_schema.tables
		WHERE table_schema = current_schema() AND table_name = ?`
}

func (Dialect) ColumnExistsQuery() string {
	return `SELECT COUNT(*) FROM information_schema.columns
		WHERE table_schema = current_schema() AND table_name = ? AND column_name = ?`
}

func (Dialect) IndexExistsQuery() string {
	return `SELECT COUNT(*) FROM pg_indexes
		WHERE schemaname = current_schema() AND tablename = ? AND indexname = ?`
}

// DropIndexStatement ignores table: PostgreSQL index names are schema-scoped.
func (d Dialect) DropIndexStatement(table, index string) string {
	return fmt.Sprintf("DROP INDEX %s", d.QuoteIdentifier(index))
}

func (d Dialect) CreateTableAsStatement(table string, _ []string, selectSQL string) string {
	return fmt.Sprintf("CREATE TABLE %s AS %s", d.QuoteIdentifier(table), selectSQL)
}
