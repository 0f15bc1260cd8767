package sqlite

import (
	"fmt"
	"strings"
)

// Dialect is the SQLite datasource.Dialect.
type Dialect struct{}

func (Dialect) Type() string { return "sqlite" }

func (Dialect) QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// KeyColumnType relies on SQLite's default BINARY collation for TEXT.
func (Dialect) KeyColumnType() string {
	return "TEXT"
}

func (Dialect) TableExistsQuery() string {
	return `SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`
}

func (Dialect) ColumnExistsQuery() string {
	return `SELECT COUNT(*) FROM pragma_table_info(?) WHERE name = ?`
}

func (Dialect) IndexExistsQuery() string {
	return `SELECT COUNT(*) FROM sqlite_master WHERE type = 'index' AND tbl_name = ? AND name = ?`
}

func (d Dialect) DropIndexStatement(table, index string) string {
	return fmt.Sprintf("DROP INDEX %s", d.QuoteIdentifier(index))
}

func (d Dialect) CreateTableAsStatement(table string, _ []string, selectSQL string) string {
	return fmt.Sprintf("CREATE TABLE %s AS %s", d.QuoteIdentifier(table), selectSQL)
}
