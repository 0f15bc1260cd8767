package mysql

import (
	"fmt"
	"strings"
)

// Dialect is the MySQL datasource.Dialect. Requires MySQL 8.0 for window functions.
type Dialect struct{}

func (Dialect) Type() string { return "mysql" }

func (Dialect) QuoteIdentifier(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

// KeyColumnType uses a binary collation: the default utf8mb4 collations treat
// "e" and "é" as equal, which would merge names the key keeps apart.
func (Dialect) KeyColumnType() string {
	return "VARCHAR(500) CHARACTER SET utf8mb4 COLLATE utf8mb4_bin NULL"
}

func (Dialect) TableExistsQuery() string {
	return `SELECT COUNT(*) FROM information_schema.tables
		WHERE table_schema = DATABASE() AND table_name = ?`
}

func (Dialect) ColumnExistsQuery() string {
	return `SELECT COUNT(*) FROM information_schema.columns
		WHERE table_schema = DATABASE() AND table_name = ? AND column_name = ?`
}

func (Dialect) IndexExistsQuery() string {
	return `SELECT COUNT(DISTINCT index_name) FROM information_schema.statistics
		WHERE table_schema = DATABASE() AND table_name = ? AND index_name = ?`
}

func (d Dialect) DropIndexStatement(table, index string) string {
	return fmt.Sprintf("DROP INDEX %s ON %s", d.QuoteIdentifier(index), d.QuoteIdentifier(table))
}

// CreateTableAsStatement declares primaryKey inline so the statement also
// succeeds on servers running with sql_require_primary_key=ON.
func (d Dialect) CreateTableAsStatement(table string, primaryKey []string, selectSQL string) string {
	if len(primaryKey) == 0 {
		return fmt.Sprintf("CREATE TABLE %s AS %s", d.QuoteIdentifier(table), selectSQL)
	}
	cols := make([]string, len(primaryKey))
	for i, c := range primaryKey {
		cols[i] = d.QuoteIdentifier(c)
	}
	return fmt.Sprintf("CREATE TABLE %s (PRIMARY KEY (%s)) AS %s",
		d.QuoteIdentifier(table), strings.Join(cols, ", "), selectSQL)
}
