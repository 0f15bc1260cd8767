package mssql

import "fmt"

// Dialect is the SQL Server datasource.Dialect.
type Dialect struct{}

func (Dialect) Type() string { return "sqlserver" }

func (Dialect) QuoteIdentifier(name string) string {
	return quoteName(name)
}

// KeyColumnType uses a binary collation so that keys differing only in case or
// accents stay distinct. NVARCHAR length counts UTF-16 code units.
func (Dialect) KeyColumnType() string {
	return "NVARCHAR(500) COLLATE Latin1_General_BIN2 NULL"
}

func (Dialect) TableExistsQuery() string {
	return `SELECT COUNT(*) FROM sys.tables WHERE object_id = OBJECT_ID(?)`
}

func (Dialect) ColumnExistsQuery() string {
	return `SELECT COUNT(*) FROM sys.columns WHERE object_id = OBJECT_ID(?) AND name = ?`
}

func (Dialect) IndexExistsQuery() string {
	return `SELECT COUNT(*) FROM sys.indexes WHERE object_id = OBJECT_ID(?) AND name = ?`
}

func (d Dialect) DropIndexStatement(table, index string) string {
	return fmt.Sprintf("DROP INDEX %s ON %s", quoteName(index), quoteName(table))
}

// CreateTableAsStatement uses SELECT ... INTO, SQL Server's form of CREATE TABLE AS.
func (d Dialect) CreateTableAsStatement(table string, _ []string, selectSQL string) string {
	return fmt.Sprintf("SELECT * INTO %s FROM (%s) AS src", quoteName(table), selectSQL)
}
