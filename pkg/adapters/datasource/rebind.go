package datasource

import "github.com/jmoiron/sqlx"

// Placeholder styles, as sqlx bind types.
const (
	PlaceholderQuestion = sqlx.QUESTION // ? (MySQL, SQLite)
	PlaceholderDollar   = sqlx.DOLLAR   // $1 (PostgreSQL)
	PlaceholderAtP      = sqlx.AT       // @p1 (SQL Server)
)

// Rebind rewrites '?' placeholders into the given style. Every '?' is
// rewritten, so statements must not carry one inside a literal; identifiers
// are validated before they are quoted, so they never do.
func Rebind(style int, query string) string {
	return sqlx.Rebind(style, query)
}
