package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite" // pure-Go SQLite driver

	"github.com/ekaya-inc/author-merge/pkg/adapters/datasource"
)

const driverName = "sqlite"

// NewHandle opens the database file.
func NewHandle(ctx context.Context, cfg *Config) (*datasource.SQLHandle, error) {
	db, err := sql.Open(driverName, buildDSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", cfg.Path, err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	return datasource.NewSQLHandle(db, datasource.PlaceholderQuestion), nil
}
