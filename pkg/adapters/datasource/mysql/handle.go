package mysql

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql" // MySQL driver

	"github.com/ekaya-inc/author-merge/pkg/adapters/datasource"
)

// NewHandle opens a MySQL pool.
func NewHandle(ctx context.Context, cfg *Config) (*datasource.SQLHandle, error) {
	db, err := sql.Open("mysql", buildDSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("connect to mysql: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	return datasource.NewSQLHandle(db, datasource.PlaceholderQuestion), nil
}
