package mssql

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/microsoft/go-mssqldb" // SQL Server driver

	"github.com/ekaya-inc/author-merge/pkg/adapters/datasource"
)

// NewHandle opens a SQL Server pool using SQL authentication.
func NewHandle(ctx context.Context, cfg *Config) (*datasource.SQLHandle, error) {
	db, err := sql.Open("sqlserver", buildConnectionString(cfg))
	if err != nil {
		return nil, fmt.Errorf("open SQL auth connection: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	return datasource.NewSQLHandle(db, datasource.PlaceholderAtP), nil
}
