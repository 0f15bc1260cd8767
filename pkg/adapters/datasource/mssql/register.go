package mssql

import (
	"context"

	"github.com/ekaya-inc/author-merge/pkg/adapters/datasource"
	"github.com/ekaya-inc/author-merge/pkg/config"
)

func init() {
	datasource.Register(datasource.DatasourceAdapterRegistration{
		Info: datasource.DatasourceAdapterInfo{
			Type:        "sqlserver",
			DisplayName: "Microsoft SQL Server",
			Description: "Connect to SQL Server 2016+ or Azure SQL Database",
		},
		Dialect: Dialect{},
		HandleFactory: func(ctx context.Context, db config.DatabaseConfig) (datasource.Handle, error) {
			cfg, err := FromDatabaseConfig(db)
			if err != nil {
				return nil, err
			}
			return NewHandle(ctx, cfg)
		},
	})
}
