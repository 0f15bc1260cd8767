package mysql

import (
	"context"

	"github.com/ekaya-inc/author-merge/pkg/adapters/datasource"
	"github.com/ekaya-inc/author-merge/pkg/config"
)

func init() {
	datasource.Register(datasource.DatasourceAdapterRegistration{
		Info: datasource.DatasourceAdapterInfo{
			Type:        "mysql",
			DisplayName: "MySQL",
			Description: "Connect to MySQL 8.0+",
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
