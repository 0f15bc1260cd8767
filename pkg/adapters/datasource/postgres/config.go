package postgres

import (
	"fmt"
	"net/url"

	"github.com/ekaya-inc/author-merge/pkg/config"
)

// Config contains PostgreSQL-specific connection options.
type Config struct {
	Host         string
	Port         int
	User         string
	Password     string
	Database     string
	SSLMode      string // "disable", "require", "verify-ca", "verify-full"
	MaxOpenConns int
}

// DefaultPort returns the default PostgreSQL port.
func DefaultPort() int {
	return 5432
}

// DefaultSSLMode returns the default SSL mode.
func DefaultSSLMode() string {
	return "require"
}

// FromDatabaseConfig creates a Config from the database section of the app config.
func FromDatabaseConfig(db config.DatabaseConfig) (*Config, error) {
	cfg := &Config{
		Host:         db.Host,
		Port:         db.Port,
		User:         db.User,
		Password:     db.Password,
		Database:     db.Database,
		SSLMode:      db.SSLMode,
		MaxOpenConns: db.MaxOpenConns,
	}
	if cfg.Port == 0 {
		cfg.Port = DefaultPort()
	}
	if cfg.SSLMode == "" {
		cfg.SSLMode = DefaultSSLMode()
	}

	if cfg.Host == "" {
		return nil, fmt.Errorf("host is required")
	}
	if cfg.User == "" {
		return nil, fmt.Errorf("user is required")
	}
	if cfg.Database == "" {
		return nil, fmt.Errorf("database is required")
	}
	return cfg, nil
}

// buildConnectionString builds a PostgreSQL URL with proper escaping.
// All user-provided fields must be URL-escaped to handle special characters
// in passwords (e.g., @, /, #, ?) that would otherwise break URL parsing.
func buildConnectionString(cfg *Config) string {
	connStr := fmt.Sprintf(
		"postgresql://%s:%s@%s:%d/%s?sslmode=%s",
		url.QueryEscape(cfg.User),
		url.QueryEscape(cfg.Password),
		cfg.Host,
		cfg.Port,
		url.QueryEscape(cfg.Database),
		cfg.SSLMode,
	)
	if cfg.MaxOpenConns > 0 {
		connStr += fmt.Sprintf("&pool_max_conns=%d", cfg.MaxOpenConns)
	}
	return connStr
}
