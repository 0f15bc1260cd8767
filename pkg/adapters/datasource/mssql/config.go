package mssql

import (
	"fmt"
	"net/url"

	"github.com/ekaya-inc/author-merge/pkg/config"
)

// Config contains SQL Server-specific connection options. Only SQL
// authentication is supported.
type Config struct {
	Host     string
	Port     int
	Database string
	Username string
	Password string

	// Connection options
	Encrypt                bool
	TrustServerCertificate bool
	ConnectionTimeout      int
	MaxOpenConns           int
}

// DefaultPort returns the default SQL Server port.
func DefaultPort() int {
	return 1433
}

// DefaultConnectionTimeout returns the default connection timeout in seconds.
func DefaultConnectionTimeout() int {
	return 30
}

// FromDatabaseConfig creates a Config from the database section of the app config.
// ssl_mode maps onto the driver's TLS options: "disable" turns encryption off,
// "skip-verify" encrypts without verifying the server certificate, anything
// else encrypts and verifies.
func FromDatabaseConfig(db config.DatabaseConfig) (*Config, error) {
	cfg := &Config{
		Host:              db.Host,
		Port:              db.Port,
		Database:          db.Database,
		Username:          db.User,
		Password:          db.Password,
		Encrypt:           true,
		ConnectionTimeout: DefaultConnectionTimeout(),
		MaxOpenConns:      db.MaxOpenConns,
	}
	if cfg.Port == 0 {
		cfg.Port = DefaultPort()
	}

	switch db.SSLMode {
	case "disable":
		cfg.Encrypt = false
	case "skip-verify":
		cfg.TrustServerCertificate = true
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks if the config has all required fields.
func (c *Config) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("host is required")
	}
	if c.Database == "" {
		return fmt.Errorf("database is required")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	if c.Username == "" {
		return fmt.Errorf("username is required for SQL authentication")
	}
	return nil
}

func buildConnectionString(cfg *Config) string {
	query := url.Values{}
	query.Add("database", cfg.Database)

	if cfg.Encrypt {
		query.Add("encrypt", "true")
	} else {
		query.Add("encrypt", "false")
	}

	if cfg.TrustServerCertificate {
		query.Add("TrustServerCertificate", "true")
	}

	if cfg.ConnectionTimeout > 0 {
		query.Add("connection timeout", fmt.Sprintf("%d", cfg.ConnectionTimeout))
	}

	return fmt.Sprintf("sqlserver://%s:%s@%s:%d?%s",
		url.QueryEscape(cfg.Username),
		url.QueryEscape(cfg.Password),
		cfg.Host,
		cfg.Port,
		query.Encode(),
	)
}
