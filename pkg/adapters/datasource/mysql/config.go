package mysql

import (
	"fmt"
	"net"
	"strconv"

	"github.com/go-sql-driver/mysql"

	"github.com/ekaya-inc/author-merge/pkg/config"
)

// Config contains MySQL-specific connection options.
type Config struct {
	Host         string
	Port         int
	User         string
	Password     string
	Database     string
	SSLMode      string // "disable", "preferred", "require", "skip-verify"
	MaxOpenConns int
}

// DefaultPort returns the default MySQL port.
func DefaultPort() int {
	return 3306
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

	if cfg.Host == "" {
		return nil, fmt.Errorf("host is required")
	}
	if cfg.User == "" {
		return nil, fmt.Errorf("user is required")
	}
	if cfg.Database == "" {
		return nil, fmt.Errorf("database is required")
	}
	if _, err := tlsSetting(cfg.SSLMode); err != nil {
		return nil, err
	}
	return cfg, nil
}

func tlsSetting(sslMode string) (string, error) {
	switch sslMode {
	case "", "disable":
		return "", nil
	case "preferred":
		return "preferred", nil
	case "require":
		return "true", nil
	case "skip-verify":
		return "skip-verify", nil
	default:
		return "", fmt.Errorf("invalid ssl_mode for mysql: %q", sslMode)
	}
}

// buildDSN formats a driver DSN. The driver escapes the password itself.
// ClientFoundRows makes UPDATE report matched rather than changed rows, which
// is what the other stores report.
func buildDSN(cfg *Config) string {
	dsn := mysql.NewConfig()
	dsn.User = cfg.User
	dsn.Passwd = cfg.Password
	dsn.Net = "tcp"
	dsn.Addr = net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	dsn.DBName = cfg.Database
	dsn.ClientFoundRows = true
	dsn.TLSConfig, _ = tlsSetting(cfg.SSLMode)
	return dsn.FormatDSN()
}
