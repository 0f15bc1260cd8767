package sqlite

import (
	"fmt"
	"path/filepath"

	"github.com/ekaya-inc/author-merge/pkg/config"
)

// Config contains SQLite-specific connection options.
type Config struct {
	Path         string
	BusyTimeout  int // milliseconds
	MaxOpenConns int
}

// DefaultBusyTimeout returns how long a writer waits on a locked database, in milliseconds.
func DefaultBusyTimeout() int {
	return 5000
}

// FromDatabaseConfig creates a Config from the database section of the app config.
func FromDatabaseConfig(db config.DatabaseConfig) (*Config, error) {
	if db.Path == "" {
		return nil, fmt.Errorf("path is required")
	}
	return &Config{
		Path:         db.Path,
		BusyTimeout:  DefaultBusyTimeout(),
		MaxOpenConns: db.MaxOpenConns,
	}, nil
}

// buildDSN enables WAL so the reader's open cursor does not block the writer.
func buildDSN(cfg *Config) string {
	return fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)",
		filepath.Clean(cfg.Path), cfg.BusyTimeout)
}
