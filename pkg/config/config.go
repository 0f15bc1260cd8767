package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"

	"github.com/ilyakaznacheev/cleanenv"

	"github.com/ekaya-inc/author-merge/pkg/apperrors"
)

// DefaultConfigPath is read when no -config flag is given.
const DefaultConfigPath = "config.yaml"

// Config holds all configuration for author-merge.
// Configuration can come from a YAML file or environment variables.
// Environment variables always override YAML values for fields that support both.
// Secrets (passwords) must only come from environment variables.
type Config struct {
	Version string `yaml:"-"` // Set at load time, not from config

	Database DatabaseConfig `yaml:"database"`
	Schema   SchemaConfig   `yaml:"schema"`
	Merge    MergeConfig    `yaml:"merge"`
	Log      LogConfig      `yaml:"log"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Connect  ConnectConfig  `yaml:"connect"`
}

// DatabaseConfig describes the bibliographic store to deduplicate.
// Type selects the datasource adapter: mysql, postgres, sqlserver or sqlite.
type DatabaseConfig struct {
	Type     string `yaml:"type" env:"DB_TYPE" env-default:"mysql"`
	Host     string `yaml:"host" env:"DB_HOST" env-default:"localhost"`
	Port     int    `yaml:"port" env:"DB_PORT"` // 0 = adapter default
	User     string `yaml:"username" env:"DB_USERNAME"`
	Password string `yaml:"-" env:"DB_PASSWORD"` // Secret - not in YAML
	Database string `yaml:"name" env:"DB_NAME"`
	SSLMode  string `yaml:"ssl_mode" env:"DB_SSL_MODE"`
	// Path is the database file for the sqlite adapter.
	Path string `yaml:"path" env:"DB_PATH"`
	// MaxOpenConns bounds each of the two handles (reader and writer).
	MaxOpenConns int `yaml:"max_open_conns" env:"DB_MAX_OPEN_CONNS" env-default:"4"`
}

// SchemaConfig names the tables and columns the merge works on.
type SchemaConfig struct {
	AuthorsTable     string `yaml:"authors_table" env:"SCHEMA_AUTHORS_TABLE" env-default:"authors"`
	AuthorIDColumn   string `yaml:"author_id_column" env:"SCHEMA_AUTHOR_ID_COLUMN" env-default:"id"`
	AuthorNameColumn string `yaml:"author_name_column" env:"SCHEMA_AUTHOR_NAME_COLUMN" env-default:"name"`

	// Dependency table: one row per (author, work) link.
	LinksTable       string `yaml:"links_table" env:"SCHEMA_LINKS_TABLE" env-default:"author_book"`
	LinkAuthorColumn string `yaml:"link_author_column" env:"SCHEMA_LINK_AUTHOR_COLUMN" env-default:"author_id"`
	LinkWorkColumn   string `yaml:"link_work_column" env:"SCHEMA_LINK_WORK_COLUMN" env-default:"book_id"`

	// Working column and index, added and dropped by every pass.
	KeyColumn string `yaml:"key_column" env:"SCHEMA_KEY_COLUMN" env-default:"normalized_name"`
	KeyIndex  string `yaml:"key_index" env:"SCHEMA_KEY_INDEX" env-default:"normalized_name_index"`
}

// MergeConfig controls a merge pass.
type MergeConfig struct {
	BatchSize         int    `yaml:"batch_size" env:"MERGE_BATCH_SIZE" env-default:"1000"`
	Recompute         bool   `yaml:"recompute" env:"MERGE_RECOMPUTE" env-default:"false"`
	AllowEmptyKey     bool   `yaml:"allow_empty_key" env:"MERGE_ALLOW_EMPTY_KEY" env-default:"false"`
	DryRun            bool   `yaml:"dry_run" env:"MERGE_DRY_RUN" env-default:"false"`
	KeepWorkingColumn bool   `yaml:"keep_working_column" env:"MERGE_KEEP_WORKING_COLUMN" env-default:"false"`
	ReportPath        string `yaml:"report_path" env:"MERGE_REPORT_PATH" env-default:""`
}

// LogConfig selects the zap logger flavour.
type LogConfig struct {
	Level  string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"console"` // console or json
}

// MetricsConfig configures the end-of-pass metrics file.
type MetricsConfig struct {
	// TextfilePath is where a node_exporter textfile is written; empty disables it.
	TextfilePath string `yaml:"textfile_path" env:"METRICS_TEXTFILE_PATH" env-default:""`
}

// ConnectConfig bounds startup connection retries.
type ConnectConfig struct {
	MaxRetries     int `yaml:"max_retries" env:"CONNECT_MAX_RETRIES" env-default:"3"`
	InitialDelayMs int `yaml:"initial_delay_ms" env:"CONNECT_INITIAL_DELAY_MS" env-default:"200"`
}

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

var supportedTypes = map[string]bool{
	"mysql":     true,
	"postgres":  true,
	"sqlserver": true,
	"sqlite":    true,
}

// Load reads configuration from path with environment variable overrides.
// A missing file is not an error: configuration then comes from the
// environment alone, which is how the batch job usually runs.
func Load(path, version string) (*Config, error) {
	cfg := &Config{
		Version: version,
	}

	if path == "" {
		path = DefaultConfigPath
	}

	if _, err := os.Stat(path); err == nil {
		if err := cleanenv.ReadConfig(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
	} else if errors.Is(err, os.ErrNotExist) {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment: %w", err)
		}
	} else {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the configuration before any connection is opened.
func (c *Config) Validate() error {
	if err := c.Database.validate(); err != nil {
		return fmt.Errorf("%w: database: %v", apperrors.ErrInvalidConfig, err)
	}
	if err := c.Schema.Validate(); err != nil {
		return err
	}
	if c.Merge.BatchSize <= 0 {
		return fmt.Errorf("%w: merge.batch_size must be positive, got %d", apperrors.ErrInvalidConfig, c.Merge.BatchSize)
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("%w: log.format must be console or json, got %q", apperrors.ErrInvalidConfig, c.Log.Format)
	}
	return nil
}

func (c *DatabaseConfig) validate() error {
	if !supportedTypes[c.Type] {
		return fmt.Errorf("unsupported type %q", c.Type)
	}

	if c.Type == "sqlite" {
		if c.Path == "" {
			return fmt.Errorf("path is required for sqlite")
		}
		return nil
	}

	if c.Host == "" {
		return fmt.Errorf("host is required")
	}
	if c.User == "" {
		return fmt.Errorf("username is required")
	}
	if c.Database == "" {
		return fmt.Errorf("name is required")
	}
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	return nil
}

// Validate ensures every configured name is a plain SQL identifier. Names are
// quoted by the dialect as well, but only plain identifiers are accepted.
func (s *SchemaConfig) Validate() error {
	names := map[string]string{
		"authors_table":      s.AuthorsTable,
		"author_id_column":   s.AuthorIDColumn,
		"author_name_column": s.AuthorNameColumn,
		"links_table":        s.LinksTable,
		"link_author_column": s.LinkAuthorColumn,
		"link_work_column":   s.LinkWorkColumn,
		"key_column":         s.KeyColumn,
		"key_index":          s.KeyIndex,
	}
	for field, name := range names {
		if !identifierPattern.MatchString(name) {
			return fmt.Errorf("%w: schema.%s = %q", apperrors.ErrInvalidIdentifier, field, name)
		}
	}
	if s.AuthorsTable == s.LinksTable {
		return fmt.Errorf("%w: schema.authors_table and schema.links_table must differ", apperrors.ErrInvalidConfig)
	}
	return nil
}

// MergeMapTable is the staging table mapping duplicate ids to canonical ids.
func (s *SchemaConfig) MergeMapTable() string {
	return s.AuthorsTable + "_merge_map"
}

// MergeDropTable is the staging table listing link rows to discard.
func (s *SchemaConfig) MergeDropTable() string {
	return s.AuthorsTable + "_merge_drop"
}
