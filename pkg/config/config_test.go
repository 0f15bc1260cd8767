package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/ekaya-inc/author-merge/pkg/apperrors"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return path
}

func validConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Type:     "mysql",
			Host:     "localhost",
			User:     "merge",
			Database: "library",
		},
		Schema: SchemaConfig{
			AuthorsTable:     "authors",
			AuthorIDColumn:   "id",
			AuthorNameColumn: "name",
			LinksTable:       "author_book",
			LinkAuthorColumn: "author_id",
			LinkWorkColumn:   "book_id",
			KeyColumn:        "normalized_name",
			KeyIndex:         "normalized_name_index",
		},
		Merge: MergeConfig{BatchSize: 1000},
		Log:   LogConfig{Level: "info", Format: "console"},
	}
}

func TestLoad_EnvOverridesYAML(t *testing.T) {
	path := writeConfig(t, `
database:
  type: postgres
  host: db.example.com
  port: 5433
  username: librarian
  name: catalog
schema:
  authors_table: people
  links_table: person_work
merge:
  batch_size: 250
log:
  format: json
`)

	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_PASSWORD", "s3cret")

	cfg, err := Load(path, "test-version")
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Version != "test-version" {
		t.Errorf("expected Version=test-version, got %s", cfg.Version)
	}
	if cfg.Database.Type != "postgres" {
		t.Errorf("expected Type=postgres (from YAML), got %s", cfg.Database.Type)
	}
	if cfg.Database.Host != "db.internal" {
		t.Errorf("expected Host=db.internal (from env), got %s", cfg.Database.Host)
	}
	if cfg.Database.Port != 5433 {
		t.Errorf("expected Port=5433, got %d", cfg.Database.Port)
	}
	if cfg.Database.Password != "s3cret" {
		t.Errorf("expected password from env")
	}
	if cfg.Schema.AuthorsTable != "people" || cfg.Schema.LinksTable != "person_work" {
		t.Errorf("unexpected schema tables: %s, %s", cfg.Schema.AuthorsTable, cfg.Schema.LinksTable)
	}
	if cfg.Merge.BatchSize != 250 {
		t.Errorf("expected BatchSize=250, got %d", cfg.Merge.BatchSize)
	}
	if cfg.Log.Format != "json" {
		t.Errorf("expected Format=json, got %s", cfg.Log.Format)
	}
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, `
database:
  type: sqlite
  path: /tmp/library.db
`)

	cfg, err := Load(path, "dev")
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Schema.AuthorsTable != "authors" {
		t.Errorf("expected default authors table, got %s", cfg.Schema.AuthorsTable)
	}
	if cfg.Schema.KeyColumn != "normalized_name" {
		t.Errorf("expected default key column, got %s", cfg.Schema.KeyColumn)
	}
	if cfg.Schema.KeyIndex != "normalized_name_index" {
		t.Errorf("expected default key index, got %s", cfg.Schema.KeyIndex)
	}
	if cfg.Merge.BatchSize != 1000 {
		t.Errorf("expected default BatchSize=1000, got %d", cfg.Merge.BatchSize)
	}
	if cfg.Merge.DryRun || cfg.Merge.AllowEmptyKey || cfg.Merge.Recompute {
		t.Errorf("expected merge flags to default to false")
	}
	if cfg.Connect.MaxRetries != 3 || cfg.Connect.InitialDelayMs != 200 {
		t.Errorf("unexpected connect defaults: %+v", cfg.Connect)
	}
}

func TestLoad_MissingFileReadsEnvironment(t *testing.T) {
	t.Setenv("DB_TYPE", "sqlite")
	t.Setenv("DB_PATH", "/var/lib/library.db")
	t.Setenv("MERGE_DRY_RUN", "true")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"), "dev")
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Database.Path != "/var/lib/library.db" {
		t.Errorf("expected Path from env, got %s", cfg.Database.Path)
	}
	if !cfg.Merge.DryRun {
		t.Errorf("expected DryRun=true from env")
	}
}

func TestLoad_InvalidFile(t *testing.T) {
	path := writeConfig(t, "database: [unterminated")

	if _, err := Load(path, "dev"); err == nil {
		t.Fatal("expected error for malformed YAML")
	}
}

func TestLoad_ValidationFailure(t *testing.T) {
	path := writeConfig(t, `
database:
  type: oracle
`)

	_, err := Load(path, "dev")
	if !errors.Is(err, apperrors.ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{"valid", func(*Config) {}, nil},
		{"unsupported type", func(c *Config) { c.Database.Type = "oracle" }, apperrors.ErrInvalidConfig},
		{"missing host", func(c *Config) { c.Database.Host = "" }, apperrors.ErrInvalidConfig},
		{"missing user", func(c *Config) { c.Database.User = "" }, apperrors.ErrInvalidConfig},
		{"missing database", func(c *Config) { c.Database.Database = "" }, apperrors.ErrInvalidConfig},
		{"port out of range", func(c *Config) { c.Database.Port = 70000 }, apperrors.ErrInvalidConfig},
		{"sqlite without path", func(c *Config) { c.Database.Type = "sqlite" }, apperrors.ErrInvalidConfig},
		{"sqlite with path", func(c *Config) {
			c.Database = DatabaseConfig{Type: "sqlite", Path: "library.db"}
		}, nil},
		{"zero batch size", func(c *Config) { c.Merge.BatchSize = 0 }, apperrors.ErrInvalidConfig},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }, apperrors.ErrInvalidConfig},
		{"injected table name", func(c *Config) { c.Schema.AuthorsTable = "authors; DROP TABLE x" }, apperrors.ErrInvalidIdentifier},
		{"quoted column", func(c *Config) { c.Schema.KeyColumn = `"key"` }, apperrors.ErrInvalidIdentifier},
		{"empty index", func(c *Config) { c.Schema.KeyIndex = "" }, apperrors.ErrInvalidIdentifier},
		{"same tables", func(c *Config) { c.Schema.LinksTable = "authors" }, apperrors.ErrInvalidConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()

			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("expected no error, got %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestSchemaConfig_StagingTables(t *testing.T) {
	s := validConfig().Schema
	if got := s.MergeMapTable(); got != "authors_merge_map" {
		t.Errorf("expected authors_merge_map, got %s", got)
	}
	if got := s.MergeDropTable(); got != "authors_merge_drop" {
		t.Errorf("expected authors_merge_drop, got %s", got)
	}
}
