package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ekaya-inc/author-merge/pkg/adapters/datasource"
	"github.com/ekaya-inc/author-merge/pkg/config"
	"github.com/ekaya-inc/author-merge/pkg/models"
)

// AuthorMergeService deduplicates author records that differ only in spelling.
//
// A pass adds a working key column, fills it from each author's name, merges
// every group of authors sharing a key into one canonical record, then drops
// the column. Each step commits on its own; an interrupted pass is resumed by
// running it again.
type AuthorMergeService interface {
	// Run executes a complete pass and returns its statistics.
	Run(ctx context.Context) (*models.MergeStats, error)

	// EnsureWorkingColumn adds the key column if it does not exist yet.
	EnsureWorkingColumn(ctx context.Context) error

	// PopulateKeys computes keys for the rows selected by mode and returns how many were written.
	PopulateKeys(ctx context.Context, mode models.PopulateMode) (int64, error)

	// EnsureWorkingIndex creates the key lookup index if it does not exist yet.
	EnsureWorkingIndex(ctx context.Context) error

	// CountDuplicateGroups returns the number of keys shared by more than one author.
	CountDuplicateGroups(ctx context.Context) (int64, error)

	// FindDuplicateGroups streams every duplicate group, with its canonical
	// choice, to fn. Iteration stops at the first error fn returns.
	FindDuplicateGroups(ctx context.Context, fn func(models.DuplicateGroup) error) error

	// MergeDuplicates moves dependencies onto each group's canonical author and
	// deletes the other members.
	MergeDuplicates(ctx context.Context) (*models.MergeStats, error)

	// DropWorkingColumn removes the key index and column if present.
	DropWorkingColumn(ctx context.Context) error
}

// AuthorMergeOptions controls a pass.
type AuthorMergeOptions struct {
	RunID             string
	BatchSize         int
	Mode              models.PopulateMode
	AllowEmptyKey     bool
	DryRun            bool
	KeepWorkingColumn bool

	// OnGroup, when set, receives every duplicate group before anything is
	// merged. A dry run reports through it.
	OnGroup func(models.DuplicateGroup) error
}

// AuthorMergeOptionsFromConfig maps the merge section of the config onto options.
func AuthorMergeOptionsFromConfig(runID string, cfg config.MergeConfig) AuthorMergeOptions {
	mode := models.PopulateMissing
	if cfg.Recompute {
		mode = models.PopulateAll
	}
	return AuthorMergeOptions{
		RunID:             runID,
		BatchSize:         cfg.BatchSize,
		Mode:              mode,
		AllowEmptyKey:     cfg.AllowEmptyKey,
		DryRun:            cfg.DryRun,
		KeepWorkingColumn: cfg.KeepWorkingColumn,
	}
}

const defaultBatchSize = 1000

type authorMergeService struct {
	reader  datasource.Handle
	writer  datasource.Handle
	dialect datasource.Dialect
	schema  config.SchemaConfig
	opts    AuthorMergeOptions
	sql     *mergeSQL
	logger  *zap.Logger
}

// NewAuthorMergeService creates a new AuthorMergeService. reader and writer
// must be independent handles to the same store; the service never closes them.
func NewAuthorMergeService(
	reader datasource.Handle,
	writer datasource.Handle,
	dialect datasource.Dialect,
	schema config.SchemaConfig,
	opts AuthorMergeOptions,
	logger *zap.Logger,
) AuthorMergeService {
	if opts.BatchSize <= 0 {
		opts.BatchSize = defaultBatchSize
	}
	if opts.Mode == "" {
		opts.Mode = models.PopulateMissing
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("author-merge")
	if opts.RunID != "" {
		logger = logger.With(zap.String("run_id", opts.RunID))
	}

	return &authorMergeService{
		reader:  reader,
		writer:  writer,
		dialect: dialect,
		schema:  schema,
		opts:    opts,
		sql:     newMergeSQL(dialect, schema, opts.AllowEmptyKey),
		logger:  logger,
	}
}

var _ AuthorMergeService = (*authorMergeService)(nil)

func (s *authorMergeService) Run(ctx context.Context) (*models.MergeStats, error) {
	stats := &models.MergeStats{
		RunID:     s.opts.RunID,
		DryRun:    s.opts.DryRun,
		StartedAt: time.Now(),
	}

	s.logger.Info("Starting author merge pass",
		zap.String("store", s.dialect.Type()),
		zap.String("authors_table", s.schema.AuthorsTable),
		zap.String("links_table", s.schema.LinksTable),
		zap.String("populate_mode", string(s.opts.Mode)),
		zap.Int("batch_size", s.opts.BatchSize),
		zap.Bool("dry_run", s.opts.DryRun))

	if err := s.EnsureWorkingColumn(ctx); err != nil {
		return nil, err
	}

	mode, err := s.populateMode(ctx)
	if err != nil {
		return nil, err
	}

	computed, err := s.PopulateKeys(ctx, mode)
	if err != nil {
		return nil, err
	}
	stats.KeysComputed = computed

	if err := s.EnsureWorkingIndex(ctx); err != nil {
		return nil, err
	}

	if s.opts.DryRun || s.opts.OnGroup != nil {
		groups, err := s.reportGroups(ctx)
		if err != nil {
			return nil, err
		}
		stats.DuplicateGroups = groups
		stats.RemainingGroups = groups
	}

	if !s.opts.DryRun {
		merged, err := s.MergeDuplicates(ctx)
		if err != nil {
			return nil, err
		}
		stats.DuplicateGroups = merged.DuplicateGroups
		stats.AuthorsDeleted = merged.AuthorsDeleted
		stats.DependenciesRewritten = merged.DependenciesRewritten
		stats.DependenciesDropped = merged.DependenciesDropped

		remaining, err := s.CountDuplicateGroups(ctx)
		if err != nil {
			return nil, err
		}
		stats.RemainingGroups = remaining
		if remaining > 0 {
			s.logger.Warn("Duplicate groups remain after merge; the table may have been written to during the pass",
				zap.Int64("remaining_groups", remaining))
		}
	}

	if s.opts.KeepWorkingColumn {
		s.logger.Info("Keeping working column", zap.String("column", s.schema.KeyColumn))
	} else if err := s.DropWorkingColumn(ctx); err != nil {
		return nil, err
	}

	stats.FinishedAt = time.Now()
	s.logger.Info("Author merge pass complete",
		zap.Int64("keys_computed", stats.KeysComputed),
		zap.Int64("duplicate_groups", stats.DuplicateGroups),
		zap.Int64("authors_deleted", stats.AuthorsDeleted),
		zap.Int64("dependencies_rewritten", stats.DependenciesRewritten),
		zap.Int64("dependencies_dropped", stats.DependenciesDropped),
		zap.Int64("remaining_groups", stats.RemainingGroups),
		zap.Duration("duration", stats.Duration()))

	return stats, nil
}

// populateMode resumes an interrupted population only. The key index is
// created once population completes, so finding it at pass start means the
// keys came from an earlier pass and names may have changed since.
func (s *authorMergeService) populateMode(ctx context.Context) (models.PopulateMode, error) {
	if s.opts.Mode == models.PopulateAll {
		return models.PopulateAll, nil
	}
	indexed, err := s.indexExists(ctx)
	if err != nil {
		return "", err
	}
	if indexed {
		s.logger.Info("Working keys left by an earlier pass; recomputing all of them",
			zap.String("column", s.schema.KeyColumn))
		return models.PopulateAll, nil
	}
	return s.opts.Mode, nil
}

// reportGroups streams the plan to OnGroup and returns the number of groups.
func (s *authorMergeService) reportGroups(ctx context.Context) (int64, error) {
	var groups, duplicates int64
	err := s.FindDuplicateGroups(ctx, func(g models.DuplicateGroup) error {
		groups++
		duplicates += int64(len(g.Members) - 1)
		if s.opts.OnGroup != nil {
			return s.opts.OnGroup(g)
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("report duplicate groups: %w", err)
	}

	s.logger.Info("Duplicate groups found",
		zap.Int64("groups", groups),
		zap.Int64("duplicates", duplicates))
	return groups, nil
}
