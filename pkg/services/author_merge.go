package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ekaya-inc/author-merge/pkg/logging"
	"github.com/ekaya-inc/author-merge/pkg/models"
)

// MergeDuplicates runs the merge as a sequence of set-based statements over two
// staging tables:
//
//	<authors>_merge_map   duplicate_id -> canonical_id
//	<authors>_merge_drop  dependency rows whose rewrite would collide
//
// Every statement commits on its own. Rebuilding the map after a partial run
// yields the same canonical ids, because rewrites only ever add dependencies
// to the canonical record.
func (s *authorMergeService) MergeDuplicates(ctx context.Context) (*models.MergeStats, error) {
	start := time.Now()
	stats := &models.MergeStats{RunID: s.opts.RunID, StartedAt: start}

	if err := s.dropStagingTables(ctx); err != nil {
		return nil, err
	}

	if _, err := s.execWriter(ctx, s.sql.createMergeMap()); err != nil {
		return nil, fmt.Errorf("build merge map: %w", err)
	}
	if _, err := s.execWriter(ctx, s.sql.indexMergeMap()); err != nil {
		return nil, fmt.Errorf("index merge map: %w", err)
	}

	duplicates, groups, err := s.countMergeMap(ctx)
	if err != nil {
		return nil, err
	}
	stats.DuplicateGroups = groups

	if duplicates == 0 {
		s.logger.Info("No duplicate authors found")
		if err := s.dropStagingTables(ctx); err != nil {
			return nil, err
		}
		stats.FinishedAt = time.Now()
		return stats, nil
	}
	s.logger.Info("Merge plan built",
		zap.Int64("groups", groups),
		zap.Int64("duplicates", duplicates))

	if _, err := s.execWriter(ctx, s.sql.createMergeDrop()); err != nil {
		return nil, fmt.Errorf("build collision list: %w", err)
	}

	dropped, err := s.execWriter(ctx, s.sql.deleteCollidingLinks())
	if err != nil {
		return nil, fmt.Errorf("delete colliding dependencies: %w", err)
	}
	stats.DependenciesDropped = dropped
	if dropped > 0 {
		s.logger.Warn("Dropped dependency rows that duplicated a relationship of the canonical author",
			zap.Int64("dropped", dropped),
			zap.String("table", s.schema.LinksTable))
	}

	rewritten, err := s.execWriter(ctx, s.sql.rewriteLinks())
	if err != nil {
		return nil, fmt.Errorf("rewrite dependencies: %w", err)
	}
	stats.DependenciesRewritten = rewritten
	s.logger.Info("Rewrote dependencies to canonical authors", zap.Int64("rows", rewritten))

	deleted, err := s.execWriter(ctx, s.sql.deleteDuplicateAuthors())
	if err != nil {
		return nil, fmt.Errorf("delete duplicate authors: %w", err)
	}
	stats.AuthorsDeleted = deleted
	s.logger.Info("Deleted duplicate authors", zap.Int64("rows", deleted))

	if err := s.dropStagingTables(ctx); err != nil {
		return nil, err
	}

	stats.FinishedAt = time.Now()
	s.logger.Info("Merged duplicate authors",
		zap.Int64("groups", groups),
		zap.Duration("elapsed", stats.Duration()))
	return stats, nil
}

func (s *authorMergeService) countMergeMap(ctx context.Context) (duplicates, groups int64, err error) {
	rows, err := s.writer.Query(ctx, s.sql.countMergeMap())
	if err != nil {
		return 0, 0, fmt.Errorf("count merge map: %w", err)
	}
	defer rows.Close()

	if rows.Next() {
		if err := rows.Scan(&duplicates, &groups); err != nil {
			return 0, 0, fmt.Errorf("count merge map: %w", err)
		}
	}
	if err := rows.Err(); err != nil {
		return 0, 0, fmt.Errorf("count merge map: %w", err)
	}
	return duplicates, groups, nil
}

func (s *authorMergeService) dropStagingTables(ctx context.Context) error {
	for _, table := range []string{s.sql.mergeDrop, s.sql.mergeMap} {
		if _, err := s.execWriter(ctx, s.sql.dropTable(table)); err != nil {
			return fmt.Errorf("drop staging table %s: %w", table, err)
		}
	}
	return nil
}

// execWriter runs one statement on the writer, logging it at debug level.
func (s *authorMergeService) execWriter(ctx context.Context, query string) (int64, error) {
	s.logger.Debug("Executing statement", zap.String("sql", logging.SanitizeQuery(query)))
	return s.writer.Exec(ctx, query)
}
