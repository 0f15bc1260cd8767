package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ekaya-inc/author-merge/pkg/adapters/datasource"
	"github.com/ekaya-inc/author-merge/pkg/apperrors"
)

func (s *authorMergeService) EnsureWorkingColumn(ctx context.Context) error {
	for _, table := range []string{s.schema.AuthorsTable, s.schema.LinksTable} {
		n, err := datasource.QueryInt64(ctx, s.reader, s.dialect.TableExistsQuery(), table)
		if err != nil {
			return fmt.Errorf("check table %s: %w", table, err)
		}
		if n == 0 {
			return fmt.Errorf("%w: %s", apperrors.ErrMissingTable, table)
		}
	}

	exists, err := s.columnExists(ctx)
	if err != nil {
		return err
	}
	if exists {
		s.logger.Info("Working column already present; reusing it",
			zap.String("column", s.schema.KeyColumn))
		return nil
	}

	if _, err := s.execWriter(ctx, s.sql.addKeyColumn()); err != nil {
		return fmt.Errorf("add working column: %w", err)
	}
	s.logger.Info("Added working column", zap.String("column", s.schema.KeyColumn))
	return nil
}

func (s *authorMergeService) EnsureWorkingIndex(ctx context.Context) error {
	exists, err := s.indexExists(ctx)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	if _, err := s.execWriter(ctx, s.sql.createKeyIndex()); err != nil {
		return fmt.Errorf("create working index: %w", err)
	}
	s.logger.Info("Created working index", zap.String("index", s.schema.KeyIndex))
	return nil
}

func (s *authorMergeService) DropWorkingColumn(ctx context.Context) error {
	indexed, err := s.indexExists(ctx)
	if err != nil {
		return err
	}
	if indexed {
		if _, err := s.execWriter(ctx, s.sql.dropKeyIndex()); err != nil {
			return fmt.Errorf("drop working index: %w", err)
		}
	}

	exists, err := s.columnExists(ctx)
	if err != nil {
		return err
	}
	if !exists {
		return nil
	}
	if _, err := s.execWriter(ctx, s.sql.dropKeyColumn()); err != nil {
		return fmt.Errorf("drop working column: %w", err)
	}
	s.logger.Info("Dropped working column", zap.String("column", s.schema.KeyColumn))
	return nil
}

func (s *authorMergeService) columnExists(ctx context.Context) (bool, error) {
	n, err := datasource.QueryInt64(ctx, s.reader, s.dialect.ColumnExistsQuery(),
		s.schema.AuthorsTable, s.schema.KeyColumn)
	if err != nil {
		return false, fmt.Errorf("check working column: %w", err)
	}
	return n > 0, nil
}

func (s *authorMergeService) indexExists(ctx context.Context) (bool, error) {
	n, err := datasource.QueryInt64(ctx, s.reader, s.dialect.IndexExistsQuery(),
		s.schema.AuthorsTable, s.schema.KeyIndex)
	if err != nil {
		return false, fmt.Errorf("check working index: %w", err)
	}
	return n > 0, nil
}
