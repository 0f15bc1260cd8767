package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ekaya-inc/author-merge/pkg/models"
	"github.com/ekaya-inc/author-merge/pkg/normalize"
)

// PopulateKeys scans authors through the reader and writes their keys through
// the writer. The scan and the writes run concurrently, joined by a channel of
// batches; each batch is written in its own transaction.
func (s *authorMergeService) PopulateKeys(ctx context.Context, mode models.PopulateMode) (int64, error) {
	switch mode {
	case models.PopulateMissing, models.PopulateAll:
	default:
		return 0, fmt.Errorf("populate keys: unknown mode %q", mode)
	}

	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	batches := make(chan [][]any, 1)

	g.Go(func() error {
		defer close(batches)
		return s.scanKeys(gctx, mode, batches)
	})

	var written int64
	g.Go(func() error {
		update := s.sql.updateKey()
		for batch := range batches {
			if _, err := s.writer.ExecBatch(gctx, update, batch); err != nil {
				return fmt.Errorf("write key batch: %w", err)
			}
			written += int64(len(batch))
			s.logger.Debug("Wrote key batch",
				zap.Int("batch", len(batch)),
				zap.Int64("total", written))
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return written, fmt.Errorf("populate keys: %w", err)
	}

	s.logger.Info("Populated comparison keys",
		zap.String("mode", string(mode)),
		zap.Int64("rows", written),
		zap.Duration("elapsed", time.Since(start)))
	return written, nil
}

func (s *authorMergeService) scanKeys(ctx context.Context, mode models.PopulateMode, out chan<- [][]any) error {
	rows, err := s.reader.Query(ctx, s.sql.selectAuthorsForKeys(mode))
	if err != nil {
		return fmt.Errorf("scan authors: %w", err)
	}
	defer rows.Close()

	send := func(batch [][]any) error {
		select {
		case out <- batch:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	batch := make([][]any, 0, s.opts.BatchSize)
	for rows.Next() {
		var a models.Author
		if err := rows.Scan(&a.ID, &a.Name); err != nil {
			return fmt.Errorf("scan author row: %w", err)
		}
		key := normalize.Truncate(normalize.Key(a.Name), normalize.MaxKeyLength)
		batch = append(batch, []any{key, a.ID})

		if len(batch) == s.opts.BatchSize {
			if err := send(batch); err != nil {
				return err
			}
			batch = make([][]any, 0, s.opts.BatchSize)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("scan authors: %w", err)
	}

	if len(batch) > 0 {
		return send(batch)
	}
	return nil
}
