package datasource

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/ekaya-inc/author-merge/pkg/apperrors"
	"github.com/ekaya-inc/author-merge/pkg/config"
	"github.com/ekaya-inc/author-merge/pkg/logging"
	"github.com/ekaya-inc/author-merge/pkg/retry"
)

// Store bundles the two handles and the dialect used by one merge pass.
// The caller owns it and must Close it.
type Store struct {
	Reader  Handle
	Writer  Handle
	Dialect Dialect
}

// Close closes both handles.
func (s *Store) Close() error {
	var errs []error
	if s.Reader != nil {
		errs = append(errs, s.Reader.Close())
	}
	if s.Writer != nil {
		errs = append(errs, s.Writer.Close())
	}
	return errors.Join(errs...)
}

// OpenStore opens independent reader and writer handles for cfg.Type and pings
// both. Transient connection failures are retried with backoff.
func OpenStore(ctx context.Context, cfg config.DatabaseConfig, retryCfg *retry.Config, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	factory := GetHandleFactory(cfg.Type)
	dialect := GetDialect(cfg.Type)
	if factory == nil || dialect == nil {
		return nil, fmt.Errorf("%w: %s (not compiled in)", apperrors.ErrUnsupportedDatasource, cfg.Type)
	}

	reader, err := openHandle(ctx, factory, cfg, retryCfg, logger.With(zap.String("handle", "reader")))
	if err != nil {
		return nil, fmt.Errorf("open reader handle: %w", err)
	}

	writer, err := openHandle(ctx, factory, cfg, retryCfg, logger.With(zap.String("handle", "writer")))
	if err != nil {
		_ = reader.Close()
		return nil, fmt.Errorf("open writer handle: %w", err)
	}

	return &Store{Reader: reader, Writer: writer, Dialect: dialect}, nil
}

func openHandle(ctx context.Context, factory HandleFactory, cfg config.DatabaseConfig, retryCfg *retry.Config, logger *zap.Logger) (Handle, error) {
	var handle Handle
	attempt := 0
	err := retry.DoIfRetryable(ctx, retryCfg, func() error {
		attempt++
		h, err := factory(ctx, cfg)
		if err != nil {
			logger.Warn("Failed to open database handle",
				zap.Int("attempt", attempt),
				zap.String("error", logging.SanitizeError(err)))
			return err
		}
		if err := h.Ping(ctx); err != nil {
			_ = h.Close()
			logger.Warn("Database ping failed",
				zap.Int("attempt", attempt),
				zap.String("error", logging.SanitizeError(err)))
			return err
		}
		handle = h
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Debug("Database handle ready", zap.String("type", cfg.Type), zap.Int("attempts", attempt))
	return handle, nil
}
