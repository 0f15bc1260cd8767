// author-merge collapses author records that name the same person with
// different spellings into one canonical record per person.
//
// Usage:
//
//	author-merge [-config config.yaml] [-dry-run] [-recompute] [-allow-empty-key]
//	             [-keep-working-column] [-report plan.yaml]
//
// Connection settings come from the config file and the DB_* environment
// variables; DB_PASSWORD is only read from the environment.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ekaya-inc/author-merge/pkg/adapters/datasource"
	_ "github.com/ekaya-inc/author-merge/pkg/adapters/datasource/mssql"
	_ "github.com/ekaya-inc/author-merge/pkg/adapters/datasource/mysql"
	_ "github.com/ekaya-inc/author-merge/pkg/adapters/datasource/postgres"
	_ "github.com/ekaya-inc/author-merge/pkg/adapters/datasource/sqlite"
	"github.com/ekaya-inc/author-merge/pkg/config"
	"github.com/ekaya-inc/author-merge/pkg/logging"
	"github.com/ekaya-inc/author-merge/pkg/metrics"
	"github.com/ekaya-inc/author-merge/pkg/report"
	"github.com/ekaya-inc/author-merge/pkg/retry"
	"github.com/ekaya-inc/author-merge/pkg/services"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	configPath := flag.String("config", config.DefaultConfigPath, "Path to the YAML config file")
	dryRun := flag.Bool("dry-run", false, "Report duplicate groups without merging")
	recompute := flag.Bool("recompute", false, "Recompute every key instead of only missing ones")
	allowEmptyKey := flag.Bool("allow-empty-key", false, "Merge authors whose name normalizes to an empty key")
	keepColumn := flag.Bool("keep-working-column", false, "Leave the working key column in place after the pass")
	reportPath := flag.String("report", "", "Write the duplicate-group plan to this YAML file")
	flag.Parse()

	cfg, err := config.Load(*configPath, Version)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Flags given on the command line win over the file and the environment.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "dry-run":
			cfg.Merge.DryRun = *dryRun
		case "recompute":
			cfg.Merge.Recompute = *recompute
		case "allow-empty-key":
			cfg.Merge.AllowEmptyKey = *allowEmptyKey
		case "keep-working-column":
			cfg.Merge.KeepWorkingColumn = *keepColumn
		case "report":
			cfg.Merge.ReportPath = *reportPath
		}
	})

	logger, err := logging.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Error("Author merge failed", zap.String("error", logging.SanitizeError(err)))
		_ = logger.Sync()
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runID := uuid.New().String()
	logger.Info("Starting author-merge",
		zap.String("version", cfg.Version),
		zap.String("run_id", runID),
		zap.String("store", cfg.Database.Type),
		zap.String("database", cfg.Database.Database))

	retryCfg := retry.ForConnect(cfg.Connect.MaxRetries, time.Duration(cfg.Connect.InitialDelayMs)*time.Millisecond)
	store, err := datasource.OpenStore(ctx, cfg.Database, retryCfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Warn("Failed to close store", zap.String("error", logging.SanitizeError(err)))
		}
	}()

	opts := services.AuthorMergeOptionsFromConfig(runID, cfg.Merge)

	var plan *report.PlanWriter
	if cfg.Merge.ReportPath != "" {
		plan, err = report.CreatePlanFile(cfg.Merge.ReportPath)
		if err != nil {
			return err
		}
		opts.OnGroup = plan.WriteGroup
	}

	svc := services.NewAuthorMergeService(store.Reader, store.Writer, store.Dialect, cfg.Schema, opts, logger)
	stats, err := svc.Run(ctx)

	if plan != nil {
		if cerr := plan.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close plan report: %w", cerr)
		}
		logger.Info("Wrote merge plan",
			zap.String("path", cfg.Merge.ReportPath),
			zap.Int("groups", plan.Groups()))
	}
	if err != nil {
		return err
	}

	if cfg.Metrics.TextfilePath != "" {
		rec := metrics.New(cfg.Database.Type)
		rec.Observe(stats)
		if err := rec.WriteTextfile(cfg.Metrics.TextfilePath); err != nil {
			return err
		}
		logger.Debug("Wrote metrics textfile", zap.String("path", cfg.Metrics.TextfilePath))
	}

	return nil
}
