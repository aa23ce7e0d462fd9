package main

import (
	"context"
	"log"
	"log/slog"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"gleaner/internal/config"
	"gleaner/internal/daemon"
	"gleaner/internal/jobs"
	"gleaner/internal/logging"
	"gleaner/internal/preflight"
	"gleaner/internal/workflow"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, _, _, err := config.Load("")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		log.Fatalf("prepare directories: %v", err)
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	for _, result := range preflight.RunAll(ctx, cfg) {
		if result.Passed {
			logger.Debug("preflight check passed", slog.String("check", result.Name), slog.String("detail", result.Detail))
		} else {
			logger.Warn("preflight check failed", slog.String("check", result.Name), slog.String("detail", result.Detail))
		}
	}

	store, err := jobs.Open(cfg)
	if err != nil {
		logger.Error("open jobs store", logging.Error(err))
		return
	}
	defer store.Close()

	handler := buildProcessStage(cfg, store, logger)
	manager := workflow.NewManager(cfg, store, handler, logger)

	d, err := daemon.New(cfg, store, logger, manager)
	if err != nil {
		logger.Error("create daemon", logging.Error(err))
		return
	}
	if err := d.Start(ctx); err != nil {
		logger.Error("start daemon", logging.Error(err))
		return
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		<-groupCtx.Done()
		d.Stop()
		return nil
	})
	group.Go(func() error {
		runLogRetention(groupCtx, cfg, logger)
		return nil
	})

	if err := group.Wait(); err != nil {
		logger.Error("daemon terminated", logging.Error(err))
	}
	logger.Info("gleanerd shut down")
}

// runLogRetention prunes old log files once at startup and then daily.
func runLogRetention(ctx context.Context, cfg *config.Config, logger *slog.Logger) {
	if cfg.Logging.RetentionDays <= 0 {
		return
	}
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()
	for {
		logging.CleanupOldLogs(logger, cfg.Logging.RetentionDays, logging.RetentionTarget{
			Dir:     cfg.Paths.LogDir,
			Pattern: "*.log",
			Exclude: []string{filepath.Join(cfg.Paths.LogDir, "gleaner.log")},
		})
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
