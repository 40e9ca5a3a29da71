package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"subserve/internal/api"
	"subserve/internal/cache"
	"subserve/internal/config"
	"subserve/internal/extractor"
	"subserve/internal/logging"
	"subserve/internal/ytdlp"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the subtitle extraction HTTP service",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			return runServe(cmd.Context(), cfg)
		},
	}
}

func runServe(parent context.Context, cfg *config.Config) error {
	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("configure logging: %w", err)
	}

	lock := flock.New(cfg.LockPath())
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire instance lock: %w", err)
	}
	if !locked {
		return errors.New("another subserve instance is already running")
	}
	defer func() { _ = lock.Unlock() }()

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	capability := ytdlp.NewCLI(ytdlp.WithBinary(cfg.Extraction.YtdlpBinary))
	service := extractor.NewService(capability, extractor.Settings{
		MaxAttempts: cfg.Extraction.MaxAttempts,
		WorkDir:     cfg.Extraction.WorkDir,
		LanguageTTL: cfg.LanguageTTL(),
		Download: extractor.Options{
			ImpersonateTarget: cfg.Extraction.ImpersonateTarget,
			SleepSeconds:      cfg.Extraction.SleepSeconds,
			PlayerClient:      cfg.Extraction.PlayerClient,
			SocketTimeout:     cfg.Extraction.SocketTimeout,
		},
	}, logger)

	var memory *cache.Memory
	var persistent api.PersistentCache
	if cfg.Cache.Enabled {
		memory = cache.NewMemory(cfg.CacheTTL(), cfg.Cache.MaxEntries)
		store, err := cache.OpenStore(cfg.Cache.DatabasePath, cfg.CacheTTL(), logger)
		if err != nil {
			return fmt.Errorf("open cache store: %w", err)
		}
		defer func() { _ = store.Close() }()
		go store.RunSweeper(ctx, cfg.SweepInterval())
		persistent = store
	}

	server := api.NewServer(service, memory, persistent, api.Options{
		Version:            version,
		RequestTimeout:     cfg.RequestTimeout(),
		MaxBatchSize:       cfg.Server.MaxBatchSize,
		CacheEnabled:       cfg.Cache.Enabled,
		RateLimitEnabled:   cfg.Security.RateLimitEnabled,
		RateLimitPerMinute: cfg.Security.RateLimitPerMinute,
		SecurityHeaders:    cfg.Security.SecurityHeaders,
		SleepSeconds:       cfg.Extraction.SleepSeconds,
	}, logger)

	httpServer := &http.Server{
		Addr:              cfg.Server.Bind,
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("subserve starting",
		"version", version,
		"bind", cfg.Server.Bind,
		"cache_enabled", cfg.Cache.Enabled,
		"rate_limit_enabled", cfg.Security.RateLimitEnabled,
		"impersonate_target", cfg.Extraction.ImpersonateTarget)

	serveErr := make(chan error, 1)
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case err := <-serveErr:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout())
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	logger.Info("shutdown complete")
	return nil
}
