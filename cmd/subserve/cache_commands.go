package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"subserve/internal/cache"
	"subserve/internal/config"
	"subserve/internal/logging"
)

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Response cache utilities",
	}

	cacheCmd.AddCommand(newCacheStatsCommand(ctx))
	cacheCmd.AddCommand(newCacheClearCommand(ctx))
	cacheCmd.AddCommand(newCacheSweepCommand(ctx))

	return cacheCmd
}

func openConfiguredStore(cfg *config.Config) (*cache.Store, error) {
	if !cfg.Cache.Enabled {
		return nil, errors.New("caching is disabled in the configuration")
	}
	return cache.OpenStore(cfg.Cache.DatabasePath, cfg.CacheTTL(), logging.NewNop())
}

func newCacheStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show persistent cache statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := openConfiguredStore(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			count, err := store.Count(cmd.Context())
			if err != nil {
				return fmt.Errorf("count cache entries: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Database: %s\n", store.Path())
			fmt.Fprintf(out, "Entries:  %d\n", count)
			fmt.Fprintf(out, "TTL:      %s\n", cfg.CacheTTL())
			return nil
		},
	}
}

func newCacheClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete every cached response",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := openConfiguredStore(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			deleted, err := store.Clear(cmd.Context())
			if err != nil {
				return fmt.Errorf("clear cache: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d cached responses\n", deleted)
			return nil
		},
	}
}

func newCacheSweepCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Delete expired cached responses",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := openConfiguredStore(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			deleted, err := store.CleanupExpired(cmd.Context())
			if err != nil {
				return fmt.Errorf("sweep cache: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d expired responses\n", deleted)
			return nil
		},
	}
}
