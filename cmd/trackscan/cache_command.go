package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"trackscan/internal/probecache"
)

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Probe cache maintenance",
	}
	cacheCmd.AddCommand(&cobra.Command{
		Use:   "prune",
		Short: "Drop cached probes whose files no longer exist",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			path := cfg.ProbeCachePath()
			if path == "" {
				return errors.New("probe cache is disabled (probe.cache_enabled = false)")
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			cache, err := probecache.Open(cmd.Context(), path, logger)
			if err != nil {
				return err
			}
			defer cache.Close()
			removed, err := cache.Prune(cmd.Context())
			if err != nil {
				return err
			}
			remaining, err := cache.Count(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d stale entries; %d remain in %s\n", removed, remaining, path)
			return nil
		},
	})
	return cacheCmd
}
