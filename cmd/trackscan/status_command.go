package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"trackscan/internal/config"
	"trackscan/internal/deps"
	"trackscan/internal/preflight"
	"trackscan/internal/probecache"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check dependencies, directories, and rules",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := cfg.EnsureDirectories(); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			var lines []string
			lines = append(lines, renderSectionHeader("Dependencies", colorize)...)
			for _, status := range preflight.CheckSystemDeps(cmd.Context(), cfg) {
				lines = append(lines, dependencyLine(status, colorize))
			}

			lines = append(lines, "")
			lines = append(lines, renderSectionHeader("Checks", colorize)...)
			results := preflight.RunAll(cfg)
			if len(cfg.Paths.Roots) == 0 {
				lines = append(lines, renderStatusLine("Scan root", statusWarn, "none configured; pass roots to scan", colorize))
			}
			for _, r := range results {
				lines = append(lines, checkLine(r, statusError, colorize))
			}
			lines = append(lines, checkLine(preflight.CheckTagSupport(cfg.Paths.OutputDir, cfg.Tagging.Attribute), statusWarn, colorize))

			lines = append(lines, "")
			lines = append(lines, renderSectionHeader("Probe cache", colorize)...)
			lines = append(lines, cacheLine(cmd, cfg, colorize))

			fmt.Fprintln(out, strings.Join(lines, "\n"))
			return nil
		},
	}
}

func dependencyLine(status deps.Status, colorize bool) string {
	if !status.Available {
		kind := statusError
		if status.Optional {
			kind = statusWarn
		}
		return renderStatusLine(status.Name, kind, status.Detail, colorize)
	}
	detail := status.Path
	if status.Version != "" {
		detail = fmt.Sprintf("%s (%s)", status.Version, status.Path)
	}
	return renderStatusLine(status.Name, statusOK, detail, colorize)
}

// checkLine renders a preflight result; failures use failKind.
func checkLine(r preflight.Result, failKind statusKind, colorize bool) string {
	if r.Passed {
		return renderStatusLine(r.Name, statusOK, r.Detail, colorize)
	}
	return renderStatusLine(r.Name, failKind, r.Detail, colorize)
}

func cacheLine(cmd *cobra.Command, cfg *config.Config, colorize bool) string {
	path := cfg.ProbeCachePath()
	if path == "" {
		return renderStatusLine("Cache", statusInfo, "disabled", colorize)
	}
	cache, err := probecache.Open(cmd.Context(), path, nil)
	if err != nil {
		return renderStatusLine("Cache", statusWarn, err.Error(), colorize)
	}
	defer cache.Close()
	n, err := cache.Count(cmd.Context())
	if err != nil {
		return renderStatusLine("Cache", statusWarn, err.Error(), colorize)
	}
	return renderStatusLine("Cache", statusOK, fmt.Sprintf("%d entries in %s", n, path), colorize)
}
