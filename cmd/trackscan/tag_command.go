package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"trackscan/internal/config"
	"trackscan/internal/tagger"
)

func newTagCommand(ctx *commandContext) *cobra.Command {
	var csvDir string
	var tags []string
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "tag",
		Short: "Tag every file listed in a directory of report CSVs",
		Long: "Reads every CSV in --csv-dir, resolves one path per row (output_path, input_path,\n" +
			"path, then file), and replaces the configured tag attribute of each existing file\n" +
			"with \"<timestamp>,<tags...>\".",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if dryRun {
				cfg.Paths.LogDir = ""
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			dir := strings.TrimSpace(csvDir)
			if dir == "" {
				return errors.New("--csv-dir is required")
			}
			dir, err = config.ExpandPath(dir)
			if err != nil {
				return fmt.Errorf("resolve csv directory: %w", err)
			}
			values := cfg.Tagging.Tags
			if cmd.Flags().Changed("tag") {
				values = tags
			}

			stats, err := tagger.Run(tagger.Options{
				Dir:       dir,
				Attribute: cfg.Tagging.Attribute,
				Tags:      values,
				DryRun:    dryRun,
				Logger:    logger,
			})
			if err != nil {
				return err
			}

			rows := [][]string{
				{"CSV files", strconv.Itoa(stats.CSVs)},
				{"Tagged", strconv.Itoa(stats.Tagged)},
				{"Skipped", strconv.Itoa(stats.Skipped)},
				{"Missing", strconv.Itoa(stats.Missing)},
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Result", "Count"}, rows, []columnAlignment{alignLeft, alignRight}))
			return nil
		},
	}

	cmd.Flags().StringVar(&csvDir, "csv-dir", "", "Directory containing report CSVs")
	cmd.Flags().StringArrayVar(&tags, "tag", nil, "Tag to write after the timestamp (repeatable; default: tagging.tags)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report what would be tagged without writing")
	return cmd
}
