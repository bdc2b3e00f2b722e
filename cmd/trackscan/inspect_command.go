package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"trackscan/internal/classify"
	"trackscan/internal/config"
	"trackscan/internal/fstags"
	"trackscan/internal/language"
	"trackscan/internal/media/mkvmerge"
	"trackscan/internal/rules"
	"trackscan/internal/scan"
	"trackscan/internal/track"
)

func newInspectCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect FILE",
		Short: "Show the normalized tracks of one file and how its rules judge them",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			path, err := config.ExpandPath(strings.TrimSpace(args[0]))
			if err != nil {
				return fmt.Errorf("resolve file: %w", err)
			}
			if _, err := os.Stat(path); err != nil {
				return fmt.Errorf("inspect %s: %w", path, err)
			}
			set, err := rules.Load(cfg.Classification.Path)
			if err != nil {
				return err
			}
			client, err := mkvmerge.New(cfg.Probe.Binary, cfg.ProbeTimeout())
			if err != nil {
				return err
			}
			res, err := client.Identify(cmd.Context(), path)
			if err != nil {
				return err
			}

			tags, _ := fstags.Read(path)
			rows := track.NewNormalizer(cfg.Media.EmbeddedSubtitleExts).Rows(path, tags, res.Tracks())
			section, _ := rules.SectionFor(path)
			if _, ok := set.Lookup(section); !ok {
				section = rules.DefaultSection
			}
			container := slices.ContainsFunc(cfg.Media.ContainerExts, func(ext string) bool {
				return strings.EqualFold(ext, filepath.Ext(path))
			})
			writeInspection(cmd.OutOrStdout(), path, res, rows, section, set.For(path), container)
			return nil
		},
	}
}

func writeInspection(out io.Writer, path string, res mkvmerge.Result, rows []track.Row, section string, r rules.Rules, container bool) {
	fmt.Fprintln(out, renderPairs([][2]string{
		{"File", path},
		{"Container", res.ContainerType()},
		{"Recognized", yesNo(res.Recognized())},
		{"Rules", section},
	}))

	if len(rows) == 0 {
		fmt.Fprintln(out, "No tracks reported")
		fmt.Fprintf(out, "Verdict: %s\n", verdict(track.Probe{Path: path}, r, container))
		return
	}
	table := make([][]string, 0, len(rows))
	for _, row := range rows {
		table = append(table, []string{
			row.ID,
			string(row.Type),
			row.Lang,
			language.DisplayName(row.Lang),
			row.Codec,
			row.Default,
			row.Forced,
			row.Encoding,
			row.EditedName,
			yesNo(r.Allows(row)),
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"ID", "Type", "Lang", "Language", "Codec", "Default", "Forced", "Encoding", "Edited name", "Allowed"},
		table,
		[]columnAlignment{alignRight},
	))

	for _, w := range res.Warnings() {
		fmt.Fprintf(out, "Warning: %s\n", w)
	}
	fmt.Fprintf(out, "Verdict: %s\n", verdict(track.Probe{Path: path, Rows: rows}, r, container))
}

// verdict names the bucket a probed file would land in, listing the causes of
// a multi-cause issue. Broken files take precedence over classification.
func verdict(p track.Probe, r rules.Rules, container bool) string {
	if p.Broken() {
		if container {
			return scan.BucketBrokenMKV
		}
		return scan.BucketBrokenVid
	}
	g := track.Group{Key: p.Rows[0].GroupKey(), Rows: p.Rows}
	if !classify.HasIssues(g, r) {
		if classify.HasNameMismatch(g) {
			return "name_mismatch"
		}
		return "ok"
	}
	causes := classify.Causes(g, r)
	if len(causes) < 2 {
		return string(classify.Bucket(g, r))
	}
	parts := make([]string, 0, len(causes))
	for _, c := range causes {
		parts = append(parts, string(c))
	}
	return string(classify.IssueMultiple) + " (" + strings.Join(parts, ", ") + ")"
}
