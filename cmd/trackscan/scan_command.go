package main

import (
	"fmt"
	"io"
	"log/slog"
	"os/signal"
	"sort"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"trackscan/internal/config"
	"trackscan/internal/deps"
	"trackscan/internal/discover"
	"trackscan/internal/logging"
	"trackscan/internal/media/mkvmerge"
	"trackscan/internal/preflight"
	"trackscan/internal/probecache"
	"trackscan/internal/report"
	"trackscan/internal/rules"
	"trackscan/internal/scan"
)

type scanFlags struct {
	outputDir string
	dryRun    bool
	batchSize int
	noReports bool
	workers   int
}

func newScanCommand(ctx *commandContext) *cobra.Command {
	var flags scanFlags

	cmd := &cobra.Command{
		Use:   "scan [roots...]",
		Short: "Probe, classify, and bucket every media file under the roots",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(cmd, ctx, scan.ModeFull, args, flags)
		},
	}

	cmd.Flags().StringVar(&flags.outputDir, "output-dir", "", "Directory that receives the reports")
	cmd.Flags().BoolVar(&flags.dryRun, "dry-run", false, "Plan report paths without writing anything")
	cmd.Flags().IntVar(&flags.batchSize, "batch-size", -1, "Maximum rows per CSV part (0 disables chunking)")
	cmd.Flags().BoolVar(&flags.noReports, "no-reports", false, "Print the bucket totals only")
	cmd.Flags().IntVar(&flags.workers, "workers", 0, "Concurrent probes (default: configured value)")
	return cmd
}

func newHEVCCommand(ctx *commandContext) *cobra.Command {
	var flags scanFlags

	cmd := &cobra.Command{
		Use:   "hevc [roots...]",
		Short: "List video tracks that are not HEVC",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(cmd, ctx, scan.ModeHEVC, args, flags)
		},
	}

	cmd.Flags().StringVar(&flags.outputDir, "output-dir", "", "Directory that receives the report")
	cmd.Flags().BoolVar(&flags.dryRun, "dry-run", false, "Plan report paths without writing anything")
	cmd.Flags().IntVar(&flags.batchSize, "batch-size", -1, "Maximum rows per CSV part (0 disables chunking)")
	return cmd
}

func runScan(cmd *cobra.Command, ctx *commandContext, mode scan.Mode, roots []string, flags scanFlags) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	if err := applyScanFlags(cfg, roots, flags); err != nil {
		return err
	}
	logger, err := ctx.ensureLogger()
	if err != nil {
		return err
	}

	set, err := rules.Load(cfg.Classification.Path)
	if err != nil {
		return err
	}
	if !cfg.Reports.DryRun {
		if err := cfg.EnsureDirectories(); err != nil {
			return err
		}
	}
	if failed := preflight.Failed(preflight.RunAll(cfg)); len(failed) > 0 {
		return preflightError(failed)
	}

	runCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if missing := deps.Missing(preflight.CheckSystemDeps(runCtx, cfg)); len(missing) > 0 {
		return fmt.Errorf("missing dependency: %s", missing[0].Detail)
	}

	if !cfg.Reports.DryRun {
		lock, err := report.AcquireLock(cfg.Paths.OutputDir)
		if err != nil {
			return err
		}
		defer func() {
			if err := lock.Release(); err != nil {
				logging.WarnWithContext(logger, "release output lock failed", "lock_release_failed",
					logging.String("path", lock.Path()),
					logging.Error(err),
				)
			}
		}()
	}

	client, err := mkvmerge.New(cfg.Probe.Binary, cfg.ProbeTimeout())
	if err != nil {
		return err
	}
	opts := []scan.Option{scan.WithLogger(logger)}
	if path := cfg.ProbeCachePath(); path != "" && !cfg.Reports.DryRun {
		cache, err := probecache.Open(runCtx, path, logger)
		if err != nil {
			logging.WarnWithContext(logger, "probe cache unavailable", "probe_cache_open_failed",
				logging.String("path", path),
				logging.Error(err),
				logging.String(logging.FieldImpact, "every file will be probed"),
			)
		} else {
			defer cache.Close()
			opts = append(opts, scan.WithCache(cache))
		}
	}

	scanner, err := scan.New(cfg, set, client, opts...)
	if err != nil {
		return err
	}
	result, err := scanner.Run(runCtx, mode)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if flags.noReports && mode == scan.ModeFull {
		fmt.Fprintln(out, renderTotals(result.Totals()))
		return nil
	}

	written, err := writeReports(cfg, result, mode, logger)
	if err != nil {
		return err
	}
	printRunSummary(out, result, mode, written)
	return nil
}

func applyScanFlags(cfg *config.Config, roots []string, flags scanFlags) error {
	if len(roots) > 0 {
		expanded := make([]string, 0, len(roots))
		for _, root := range roots {
			path, err := config.ExpandPath(strings.TrimSpace(root))
			if err != nil {
				return fmt.Errorf("resolve root %q: %w", root, err)
			}
			expanded = append(expanded, path)
		}
		cfg.Paths.Roots = expanded
	}
	if len(cfg.Paths.Roots) == 0 {
		return fmt.Errorf("%w: pass directories as arguments or set paths.roots", discover.ErrNoRoots)
	}
	if dir := strings.TrimSpace(flags.outputDir); dir != "" {
		path, err := config.ExpandPath(dir)
		if err != nil {
			return fmt.Errorf("resolve output directory: %w", err)
		}
		cfg.Paths.OutputDir = path
	}
	if flags.dryRun {
		cfg.Reports.DryRun = true
	}
	if cfg.Reports.DryRun {
		cfg.Paths.LogDir = ""
	}
	if flags.batchSize >= 0 {
		cfg.Reports.BatchSize = flags.batchSize
	}
	if flags.workers > 0 {
		cfg.Probe.Workers = flags.workers
	}
	return nil
}

func preflightError(failed []preflight.Result) error {
	parts := make([]string, 0, len(failed))
	for _, r := range failed {
		parts = append(parts, fmt.Sprintf("%s: %s", r.Name, r.Detail))
	}
	return fmt.Errorf("preflight failed: %s", strings.Join(parts, "; "))
}

type runReports struct {
	dryRun  bool
	reports []report.Written
	summary []string
}

// writeReports emits one CSV set per non-empty bucket and, for full scans,
// the run summary.
func writeReports(cfg *config.Config, result *scan.Result, mode scan.Mode, logger *slog.Logger) (runReports, error) {
	writer := report.NewWriter(report.Options{
		OutputDir: cfg.Paths.OutputDir,
		BatchSize: cfg.Reports.BatchSize,
		DryRun:    cfg.Reports.DryRun,
		Logger:    logger,
	})

	out := runReports{dryRun: writer.DryRun()}
	categories := make(map[string]string)
	for _, b := range result.Buckets() {
		categories[b.Name] = b.Category
		if !wantBucket(cfg, mode, b) {
			continue
		}
		if _, err := writer.Write(b.Name, cfg.ReportDir(b.Category), b.Groups, b.Columns); err != nil {
			return out, err
		}
	}
	out.reports = writer.Written()

	if mode != scan.ModeFull || !cfg.Reports.Summary {
		return out, nil
	}

	placement := result.Placement()
	files := make([]report.FileEntry, 0, len(placement))
	for path, bucket := range placement {
		files = append(files, report.FileEntry{
			Path:   path,
			Bucket: bucket,
			Dir:    cfg.ReportDir(categories[bucket]),
		})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })

	paths, err := writer.WriteSummary(cfg.ReportDir(config.CategorySummary), report.Summary{
		RunID:     result.RunID,
		Started:   result.Started,
		Elapsed:   result.Elapsed,
		Roots:     result.Roots,
		OutputDir: cfg.Paths.OutputDir,
		DryRun:    writer.DryRun(),
		Totals:    result.Totals(),
		Files:     files,
		Reports:   out.reports,
	})
	if err != nil {
		return out, err
	}
	out.summary = paths
	return out, nil
}

func wantBucket(cfg *config.Config, mode scan.Mode, b scan.Bucket) bool {
	if b.Files() == 0 {
		return false
	}
	if b.Name == scan.BucketNonHEVC {
		return mode == scan.ModeHEVC || cfg.Reports.NonHEVC
	}
	return mode == scan.ModeFull
}

func renderTotals(totals []report.Total) string {
	if len(totals) == 0 {
		return "No media files found"
	}
	rows := make([][]string, 0, len(totals))
	for _, t := range totals {
		rows = append(rows, []string{t.Label(), strconv.Itoa(t.Files), strconv.Itoa(t.Rows)})
	}
	return renderTable([]string{"Bucket", "Files", "Rows"}, rows, []columnAlignment{alignLeft, alignRight, alignRight})
}

func printRunSummary(out io.Writer, result *scan.Result, mode scan.Mode, written runReports) {
	if mode == scan.ModeFull {
		fmt.Fprintln(out, renderTotals(result.Totals()))
	} else {
		fmt.Fprintf(out, "Non-HEVC tracks: %d\n", len(result.NonHEVC))
	}
	if len(written.reports) == 0 && len(written.summary) == 0 {
		fmt.Fprintln(out, "No reports written")
		return
	}
	if written.dryRun {
		fmt.Fprintln(out, "Dry run: planned paths only, nothing was written")
	}
	rows := make([][]string, 0, len(written.reports)+len(written.summary))
	for _, w := range written.reports {
		rows = append(rows, []string{w.Name, strconv.Itoa(w.Rows), w.Path})
	}
	for _, path := range written.summary {
		rows = append(rows, []string{"summary", "", path})
	}
	fmt.Fprintln(out, renderTable([]string{"Report", "Rows", "Path"}, rows, []columnAlignment{alignLeft, alignRight, alignLeft}))
}
