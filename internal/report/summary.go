package report

import (
	"fmt"
	"html"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"trackscan/internal/logging"
)

// FileEntry records where one scanned file ended up.
type FileEntry struct {
	Path   string
	Bucket string
	Dir    string
}

// Total counts the file groups and rows that landed in one bucket.
type Total struct {
	Bucket string
	Files  int
	Rows   int
	// View marks a bucket that repeats files already counted in a terminal
	// bucket, such as non_hevc.
	View bool
}

// Label is the bucket name, suffixed for views.
func (t Total) Label() string {
	if t.View {
		return t.Bucket + " (view)"
	}
	return t.Bucket
}

// terminalSums adds up files and rows over terminal buckets only.
func terminalSums(totals []Total) (files, rows int) {
	for _, t := range totals {
		if t.View {
			continue
		}
		files += t.Files
		rows += t.Rows
	}
	return files, rows
}

// Summary is the end-of-run overview.
type Summary struct {
	RunID     string
	Started   time.Time
	Elapsed   time.Duration
	Roots     []string
	OutputDir string
	DryRun    bool
	Totals    []Total
	Files     []FileEntry
	Reports   []Written
}

func (s Summary) overview() [][]string {
	mode := "write"
	if s.DryRun {
		mode = "dry run"
	}
	return [][]string{
		{"Run", s.RunID},
		{"Started", s.Started.Format(time.RFC3339)},
		{"Elapsed", s.Elapsed.Round(time.Millisecond).String()},
		{"Roots", strings.Join(s.Roots, ", ")},
		{"Output", s.OutputDir},
		{"Mode", mode},
		{"Files", strconv.Itoa(len(s.Files))},
	}
}

func (s Summary) tables() []table.Writer {
	overview := newTable("Run")
	for _, row := range s.overview() {
		overview.AppendRow(table.Row{row[0], row[1]})
	}

	totals := newTable("Buckets")
	totals.AppendHeader(table.Row{"Bucket", "Files", "Rows"})
	for _, t := range sortedTotals(s.Totals) {
		totals.AppendRow(table.Row{t.Label(), t.Files, t.Rows})
	}
	files, rows := terminalSums(s.Totals)
	totals.AppendFooter(table.Row{"Total", files, rows})
	alignNumbers(totals, 2, 3)

	scanned := newTable("Files")
	scanned.AppendHeader(table.Row{"File", "Bucket", "Directory"})
	entries := append([]FileEntry(nil), s.Files...)
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })
	for _, e := range entries {
		dir := e.Dir
		if dir == "" {
			dir = "."
		}
		scanned.AppendRow(table.Row{e.Path, e.Bucket, dir})
	}

	reports := newTable("Reports")
	reports.AppendHeader(table.Row{"Report", "Path", "Files", "Rows"})
	for _, w := range s.Reports {
		reports.AppendRow(table.Row{w.Name, w.Path, w.Files, w.Rows})
	}
	alignNumbers(reports, 3, 4)

	return []table.Writer{overview, totals, scanned, reports}
}

func newTable(title string) table.Writer {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.SetTitle(title)
	return tw
}

func alignNumbers(tw table.Writer, columns ...int) {
	configs := make([]table.ColumnConfig, 0, len(columns))
	for _, n := range columns {
		configs = append(configs, table.ColumnConfig{Number: n, Align: text.AlignRight, AlignFooter: text.AlignRight})
	}
	tw.SetColumnConfigs(configs)
}

func sortedTotals(totals []Total) []Total {
	out := append([]Total(nil), totals...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Bucket < out[j].Bucket })
	return out
}

// RenderText renders the summary as plain-text tables.
func RenderText(s Summary) string {
	parts := make([]string, 0, 4)
	for _, tw := range s.tables() {
		parts = append(parts, tw.Render())
	}
	return strings.Join(parts, "\n\n") + "\n"
}

// RenderHTML renders the summary as a standalone HTML page.
func RenderHTML(s Summary) string {
	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&b, "<title>trackscan %s</title>\n", html.EscapeString(s.RunID))
	b.WriteString("<style>table{border-collapse:collapse;margin-bottom:1.5em}td,th{border:1px solid #999;padding:2px 6px;text-align:left}</style>\n")
	b.WriteString("</head>\n<body>\n")
	for _, tw := range s.tables() {
		b.WriteString(tw.RenderHTML())
		b.WriteString("\n")
	}
	b.WriteString("</body>\n</html>\n")
	return b.String()
}

// WriteSummary writes the text and HTML summaries under subdir and returns
// their paths. Dry-run writers only log.
func (w *Writer) WriteSummary(subdir string, s Summary) ([]string, error) {
	dir := filepath.Join(w.dir, subdir)
	base, err := w.reserveBase(dir, "summary", ".txt", ".html")
	if err != nil {
		return nil, err
	}
	outputs := []struct {
		path    string
		content string
	}{
		{base + ".txt", RenderText(s)},
		{base + ".html", RenderHTML(s)},
	}
	paths := make([]string, 0, len(outputs))
	for _, out := range outputs {
		paths = append(paths, out.path)
		if w.dryRun {
			w.logger.Info("dry run: summary not written", logging.String("path", out.path))
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return paths, fmt.Errorf("create summary directory: %w", err)
		}
		if err := os.WriteFile(out.path, []byte(out.content), 0o644); err != nil {
			return paths, fmt.Errorf("write summary: %w", err)
		}
	}
	return paths, nil
}
