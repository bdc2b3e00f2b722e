package report

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"trackscan/internal/logging"
)

const timestampLayout = "2006-01-02_150405"

// Written describes one report produced (or planned, in dry-run) by a Writer.
type Written struct {
	Name  string
	Path  string
	Rows  int
	Files int
}

// Options configure a Writer.
type Options struct {
	OutputDir string
	BatchSize int
	DryRun    bool
	Now       func() time.Time
	Logger    *slog.Logger
}

// Writer emits CSV reports under one output directory. All reports of a
// writer share the timestamp taken when it was created.
type Writer struct {
	dir       string
	batchSize int
	dryRun    bool
	stamp     string
	logger    *slog.Logger
	claimed   map[string]struct{}
	written   []Written
}

// NewWriter builds a writer.
func NewWriter(opts Options) *Writer {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	batch := opts.BatchSize
	if batch < 0 {
		batch = 0
	}
	return &Writer{
		dir:       opts.OutputDir,
		batchSize: batch,
		dryRun:    opts.DryRun,
		stamp:     now().Format(timestampLayout),
		logger:    logging.NewComponentLogger(logger, "report"),
		claimed:   make(map[string]struct{}),
	}
}

// Stamp returns the timestamp embedded in every file name.
func (w *Writer) Stamp() string { return w.stamp }

// DryRun reports whether the writer only plans paths.
func (w *Writer) DryRun() bool { return w.dryRun }

// Written returns every report produced so far, in write order.
func (w *Writer) Written() []Written {
	return append([]Written(nil), w.written...)
}

// Write persists groups as CSV under subdir and returns the produced paths.
// Nothing is written for an empty bucket.
func (w *Writer) Write(name, subdir string, groups [][]Record, cols []Column) ([]string, error) {
	if len(groups) == 0 {
		return nil, nil
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("report %s: no columns", name)
	}
	dir := filepath.Join(w.dir, subdir)
	chunks := chunk(groups, w.batchSize)
	base, err := w.reserveBase(dir, name, ".csv", "_part01.csv")
	if err != nil {
		return nil, err
	}

	paths := make([]string, 0, len(chunks))
	for i, part := range chunks {
		path := base + ".csv"
		if len(chunks) > 1 {
			path = fmt.Sprintf("%s_part%02d.csv", base, i+1)
		}
		rows := countRecords(part)
		if w.dryRun {
			w.logger.Info("dry run: report not written",
				logging.String("report", name),
				logging.String("path", path),
				logging.Int("rows", rows),
			)
		} else if err := writeCSV(path, part, cols); err != nil {
			return paths, fmt.Errorf("write report %s: %w", name, err)
		} else {
			w.logger.Debug("report written",
				logging.String("report", name),
				logging.String("path", path),
				logging.Int("rows", rows),
			)
		}
		w.written = append(w.written, Written{Name: name, Path: path, Rows: rows, Files: len(part)})
		paths = append(paths, path)
	}
	return paths, nil
}

// reserveBase picks the first "<name>_<stamp>[-N]" base for which no
// base+suffix collides with a file on disk or a path already produced by this
// writer, and claims every suffixed path.
func (w *Writer) reserveBase(dir, name string, suffixes ...string) (string, error) {
	stem := filepath.Join(dir, fmt.Sprintf("%s_%s", name, w.stamp))
	for n := 1; n < 10000; n++ {
		base := stem
		if n > 1 {
			base = stem + "-" + strconv.Itoa(n)
		}
		free, err := w.free(base, suffixes)
		if err != nil {
			return "", err
		}
		if !free {
			continue
		}
		for _, suffix := range suffixes {
			w.claimed[base+suffix] = struct{}{}
		}
		return base, nil
	}
	return "", fmt.Errorf("report %s: no free file name under %s", name, dir)
}

func (w *Writer) free(base string, suffixes []string) (bool, error) {
	for _, suffix := range suffixes {
		candidate := base + suffix
		if _, ok := w.claimed[candidate]; ok {
			return false, nil
		}
		exists, err := fileExists(candidate)
		if err != nil {
			return false, err
		}
		if exists {
			return false, nil
		}
	}
	return true, nil
}

func fileExists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("stat %s: %w", path, err)
}

// chunk splits groups into batches of at most size records without breaking a
// group. A group larger than size forms its own batch.
func chunk(groups [][]Record, size int) [][][]Record {
	if size <= 0 {
		return [][][]Record{groups}
	}
	var (
		out     [][][]Record
		current [][]Record
		count   int
	)
	for _, g := range groups {
		if count > 0 && count+len(g) > size {
			out = append(out, current)
			current, count = nil, 0
		}
		current = append(current, g)
		count += len(g)
	}
	if len(current) > 0 {
		out = append(out, current)
	}
	return out
}

func countRecords(groups [][]Record) int {
	n := 0
	for _, g := range groups {
		n += len(g)
	}
	return n
}

func writeCSV(path string, groups [][]Record, cols []Column) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := file.Close(); err == nil {
			err = closeErr
		}
	}()

	writer := csv.NewWriter(file)
	header := make([]string, len(cols))
	for i, col := range cols {
		header[i] = col.Header
	}
	if err := writer.Write(header); err != nil {
		return err
	}
	record := make([]string, len(cols))
	for _, g := range groups {
		for _, r := range g {
			for i, col := range cols {
				record[i] = r.Field(col.Key)
			}
			if err := writer.Write(record); err != nil {
				return err
			}
		}
	}
	writer.Flush()
	return writer.Error()
}
