// Package tagger writes filesystem tags onto the files listed in report CSVs.
package tagger

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"trackscan/internal/fstags"
	"trackscan/internal/logging"
)

const timestampLayout = "2006_01_02-15_04"

// PathColumns are the CSV columns consulted for a target path, in priority
// order.
var PathColumns = []string{"output_path", "input_path", "path", "file"}

// TagStore writes tag attributes. The default store uses extended attributes.
type TagStore interface {
	Clear(path, key string) error
	Write(path, key, value string) error
}

type xattrStore struct{}

func (xattrStore) Clear(path, key string) error { return fstags.Clear(path, key) }
func (xattrStore) Write(path, key, value string) error { return fstags.Write(path, key, value) }

// Options configure a tagging run.
type Options struct {
	Dir       string
	Attribute string
	Tags      []string
	DryRun    bool
	Store     TagStore
	Now       func() time.Time
	Logger    *slog.Logger
}

// Stats counts the outcome of a tagging run.
type Stats struct {
	CSVs    int
	Tagged  int
	Skipped int
	Missing int
}

// Run tags every existing file referenced by the CSVs in opts.Dir with
// "<timestamp>,<tags...>", replacing any previous value of the attribute.
func Run(opts Options) (Stats, error) {
	var stats Stats
	logger := logging.NewComponentLogger(orNop(opts.Logger), "tagger")
	store := opts.Store
	if store == nil {
		store = xattrStore{}
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	attribute := strings.TrimSpace(opts.Attribute)
	if attribute == "" {
		return stats, errors.New("tag attribute required")
	}

	info, err := os.Stat(opts.Dir)
	if err != nil {
		return stats, fmt.Errorf("csv directory: %w", err)
	}
	if !info.IsDir() {
		return stats, fmt.Errorf("csv directory: %s is not a directory", opts.Dir)
	}
	csvs, err := filepath.Glob(filepath.Join(opts.Dir, "*.csv"))
	if err != nil {
		return stats, err
	}
	sort.Strings(csvs)

	values := []string{now().Format(timestampLayout)}
	for _, tag := range opts.Tags {
		if tag = strings.TrimSpace(tag); tag != "" {
			values = append(values, tag)
		}
	}
	value := strings.Join(values, ",")

	done := make(map[string]struct{})
	for _, csvPath := range csvs {
		stats.CSVs++
		targets, err := targetsFrom(csvPath)
		if err != nil {
			return stats, err
		}
		if len(targets) == 0 {
			logger.Info("no paths in csv", logging.String("csv", csvPath))
			continue
		}
		for _, target := range targets {
			if _, ok := done[target]; ok {
				continue
			}
			done[target] = struct{}{}

			if _, err := os.Stat(target); errors.Is(err, fs.ErrNotExist) {
				logging.WarnWithContext(logger, "file listed in csv is missing", "tag_target_missing",
					logging.String("path", target),
					logging.String("csv", csvPath),
					logging.String(logging.FieldImpact, "file not tagged"),
				)
				stats.Missing++
				continue
			}
			if opts.DryRun {
				logger.Info("dry run: tag not written",
					logging.String("path", target),
					logging.String("attribute", attribute),
					logging.String("value", value),
				)
				stats.Skipped++
				continue
			}
			if err := apply(store, target, attribute, value); err != nil {
				logging.WarnWithContext(logger, "failed to tag file", "tag_write_failed",
					logging.String("path", target),
					logging.Error(err),
					logging.String(logging.FieldErrorHint, "check that the filesystem supports user extended attributes"),
					logging.String(logging.FieldImpact, "file not tagged"),
				)
				stats.Skipped++
				continue
			}
			stats.Tagged++
		}
	}
	logger.Info("tagging complete",
		logging.Int("csvs", stats.CSVs),
		logging.Int("tagged", stats.Tagged),
		logging.Int("skipped", stats.Skipped),
		logging.Int("missing", stats.Missing),
	)
	return stats, nil
}

func apply(store TagStore, path, attribute, value string) error {
	if err := store.Clear(path, attribute); err != nil {
		return err
	}
	return store.Write(path, attribute, value)
}

// targetsFrom reads the target path of every row in a CSV report.
func targetsFrom(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read csv %s: %w", path, err)
	}
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.ToLower(strings.TrimSpace(name))] = i
	}

	var targets []string
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv %s: %w", path, err)
		}
		for _, column := range PathColumns {
			i, ok := index[column]
			if !ok || i >= len(record) {
				continue
			}
			if value := strings.TrimSpace(record[i]); value != "" {
				targets = append(targets, value)
				break
			}
		}
	}
	return targets, nil
}

func orNop(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return logging.NewNop()
	}
	return logger
}
