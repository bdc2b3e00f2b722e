package discover

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"trackscan/internal/logging"
)

// Options controls a walk.
type Options struct {
	Roots         []string
	OutputDir     string
	ContainerExts []string
	VideoExts     []string
	SubtitleExts  []string
	IgnoreNames   []string
	IgnoreGlobs   []string
}

// Skipped is a file with an unsupported extension.
type Skipped struct {
	Path     string
	Filename string
	Reason   string
}

// Field returns the value of a report column.
func (s Skipped) Field(key string) string {
	switch key {
	case "path":
		return s.Path
	case "filename":
		return s.Filename
	case "skipped_reason":
		return s.Reason
	default:
		return ""
	}
}

// Inventory is the classified result of a walk.
type Inventory struct {
	Containers []string
	Videos     []string
	Subtitles  []string
	Skipped    []Skipped
}

// Total returns the number of files discovered, skipped ones included.
func (inv Inventory) Total() int {
	return len(inv.Containers) + len(inv.Videos) + len(inv.Subtitles) + len(inv.Skipped)
}

type kind int

const (
	kindSkipped kind = iota
	kindContainer
	kindVideo
	kindSubtitle
)

type walker struct {
	opts    Options
	exts    map[string]kind
	ignored map[string]struct{}
	seen    map[string]struct{}
	inv     Inventory
	logger  *slog.Logger
}

// Walk discovers files under every root. A missing root is logged and skipped;
// unreadable subdirectories are logged and pruned.
func Walk(opts Options, logger *slog.Logger) (Inventory, error) {
	w := &walker{
		opts:    opts,
		exts:    make(map[string]kind),
		ignored: make(map[string]struct{}, len(opts.IgnoreNames)),
		seen:    make(map[string]struct{}),
		logger:  logging.NewComponentLogger(logger, "discover"),
	}
	// Later sets never override earlier ones: container beats video beats subtitle.
	for _, set := range []struct {
		exts []string
		kind kind
	}{
		{opts.ContainerExts, kindContainer},
		{opts.VideoExts, kindVideo},
		{opts.SubtitleExts, kindSubtitle},
	} {
		for _, ext := range set.exts {
			ext = strings.ToLower(ext)
			if _, exists := w.exts[ext]; !exists {
				w.exts[ext] = set.kind
			}
		}
	}
	for _, name := range opts.IgnoreNames {
		w.ignored[name] = struct{}{}
	}
	for _, pattern := range opts.IgnoreGlobs {
		if !doublestar.ValidatePattern(pattern) {
			return Inventory{}, fmt.Errorf("discover: invalid ignore pattern %q", pattern)
		}
	}

	outputDir := cleanAbs(opts.OutputDir)
	for _, root := range opts.Roots {
		if err := w.walkRoot(cleanAbs(root), outputDir); err != nil {
			return Inventory{}, err
		}
	}

	sort.Strings(w.inv.Containers)
	sort.Strings(w.inv.Videos)
	sort.Strings(w.inv.Subtitles)
	sort.Slice(w.inv.Skipped, func(i, j int) bool { return w.inv.Skipped[i].Path < w.inv.Skipped[j].Path })
	return w.inv, nil
}

func (w *walker) walkRoot(root, outputDir string) error {
	info, err := os.Stat(root)
	if err != nil {
		logging.WarnWithContext(w.logger, "scan root unavailable", "root_unavailable",
			logging.String("root", root),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the path and mount"),
			logging.String(logging.FieldImpact, "root skipped"),
		)
		return nil
	}
	if !info.IsDir() {
		w.classify(root, filepath.Base(root))
		return nil
	}

	pruneOutput := outputDir != "" && outputDir != root
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			logging.WarnWithContext(w.logger, "unreadable path skipped", "walk_error",
				logging.String("path", path),
				logging.Error(walkErr),
				logging.String(logging.FieldImpact, "subtree not scanned"),
			)
			if d == nil || d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if path == root {
			return nil
		}
		if d.IsDir() {
			if pruneOutput && path == outputDir {
				w.logger.Debug("output directory pruned", logging.String("path", path))
				return filepath.SkipDir
			}
			if w.isIgnored(root, path, d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if w.isIgnored(root, path, d.Name()) {
			return nil
		}
		if d.Type()&fs.ModeSymlink != 0 {
			if info, err := os.Stat(path); err == nil && info.IsDir() {
				return nil
			}
		} else if !d.Type().IsRegular() {
			return nil
		}
		w.classify(path, d.Name())
		return nil
	})
}

func (w *walker) isIgnored(root, path, name string) bool {
	if _, ok := w.ignored[name]; ok {
		return true
	}
	if len(w.opts.IgnoreGlobs) == 0 {
		return false
	}
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	for _, pattern := range w.opts.IgnoreGlobs {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}

func (w *walker) classify(path, name string) {
	if _, dup := w.seen[path]; dup {
		return
	}
	w.seen[path] = struct{}{}

	ext := strings.ToLower(filepath.Ext(name))
	switch w.exts[ext] {
	case kindContainer:
		w.inv.Containers = append(w.inv.Containers, path)
	case kindVideo:
		w.inv.Videos = append(w.inv.Videos, path)
	case kindSubtitle:
		w.inv.Subtitles = append(w.inv.Subtitles, path)
	default:
		w.inv.Skipped = append(w.inv.Skipped, Skipped{Path: path, Filename: name, Reason: SkipReason(ext)})
	}
}

// SkipReason formats the reason recorded for an unsupported extension.
func SkipReason(ext string) string {
	if ext == "" {
		ext = "none"
	}
	return fmt.Sprintf("unsupported extension (%s)", ext)
}

func cleanAbs(path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return ""
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	return abs
}

// ErrNoRoots reports a scan with no roots to walk.
var ErrNoRoots = errors.New("no scan roots configured")
