package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains scan roots and output locations.
type Paths struct {
	Roots     []string `toml:"roots"`
	OutputDir string   `toml:"output_dir"`
	CacheDir  string   `toml:"cache_dir"`
	LogDir    string   `toml:"log_dir"`
}

// Media contains the extension sets that drive discovery and normalization.
type Media struct {
	ContainerExts        []string `toml:"container_exts"`
	VideoExts            []string `toml:"video_exts"`
	SubtitleExts         []string `toml:"subtitle_exts"`
	EmbeddedSubtitleExts []string `toml:"embedded_subtitle_exts"`
	IgnoreNames          []string `toml:"ignore_names"`
	IgnoreGlobs          []string `toml:"ignore_globs"`
}

// Probe contains settings for the mkvmerge probe adapter.
type Probe struct {
	Binary         string `toml:"binary"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	Workers        int    `toml:"workers"`
	CacheEnabled   bool   `toml:"cache_enabled"`
}

// Classification points at the per-section language rules file.
type Classification struct {
	Path string `toml:"path"`
}

// Reports contains CSV and summary output settings.
type Reports struct {
	BatchSize int               `toml:"batch_size"`
	Summary   bool              `toml:"summary"`
	NonHEVC   bool              `toml:"non_hevc"`
	DryRun    bool              `toml:"dry_run"`
	Dirs      map[string]string `toml:"dirs"`
}

// Tagging contains settings for writing filesystem tags.
type Tagging struct {
	Attribute string   `toml:"attribute"`
	Tags      []string `toml:"tags"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for trackscan.
//
// Configuration sections by subsystem:
//   - Paths: scan roots, report output, cache and log directories
//   - Media: extension sets and ignore rules for discovery
//   - Probe: mkvmerge binary, timeout, worker count, probe cache
//   - Classification: language allow-list rules file
//   - Reports: batching, summaries, per-category subdirectories
//   - Tagging: extended attribute written by the tag command
//   - Logging: log format and level
type Config struct {
	Paths          Paths          `toml:"paths"`
	Media          Media          `toml:"media"`
	Probe          Probe          `toml:"probe"`
	Classification Classification `toml:"classification"`
	Reports        Reports        `toml:"reports"`
	Tagging        Tagging        `toml:"tagging"`
	Logging        Logging        `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/trackscan/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("trackscan.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// ProbeWorkers returns the effective probe concurrency.
func (c *Config) ProbeWorkers() int {
	if c.Probe.Workers > 0 {
		return c.Probe.Workers
	}
	return runtime.NumCPU()
}

// ProbeTimeout returns the per-file probe timeout; zero disables it.
func (c *Config) ProbeTimeout() time.Duration {
	return time.Duration(c.Probe.TimeoutSeconds) * time.Second
}

// ProbeCachePath returns the SQLite probe cache location, or "" when disabled.
func (c *Config) ProbeCachePath() string {
	if !c.Probe.CacheEnabled || strings.TrimSpace(c.Paths.CacheDir) == "" {
		return ""
	}
	return filepath.Join(c.Paths.CacheDir, defaultProbeCacheFile)
}

// ReportDir returns the subdirectory configured for a report category.
// Unknown categories land in the output directory itself.
func (c *Config) ReportDir(category string) string {
	return strings.TrimSpace(c.Reports.Dirs[category])
}

// EnsureDirectories creates the output and cache directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.OutputDir, c.Paths.CacheDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

func defaultCacheDir() string {
	if base, ok := os.LookupEnv("XDG_CACHE_HOME"); ok && strings.TrimSpace(base) != "" {
		return filepath.Join(base, "trackscan")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "~/.cache/trackscan"
	}
	return filepath.Join(home, ".cache", "trackscan")
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
