package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeMedia()
	c.normalizeProbe()
	c.normalizeReports()
	c.normalizeTagging()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	roots := make([]string, 0, len(c.Paths.Roots))
	for i, root := range c.Paths.Roots {
		if strings.TrimSpace(root) == "" {
			continue
		}
		expanded, err := expandPath(strings.TrimSpace(root))
		if err != nil {
			return fmt.Errorf("paths.roots[%d]: %w", i, err)
		}
		roots = append(roots, expanded)
	}
	c.Paths.Roots = roots

	var err error
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		c.Paths.OutputDir = defaultOutputDir
	}
	if c.Paths.OutputDir, err = expandPath(strings.TrimSpace(c.Paths.OutputDir)); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.CacheDir) == "" {
		c.Paths.CacheDir = defaultCacheDir()
	}
	if c.Paths.CacheDir, err = expandPath(strings.TrimSpace(c.Paths.CacheDir)); err != nil {
		return fmt.Errorf("paths.cache_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeMedia() {
	c.Media.ContainerExts = NormalizeExtensions(c.Media.ContainerExts)
	c.Media.VideoExts = NormalizeExtensions(c.Media.VideoExts)
	c.Media.SubtitleExts = NormalizeExtensions(c.Media.SubtitleExts)
	c.Media.EmbeddedSubtitleExts = NormalizeExtensions(c.Media.EmbeddedSubtitleExts)
	c.Media.IgnoreNames = trimList(c.Media.IgnoreNames)
	c.Media.IgnoreGlobs = trimList(c.Media.IgnoreGlobs)
}

func (c *Config) normalizeProbe() {
	c.Probe.Binary = strings.TrimSpace(c.Probe.Binary)
	if c.Probe.Binary == "" {
		c.Probe.Binary = defaultProbeBinary
	}
}

func (c *Config) normalizeReports() {
	dirs := defaultReportDirs()
	for key, value := range c.Reports.Dirs {
		key = strings.ToLower(strings.TrimSpace(key))
		if key == "" {
			continue
		}
		dirs[key] = strings.Trim(strings.TrimSpace(value), "/")
	}
	c.Reports.Dirs = dirs
}

func (c *Config) normalizeTagging() {
	c.Tagging.Attribute = strings.TrimSpace(c.Tagging.Attribute)
	if c.Tagging.Attribute == "" {
		c.Tagging.Attribute = defaultTagAttribute
	}
	c.Tagging.Tags = trimList(c.Tagging.Tags)
}

func (c *Config) normalizeLogging() {
	format := strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if format == "" {
		format = defaultLogFormat
	}
	c.Logging.Format = format

	level := strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if level == "" {
		level = defaultLogLevel
	}
	c.Logging.Level = level
}

// NormalizeExtensions lower-cases extensions, adds the leading dot, and drops
// blanks and duplicates while preserving order.
func NormalizeExtensions(exts []string) []string {
	seen := make(map[string]struct{}, len(exts))
	out := make([]string, 0, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" || ext == "." {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		if _, ok := seen[ext]; ok {
			continue
		}
		seen[ext] = struct{}{}
		out = append(out, ext)
	}
	return out
}

func trimList(values []string) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
