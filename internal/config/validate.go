package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateMedia(); err != nil {
		return err
	}
	if err := c.validateProbe(); err != nil {
		return err
	}
	if err := c.validateReports(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateMedia() error {
	if len(c.Media.ContainerExts) == 0 {
		return errors.New("media.container_exts must list at least one extension")
	}
	videos := make(map[string]struct{}, len(c.Media.ContainerExts)+len(c.Media.VideoExts))
	for _, ext := range c.Media.ContainerExts {
		videos[ext] = struct{}{}
	}
	for _, ext := range c.Media.VideoExts {
		videos[ext] = struct{}{}
	}
	for _, ext := range c.Media.SubtitleExts {
		if _, ok := videos[ext]; ok {
			return fmt.Errorf("media.subtitle_exts: %q is also configured as a video extension", ext)
		}
	}
	for _, pattern := range c.Media.IgnoreGlobs {
		if !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("media.ignore_globs: invalid pattern %q", pattern)
		}
	}
	return nil
}

func (c *Config) validateProbe() error {
	if c.Probe.TimeoutSeconds < 0 {
		return errors.New("probe.timeout_seconds must be zero or positive")
	}
	if c.Probe.Workers < 0 {
		return errors.New("probe.workers must be zero or positive")
	}
	return nil
}

func (c *Config) validateReports() error {
	if c.Reports.BatchSize < 0 {
		return errors.New("reports.batch_size must be zero or positive")
	}
	for key, dir := range c.Reports.Dirs {
		if strings.Contains(dir, "..") {
			return fmt.Errorf("reports.dirs.%s must stay inside the output directory", key)
		}
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
