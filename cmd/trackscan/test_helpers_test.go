package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"trackscan/internal/config"
	"trackscan/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	baseDir    string
	mediaRoot  string
}

// setupCLITestEnv writes a config file for a temp tree whose mkvmerge stub
// answers every probe with payload.
func setupCLITestEnv(t *testing.T, payload []byte) *cliTestEnv {
	t.Helper()

	cfg := testsupport.NewConfig(t, testsupport.WithStubbedMkvmerge(payload))
	base := testsupport.BaseDir(cfg)
	t.Setenv("HOME", filepath.Join(base, "home"))

	configPath := filepath.Join(base, "config.toml")
	writeTestConfig(t, configPath, cfg)

	return &cliTestEnv{
		cfg:        cfg,
		configPath: configPath,
		baseDir:    base,
		mediaRoot:  testsupport.MediaRoot(cfg),
	}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	roots := make([]string, 0, len(cfg.Paths.Roots))
	for _, root := range cfg.Paths.Roots {
		roots = append(roots, fmt.Sprintf("%q", root))
	}
	content := fmt.Sprintf(
		"[paths]\nroots = [%s]\noutput_dir = %q\ncache_dir = %q\nlog_dir = %q\n\n"+
			"[probe]\nworkers = %d\ncache_enabled = %t\n\n"+
			"[logging]\nlevel = \"error\"\n",
		strings.Join(roots, ", "),
		cfg.Paths.OutputDir,
		cfg.Paths.CacheDir,
		cfg.Paths.LogDir,
		cfg.Probe.Workers,
		cfg.Probe.CacheEnabled,
	)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

func globOne(t *testing.T, pattern string) string {
	t.Helper()
	matches, err := filepath.Glob(pattern)
	if err != nil {
		t.Fatalf("glob %s: %v", pattern, err)
	}
	if len(matches) != 1 {
		t.Fatalf("expected one match for %s, got %v", pattern, matches)
	}
	return matches[0]
}
