package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"trackscan/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
	pathSet bool
}

// NewConfig produces a config rooted in a fresh temp directory: one scan root
// at <base>/media, reports under <base>/reports, and the probe cache disabled.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.Roots = []string{filepath.Join(base, "media")}
	cfgVal.Paths.OutputDir = filepath.Join(base, "reports")
	cfgVal.Paths.CacheDir = filepath.Join(base, "cache")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Probe.Workers = 2
	cfgVal.Probe.CacheEnabled = false

	if err := os.MkdirAll(cfgVal.Paths.Roots[0], 0o755); err != nil {
		t.Fatalf("mkdir media root: %v", err)
	}

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithProbeCache enables the SQLite probe cache under the test cache dir.
func WithProbeCache() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Probe.CacheEnabled = true
	}
}

// WithBatchSize sets the report batch size.
func WithBatchSize(size int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Reports.BatchSize = size
	}
}

// WithStubbedBinaries writes stub executables for the provided names and
// prepends them to PATH. If names is empty, mkvmerge is stubbed.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{"mkvmerge"}
		}
		for _, name := range names {
			b.installStub(name, "#!/bin/sh\nexit 0\n")
		}
	}
}

// WithStubbedMkvmerge installs an mkvmerge stub that reports a version and
// answers every identification request with payload.
func WithStubbedMkvmerge(payload []byte) ConfigOption {
	return func(b *configBuilder) {
		script := "#!/bin/sh\n" +
			"if [ \"$1\" = \"--version\" ]; then\n" +
			"  echo 'mkvmerge v80.0 (stub)'\n" +
			"  exit 0\n" +
			"fi\n" +
			"cat <<'EOF'\n" + string(payload) + "\nEOF\n"
		b.installStub("mkvmerge", script)
	}
}

func (b *configBuilder) installStub(name, script string) {
	b.t.Helper()
	binDir := filepath.Join(b.baseDir, "bin")
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		b.t.Fatalf("mkdir bin dir: %v", err)
	}
	target := filepath.Join(binDir, name)
	if err := os.WriteFile(target, []byte(script), 0o755); err != nil {
		b.t.Fatalf("write stub %s: %v", name, err)
	}
	if b.pathSet {
		return
	}
	b.pathSet = true
	oldPath := os.Getenv("PATH")
	if err := os.Setenv("PATH", binDir+string(os.PathListSeparator)+oldPath); err != nil {
		b.t.Fatalf("set PATH: %v", err)
	}
	b.t.Cleanup(func() {
		_ = os.Setenv("PATH", oldPath)
	})
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.OutputDir)
}

// MediaRoot returns the first scan root of the generated config.
func MediaRoot(cfg *config.Config) string {
	return cfg.Paths.Roots[0]
}
